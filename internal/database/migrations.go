package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"

	"apptime/internal/infrastructure/logging"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// schemaFS holds the migration files at its root
var schemaFS = func() fs.FS {
	sub, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}()

// MigrationRunner applies the embedded schema through a goose provider.
// Each runner owns its provider, so runners on different databases never
// share state.
type MigrationRunner struct {
	db       *sql.DB
	provider *goose.Provider
	initErr  error
	logger   logging.Logger
}

var _ MigrationManager = (*MigrationRunner)(nil)

// NewMigrationRunner creates a runner for db. A nil db yields a runner that
// can only validate the embedded files.
func NewMigrationRunner(db *sql.DB, logger logging.Logger) *MigrationRunner {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	mr := &MigrationRunner{db: db, logger: logger}
	if db == nil {
		mr.initErr = fmt.Errorf("database connection is nil")
		return mr
	}
	mr.provider, mr.initErr = goose.NewProvider(goose.DialectSQLite3, db, schemaFS)
	return mr
}

// RunMigrations applies every pending version and logs each one
func (mr *MigrationRunner) RunMigrations(ctx context.Context) error {
	if mr.initErr != nil {
		return fmt.Errorf("migration provider unavailable: %w", mr.initErr)
	}

	results, err := mr.provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		mr.logger.Info("Applied schema migration",
			"version", r.Source.Version,
			"file", r.Source.Path,
			"duration", r.Duration.String())
	}
	return nil
}

// GetCurrentVersion returns the highest applied version
func (mr *MigrationRunner) GetCurrentVersion(ctx context.Context) (int64, error) {
	if mr.initErr != nil {
		return 0, fmt.Errorf("migration provider unavailable: %w", mr.initErr)
	}

	version, err := mr.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// ValidateMigrations checks that the embedded files carry distinct, numbered
// versions. It needs no database.
func (mr *MigrationRunner) ValidateMigrations() error {
	versions, err := embeddedVersions()
	if err != nil {
		return err
	}
	mr.logger.Debug("Found embedded migrations", "count", len(versions), "latest", versions[len(versions)-1])
	return nil
}

// embeddedVersions returns the sorted versions of the embedded files
func embeddedVersions() ([]int64, error) {
	names, err := fs.Glob(schemaFS, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no migrations found in embedded filesystem")
	}

	versions := make([]int64, 0, len(names))
	for _, name := range names {
		v, err := goose.NumericComponent(name)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", name, err)
		}
		if slices.Contains(versions, v) {
			return nil, fmt.Errorf("migration %s: duplicate version %d", name, v)
		}
		versions = append(versions, v)
	}
	slices.Sort(versions)
	return versions, nil
}
