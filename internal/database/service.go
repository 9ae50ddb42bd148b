package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	queries "apptime/internal/database/generated"
	dberrors "apptime/internal/infrastructure/errors"
	"apptime/internal/infrastructure/logging"

	_ "github.com/mattn/go-sqlite3"
)

// MaintenanceReport describes one Optimize run
type MaintenanceReport struct {
	SizeBefore int64 // bytes, page_count * page_size
	SizeAfter  int64
	Duration   time.Duration
}

// Reclaimed returns the bytes VACUUM gave back to the filesystem
func (r MaintenanceReport) Reclaimed() int64 {
	return max(r.SizeBefore-r.SizeAfter, 0)
}

// SQLiteService owns the connection pool of the activity database, its
// schema and its maintenance. Repositories borrow the pool through DB and
// the query sets; they never close it.
type SQLiteService struct {
	mu       sync.Mutex // guards prepared
	db       *sql.DB
	config   *Config
	migrator MigrationManager
	queries  *queries.Queries
	prepared *queries.Queries
	logger   logging.Logger
}

var _ Service = (*SQLiteService)(nil)

// NewSQLiteService creates an unconnected service
func NewSQLiteService(logger logging.Logger) *SQLiteService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteService{logger: logging.WithComponent(logger, "database")}
}

// Connect opens the database described by config, replacing any open
// connection. Migrations run here when config.AutoMigrate is set.
func (s *SQLiteService) Connect(ctx context.Context, config *Config) error {
	if config == nil {
		return dberrors.HandleValidationError("Connect", "config", "nil", "configuration is required")
	}
	if err := config.Validate(); err != nil {
		return dberrors.HandleValidationError("Connect", "config", config.Path, err.Error())
	}

	if s.db != nil {
		if err := s.Close(); err != nil {
			s.logger.Error("Failed to close previous connection", "error", err)
		}
	}

	db, err := s.open(ctx, config)
	if err != nil {
		return err
	}

	s.db = db
	s.config = config
	s.queries = queries.New(db)
	s.migrator = NewMigrationRunner(db, s.logger)

	var version string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		version = "unknown"
	}
	s.logger.Info("Opened activity database",
		"path", config.Path,
		"journal_mode", config.JournalMode,
		"sqlite_version", version)

	if config.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return err
		}
	}
	return nil
}

// open creates and pings a pool sized for config
func (s *SQLiteService) open(ctx context.Context, config *Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return nil, dberrors.HandleConnectionError("Connect", fmt.Sprintf("failed to open database: %v", err))
	}
	s.configureConnectionPool(db, config)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dberrors.HandleConnectionError("Connect", fmt.Sprintf("failed to ping database: %v", err))
	}
	return db, nil
}

// Close releases the prepared statements, then the pool. Closing an
// unconnected service is a no-op.
func (s *SQLiteService) Close() error {
	if s.db == nil {
		return nil
	}

	s.mu.Lock()
	if s.prepared != nil {
		if err := s.prepared.Close(); err != nil {
			s.logger.Error("Failed to close prepared statements", "error", err)
		}
		s.prepared = nil
	}
	s.mu.Unlock()

	db := s.db
	s.db, s.queries, s.migrator = nil, nil, nil
	if err := db.Close(); err != nil {
		return dberrors.HandleConnectionError("Close", fmt.Sprintf("failed to close database: %v", err))
	}
	s.logger.Debug("Closed activity database")
	return nil
}

// Migrate checks the embedded schema files and applies pending versions
func (s *SQLiteService) Migrate(ctx context.Context) error {
	if s.db == nil {
		return dberrors.HandleConnectionError("Migrate", "database not connected")
	}

	if err := s.migrator.ValidateMigrations(); err != nil {
		return dberrors.NewRepositoryErrorWithContext("Migrate", err, dberrors.ErrCodeSchema,
			map[string]string{"phase": "validation"})
	}
	if err := s.migrator.RunMigrations(ctx); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Migrate", err,
			map[string]string{"phase": "execution"})
	}
	return nil
}

// Health pings the pool and runs SQLite's quick integrity check
func (s *SQLiteService) Health(ctx context.Context) error {
	if s.db == nil {
		return dberrors.HandleConnectionError("Health", "database not connected")
	}

	if err := s.db.PingContext(ctx); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Health", err, map[string]string{"phase": "ping"})
	}

	var verdict string
	if err := s.db.QueryRowContext(ctx, "PRAGMA quick_check(1)").Scan(&verdict); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Health", err, map[string]string{"phase": "quick_check"})
	}
	if verdict != "ok" {
		return dberrors.NewRepositoryErrorWithContext("Health", fmt.Errorf("quick_check: %s", verdict),
			dberrors.ErrCodeCorruption, map[string]string{"phase": "quick_check"})
	}
	return nil
}

// DB returns the pool for repositories
func (s *SQLiteService) DB() *sql.DB {
	return s.db
}

// GetQueries returns the unprepared query set
func (s *SQLiteService) GetQueries() *queries.Queries {
	return s.queries
}

// Config returns the configuration of the open connection
func (s *SQLiteService) Config() *Config {
	return s.config
}

// GetMigrationVersion returns the applied schema version
func (s *SQLiteService) GetMigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, dberrors.HandleConnectionError("GetMigrationVersion", "database not connected")
	}

	version, err := s.migrator.GetCurrentVersion(ctx)
	if err != nil {
		return 0, dberrors.WrapDatabaseError("GetMigrationVersion", err)
	}
	return version, nil
}

// GetPreparedQueries returns the shared prepared query set, preparing it on
// first use. Close releases it.
func (s *SQLiteService) GetPreparedQueries(ctx context.Context) (*queries.Queries, error) {
	if s.db == nil {
		return nil, dberrors.HandleConnectionError("GetPreparedQueries", "database not connected")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prepared == nil {
		prepared, err := queries.Prepare(ctx, s.db)
		if err != nil {
			return nil, dberrors.WrapDatabaseError("GetPreparedQueries", err)
		}
		s.prepared = prepared
	}
	return s.prepared, nil
}

// GetStats returns pool statistics
func (s *SQLiteService) GetStats() sql.DBStats {
	if s.db == nil {
		return sql.DBStats{}
	}
	return s.db.Stats()
}

// Optimize refreshes planner statistics, truncates the WAL and rebuilds the
// file. Checkpoint and PRAGMA optimize failures are logged, not returned.
func (s *SQLiteService) Optimize(ctx context.Context) (*MaintenanceReport, error) {
	if s.db == nil {
		return nil, dberrors.HandleConnectionError("Optimize", "database not connected")
	}

	start := time.Now()
	report := &MaintenanceReport{SizeBefore: s.fileSize(ctx)}

	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return nil, dberrors.WrapDatabaseErrorWithContext("Optimize", err, map[string]string{"phase": "analyze"})
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Warn("WAL checkpoint failed", "error", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return nil, dberrors.WrapDatabaseErrorWithContext("Optimize", err, map[string]string{"phase": "vacuum"})
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		s.logger.Warn("PRAGMA optimize failed", "error", err)
	}

	report.SizeAfter = s.fileSize(ctx)
	report.Duration = time.Since(start)
	s.logger.Info("Activity database optimized",
		"size_before", report.SizeBefore,
		"size_after", report.SizeAfter,
		"duration", report.Duration.String())
	return report, nil
}

// fileSize returns the main database size in bytes, 0 when unknown
func (s *SQLiteService) fileSize(ctx context.Context) int64 {
	var pages, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pages); err != nil {
		return 0
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pages * pageSize
}

// configureConnectionPool sizes the pool. SQLite allows one writer; readers
// only run alongside it in WAL mode, so every other mode gets a single
// connection.
func (s *SQLiteService) configureConnectionPool(db *sql.DB, config *Config) {
	conns, idle := 1, 1
	if !config.ForceSingleConnection && !config.IsInMemory() && strings.EqualFold(config.JournalMode, "WAL") {
		conns = min(max(config.MaxConnections, 1), 4)
		idle = max(min(config.MaxIdleConns, conns), 1)
	}

	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(idle)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
	s.logger.Debug("Configured connection pool",
		"journal_mode", config.JournalMode,
		"max_open_conns", conns,
		"max_idle_conns", idle)
}
