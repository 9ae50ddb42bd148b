package database

import (
	"context"
	"database/sql"

	queries "apptime/internal/database/generated"
)

// QuerySource is what a repository borrows from the service: the pool for
// transactions and the generated query sets bound to it
type QuerySource interface {
	DB() *sql.DB
	GetQueries() *queries.Queries
	GetPreparedQueries(ctx context.Context) (*queries.Queries, error)
}

// Service owns the activity database for the lifetime of a command
type Service interface {
	QuerySource

	Connect(ctx context.Context, config *Config) error
	Close() error
	Health(ctx context.Context) error

	Migrate(ctx context.Context) error
	GetMigrationVersion(ctx context.Context) (int64, error)

	Optimize(ctx context.Context) (*MaintenanceReport, error)
	GetStats() sql.DBStats
}

// MigrationManager applies the embedded schema
type MigrationManager interface {
	RunMigrations(ctx context.Context) error
	GetCurrentVersion(ctx context.Context) (int64, error)
	ValidateMigrations() error
}
