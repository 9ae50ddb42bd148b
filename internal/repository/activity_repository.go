package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"apptime/internal/database"
	queries "apptime/internal/database/generated"
	repoerrors "apptime/internal/infrastructure/errors"
	"apptime/internal/infrastructure/logging"
)

// Options tunes a SQLiteRepository
type Options struct {
	Retry     *repoerrors.RetryPolicy // nil selects DefaultRetryPolicy
	IndexSize int
}

// SQLiteRepository implements ActivityRepository on the activity table
type SQLiteRepository struct {
	db      *sql.DB
	queries *queries.Queries
	retry   repoerrors.RetryPolicy
	index   *lastRowIndex
	logger  logging.Logger

	// set on repositories bound to a transaction
	tx      *sql.Tx
	pending *pendingIndex
}

var _ ActivityRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a repository with default options
func NewSQLiteRepository(source database.QuerySource, logger logging.Logger) *SQLiteRepository {
	return NewSQLiteRepositoryWithOptions(source, Options{}, logger)
}

// NewSQLiteRepositoryWithOptions creates a repository with custom retry
// policy and index size
func NewSQLiteRepositoryWithOptions(source database.QuerySource, opts Options, logger logging.Logger) *SQLiteRepository {
	return newSQLiteRepository(source.DB(), source.GetQueries(), opts, logger)
}

// NewSQLiteRepositoryWithPreparedQueries creates a repository on the
// service's shared prepared statements
func NewSQLiteRepositoryWithPreparedQueries(ctx context.Context, source database.QuerySource, opts Options, logger logging.Logger) (*SQLiteRepository, error) {
	prepared, err := source.GetPreparedQueries(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteRepositoryWithPreparedQueries: failed to get prepared queries: %w", err)
	}
	return newSQLiteRepository(source.DB(), prepared, opts, logger), nil
}

func newSQLiteRepository(db *sql.DB, q *queries.Queries, opts Options, logger logging.Logger) *SQLiteRepository {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	retry := repoerrors.DefaultRetryPolicy()
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	logger = logging.WithComponent(logger, "repository")

	return &SQLiteRepository{
		db:      db,
		queries: q,
		retry:   retry.WithLogger(logger),
		index:   newLastRowIndex(opts.IndexSize),
		logger:  logger,
	}
}

// SetRetryPolicy replaces the retry policy, keeping the repository logger
func (r *SQLiteRepository) SetRetryPolicy(p repoerrors.RetryPolicy) {
	r.retry = p.WithLogger(r.logger)
}

// SetLogger updates the logger
func (r *SQLiteRepository) SetLogger(logger logging.Logger) {
	if logger != nil {
		r.logger = logger
		r.retry = r.retry.WithLogger(logger)
	}
}

// HealthCheck verifies the connection and the presence of the activity table
func (r *SQLiteRepository) HealthCheck(ctx context.Context) error {
	start := time.Now()

	err := r.retry.Do(ctx, "HealthCheck", func() error {
		if err := r.db.PingContext(ctx); err != nil {
			return r.failure("HealthCheck.Ping", err, nil)
		}
		var n int
		err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'activity'").Scan(&n)
		if err != nil {
			return r.failure("HealthCheck.Query", err, nil)
		}
		if n != 1 {
			return repoerrors.NewRepositoryError("HealthCheck", fmt.Errorf("activity table missing"), repoerrors.ErrCodeSchema)
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "HealthCheck", time.Since(start), nil)
	}
	return err
}
