package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repoerrors "apptime/internal/infrastructure/errors"
	"apptime/internal/infrastructure/logging"
)

// WithTransaction executes fn within a database transaction with retry
// logic. Statements inside fn run once per attempt; the whole transaction
// is what gets retried. Index updates made by fn are published on commit.
// Called on a repository already bound to a transaction, fn joins it.
func (r *SQLiteRepository) WithTransaction(ctx context.Context, fn func(repo ActivityRepository) error) error {
	if r.tx != nil {
		return fn(r)
	}

	start := time.Now()
	err := r.retry.Do(ctx, "WithTransaction", func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return r.failure("WithTransaction.Begin", err, map[string]string{"phase": "begin"})
		}

		committed := false
		defer func() {
			if committed {
				return
			}
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.logger.Debug("Failed to rollback transaction", "rollback_error", rbErr)
			}
		}()

		txRepo := &SQLiteRepository{
			db:      r.db,
			queries: r.queries.WithTx(tx),
			retry:   repoerrors.NoRetry(),
			index:   r.index,
			logger:  r.logger,
			tx:      tx,
			pending: newPendingIndex(r.index),
		}

		if err := fn(txRepo); err != nil {
			r.logger.Debug("Transaction function failed", "error", err)
			return err
		}

		if err := tx.Commit(); err != nil {
			return r.failure("WithTransaction.Commit", err, map[string]string{"phase": "commit"})
		}
		committed = true
		txRepo.pending.publish()
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "WithTransaction", time.Since(start), nil)
	}
	return err
}
