package repository

import (
	"strings"

	queries "apptime/internal/database/generated"
	repoerrors "apptime/internal/infrastructure/errors"
	"apptime/internal/infrastructure/logging"
	"apptime/internal/types"
)

// failure wraps err as a classified RepositoryError and logs it: retryable
// and not-found errors at debug level, everything else at error level
func (r *SQLiteRepository) failure(op string, err error, ctx map[string]string) *repoerrors.RepositoryError {
	repoErr := repoerrors.NewRepositoryErrorWithContext(op, err, repoerrors.ClassifyError(err), ctx)
	r.logFailure(op, repoErr)
	return repoErr
}

func (r *SQLiteRepository) logFailure(op string, repoErr *repoerrors.RepositoryError) {
	if repoErr.IsRetryable() || repoErr.Code == repoerrors.ErrCodeNotFound {
		r.logger.Debug("Repository operation failed", "operation", op,
			"error_code", repoErr.GetCode(), "error", repoErr.Err)
		return
	}
	logging.LogError(r.logger, repoErr, op, nil)
}

// validateEntity enforces that the empty sentinel is never persisted
func (r *SQLiteRepository) validateEntity(op string, entity string) error {
	if strings.TrimSpace(entity) != "" {
		return nil
	}
	err := repoerrors.HandleValidationError(op, "entity", entity, "entity must be non-empty")
	logging.LogError(r.logger, err, op, nil)
	return err
}

func (r *SQLiteRepository) indexGet(entity string) (rowRef, bool) {
	if r.pending != nil {
		return r.pending.get(entity)
	}
	return r.index.get(entity)
}

func (r *SQLiteRepository) indexPut(entity string, ref rowRef) {
	if r.pending != nil {
		r.pending.put(entity, ref)
		return
	}
	r.index.put(entity, ref)
}

func (r *SQLiteRepository) indexForget(entity string) {
	if r.pending != nil {
		r.pending.forget(entity)
		return
	}
	r.index.forget(entity)
}

// intervalFromDB converts a row; timestamps are stored as 32-bit epoch seconds
func intervalFromDB(row queries.Activity) types.Interval {
	return types.Interval{
		Entity: row.WindowName,
		From:   uint32(row.TimeFrom),
		To:     uint32(row.TimeTo),
	}
}

func intervalsFromDB(rows []queries.Activity) []types.Interval {
	out := make([]types.Interval, 0, len(rows))
	for _, row := range rows {
		out = append(out, intervalFromDB(row))
	}
	return out
}
