package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	queries "apptime/internal/database/generated"
	repoerrors "apptime/internal/infrastructure/errors"
	"apptime/internal/infrastructure/logging"
)

// Insert appends a zero-length interval (entity, from, from)
func (r *SQLiteRepository) Insert(ctx context.Context, entity string, from uint32) error {
	start := time.Now()
	if err := r.validateEntity("InsertInterval", entity); err != nil {
		return err
	}

	err := r.retry.Do(ctx, "InsertInterval", func() error {
		rowID, err := r.queries.InsertInterval(ctx, queries.InsertIntervalParams{
			WindowName: entity,
			TimeFrom:   int64(from),
		})
		if err != nil {
			return r.failure("InsertInterval", err, repoerrors.IntervalContext(entity, from, from))
		}
		r.indexPut(entity, rowRef{RowID: rowID, From: from})
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "InsertInterval", time.Since(start), map[string]any{
			"entity":    entity,
			"time_from": from,
		})
	}
	return err
}

// Extend moves the end of entity's most recently started interval to to
func (r *SQLiteRepository) Extend(ctx context.Context, entity string, to uint32) error {
	start := time.Now()
	if err := r.validateEntity("ExtendInterval", entity); err != nil {
		return err
	}

	err := r.retry.Do(ctx, "ExtendInterval", func() error {
		return r.extendOnce(ctx, entity, to)
	})

	if err == nil {
		logging.LogOperation(r.logger, "ExtendInterval", time.Since(start), map[string]any{
			"entity":  entity,
			"time_to": to,
		})
	}
	return err
}

func (r *SQLiteRepository) extendOnce(ctx context.Context, entity string, to uint32) error {
	// Fast path: the row this process inserted last for entity
	if ref, ok := r.indexGet(entity); ok && ref.From <= to {
		updated, err := r.updateRow(ctx, entity, ref, to)
		if err != nil {
			return err
		}
		if updated {
			return nil
		}
		// Row removed or rewritten behind our back
		r.indexForget(entity)
	}

	row, err := r.queries.LastIntervalForEntity(ctx, entity)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Debug("No interval to extend", "entity", entity, "time_to", to)
		return repoerrors.HandleOpenIntervalNotFound("ExtendInterval", entity, to)
	}
	if err != nil {
		return r.failure("ExtendInterval.Lookup", err, repoerrors.IntervalContext(entity, 0, to))
	}

	ref := rowRef{RowID: row.RowID, From: uint32(row.TimeFrom)}
	if ref.From > to {
		orderErr := repoerrors.HandleIntervalOrderError("ExtendInterval", entity, ref.From, to)
		logging.LogError(r.logger, orderErr, "ExtendInterval", nil)
		return orderErr
	}

	updated, err := r.updateRow(ctx, entity, ref, to)
	if err != nil {
		return err
	}
	if !updated {
		return repoerrors.HandleOpenIntervalNotFound("ExtendInterval", entity, to)
	}
	r.indexPut(entity, ref)
	return nil
}

// updateRow reports whether the row identified by ref was updated
func (r *SQLiteRepository) updateRow(ctx context.Context, entity string, ref rowRef, to uint32) (bool, error) {
	n, err := r.queries.ExtendInterval(ctx, queries.ExtendIntervalParams{
		TimeTo:     int64(to),
		RowID:      ref.RowID,
		WindowName: entity,
	})
	if err != nil {
		return false, r.failure("ExtendInterval", err, repoerrors.IntervalContext(entity, ref.From, to))
	}
	return n == 1, nil
}
