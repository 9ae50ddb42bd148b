package repository

import (
	"context"
	"time"

	queries "apptime/internal/database/generated"
	repoerrors "apptime/internal/infrastructure/errors"
	"apptime/internal/infrastructure/logging"
	"apptime/internal/types"
)

// ScanIntervals returns the intervals with from >= r.From and to <= r.To in
// insertion order, or the whole table when r is nil
func (r *SQLiteRepository) ScanIntervals(ctx context.Context, tr *types.TimeRange) ([]types.Interval, error) {
	start := time.Now()
	var result []types.Interval

	err := r.retry.Do(ctx, "ScanIntervals", func() error {
		var (
			rows []queries.Activity
			err  error
		)
		if tr == nil {
			rows, err = r.queries.ScanIntervals(ctx)
		} else {
			rows, err = r.queries.ScanIntervalsInRange(ctx, queries.ScanIntervalsInRangeParams{
				TimeFrom: int64(tr.From),
				TimeTo:   int64(tr.To),
			})
		}
		if err != nil {
			return r.failure("ScanIntervals", err, rangeContext(tr))
		}
		result = intervalsFromDB(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.LogOperation(r.logger, "ScanIntervals", time.Since(start), map[string]any{
		"count":    len(result),
		"filtered": tr != nil,
	})
	return result, nil
}

// MinStartTimestamp returns the earliest interval start
func (r *SQLiteRepository) MinStartTimestamp(ctx context.Context) (uint32, bool, error) {
	var (
		ts    uint32
		found bool
	)

	err := r.retry.Do(ctx, "MinStartTimestamp", func() error {
		minFrom, err := r.queries.MinTimeFrom(ctx)
		if err != nil {
			return r.failure("MinStartTimestamp", err, nil)
		}
		ts, found = uint32(minFrom.Int64), minFrom.Valid
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return ts, found, nil
}

// CountIntervals returns the number of stored intervals
func (r *SQLiteRepository) CountIntervals(ctx context.Context) (int64, error) {
	var count int64
	err := r.retry.Do(ctx, "CountIntervals", func() error {
		n, err := r.queries.CountIntervals(ctx)
		if err != nil {
			return r.failure("CountIntervals", err, nil)
		}
		count = n
		return nil
	})
	return count, err
}

func rangeContext(tr *types.TimeRange) map[string]string {
	if tr == nil {
		return nil
	}
	ctx := repoerrors.IntervalContext("", tr.From, tr.To)
	delete(ctx, "entity")
	return ctx
}
