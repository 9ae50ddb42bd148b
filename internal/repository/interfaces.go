package repository

import (
	"context"

	"apptime/internal/types"
)

// ActivityRepository is the session store: an append-only log of focus
// intervals with one mutable tail per entity.
type ActivityRepository interface {
	// Insert appends (entity, from, from). entity must be non-empty.
	Insert(ctx context.Context, entity string, from uint32) error

	// Extend sets the end of the most recently started interval of entity.
	// Returns a NotFound error when entity has no interval and a Validation
	// error when to precedes that interval's start.
	Extend(ctx context.Context, entity string, to uint32) error

	// ScanIntervals returns every interval lying fully inside r, or all
	// intervals when r is nil
	ScanIntervals(ctx context.Context, r *types.TimeRange) ([]types.Interval, error)

	// MinStartTimestamp returns the smallest interval start; found is false
	// for an empty store
	MinStartTimestamp(ctx context.Context) (ts uint32, found bool, err error)

	CountIntervals(ctx context.Context) (int64, error)

	// WithTransaction runs fn against a repository bound to one transaction.
	// fn may be invoked more than once when the transaction is retried.
	WithTransaction(ctx context.Context, fn func(repo ActivityRepository) error) error
}
