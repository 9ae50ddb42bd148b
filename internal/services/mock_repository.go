package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"apptime/internal/infrastructure/errors"
	"apptime/internal/repository"
	"apptime/internal/types"
)

// MockRepository is an in-memory ActivityRepository for testing. Intervals
// live in an append-only slice with a per-entity index of the last row.
// Transactions work on a copy that replaces the state on commit.
type MockRepository struct {
	mu        sync.Mutex
	intervals []types.Interval
	last      map[string]int

	insertCallCount  int
	extendCallCount  int
	scanCallCount    int
	transactionCalls int

	failInsert error
	failExtend error
	failScan   error
	failTx     error
}

// NewMockRepository creates an empty mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{last: make(map[string]int)}
}

var _ repository.ActivityRepository = (*MockRepository)(nil)

// SetFailureModes makes the corresponding operations fail with a connection
// error until cleared
func (m *MockRepository) SetFailureModes(insert, extend, scan, tx bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInsert = mockFailure("Insert", insert)
	m.failExtend = mockFailure("Extend", extend)
	m.failScan = mockFailure("ScanIntervals", scan)
	m.failTx = mockFailure("WithTransaction", tx)
}

func mockFailure(op string, on bool) error {
	if !on {
		return nil
	}
	return errors.NewRepositoryError(op, fmt.Errorf("mock %s failure", strings.ToLower(op)), errors.ErrCodeConnection)
}

// GetCallCounts returns the number of times each method was called
func (m *MockRepository) GetCallCounts() (insert, extend, scan, tx int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertCallCount, m.extendCallCount, m.scanCallCount, m.transactionCalls
}

// Intervals returns a copy of every stored interval in insertion order
func (m *MockRepository) Intervals() []types.Interval {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Interval, len(m.intervals))
	copy(out, m.intervals)
	return out
}

// Remove deletes every interval of entity, simulating an external edit
func (m *MockRepository) Remove(entity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.intervals[:0]
	for _, iv := range m.intervals {
		if iv.Entity != entity {
			kept = append(kept, iv)
		}
	}
	m.intervals = kept
	m.reindex()
}

func (m *MockRepository) reindex() {
	m.last = make(map[string]int)
	for i, iv := range m.intervals {
		if j, ok := m.last[iv.Entity]; !ok || m.intervals[j].From <= iv.From {
			m.last[iv.Entity] = i
		}
	}
}

func (m *MockRepository) Insert(ctx context.Context, entity string, from uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCallCount++

	if m.failInsert != nil {
		return m.failInsert
	}
	return m.insertLocked(entity, from)
}

func (m *MockRepository) insertLocked(entity string, from uint32) error {
	if strings.TrimSpace(entity) == "" {
		return errors.HandleValidationError("Insert", "entity", entity, "must not be empty")
	}
	m.intervals = append(m.intervals, types.Interval{Entity: entity, From: from, To: from})
	if j, ok := m.last[entity]; !ok || m.intervals[j].From <= from {
		m.last[entity] = len(m.intervals) - 1
	}
	return nil
}

func (m *MockRepository) Extend(ctx context.Context, entity string, to uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extendCallCount++

	if m.failExtend != nil {
		return m.failExtend
	}
	return m.extendLocked(entity, to)
}

func (m *MockRepository) extendLocked(entity string, to uint32) error {
	if strings.TrimSpace(entity) == "" {
		return errors.HandleValidationError("Extend", "entity", entity, "must not be empty")
	}
	i, ok := m.last[entity]
	if !ok {
		return errors.HandleOpenIntervalNotFound("Extend", entity, to)
	}
	if to < m.intervals[i].From {
		return errors.HandleIntervalOrderError("Extend", entity, m.intervals[i].From, to)
	}
	m.intervals[i].To = to
	return nil
}

func (m *MockRepository) ScanIntervals(ctx context.Context, r *types.TimeRange) ([]types.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanCallCount++

	if m.failScan != nil {
		return nil, m.failScan
	}
	out := make([]types.Interval, 0, len(m.intervals))
	for _, iv := range m.intervals {
		if r.Contains(iv) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (m *MockRepository) MinStartTimestamp(ctx context.Context) (uint32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failScan != nil {
		return 0, false, m.failScan
	}
	if len(m.intervals) == 0 {
		return 0, false, nil
	}
	min := m.intervals[0].From
	for _, iv := range m.intervals[1:] {
		if iv.From < min {
			min = iv.From
		}
	}
	return min, true, nil
}

func (m *MockRepository) CountIntervals(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failScan != nil {
		return 0, m.failScan
	}
	return int64(len(m.intervals)), nil
}

// WithTransaction runs fn against a private copy of the store and publishes
// the copy only when fn succeeds
func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repo repository.ActivityRepository) error) error {
	m.mu.Lock()
	m.transactionCalls++
	if m.failTx != nil {
		err := m.failTx
		m.mu.Unlock()
		return err
	}
	tx := &MockRepository{
		intervals:  append([]types.Interval(nil), m.intervals...),
		last:       make(map[string]int, len(m.last)),
		failInsert: m.failInsert,
		failExtend: m.failExtend,
		failScan:   m.failScan,
	}
	for k, v := range m.last {
		tx.last[k] = v
	}
	m.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.intervals = tx.intervals
	m.last = tx.last
	m.insertCallCount += tx.insertCallCount
	m.extendCallCount += tx.extendCallCount
	return nil
}
