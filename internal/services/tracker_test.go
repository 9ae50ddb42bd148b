package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"apptime/internal/calendar"
	"apptime/internal/database"
	repoerrors "apptime/internal/infrastructure/errors"
	"apptime/internal/infrastructure/logging"
	"apptime/internal/platform"
	"apptime/internal/repository"
	"apptime/internal/testutils"
	"apptime/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logging.Logger {
	return logging.NewLogger(logging.Options{Level: "error", Output: io.Discard})
}

// fakeClock is a settable clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeFocus returns a settable entity or error
type fakeFocus struct {
	mu     sync.Mutex
	entity string
	err    error
	calls  int
}

func (f *fakeFocus) CurrentFocus() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.entity, f.err
}

func (f *fakeFocus) Set(entity string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entity = entity
	f.err = nil
}

func (f *fakeFocus) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func local(year int, month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, 0, time.Local)
}

func ts(t time.Time) uint32 {
	return calendar.Timestamp(t)
}

type trackerFixture struct {
	tracker *Tracker
	repo    *MockRepository
	clock   *fakeClock
	focus   *fakeFocus
}

func newTrackerFixture(t *testing.T, start time.Time) *trackerFixture {
	t.Helper()
	repo := NewMockRepository()
	clock := newFakeClock(start)
	focus := &fakeFocus{}
	tracker := NewTracker(repo, focus, clock, DefaultTrackerConfig(), newTestLogger())
	return &trackerFixture{tracker: tracker, repo: repo, clock: clock, focus: focus}
}

// sample sets the focus and clock and runs one tick
func (f *trackerFixture) sample(t *testing.T, entity string, at time.Time) {
	t.Helper()
	f.focus.Set(entity)
	f.clock.Set(at)
	require.NoError(t, f.tracker.Tick(context.Background()))
}

func TestTracker_SameEntityExtendsOneInterval(t *testing.T) {
	t0 := local(2024, time.January, 15, 10, 0, 0)
	f := newTrackerFixture(t, t0)

	f.sample(t, "Editor", t0)
	f.sample(t, "Editor", t0.Add(5*time.Second))
	f.sample(t, "Editor", t0.Add(10*time.Second))

	assert.Equal(t, []types.Interval{
		{Entity: "Editor", From: ts(t0), To: ts(t0.Add(10 * time.Second))},
	}, f.repo.Intervals())

	state := f.tracker.State()
	assert.Equal(t, StateFocused, state.Kind)
	assert.Equal(t, "Editor", state.Entity)
	assert.Equal(t, ts(t0), state.SessionStart)
}

func TestTracker_TransitionClosesPriorInterval(t *testing.T) {
	t0 := local(2024, time.January, 15, 10, 0, 0)
	switchAt := t0.Add(30 * time.Second)
	f := newTrackerFixture(t, t0)

	f.sample(t, "A", t0)
	f.sample(t, "B", switchAt)

	assert.Equal(t, []types.Interval{
		{Entity: "A", From: ts(t0), To: ts(switchAt)},
		{Entity: "B", From: ts(switchAt), To: ts(switchAt)},
	}, f.repo.Intervals())
	assert.Equal(t, focusedState("B", ts(switchAt)), f.tracker.State())
}

func TestTracker_IdleHandling(t *testing.T) {
	t0 := local(2024, time.January, 15, 10, 0, 0)
	f := newTrackerFixture(t, t0)

	// idle to idle writes nothing
	f.sample(t, "", t0)
	insert, extend, _, tx := f.repo.GetCallCounts()
	assert.Zero(t, insert+extend+tx)
	assert.True(t, f.tracker.State().Idle())

	f.sample(t, "A", t0.Add(5*time.Second))
	f.sample(t, "   ", t0.Add(10*time.Second))
	assert.True(t, f.tracker.State().Idle())

	// refocusing starts a fresh interval
	f.sample(t, "A", t0.Add(20*time.Second))

	assert.Equal(t, []types.Interval{
		{Entity: "A", From: ts(t0.Add(5 * time.Second)), To: ts(t0.Add(10 * time.Second))},
		{Entity: "A", From: ts(t0.Add(20 * time.Second)), To: ts(t0.Add(20 * time.Second))},
	}, f.repo.Intervals())
}

func TestTracker_SplitsAtEveryMidnight(t *testing.T) {
	start := local(2024, time.January, 15, 23, 59, 50)
	day1 := local(2024, time.January, 16, 0, 0, 0)
	day2 := local(2024, time.January, 17, 0, 0, 0)
	end := local(2024, time.January, 17, 2, 0, 0)

	f := newTrackerFixture(t, start)
	f.sample(t, "Editor", start)
	f.sample(t, "Editor", end)

	want := []types.Interval{
		{Entity: "Editor", From: ts(start), To: ts(day1)},
		{Entity: "Editor", From: ts(day1), To: ts(day2)},
		{Entity: "Editor", From: ts(day2), To: ts(end)},
	}
	assert.Equal(t, want, f.repo.Intervals())
	assert.Equal(t, ts(day2), f.tracker.State().SessionStart)

	// further samples on the same day only extend the last segment
	later := end.Add(5 * time.Second)
	f.sample(t, "Editor", later)
	want[2].To = ts(later)
	assert.Equal(t, want, f.repo.Intervals())

	for _, iv := range f.repo.Intervals() {
		from := calendar.StartOfDay(calendar.FromTimestamp(iv.From))
		to := calendar.FromTimestamp(iv.To)
		if iv.To == ts(calendar.DayStartAfter(from, 1)) {
			// closed exactly at the following midnight
			continue
		}
		assert.Equal(t, from, calendar.StartOfDay(to), "interval %+v crosses a day", iv)
	}
}

func TestTracker_SplitThenSwitch(t *testing.T) {
	start := local(2024, time.January, 15, 23, 59, 55)
	midnight := local(2024, time.January, 16, 0, 0, 0)
	next := local(2024, time.January, 16, 0, 0, 5)

	f := newTrackerFixture(t, start)
	f.sample(t, "A", start)
	f.sample(t, "B", next)

	assert.Equal(t, []types.Interval{
		{Entity: "A", From: ts(start), To: ts(midnight)},
		{Entity: "A", From: ts(midnight), To: ts(next)},
		{Entity: "B", From: ts(next), To: ts(next)},
	}, f.repo.Intervals())
	assert.Equal(t, focusedState("B", ts(next)), f.tracker.State())
}

func TestTracker_StorageFailureKeepsCursor(t *testing.T) {
	t0 := local(2024, time.January, 15, 10, 0, 0)
	f := newTrackerFixture(t, t0)
	f.sample(t, "A", t0)

	f.repo.SetFailureModes(false, false, false, true)
	f.focus.Set("B")
	f.clock.Set(t0.Add(5 * time.Second))
	err := f.tracker.Tick(context.Background())
	require.Error(t, err)
	assert.True(t, repoerrors.IsConnection(err))
	assert.Equal(t, focusedState("A", ts(t0)), f.tracker.State(), "cursor must not move on failure")

	// the next tick retries from the unchanged cursor
	f.repo.SetFailureModes(false, false, false, false)
	f.sample(t, "B", t0.Add(10*time.Second))

	assert.Equal(t, []types.Interval{
		{Entity: "A", From: ts(t0), To: ts(t0.Add(10 * time.Second))},
		{Entity: "B", From: ts(t0.Add(10 * time.Second)), To: ts(t0.Add(10 * time.Second))},
	}, f.repo.Intervals())
}

func TestTracker_FailedWriteRollsBackTick(t *testing.T) {
	t0 := local(2024, time.January, 15, 10, 0, 0)
	f := newTrackerFixture(t, t0)
	f.sample(t, "A", t0)

	// extend succeeds inside the transaction but the insert fails
	f.repo.SetFailureModes(true, false, false, false)
	f.focus.Set("B")
	f.clock.Set(t0.Add(5 * time.Second))
	require.Error(t, f.tracker.Tick(context.Background()))

	assert.Equal(t, []types.Interval{
		{Entity: "A", From: ts(t0), To: ts(t0)},
	}, f.repo.Intervals())
}

func TestTracker_FocusErrorSkipsTick(t *testing.T) {
	t0 := local(2024, time.January, 15, 10, 0, 0)
	f := newTrackerFixture(t, t0)
	f.sample(t, "A", t0)

	f.focus.Fail(&platform.FocusError{Op: "test", Err: errors.New("no window")})
	f.clock.Set(t0.Add(5 * time.Second))
	err := f.tracker.Tick(context.Background())
	require.Error(t, err)
	assert.True(t, platform.IsFocusError(err))

	assert.Equal(t, focusedState("A", ts(t0)), f.tracker.State())
	assert.Equal(t, []types.Interval{{Entity: "A", From: ts(t0), To: ts(t0)}}, f.repo.Intervals())
}

func TestTracker_RecreatesMissingOpenInterval(t *testing.T) {
	t0 := local(2024, time.January, 15, 10, 0, 0)
	f := newTrackerFixture(t, t0)
	f.sample(t, "A", t0)
	f.sample(t, "A", t0.Add(5*time.Second))

	f.repo.Remove("A")
	f.sample(t, "A", t0.Add(10*time.Second))

	assert.Equal(t, []types.Interval{
		{Entity: "A", From: ts(t0), To: ts(t0.Add(10 * time.Second))},
	}, f.repo.Intervals())
}

func TestTracker_ClockMovingBackwards(t *testing.T) {
	t0 := local(2024, time.January, 15, 10, 0, 0)
	f := newTrackerFixture(t, t0)
	f.sample(t, "A", t0)
	f.sample(t, "A", t0.Add(10*time.Second))

	f.sample(t, "A", t0.Add(3*time.Second))
	f.sample(t, "B", t0.Add(4*time.Second))

	for _, iv := range f.repo.Intervals() {
		assert.LessOrEqual(t, iv.From, iv.To)
	}
	assert.Equal(t, []types.Interval{
		{Entity: "A", From: ts(t0), To: ts(t0.Add(10 * time.Second))},
		{Entity: "B", From: ts(t0.Add(10 * time.Second)), To: ts(t0.Add(10 * time.Second))},
	}, f.repo.Intervals())
}

func TestTracker_LogsTransitionsAndSplits(t *testing.T) {
	start := local(2024, time.January, 15, 23, 59, 0)
	logger := &testutils.RecordingLogger{}
	repo := NewMockRepository()
	clock := newFakeClock(start)
	focus := &fakeFocus{entity: "A"}
	tracker := NewTracker(repo, focus, clock, DefaultTrackerConfig(), logger)
	ctx := context.Background()

	require.NoError(t, tracker.Tick(ctx))
	clock.Set(local(2024, time.January, 16, 0, 1, 0))
	focus.Set("B")
	require.NoError(t, tracker.Tick(ctx))

	split, ok := logger.Find(testutils.LevelInfo, "Interval split at midnight")
	require.True(t, ok)
	assert.Equal(t, 1, testutils.FieldsToMap(t, split.Fields)["splits"])

	changes := 0
	for _, e := range logger.Entries(testutils.LevelInfo) {
		if e.Msg == "Focus changed" {
			changes++
		}
	}
	assert.Equal(t, 2, changes, "idle to A and A to B")

	repo.Remove("B")
	clock.Advance(5 * time.Second)
	require.NoError(t, tracker.Tick(ctx))
	_, ok = logger.Find(testutils.LevelWarn, "Open interval missing, recreating it")
	assert.True(t, ok)
}

func TestTracker_RunStopsOnCancel(t *testing.T) {
	t0 := local(2024, time.January, 15, 10, 0, 0)
	repo := NewMockRepository()
	clock := newFakeClock(t0)
	focus := &fakeFocus{entity: "A"}
	tracker := NewTracker(repo, focus, clock, TrackerConfig{PollInterval: 10 * time.Millisecond}, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- tracker.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(repo.Intervals()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-tracker.Done():
	case <-time.After(time.Second):
		t.Fatal("tracker did not stop after cancel")
	}
	assert.NoError(t, <-errCh)
}

func TestTracker_RunStopsOnStop(t *testing.T) {
	repo := NewMockRepository()
	tracker := NewTracker(repo, &fakeFocus{}, newFakeClock(time.Now()), TrackerConfig{PollInterval: 10 * time.Millisecond}, newTestLogger())

	go func() { _ = tracker.Run(context.Background()) }()
	tracker.Stop()
	tracker.Stop()

	select {
	case <-tracker.Done():
	case <-time.After(time.Second):
		t.Fatal("tracker did not stop")
	}
}

func TestTracker_RunRejectsInvalidConfig(t *testing.T) {
	tracker := NewTracker(NewMockRepository(), &fakeFocus{}, nil, TrackerConfig{PollInterval: -time.Second}, newTestLogger())
	assert.Error(t, tracker.Run(context.Background()))
}

func TestTracker_RunIsSingleUse(t *testing.T) {
	tracker := NewTracker(NewMockRepository(), &fakeFocus{entity: "A"}, newFakeClock(local(2024, time.January, 15, 10, 0, 0)),
		TrackerConfig{PollInterval: 10 * time.Millisecond}, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, tracker.Run(ctx))
	<-tracker.Done()

	assert.NotPanics(t, func() {
		assert.ErrorIs(t, tracker.Run(context.Background()), ErrAlreadyRunning)
	})
}

func TestTracker_WithSQLiteRepository(t *testing.T) {
	logger := newTestLogger()
	dbService := database.NewSQLiteService(logger)
	require.NoError(t, dbService.Connect(context.Background(), database.TestConfig()))
	t.Cleanup(func() { dbService.Close() })
	repo := repository.NewSQLiteRepository(dbService, logger)

	start := local(2024, time.January, 15, 23, 59, 50)
	day1 := local(2024, time.January, 16, 0, 0, 0)
	day2 := local(2024, time.January, 17, 0, 0, 0)
	end := local(2024, time.January, 17, 2, 0, 0)

	clock := newFakeClock(start)
	focus := &fakeFocus{entity: "Editor"}
	tracker := NewTracker(repo, focus, clock, DefaultTrackerConfig(), logger)
	ctx := context.Background()

	require.NoError(t, tracker.Tick(ctx))
	clock.Set(end)
	require.NoError(t, tracker.Tick(ctx))
	focus.Set("Browser")
	clock.Advance(time.Minute)
	require.NoError(t, tracker.Tick(ctx))

	intervals, err := repo.ScanIntervals(ctx, nil)
	require.NoError(t, err)
	switchAt := ts(end.Add(time.Minute))
	assert.Equal(t, []types.Interval{
		{Entity: "Editor", From: ts(start), To: ts(day1)},
		{Entity: "Editor", From: ts(day1), To: ts(day2)},
		{Entity: "Editor", From: ts(day2), To: switchAt},
		{Entity: "Browser", From: switchAt, To: switchAt},
	}, intervals)

	stats, err := NewStatsService(repo, clock, logger).GetStats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []types.EntityStat{
		{Name: "Editor", Seconds: uint64(switchAt - ts(start))},
	}, stats)
}

func TestPlanTick(t *testing.T) {
	now := ts(local(2024, time.January, 15, 12, 0, 0))

	t.Run("idle stays idle", func(t *testing.T) {
		plan := planTick(idleState(), "", now)
		assert.True(t, plan.empty())
		assert.True(t, plan.next.Idle())
	})

	t.Run("idle to focused inserts", func(t *testing.T) {
		plan := planTick(idleState(), "A", now)
		assert.Equal(t, []write{{kind: writeInsert, entity: "A", ts: now}}, plan.writes)
		assert.Equal(t, focusedState("A", now), plan.next)
	})

	t.Run("focused to idle extends", func(t *testing.T) {
		plan := planTick(focusedState("A", now-10), "", now)
		assert.Equal(t, []write{{kind: writeExtend, entity: "A", ts: now, segmentStart: now - 10}}, plan.writes)
		assert.True(t, plan.next.Idle())
		assert.True(t, plan.switched(focusedState("A", now-10)))
	})
}
