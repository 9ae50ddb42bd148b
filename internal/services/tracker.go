package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"apptime/internal/calendar"
	"apptime/internal/infrastructure/errors"
	"apptime/internal/infrastructure/logging"
	"apptime/internal/metrics"
	"apptime/internal/platform"
	"apptime/internal/repository"

	"github.com/oklog/ulid/v2"
)

// ErrAlreadyRunning is returned by Run on a tracker that has been run before
var ErrAlreadyRunning = fmt.Errorf("tracker: Run called more than once")

// Tracker samples the focused application and records it as day-aligned
// intervals in the session store.
type Tracker struct {
	repo   repository.ActivityRepository
	focus  platform.FocusSource
	clock  calendar.Clock
	config TrackerConfig
	logger logging.Logger
	runID  ulid.ULID

	// tickMu serializes ticks; mu guards the cursor for readers
	tickMu sync.Mutex
	mu     sync.RWMutex
	state  State
	// lastCommitted is the newest timestamp written to the store
	lastCommitted uint32

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewTracker creates a tracker. Zero config fields take their defaults and a
// nil clock means the system clock.
func NewTracker(
	repo repository.ActivityRepository,
	focus platform.FocusSource,
	clock calendar.Clock,
	config TrackerConfig,
	logger logging.Logger,
) *Tracker {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if clock == nil {
		clock = calendar.SystemClock{}
	}

	return &Tracker{
		repo:   repo,
		focus:  focus,
		clock:  clock,
		config: config.withDefaults(),
		logger: logging.WithComponent(logger, "tracker"),
		runID:  ulid.MustNew(ulid.Now(), rand.Reader),
		state:  idleState(),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// RunID identifies this tracker instance in logs
func (t *Tracker) RunID() string {
	return t.runID.String()
}

// State returns a copy of the cursor
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Run samples focus every PollInterval until ctx is cancelled or Stop is
// called. A tick that is persisting when the signal arrives completes first.
// A tracker runs once; later calls return ErrAlreadyRunning.
func (t *Tracker) Run(ctx context.Context) error {
	if !t.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(t.done)

	if err := t.config.Validate(); err != nil {
		return err
	}

	t.logger.Info("Tracker started",
		"run_id", t.RunID(),
		"poll_interval", t.config.PollInterval.String())

	ticker := time.NewTicker(t.config.PollInterval)
	defer ticker.Stop()

	t.runTick(ctx)
	for {
		select {
		case <-ctx.Done():
			t.logStopped("context_cancelled")
			return nil
		case <-t.stopCh:
			t.logStopped("stop_requested")
			return nil
		case <-ticker.C:
			t.runTick(ctx)
		}
	}
}

// Stop asks Run to return after the current tick. It is safe to call more
// than once.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
}

// Done is closed when Run has returned
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

func (t *Tracker) runTick(ctx context.Context) {
	// Errors are logged and counted inside Tick; the loop keeps going.
	_ = t.Tick(ctx)
}

func (t *Tracker) logStopped(reason string) {
	state := t.State()
	t.logger.Info("Tracker stopped",
		"run_id", t.RunID(),
		"reason", reason,
		"state", state.Kind.String(),
		"entity", state.Entity)
}

// Tick takes one focus sample and persists its effect. A focus error skips
// the tick. A storage error leaves the cursor untouched so the next tick
// retries from the same state.
func (t *Tracker) Tick(ctx context.Context) error {
	t.tickMu.Lock()
	defer t.tickMu.Unlock()

	entity, err := t.focus.CurrentFocus()
	if err != nil {
		metrics.TicksTotal.WithLabelValues(metrics.OutcomeFocusError).Inc()
		t.logger.Warn("Focus resolution failed, skipping sample", "error", err.Error())
		return err
	}
	entity = normalizeEntity(entity)

	now := calendar.Timestamp(t.clock.Now())

	t.mu.RLock()
	prev := t.state
	lastCommitted := t.lastCommitted
	t.mu.RUnlock()

	if now < lastCommitted {
		t.logger.Warn("Clock moved backwards, clamping sample",
			"now", now,
			"last_committed", lastCommitted)
		now = lastCommitted
	}

	plan := planTick(prev, entity, now)
	if plan.empty() {
		metrics.TicksTotal.WithLabelValues(metrics.OutcomeIdle).Inc()
		return nil
	}

	if err := t.persist(ctx, plan); err != nil {
		metrics.TicksTotal.WithLabelValues(metrics.OutcomeStorageError).Inc()
		metrics.StorageErrorsTotal.WithLabelValues(errors.CodeOf(err).String()).Inc()
		logging.LogError(t.logger, err, "Tick", map[string]interface{}{
			"state":  prev.Kind.String(),
			"entity": prev.Entity,
			"sample": entity,
			"now":    now,
		})
		return err
	}

	t.mu.Lock()
	t.state = plan.next
	t.lastCommitted = now
	t.mu.Unlock()

	t.record(prev, plan, now)
	return nil
}

// persist applies the plan in one transaction on a context that outlives
// cancellation of ctx
func (t *Tracker) persist(ctx context.Context, plan tickPlan) error {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.config.PersistTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.PersistDuration.Observe(time.Since(start).Seconds())
	}()

	return t.repo.WithTransaction(persistCtx, func(repo repository.ActivityRepository) error {
		for _, w := range plan.writes {
			if err := t.apply(persistCtx, repo, w); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *Tracker) apply(ctx context.Context, repo repository.ActivityRepository, w write) error {
	if w.kind == writeInsert {
		return repo.Insert(ctx, w.entity, w.ts)
	}

	err := repo.Extend(ctx, w.entity, w.ts)
	if err == nil || !errors.IsNotFound(err) {
		return err
	}

	// The open row vanished underneath us; recreate it at the segment start.
	t.logger.Warn("Open interval missing, recreating it",
		"entity", w.entity,
		"segment_start", w.segmentStart,
		"to", w.ts)
	if err := repo.Insert(ctx, w.entity, w.segmentStart); err != nil {
		return err
	}
	if err := repo.Extend(ctx, w.entity, w.ts); err != nil {
		return err
	}
	metrics.IntervalHealsTotal.Inc()
	return nil
}

// record emits logs and metrics for a committed tick
func (t *Tracker) record(prev State, plan tickPlan, now uint32) {
	if plan.splits > 0 {
		metrics.DaySplitsTotal.Add(float64(plan.splits))
		t.logger.Info("Interval split at midnight",
			"entity", prev.Entity,
			"splits", plan.splits,
			"segment_start", plan.next.SessionStart)
	}

	if plan.switched(prev) {
		metrics.TicksTotal.WithLabelValues(metrics.OutcomeSwitched).Inc()
		t.logger.Info("Focus changed",
			"from", prev.Entity,
			"to", plan.next.Entity,
			"at", now)
	} else {
		metrics.TicksTotal.WithLabelValues(metrics.OutcomeExtended).Inc()
		t.logger.Debug("Interval extended", "entity", prev.Entity, "to", now)
	}

	if plan.next.Idle() {
		metrics.Focused.Set(0)
	} else {
		metrics.Focused.Set(1)
	}
}

// normalizeEntity maps blank names onto the "nothing focused" sentinel
func normalizeEntity(entity string) string {
	if strings.TrimSpace(entity) == "" {
		return ""
	}
	return entity
}
