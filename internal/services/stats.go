package services

import (
	"context"
	"sort"
	"time"

	"apptime/internal/calendar"
	"apptime/internal/infrastructure/errors"
	"apptime/internal/infrastructure/logging"
	"apptime/internal/repository"
	"apptime/internal/types"
)

// Aggregate totals interval lengths per entity. Entities with no positive
// time are dropped. The result is ordered by descending total with ties
// broken by name.
func Aggregate(intervals []types.Interval) []types.EntityStat {
	totals := make(map[string]uint64)
	for _, iv := range intervals {
		totals[iv.Entity] += uint64(iv.Seconds())
	}

	stats := make([]types.EntityStat, 0, len(totals))
	for name, seconds := range totals {
		if seconds == 0 {
			continue
		}
		stats = append(stats, types.EntityStat{Name: name, Seconds: seconds})
	}

	sortStatsByDuration(stats)
	return stats
}

func sortStatsByDuration(stats []types.EntityStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Seconds != stats[j].Seconds {
			return stats[i].Seconds > stats[j].Seconds
		}
		return stats[i].Name < stats[j].Name
	})
}

// StatsService answers the read side: per-entity totals and the earliest
// recorded day
type StatsService struct {
	repo   repository.ActivityRepository
	clock  calendar.Clock
	logger logging.Logger
}

// NewStatsService creates a StatsService. A nil clock means the system clock.
func NewStatsService(repo repository.ActivityRepository, clock calendar.Clock, logger logging.Logger) *StatsService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	return &StatsService{
		repo:   repo,
		clock:  clock,
		logger: logging.WithComponent(logger, "stats"),
	}
}

// GetStats aggregates every interval lying fully inside r; nil r means all
// recorded time
func (s *StatsService) GetStats(ctx context.Context, r *types.TimeRange) ([]types.EntityStat, error) {
	if s.repo == nil {
		return nil, errors.NewRepositoryError("GetStats", nil, errors.ErrCodeConnection)
	}

	start := time.Now()
	intervals, err := s.repo.ScanIntervals(ctx, r)
	if err != nil {
		return nil, err
	}

	stats := Aggregate(intervals)
	logging.LogOperation(s.logger, "GetStats", time.Since(start), map[string]interface{}{
		"intervals": len(intervals),
		"entities":  len(stats),
	})
	return stats, nil
}

// GetMinDate returns the local day of the earliest recorded interval, or
// today when nothing has been recorded yet
func (s *StatsService) GetMinDate(ctx context.Context) (time.Time, error) {
	if s.repo == nil {
		return time.Time{}, errors.NewRepositoryError("GetMinDate", nil, errors.ErrCodeConnection)
	}

	ts, found, err := s.repo.MinStartTimestamp(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !found {
		return calendar.StartOfDay(s.clock.Now()), nil
	}
	return calendar.StartOfDay(calendar.FromTimestamp(ts)), nil
}

// BuildReport resolves p (or the custom days for PeriodCustom) and
// aggregates it into a report. On a read failure the report is returned
// empty together with the error so callers can still render it.
func (s *StatsService) BuildReport(ctx context.Context, p Period, customFrom, customTo time.Time) (*types.UsageReport, error) {
	now := s.clock.Now()

	var r *types.TimeRange
	if p == PeriodCustom {
		minDate, err := s.GetMinDate(ctx)
		if err != nil {
			minDate = calendar.StartOfDay(now)
		}
		r = CustomRange(customFrom, customTo, minDate, now)
	} else {
		r = ResolvePeriod(p, now)
	}

	report := &types.UsageReport{
		Period:   p.Title(),
		Range:    r,
		Entities: []types.EntityStat{},
	}

	stats, err := s.GetStats(ctx, r)
	if err != nil {
		logging.LogError(s.logger, err, "BuildReport", map[string]interface{}{
			"period": p.String(),
		})
		return report, err
	}

	report.Entities = stats
	for _, st := range stats {
		report.TotalSeconds += st.Seconds
	}
	return report, nil
}
