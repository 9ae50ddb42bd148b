package services

import (
	"context"
	"testing"
	"time"

	repoerrors "apptime/internal/infrastructure/errors"
	"apptime/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo *MockRepository, intervals ...types.Interval) {
	t.Helper()
	ctx := context.Background()
	for _, iv := range intervals {
		require.NoError(t, repo.Insert(ctx, iv.Entity, iv.From))
		require.NoError(t, repo.Extend(ctx, iv.Entity, iv.To))
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		intervals []types.Interval
		want      []types.EntityStat
	}{
		{
			name:      "single interval",
			intervals: []types.Interval{{Entity: "Editor", From: 1000, To: 1300}},
			want:      []types.EntityStat{{Name: "Editor", Seconds: 300}},
		},
		{
			name: "sums per entity and orders descending",
			intervals: []types.Interval{
				{Entity: "A", From: 100, To: 200},
				{Entity: "B", From: 200, To: 250},
				{Entity: "A", From: 250, To: 300},
			},
			want: []types.EntityStat{{Name: "A", Seconds: 150}, {Name: "B", Seconds: 50}},
		},
		{
			name: "zero length only entity is dropped",
			intervals: []types.Interval{
				{Entity: "A", From: 100, To: 160},
				{Entity: "Blip", From: 160, To: 160},
			},
			want: []types.EntityStat{{Name: "A", Seconds: 60}},
		},
		{
			name: "ties are ordered by name",
			intervals: []types.Interval{
				{Entity: "zsh", From: 0, To: 10},
				{Entity: "bash", From: 10, To: 20},
			},
			want: []types.EntityStat{{Name: "bash", Seconds: 10}, {Name: "zsh", Seconds: 10}},
		},
		{
			name:      "empty input",
			intervals: nil,
			want:      []types.EntityStat{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.intervals))
		})
	}
}

func TestStatsService_GetStats(t *testing.T) {
	repo := NewMockRepository()
	seed(t, repo,
		types.Interval{Entity: "A", From: 100, To: 200},
		types.Interval{Entity: "B", From: 200, To: 250},
		types.Interval{Entity: "A", From: 250, To: 300},
	)
	svc := NewStatsService(repo, newFakeClock(time.Now()), newTestLogger())
	ctx := context.Background()

	first, err := svc.GetStats(ctx, nil)
	require.NoError(t, err)
	second, err := svc.GetStats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second, "aggregation must be a pure function of the store")
	assert.Equal(t, []types.EntityStat{{Name: "A", Seconds: 150}, {Name: "B", Seconds: 50}}, first)

	// intervals straddling the range boundary are excluded
	ranged, err := svc.GetStats(ctx, &types.TimeRange{From: 150, To: 300})
	require.NoError(t, err)
	assert.Equal(t, []types.EntityStat{{Name: "A", Seconds: 50}, {Name: "B", Seconds: 50}}, ranged)
}

func TestStatsService_GetStatsReadFailure(t *testing.T) {
	repo := NewMockRepository()
	repo.SetFailureModes(false, false, true, false)
	svc := NewStatsService(repo, nil, newTestLogger())

	_, err := svc.GetStats(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, repoerrors.IsConnection(err))
}

func TestStatsService_GetMinDate(t *testing.T) {
	now := local(2024, time.March, 10, 15, 30, 0)
	repo := NewMockRepository()
	svc := NewStatsService(repo, newFakeClock(now), newTestLogger())
	ctx := context.Background()

	got, err := svc.GetMinDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, local(2024, time.March, 10, 0, 0, 0), got, "empty store falls back to today")

	seed(t, repo,
		types.Interval{Entity: "A", From: ts(local(2024, time.March, 2, 9, 0, 0)), To: ts(local(2024, time.March, 2, 10, 0, 0))},
		types.Interval{Entity: "B", From: ts(local(2024, time.February, 27, 22, 15, 0)), To: ts(local(2024, time.February, 27, 23, 0, 0))},
	)
	got, err = svc.GetMinDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, local(2024, time.February, 27, 0, 0, 0), got)
}

func TestStatsService_BuildReport(t *testing.T) {
	now := local(2024, time.March, 10, 15, 30, 0)
	repo := NewMockRepository()
	seed(t, repo,
		types.Interval{Entity: "A", From: ts(local(2024, time.March, 9, 9, 0, 0)), To: ts(local(2024, time.March, 9, 10, 0, 0))},
		types.Interval{Entity: "B", From: ts(local(2024, time.March, 10, 9, 0, 0)), To: ts(local(2024, time.March, 10, 9, 30, 0))},
	)
	svc := NewStatsService(repo, newFakeClock(now), newTestLogger())
	ctx := context.Background()

	report, err := svc.BuildReport(ctx, PeriodToday, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "Today", report.Period)
	assert.Equal(t, uint64(1800), report.TotalSeconds)
	assert.Equal(t, []types.EntityStat{{Name: "B", Seconds: 1800}}, report.Entities)

	report, err = svc.BuildReport(ctx, PeriodTotal, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Nil(t, report.Range)
	assert.Equal(t, uint64(5400), report.TotalSeconds)

	// a custom range before the first record is clamped to the first day
	report, err = svc.BuildReport(ctx, PeriodCustom, local(2023, time.January, 1, 0, 0, 0), local(2024, time.March, 9, 0, 0, 0))
	require.NoError(t, err)
	require.NotNil(t, report.Range)
	assert.Equal(t, ts(local(2024, time.March, 9, 0, 0, 0)), report.Range.From)
	assert.Equal(t, ts(local(2024, time.March, 9, 23, 59, 59)), report.Range.To)
	assert.Equal(t, []types.EntityStat{{Name: "A", Seconds: 3600}}, report.Entities)
}

func TestStatsService_BuildReportReadFailure(t *testing.T) {
	repo := NewMockRepository()
	repo.SetFailureModes(false, false, true, false)
	svc := NewStatsService(repo, newFakeClock(time.Now()), newTestLogger())

	report, err := svc.BuildReport(context.Background(), PeriodToday, time.Time{}, time.Time{})
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Empty(t, report.Entities)
	assert.Zero(t, report.TotalSeconds)
}
