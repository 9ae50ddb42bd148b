package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testZone = time.FixedZone("UTC+3", 3*60*60)

func at(year int, month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, 0, testZone)
}

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(at(2024, time.May, 15, 13, 45, 12))
	assert.Equal(t, at(2024, time.May, 15, 0, 0, 0), got)
	assert.Equal(t, testZone, got.Location())

	midnight := at(2024, time.May, 15, 0, 0, 0)
	assert.Equal(t, midnight, StartOfDay(midnight))
}

func TestStartOfDayTS(t *testing.T) {
	now := at(2024, time.March, 1, 9, 30, 0)

	assert.Equal(t, Timestamp(at(2024, time.March, 1, 0, 0, 0)), StartOfDayTS(now, 0))
	assert.Equal(t, Timestamp(at(2024, time.February, 29, 0, 0, 0)), StartOfDayTS(now, 1))
	assert.Equal(t, Timestamp(at(2024, time.February, 28, 0, 0, 0)), StartOfDayTS(now, 2))
}

func TestStartOfWeekTS(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		weeksBack int
		want      time.Time
	}{
		{"wednesday this week", at(2024, time.May, 15, 18, 0, 0), 0, at(2024, time.May, 13, 0, 0, 0)},
		{"wednesday last week", at(2024, time.May, 15, 18, 0, 0), 1, at(2024, time.May, 6, 0, 0, 0)},
		{"monday is its own week start", at(2024, time.May, 13, 0, 0, 1), 0, at(2024, time.May, 13, 0, 0, 0)},
		{"sunday belongs to the week started on monday", at(2024, time.May, 19, 23, 59, 59), 0, at(2024, time.May, 13, 0, 0, 0)},
		{"across a month boundary", at(2024, time.June, 2, 10, 0, 0), 0, at(2024, time.May, 27, 0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Timestamp(tt.want), StartOfWeekTS(tt.now, tt.weeksBack))
		})
	}
}

func TestDaysFromMonday(t *testing.T) {
	assert.Equal(t, 0, DaysFromMonday(time.Monday))
	assert.Equal(t, 2, DaysFromMonday(time.Wednesday))
	assert.Equal(t, 6, DaysFromMonday(time.Sunday))
}

func TestDaysBetweenDayStarts(t *testing.T) {
	late := at(2024, time.May, 15, 23, 59, 50)

	assert.Equal(t, 0, DaysBetweenDayStarts(late, at(2024, time.May, 15, 0, 0, 0)))
	assert.Equal(t, 1, DaysBetweenDayStarts(late, at(2024, time.May, 16, 0, 0, 0)))
	assert.Equal(t, 2, DaysBetweenDayStarts(late, at(2024, time.May, 17, 2, 0, 0)))
	assert.Equal(t, -1, DaysBetweenDayStarts(late, at(2024, time.May, 14, 12, 0, 0)))
	assert.Equal(t, 1, DaysBetweenDayStarts(at(2023, time.December, 31, 22, 0, 0), at(2024, time.January, 1, 1, 0, 0)))
}

func TestDaysBetweenDayStarts_DSTDay(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}

	// 2024-03-31 is only 23 hours long in Berlin.
	from := time.Date(2024, time.March, 30, 12, 0, 0, 0, berlin)
	to := time.Date(2024, time.April, 1, 12, 0, 0, 0, berlin)
	require.Equal(t, 2, DaysBetweenDayStarts(from, to))
	assert.Equal(t, time.Date(2024, time.March, 31, 0, 0, 0, 0, berlin), DayStartAfter(from, 1))
}

func TestTimestampRoundTrip(t *testing.T) {
	instant := at(2024, time.May, 15, 10, 0, 0)
	ts := Timestamp(instant)

	assert.True(t, FromTimestamp(ts).Equal(instant))
}
