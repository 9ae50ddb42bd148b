// Package calendar computes day and week boundaries in local time.
//
// Every function works in the location carried by its time.Time argument, so
// callers pass local instants (time.Now() or a Clock) and tests may pin a
// fixed zone. DST transitions can skew a boundary by an hour; that is accepted.
package calendar

import "time"

// Clock abstracts the wall clock so the tracker can be driven in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().Local()
}

// StartOfDay truncates t to 00:00:00 of the same calendar day
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayStartAfter returns the start of the day n days after t's day.
func DayStartAfter(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+n, 0, 0, 0, 0, t.Location())
}

// StartOfDayTS returns the timestamp of the start of the day daysBack days before now
func StartOfDayTS(now time.Time, daysBack int) uint32 {
	return Timestamp(StartOfDay(now.AddDate(0, 0, -daysBack)))
}

// StartOfWeekTS returns the timestamp of Monday 00:00:00 of the week that is
// weeksBack weeks before now. The distance to Monday is taken from now's
// weekday, not from the shifted instant.
func StartOfWeekTS(now time.Time, weeksBack int) uint32 {
	shifted := now.AddDate(0, 0, -7*weeksBack)
	return StartOfDayTS(shifted, DaysFromMonday(now.Weekday()))
}

// DaysFromMonday maps a weekday onto a Monday-first week (Monday = 0, Sunday = 6).
func DaysFromMonday(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// DaysBetweenDayStarts counts whole days from the start of a's day to the
// start of b's day. It is negative when b precedes a.
func DaysBetweenDayStarts(a, b time.Time) int {
	from := StartOfDay(a)
	to := StartOfDay(b.In(a.Location()))

	// Compare calendar dates rather than dividing durations so that 23h and
	// 25h days still count as one.
	fromDate := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDate := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDate.Sub(fromDate).Hours() / 24)
}

// Timestamp converts t to 32-bit epoch seconds
func Timestamp(t time.Time) uint32 {
	return uint32(t.Unix())
}

// FromTimestamp converts epoch seconds to a local time.Time
func FromTimestamp(ts uint32) time.Time {
	return time.Unix(int64(ts), 0).Local()
}
