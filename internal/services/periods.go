package services

import (
	"fmt"
	"strings"
	"time"

	"apptime/internal/calendar"
	"apptime/internal/types"
)

// Period names a reporting window
type Period int

const (
	PeriodTotal Period = iota
	PeriodToday
	PeriodYesterday
	PeriodLast3Days
	PeriodThisWeek
	PeriodLastWeek
	PeriodCustom
)

// Periods lists every period in menu order
var Periods = []Period{
	PeriodTotal,
	PeriodToday,
	PeriodYesterday,
	PeriodLast3Days,
	PeriodThisWeek,
	PeriodLastWeek,
	PeriodCustom,
}

var periodNames = map[Period]string{
	PeriodTotal:     "total",
	PeriodToday:     "today",
	PeriodYesterday: "yesterday",
	PeriodLast3Days: "last-3-days",
	PeriodThisWeek:  "this-week",
	PeriodLastWeek:  "last-week",
	PeriodCustom:    "custom",
}

var periodTitles = map[Period]string{
	PeriodTotal:     "Total",
	PeriodToday:     "Today",
	PeriodYesterday: "Yesterday",
	PeriodLast3Days: "Last 3 days",
	PeriodThisWeek:  "This week",
	PeriodLastWeek:  "Last week",
	PeriodCustom:    "Custom",
}

// String returns the command line name of the period
func (p Period) String() string {
	if name, ok := periodNames[p]; ok {
		return name
	}
	return fmt.Sprintf("period(%d)", int(p))
}

// Title returns the human readable name of the period
func (p Period) Title() string {
	if title, ok := periodTitles[p]; ok {
		return title
	}
	return p.String()
}

// ParsePeriod accepts the command line name of a period. Case, spaces and
// underscores are ignored, so "Last 3 days" and "last_3_days" both work.
func ParsePeriod(s string) (Period, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "-", "_", "-").Replace(key)
	for p, name := range periodNames {
		if name == key {
			return p, nil
		}
	}
	return PeriodTotal, fmt.Errorf("unknown period %q (want one of %s)", s, strings.Join(PeriodNames(), ", "))
}

// PeriodNames returns the command line names in menu order
func PeriodNames() []string {
	names := make([]string, 0, len(Periods))
	for _, p := range Periods {
		names = append(names, p.String())
	}
	return names
}

// ResolvePeriod maps a named period onto a time range relative to now.
// Total resolves to nil (no filter). Custom has no fixed range and also
// resolves to nil; use CustomRange for it.
func ResolvePeriod(p Period, now time.Time) *types.TimeRange {
	nowTS := calendar.Timestamp(now)

	switch p {
	case PeriodToday:
		return &types.TimeRange{From: calendar.StartOfDayTS(now, 0), To: nowTS}
	case PeriodYesterday:
		return &types.TimeRange{From: calendar.StartOfDayTS(now, 1), To: calendar.StartOfDayTS(now, 0)}
	case PeriodLast3Days:
		return &types.TimeRange{From: calendar.StartOfDayTS(now, 2), To: nowTS}
	case PeriodThisWeek:
		return &types.TimeRange{From: calendar.StartOfWeekTS(now, 0), To: nowTS}
	case PeriodLastWeek:
		return &types.TimeRange{From: calendar.StartOfWeekTS(now, 1), To: calendar.StartOfWeekTS(now, 0)}
	default:
		return nil
	}
}

// CustomRange covers whole local days from the start of from to 23:59:59 of
// to. Both dates are clamped into [min, max] and swapped when reversed.
func CustomRange(from, to, min, max time.Time) *types.TimeRange {
	minDay := calendar.StartOfDay(min)
	maxDay := calendar.StartOfDay(max)
	if maxDay.Before(minDay) {
		maxDay = minDay
	}

	fromDay := clampDay(calendar.StartOfDay(from), minDay, maxDay)
	toDay := clampDay(calendar.StartOfDay(to), minDay, maxDay)
	if toDay.Before(fromDay) {
		fromDay, toDay = toDay, fromDay
	}

	endOfDay := time.Date(toDay.Year(), toDay.Month(), toDay.Day(), 23, 59, 59, 0, toDay.Location())
	return &types.TimeRange{
		From: calendar.Timestamp(fromDay),
		To:   calendar.Timestamp(endOfDay),
	}
}

func clampDay(day, min, max time.Time) time.Time {
	if day.Before(min) {
		return min
	}
	if day.After(max) {
		return max
	}
	return day
}

// DateLayout is the layout of dates on the command line and in reports
const DateLayout = "2006-01-02"

// ParseDate reads a DateLayout date as a local calendar day
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}
