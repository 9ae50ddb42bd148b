// Package report turns aggregated focus time into tables and exports.
package report

import (
	"fmt"
	"math"
	"strings"

	"apptime/internal/types"
)

// BarWidth is the width of a bar that represents 100% of the total
const BarWidth = 30

const barRune = "▀"

// FormatDuration renders seconds as "Ns", "Mm Ss", "Hh Mm Ss" or
// "Dd Hh Mm Ss", using the largest unit that is non-zero
func FormatDuration(seconds uint64) string {
	minutes := seconds / 60
	if minutes == 0 {
		return fmt.Sprintf("%ds", seconds)
	}
	hours := minutes / 60
	if hours == 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	}
	days := hours / 24
	if days == 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes%60, seconds%60)
	}
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours%24, minutes%60, seconds%60)
}

// Ratio is part/total, or 0 when total is 0
func Ratio(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

// Percent returns the rounded share of part in total
func Percent(part, total uint64) int {
	return int(math.Round(Ratio(part, total) * 100))
}

// Bar draws floor(width*ratio) bar segments
func Bar(ratio float64, width int) string {
	if ratio <= 0 || width <= 0 {
		return ""
	}
	if ratio > 1 {
		ratio = 1
	}
	return strings.Repeat(barRune, int(math.Floor(float64(width)*ratio)))
}

// Row is one presentation line of a report
type Row struct {
	Name     string `json:"name" yaml:"name"`
	Seconds  uint64 `json:"seconds" yaml:"seconds"`
	Duration string `json:"duration" yaml:"duration"`
	Percent  int    `json:"percent" yaml:"percent"`
	Bar      string `json:"-" yaml:"-"`
}

// Rows derives the presentation rows of r in its entity order
func Rows(r *types.UsageReport) []Row {
	rows := make([]Row, 0, len(r.Entities))
	for _, e := range r.Entities {
		rows = append(rows, Row{
			Name:     e.Name,
			Seconds:  e.Seconds,
			Duration: FormatDuration(e.Seconds),
			Percent:  Percent(e.Seconds, r.TotalSeconds),
			Bar:      Bar(Ratio(e.Seconds, r.TotalSeconds), BarWidth),
		})
	}
	return rows
}
