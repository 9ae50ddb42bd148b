package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"apptime/internal/calendar"
	"apptime/internal/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists the accepted output formats
var Formats = []string{FormatTable, FormatJSON, FormatYAML}

var (
	yellow = lipgloss.Color("#f9e2af")
	subtle = lipgloss.Color("#a6adc8")
	accent = lipgloss.Color("#74c7ec")

	titleStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(subtle)
	headerStyle = lipgloss.NewStyle().Foreground(accent).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	barStyle    = cellStyle.Foreground(yellow)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// Render writes r to w in the given format
func Render(w io.Writer, r *types.UsageReport, format string) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		_, err := io.WriteString(w, RenderTable(r)+"\n")
		return err
	case FormatJSON:
		return RenderJSON(w, r)
	case FormatYAML:
		return RenderYAML(w, r)
	default:
		return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// RenderTable draws the report as a styled terminal table
func RenderTable(r *types.UsageReport) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Period))
	if r.Range != nil {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s to %s", formatTS(r.Range.From), formatTS(r.Range.To))))
	}
	b.WriteString("\n")

	rows := Rows(r)
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("No activity recorded for this period."))
		return b.String()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers("Application", "Share", "%", "Time").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1:
				return barStyle
			case col == 2 || col == 3:
				return numberStyle
			default:
				return cellStyle
			}
		})

	for _, row := range rows {
		t.Row(row.Name, row.Bar, fmt.Sprintf("%d%%", row.Percent), row.Duration)
	}

	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Total: " + FormatDuration(r.TotalSeconds)))
	return b.String()
}

// document is the export shape shared by JSON and YAML
type document struct {
	Period       string `json:"period" yaml:"period"`
	From         string `json:"from,omitempty" yaml:"from,omitempty"`
	To           string `json:"to,omitempty" yaml:"to,omitempty"`
	TotalSeconds uint64 `json:"totalSeconds" yaml:"totalSeconds"`
	Total        string `json:"total" yaml:"total"`
	Entities     []Row  `json:"entities" yaml:"entities"`
}

func newDocument(r *types.UsageReport) document {
	doc := document{
		Period:       r.Period,
		TotalSeconds: r.TotalSeconds,
		Total:        FormatDuration(r.TotalSeconds),
		Entities:     Rows(r),
	}
	if r.Range != nil {
		doc.From = formatTS(r.Range.From)
		doc.To = formatTS(r.Range.To)
	}
	return doc
}

// RenderJSON writes the report as indented JSON
func RenderJSON(w io.Writer, r *types.UsageReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newDocument(r))
}

// RenderYAML writes the report as YAML
func RenderYAML(w io.Writer, r *types.UsageReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(r)); err != nil {
		return err
	}
	return enc.Close()
}

func formatTS(ts uint32) string {
	return calendar.FromTimestamp(ts).Format(time.RFC3339)
}
