package app

import (
	"fmt"
	"strings"
	"time"

	"apptime/internal/report"
	"apptime/internal/services"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type reportOptions struct {
	period string
	from   string
	to     string
	format string
}

func newReportCommand(opts *rootOptions) *cobra.Command {
	ro := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show time per application for a period",
		Long: `Aggregate recorded focus time per application. Periods are relative to
now; --from/--to select whole local days and imply --period custom.`,
		Example: `  apptime report
  apptime report --period this-week
  apptime report --from 2024-05-01 --to 2024-05-07 --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts, ro)
		},
	}

	cmd.Flags().StringVarP(&ro.period, "period", "p", services.PeriodToday.String(),
		"Period to report: "+strings.Join(services.PeriodNames(), ", "))
	cmd.Flags().StringVar(&ro.from, "from", "", "First day of a custom range (YYYY-MM-DD, default: first recorded day)")
	cmd.Flags().StringVar(&ro.to, "to", "", "Last day of a custom range (YYYY-MM-DD, default: today)")
	cmd.Flags().StringVarP(&ro.format, "format", "o", report.FormatTable,
		"Output format: "+strings.Join(report.Formats, ", "))
	return cmd
}

// resolve turns the flags into a period and, for custom ranges, its days.
// Missing custom bounds default to the first recorded day and today.
func (ro *reportOptions) resolve(cmd *cobra.Command, application *App) (services.Period, time.Time, time.Time, error) {
	period, err := services.ParsePeriod(ro.period)
	if err != nil {
		return period, time.Time{}, time.Time{}, err
	}
	if (ro.from != "" || ro.to != "") && !cmd.Flags().Changed("period") {
		period = services.PeriodCustom
	}
	if period != services.PeriodCustom {
		return period, time.Time{}, time.Time{}, nil
	}

	to := application.clock.Now()
	if ro.to != "" {
		if to, err = services.ParseDate(ro.to); err != nil {
			return period, time.Time{}, time.Time{}, err
		}
	}

	var from time.Time
	if ro.from != "" {
		if from, err = services.ParseDate(ro.from); err != nil {
			return period, time.Time{}, time.Time{}, err
		}
	} else if from, err = application.GetMinDate(cmd.Context()); err != nil {
		from = to
	}
	return period, from, to, nil
}

func runReport(cmd *cobra.Command, opts *rootOptions, ro *reportOptions) error {
	format := strings.ToLower(ro.format)
	switch format {
	case report.FormatTable, report.FormatJSON, report.FormatYAML:
	default:
		return fmt.Errorf("unknown output format %q (want one of %s)", ro.format, strings.Join(report.Formats, ", "))
	}

	application, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, application)

	period, from, to, err := ro.resolve(cmd, application)
	if err != nil {
		return err
	}

	usage, err := application.BuildReport(cmd.Context(), period, from, to)
	if err != nil {
		// A failed read still renders, as an empty report
		yellow := color.New(color.FgYellow, color.Bold)
		yellow.Fprintf(cmd.ErrOrStderr(), "Warning: could not read activity: %v\n", err)
	}
	return report.Render(cmd.OutOrStdout(), usage, format)
}
