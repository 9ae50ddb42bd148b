package app

import (
	"fmt"
	"time"

	"apptime/internal/services"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newMinDateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "min-date",
		Short: "Print the first day with recorded activity",
		Long:  `Print the local date of the earliest recorded interval, or today when nothing has been recorded.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, application)

			day, err := application.GetMinDate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), day.Format(services.DateLayout))
			return nil
		},
	}
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database health and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, application)

			st, err := application.Status(cmd.Context())
			printStatus(cmd, st)
			return err
		},
	}
}

func printStatus(cmd *cobra.Command, st *Status) {
	out := cmd.OutOrStdout()
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	configFile := st.ConfigFile
	if configFile == "" {
		configFile = "(defaults)"
	}

	cyan.Fprintln(out, "apptime status")
	fmt.Fprintf(out, "  Config:     %s\n", configFile)
	fmt.Fprintf(out, "  Database:   %s\n", st.Path)
	if !st.Healthy {
		fmt.Fprintf(out, "  Health:     %s\n", red.Sprintf("FAIL (%v)", st.HealthError))
		return
	}
	fmt.Fprintf(out, "  Health:     %s\n", green.Sprint("OK"))
	fmt.Fprintf(out, "  Schema:     version %d\n", st.MigrationVersion)
	fmt.Fprintf(out, "  Intervals:  %d\n", st.Intervals)
	if !st.MinDate.IsZero() {
		fmt.Fprintf(out, "  First day:  %s\n", st.MinDate.Format(services.DateLayout))
	}
	fmt.Fprintf(out, "  Open conns: %d\n", st.OpenConnections)
}

func newMaintainCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "maintain",
		Short: "Optimize the activity database",
		Long:  `Run ANALYZE, a WAL checkpoint and VACUUM on the activity database.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, application)

			result, err := application.Maintain(cmd.Context())
			if err != nil {
				return err
			}
			green := color.New(color.FgGreen, color.Bold)
			green.Fprintf(cmd.OutOrStdout(), "Database optimized in %s, reclaimed %.1f KiB\n",
				result.Duration.Round(time.Millisecond), float64(result.Reclaimed())/1024)
			return nil
		},
	}
}
