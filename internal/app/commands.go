package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"apptime/internal/config"
	"apptime/internal/infrastructure/logging"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootOptions are the global flags shared by every command
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	logOutput  io.Writer
}

// NewRootCommand builds the apptime command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "apptime",
		Short: "apptime - record and report time spent in focused applications",
		Long: `apptime samples the focused application, stores focus time as
day-aligned intervals in SQLite and reports per-application totals for
named periods or custom date ranges.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (default: ./apptime.yaml or <user config dir>/app-time/apptime.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Override the log format (json, text)")

	root.AddCommand(
		newTrackCommand(opts),
		newReportCommand(opts),
		newMinDateCommand(opts),
		newStatusCommand(opts),
		newMaintainCommand(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// load reads the configuration and builds the logger for a command
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}

	out := o.logOutput
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	logger := logging.NewLogger(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: out,
	})
	return cfg, logger, nil
}

// open loads configuration and opens the application
func (o *rootOptions) open(cmd *cobra.Command) (*App, error) {
	cfg, logger, err := o.load(cmd)
	if err != nil {
		return nil, err
	}
	application, err := NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity database: %w", err)
	}
	return application, nil
}

// closeApp shuts the application down and logs, rather than returns, failures
func closeApp(cmd *cobra.Command, application *App) {
	if err := application.Shutdown(context.WithoutCancel(cmd.Context())); err != nil {
		application.GetLogger().Error("Failed to close activity database", "error", err.Error())
	}
}
