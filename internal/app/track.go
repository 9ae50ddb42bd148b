package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apptime/internal/metrics"
	"apptime/internal/platform"

	"github.com/spf13/cobra"
)

// newFocusSource is replaced in tests
var newFocusSource = platform.NewFocusSource

const metricsShutdownTimeout = 5 * time.Second

func newTrackCommand(opts *rootOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Record focus time until interrupted",
		Long: `Sample the focused application every poll interval and record it in the
activity database. Stops cleanly on SIGINT or SIGTERM after the write in
progress has finished.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(cmd, opts, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.address and enables metrics)")
	return cmd
}

func runTrack(cmd *cobra.Command, opts *rootOptions, metricsAddr string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, application)

	cfg := application.config
	logger := application.GetLogger()

	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = metricsAddr
	}
	if cfg.Metrics.Enabled {
		server := metrics.NewServer(cfg.Metrics.Address, logger)
		if err := server.Start(); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			if err := server.Stop(stopCtx); err != nil {
				logger.Error("Error stopping metrics server", "error", err.Error())
			}
		}()
	}

	tracker := application.NewTracker(newFocusSource())

	logger.Info("Starting apptime tracker",
		"version", version,
		"config", cfg.File,
		"db_path", cfg.Database.Path,
		"run_id", tracker.RunID())

	notifyReady(logger)
	err = tracker.Run(ctx)
	notifyStopping(logger)

	if err != nil {
		return err
	}
	logger.Info("Tracker shutdown complete")
	return nil
}
