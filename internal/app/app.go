package app

import (
	"context"
	"fmt"
	"time"

	"apptime/internal/calendar"
	"apptime/internal/config"
	"apptime/internal/database"
	"apptime/internal/infrastructure/errors"
	"apptime/internal/infrastructure/logging"
	"apptime/internal/platform"
	"apptime/internal/repository"
	"apptime/internal/services"
	"apptime/internal/types"
)

const (
	// healthCheckTimeout bounds the startup health check
	healthCheckTimeout = 5 * time.Second
	// shutdownTimeout bounds closing the database on exit
	shutdownTimeout = 30 * time.Second
)

// App wires configuration, storage and services together
type App struct {
	config     *config.Config
	dbService  database.Service
	repository *repository.SQLiteRepository
	stats      *services.StatsService
	clock      calendar.Clock
	logger     logging.Logger
}

// NewApp opens the activity database described by cfg and builds the
// services on top of it
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	dbService := database.NewSQLiteService(logger)
	if err := dbService.Connect(ctx, &cfg.Database); err != nil {
		return nil, err
	}

	// AutoMigrate already ran inside Connect
	if !cfg.Database.AutoMigrate {
		if err := dbService.Migrate(ctx); err != nil {
			dbService.Close()
			return nil, err
		}
	}

	repo, err := repository.NewSQLiteRepositoryWithPreparedQueries(ctx, dbService, repository.Options{}, logger)
	if err != nil {
		logger.Warn("Prepared statements unavailable, using plain queries", "error", err.Error())
		repo = repository.NewSQLiteRepository(dbService, logger)
	}

	clock := calendar.SystemClock{}
	a := &App{
		config:     cfg,
		dbService:  dbService,
		repository: repo,
		stats:      services.NewStatsService(repo, clock, logger),
		clock:      clock,
		logger:     logger,
	}

	if err := a.initializeDatabase(ctx); err != nil {
		dbService.Close()
		return nil, err
	}
	return a, nil
}

// initializeDatabase verifies the connection and the activity schema
func (a *App) initializeDatabase(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := a.dbService.Health(healthCtx); err != nil {
		return errors.NewRepositoryErrorWithContext("startup",
			err,
			errors.ClassifyError(err),
			map[string]string{
				"operation": "health_check",
				"db_path":   a.config.Database.Path,
			})
	}
	if err := a.repository.HealthCheck(healthCtx); err != nil {
		return err
	}

	a.logger.Debug("Database initialization completed", "db_path", a.config.Database.Path)
	return nil
}

// NewTracker builds a tracker that samples focus from source
func (a *App) NewTracker(source platform.FocusSource) *services.Tracker {
	return services.NewTracker(a.repository, source, a.clock, a.config.Tracker, a.logger)
}

// BuildReport aggregates the named period, or the custom days when p is
// PeriodCustom
func (a *App) BuildReport(ctx context.Context, p services.Period, from, to time.Time) (*types.UsageReport, error) {
	return a.stats.BuildReport(ctx, p, from, to)
}

// GetMinDate returns the first day with recorded activity
func (a *App) GetMinDate(ctx context.Context) (time.Time, error) {
	return a.stats.GetMinDate(ctx)
}

// Status summarizes the database for the status command
type Status struct {
	Path             string
	ConfigFile       string
	Healthy          bool
	HealthError      error
	MigrationVersion int64
	Intervals        int64
	MinDate          time.Time
	OpenConnections  int
}

// Status collects database health and size. Individual failures are
// recorded in the result rather than aborting.
func (a *App) Status(ctx context.Context) (*Status, error) {
	st := &Status{
		Path:       a.config.Database.Path,
		ConfigFile: a.config.File,
	}

	if err := a.dbService.Health(ctx); err != nil {
		st.HealthError = err
		return st, nil
	}
	st.Healthy = true

	version, err := a.dbService.GetMigrationVersion(ctx)
	if err != nil {
		return st, fmt.Errorf("failed to read migration version: %w", err)
	}
	st.MigrationVersion = version

	count, err := a.repository.CountIntervals(ctx)
	if err != nil {
		return st, err
	}
	st.Intervals = count

	minDate, err := a.stats.GetMinDate(ctx)
	if err != nil {
		return st, err
	}
	st.MinDate = minDate
	st.OpenConnections = a.dbService.GetStats().OpenConnections
	return st, nil
}

// Maintain runs ANALYZE, a WAL checkpoint and VACUUM
func (a *App) Maintain(ctx context.Context) (*database.MaintenanceReport, error) {
	start := time.Now()
	report, err := a.dbService.Optimize(ctx)
	if err != nil {
		logging.LogError(a.logger, err, "Maintain", map[string]interface{}{
			"db_path": a.config.Database.Path,
		})
		return nil, err
	}
	logging.LogOperation(a.logger, "Maintain", time.Since(start), map[string]interface{}{
		"db_path":   a.config.Database.Path,
		"reclaimed": report.Reclaimed(),
	})
	return report, nil
}

// Shutdown closes the database, giving up after shutdownTimeout
func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return a.closeDatabaseConnection(shutdownCtx)
}

// closeDatabaseConnection closes the database unless ctx expires first
func (a *App) closeDatabaseConnection(ctx context.Context) error {
	if a.dbService == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- a.dbService.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return errors.NewRepositoryErrorWithContext("shutdown",
				err,
				errors.ClassifyError(err),
				map[string]string{
					"operation": "close_connection",
				})
		}
		a.logger.Debug("Database connection closed")
		return nil
	case <-ctx.Done():
		a.logger.Warn("Database close operation timed out")
		return errors.NewRepositoryError("shutdown", ctx.Err(), errors.ErrCodeTimeout)
	}
}

// GetLogger returns the application's structured logger
func (a *App) GetLogger() logging.Logger {
	return a.logger
}
