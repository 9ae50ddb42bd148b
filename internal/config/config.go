package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"apptime/internal/database"
	"apptime/internal/services"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. APPTIME_TRACKER_POLL_INTERVAL
const EnvPrefix = "APPTIME"

// Config holds the complete application configuration
type Config struct {
	Environment string                 `mapstructure:"environment"`
	Database    database.Config        `mapstructure:"database"`
	Tracker     services.TrackerConfig `mapstructure:"tracker"`
	Logging     LoggingConfig          `mapstructure:"logging"`
	Metrics     MetricsConfig          `mapstructure:"metrics"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig defines the Prometheus endpoint served while tracking
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// Load reads configuration from configPath, or from apptime.yaml in the
// working directory and the user config directory when configPath is empty.
// Environment variables override the file and the file overrides defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	env := os.Getenv(EnvPrefix + "_ENVIRONMENT")
	if env == "" {
		env = "production"
	}
	setDefaults(v, env)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("apptime")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "app-time"))
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file, use defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.File = v.ConfigFileUsed()

	// The database layer keeps its own APPTIME_DB_* overrides
	if err := config.Database.LoadFromEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to apply database environment: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// setDefaults seeds every key so that environment overrides resolve
func setDefaults(v *viper.Viper, env string) {
	v.SetDefault("environment", env)

	db := database.ConfigForEnvironment(env)
	v.SetDefault("database.path", db.Path)
	v.SetDefault("database.max_connections", db.MaxConnections)
	v.SetDefault("database.max_idle_conns", db.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", db.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", db.ConnMaxIdleTime)
	v.SetDefault("database.force_single_connection", db.ForceSingleConnection)
	v.SetDefault("database.auto_migrate", db.AutoMigrate)
	v.SetDefault("database.journal_mode", db.JournalMode)
	v.SetDefault("database.synchronous_mode", db.SynchronousMode)
	v.SetDefault("database.cache_size", db.CacheSize)
	v.SetDefault("database.busy_timeout", db.BusyTimeout)
	v.SetDefault("database.environment", db.Environment)
	v.SetDefault("database.log_level", db.LogLevel)

	tracker := services.DefaultTrackerConfig()
	v.SetDefault("tracker.poll_interval", tracker.PollInterval)
	v.SetDefault("tracker.persist_timeout", tracker.PersistTimeout)

	v.SetDefault("logging.level", db.LogLevel)
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", "127.0.0.1:9464")
}

var validFormats = map[string]bool{"json": true, "text": true}

// validate validates the configuration
func validate(cfg *Config) error {
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}
	if err := cfg.Tracker.Validate(); err != nil {
		return err
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Address == "" {
		return fmt.Errorf("metrics address is required when metrics are enabled")
	}
	// Database.Validate creates directories, so it runs when connecting.
	return nil
}
