package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// InMemoryPath selects a private in-memory database
	InMemoryPath = ":memory:"

	dataDirName  = "app-time"
	dataFileName = "db.sqlite"
)

// parseBoolEnv reads an environment variable and parses it as a boolean.
// The second result reports whether the variable was present and parseable.
func parseBoolEnv(key string) (bool, bool) {
	value := os.Getenv(key)
	if value == "" {
		return false, false
	}

	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed, true
	}

	switch strings.ToLower(value) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// Config holds the activity database options
type Config struct {
	Path                  string        `json:"path" yaml:"path" mapstructure:"path"`
	MaxConnections        int           `json:"maxConnections" yaml:"maxConnections" mapstructure:"max_connections"`
	MaxIdleConns          int           `json:"maxIdleConns" yaml:"maxIdleConns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime       time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime       time.Duration `json:"connMaxIdleTime" yaml:"connMaxIdleTime" mapstructure:"conn_max_idle_time"`
	ForceSingleConnection bool          `json:"forceSingleConnection" yaml:"forceSingleConnection" mapstructure:"force_single_connection"`

	// AutoMigrate applies the embedded goose migrations on startup
	AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate" mapstructure:"auto_migrate"`

	// SQLite pragmas
	JournalMode     string `json:"journalMode" yaml:"journalMode" mapstructure:"journal_mode"`
	SynchronousMode string `json:"synchronousMode" yaml:"synchronousMode" mapstructure:"synchronous_mode"`
	CacheSize       int    `json:"cacheSize" yaml:"cacheSize" mapstructure:"cache_size"`       // KB
	BusyTimeout     int    `json:"busyTimeout" yaml:"busyTimeout" mapstructure:"busy_timeout"` // milliseconds

	Environment string `json:"environment" yaml:"environment" mapstructure:"environment"`
	LogLevel    string `json:"logLevel" yaml:"logLevel" mapstructure:"log_level"`
}

// DefaultPath returns <user cache dir>/app-time/db.sqlite, which on Windows
// is %LOCALAPPDATA%\app-time\db.sqlite. Falls back to the working directory.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return dataFileName
	}
	return filepath.Join(dir, dataDirName, dataFileName)
}

// DefaultConfig returns the production configuration
func DefaultConfig() *Config {
	return &Config{
		Path:            DefaultPath(),
		MaxConnections:  4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 24 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,

		AutoMigrate: true,

		// WAL lets report commands read while the tracker writes
		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		CacheSize:       2000,
		BusyTimeout:     5000,

		Environment: "production",
		LogLevel:    "info",
	}
}

// DevelopmentConfig keeps the database next to the binary
func DevelopmentConfig() *Config {
	config := DefaultConfig()
	config.Path = "apptime_dev.db"
	config.Environment = "development"
	config.LogLevel = "debug"
	return config
}

// TestConfig returns a single-connection in-memory configuration
func TestConfig() *Config {
	config := DefaultConfig()
	config.Path = InMemoryPath
	config.Environment = "test"
	config.LogLevel = "error"

	// Every pooled connection would see its own empty :memory: database
	config.ForceSingleConnection = true
	config.ConnMaxLifetime = 0
	config.ConnMaxIdleTime = 0

	config.JournalMode = "MEMORY"
	config.SynchronousMode = "OFF"
	config.CacheSize = 1000
	config.BusyTimeout = 1000
	return config
}

// ConfigForEnvironment returns the profile for env
func ConfigForEnvironment(env string) *Config {
	switch env {
	case "development":
		return DevelopmentConfig()
	case "test":
		return TestConfig()
	default:
		return DefaultConfig()
	}
}

// LoadFromEnvironment overrides fields from APPTIME_DB_* variables.
// Unparseable values are ignored.
func (c *Config) LoadFromEnvironment() error {
	if path := os.Getenv("APPTIME_DB_PATH"); path != "" {
		c.Path = path
	}

	if v := os.Getenv("APPTIME_DB_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxConnections = n
		}
	}
	if v := os.Getenv("APPTIME_DB_MAX_IDLE_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.MaxIdleConns = n
		}
	}
	if v := os.Getenv("APPTIME_DB_CONN_MAX_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ConnMaxLifetime = d
		}
	}
	if v := os.Getenv("APPTIME_DB_CONN_MAX_IDLE_TIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ConnMaxIdleTime = d
		}
	}
	if b, ok := parseBoolEnv("APPTIME_DB_FORCE_SINGLE_CONNECTION"); ok {
		c.ForceSingleConnection = b
	}
	if b, ok := parseBoolEnv("APPTIME_DB_AUTO_MIGRATE"); ok {
		c.AutoMigrate = b
	}

	if v := os.Getenv("APPTIME_DB_JOURNAL_MODE"); v != "" {
		c.JournalMode = strings.ToUpper(v)
	}
	if v := os.Getenv("APPTIME_DB_SYNCHRONOUS_MODE"); v != "" {
		c.SynchronousMode = strings.ToUpper(v)
	}
	if v := os.Getenv("APPTIME_DB_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CacheSize = n
		}
	}
	if v := os.Getenv("APPTIME_DB_BUSY_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.BusyTimeout = n
		}
	}

	if v := os.Getenv("APPTIME_ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("APPTIME_DB_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

var (
	validJournalModes = map[string]bool{"DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true}
	validSyncModes    = map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
	validEnvironments = map[string]bool{"development": true, "test": true, "production": true}
	validLogLevels    = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
)

// Validate checks the configuration and creates the database directory
// for file-backed databases
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if !c.IsInMemory() {
		if dir := filepath.Dir(c.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	if c.MaxConnections <= 0 {
		return fmt.Errorf("maxConnections must be positive, got %d", c.MaxConnections)
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("maxIdleConns cannot be negative, got %d", c.MaxIdleConns)
	}
	if c.MaxIdleConns > c.MaxConnections {
		return fmt.Errorf("maxIdleConns (%d) cannot be greater than maxConnections (%d)", c.MaxIdleConns, c.MaxConnections)
	}
	if c.ConnMaxLifetime < 0 {
		return fmt.Errorf("connMaxLifetime cannot be negative, got %v", c.ConnMaxLifetime)
	}
	if c.ConnMaxIdleTime < 0 {
		return fmt.Errorf("connMaxIdleTime cannot be negative, got %v", c.ConnMaxIdleTime)
	}

	if !validJournalModes[strings.ToUpper(c.JournalMode)] {
		return fmt.Errorf("invalid journalMode: %s", c.JournalMode)
	}
	if c.IsInMemory() && strings.EqualFold(c.JournalMode, "WAL") {
		return fmt.Errorf("journalMode cannot be WAL when using in-memory database")
	}
	if !validSyncModes[strings.ToUpper(c.SynchronousMode)] {
		return fmt.Errorf("invalid synchronousMode: %s", c.SynchronousMode)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cacheSize must be positive, got %d", c.CacheSize)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("busyTimeout cannot be negative, got %d", c.BusyTimeout)
	}

	if !validEnvironments[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid logLevel: %s", c.LogLevel)
	}
	return nil
}

// GetConnectionString builds the go-sqlite3 DSN: the path followed by the
// pragma query parameters
func (c *Config) GetConnectionString() string {
	values := url.Values{}
	values.Set("_journal_mode", strings.ToUpper(c.JournalMode))
	values.Set("_synchronous", strings.ToUpper(c.SynchronousMode))
	// Negative cache_size is interpreted by SQLite as KB
	values.Set("_cache_size", strconv.Itoa(-c.CacheSize))
	values.Set("_busy_timeout", strconv.Itoa(c.BusyTimeout))
	// BEGIN IMMEDIATE so the tracker's write transaction takes the lock up front
	values.Set("_txlock", "immediate")

	// Only escape characters that would break query string parsing
	path := strings.NewReplacer("?", "%3F", "&", "%26").Replace(c.Path)
	return path + "?" + values.Encode()
}

// Clone returns a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// IsInMemory reports whether the database lives in memory
func (c *Config) IsInMemory() bool {
	return c.Path == InMemoryPath
}

// IsTest reports whether the test profile is active
func (c *Config) IsTest() bool {
	return c.Environment == "test"
}
