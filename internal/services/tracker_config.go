package services

import (
	"fmt"
	"time"
)

const (
	DefaultPollInterval   = 5 * time.Second
	DefaultPersistTimeout = 2 * time.Second
)

// TrackerConfig controls the sampling loop
type TrackerConfig struct {
	// PollInterval is the time between two focus samples
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" mapstructure:"poll_interval"`

	// PersistTimeout bounds the transaction of a single tick. It is applied
	// to a context detached from the run context so shutdown never aborts a
	// write half way.
	PersistTimeout time.Duration `json:"persist_timeout" yaml:"persist_timeout" mapstructure:"persist_timeout"`
}

// DefaultTrackerConfig returns the intervals used by the original tracker
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		PollInterval:   DefaultPollInterval,
		PersistTimeout: DefaultPersistTimeout,
	}
}

// Validate checks the configuration for nonsensical values
func (c TrackerConfig) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.PersistTimeout <= 0 {
		return fmt.Errorf("persist timeout must be positive, got %s", c.PersistTimeout)
	}
	return nil
}

// withDefaults fills zero fields from DefaultTrackerConfig
func (c TrackerConfig) withDefaults() TrackerConfig {
	d := DefaultTrackerConfig()
	if c.PollInterval == 0 {
		c.PollInterval = d.PollInterval
	}
	if c.PersistTimeout == 0 {
		c.PersistTimeout = d.PersistTimeout
	}
	return c
}
