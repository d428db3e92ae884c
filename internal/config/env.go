package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

const (
	EnvTickRate        = "PLATFORMER_TICK_RATE"
	EnvJournalCapacity = "PLATFORMER_JOURNAL_CAPACITY"
	EnvLogLevel        = "PLATFORMER_LOG_LEVEL"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from the process environment.
func (c *Config) ApplyEnv() error {
	return c.ApplyLookup(os.LookupEnv)
}

// ApplyLookup overrides fields from lookup. Invalid values are reported and
// leave the field untouched.
func (c *Config) ApplyLookup(lookup LookupFunc) error {
	var errs []error
	if raw, ok := lookup(EnvTickRate); ok && raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			c.Loop.TickRate = value
		} else {
			errs = append(errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvTickRate, raw, err))
		}
	}
	if raw, ok := lookup(EnvJournalCapacity); ok && raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			c.Journal.Capacity = value
		} else {
			errs = append(errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvJournalCapacity, raw, err))
		}
	}
	if raw, ok := lookup(EnvLogLevel); ok && raw != "" {
		c.Logging.Level = raw
	}
	return errors.Join(errs...)
}
