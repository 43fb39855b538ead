package dedup

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the tuning parameters for duplicate detection.
type Config struct {
	// TimeWindowMinutes is the tolerance for matching start times, after
	// any candidate time shift is applied. It absorbs normal device sync
	// delays; DST discrepancies are handled by the shift search instead.
	// Default: 10.
	TimeWindowMinutes float64

	// DistanceTolerancePercent is the maximum relative distance
	// difference, in percent of the larger distance. Default: 5.
	DistanceTolerancePercent float64

	// DurationTolerancePercent is the maximum relative duration
	// difference, in percent of the longer duration. Default: 5.
	DurationTolerancePercent float64

	// MinimumOverlapPercent is the temporal overlap required to declare a
	// duplicate. The boundary is inclusive: exactly this value matches.
	// Default: 80.
	MinimumOverlapPercent float64
}

// DefaultConfig returns the default detection configuration. The defaults
// are deliberately tight: loosening them finds more duplicates but risks
// pairing back-to-back workouts of the same type.
func DefaultConfig() Config {
	return Config{
		TimeWindowMinutes:        10,
		DistanceTolerancePercent: 5,
		DurationTolerancePercent: 5,
		MinimumOverlapPercent:    80,
	}
}

// Validate checks the configuration for values that cannot produce useful
// results. The detector itself tolerates nonsense (a negative window just
// matches nothing); validation is for callers that want to reject bad
// flags early.
func (c Config) Validate() error {
	if c.TimeWindowMinutes < 0 {
		return fmt.Errorf("time_window_minutes cannot be negative (got %.1f)", c.TimeWindowMinutes)
	}
	if c.DistanceTolerancePercent < 0 {
		return fmt.Errorf("distance_tolerance_percent cannot be negative (got %.1f)", c.DistanceTolerancePercent)
	}
	if c.DurationTolerancePercent < 0 {
		return fmt.Errorf("duration_tolerance_percent cannot be negative (got %.1f)", c.DurationTolerancePercent)
	}
	if c.MinimumOverlapPercent < 0 || c.MinimumOverlapPercent > 100 {
		return fmt.Errorf("minimum_overlap_percent must be between 0 and 100 (got %.1f)", c.MinimumOverlapPercent)
	}
	return nil
}

// String returns a human-readable representation of the config.
func (c Config) String() string {
	return fmt.Sprintf("Config{Window: %.0fm, DistanceTol: %.0f%%, DurationTol: %.0f%%, MinOverlap: %.0f%%}",
		c.TimeWindowMinutes, c.DistanceTolerancePercent, c.DurationTolerancePercent, c.MinimumOverlapPercent)
}

// ConfigFromEnv creates a Config from environment variables, falling back
// to defaults.
//
// Environment variables:
//   - FITDEDUP_TIME_WINDOW_MINUTES: start-time tolerance in minutes (default: 10)
//   - FITDEDUP_DISTANCE_TOLERANCE_PCT: distance tolerance in percent (default: 5)
//   - FITDEDUP_DURATION_TOLERANCE_PCT: duration tolerance in percent (default: 5)
//   - FITDEDUP_MIN_OVERLAP_PCT: minimum overlap in percent (default: 80)
//
// Returns an error if a variable is set to an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overlays the FITDEDUP_* environment variables onto an existing
// config, so file-based settings can still be overridden per run.
func (c *Config) ApplyEnv() error {
	if err := parseEnvFloat("FITDEDUP_TIME_WINDOW_MINUTES", &c.TimeWindowMinutes); err != nil {
		return err
	}
	if err := parseEnvFloat("FITDEDUP_DISTANCE_TOLERANCE_PCT", &c.DistanceTolerancePercent); err != nil {
		return err
	}
	if err := parseEnvFloat("FITDEDUP_DURATION_TOLERANCE_PCT", &c.DurationTolerancePercent); err != nil {
		return err
	}
	if err := parseEnvFloat("FITDEDUP_MIN_OVERLAP_PCT", &c.MinimumOverlapPercent); err != nil {
		return err
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return nil
}

// parseEnvFloat parses a float64 from an environment variable.
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
