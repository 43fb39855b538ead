// Package config loads the tool configuration from the user's config
// directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jrowe/fitdedup/internal/dedup"
)

// File represents the structure of the fitdedup config.yaml.
type File struct {
	// Strava API application credentials, from
	// https://www.strava.com/settings/api.
	Strava StravaConfig `yaml:"strava"`

	// Stryd account credentials.
	Stryd StrydConfig `yaml:"stryd"`

	// Detection thresholds. Missing keys keep their defaults.
	Thresholds ThresholdConfig `yaml:"thresholds"`
}

// StravaConfig holds the OAuth application settings for Strava.
type StravaConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
	Scope        string `yaml:"scope"`
}

// StrydConfig holds the sign-in credentials for Stryd.
type StrydConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// ThresholdConfig mirrors dedup.Config with yaml tags.
type ThresholdConfig struct {
	TimeWindowMinutes        float64 `yaml:"time_window_minutes"`
	DistanceTolerancePercent float64 `yaml:"distance_tolerance_percent"`
	DurationTolerancePercent float64 `yaml:"duration_tolerance_percent"`
	MinimumOverlapPercent    float64 `yaml:"minimum_overlap_percent"`
}

// Default returns a config with detection thresholds at their defaults and
// the standard Strava OAuth settings filled in.
func Default() *File {
	d := dedup.DefaultConfig()
	return &File{
		Strava: StravaConfig{
			RedirectURI: "http://localhost:8723",
			Scope:       "read,activity:read_all",
		},
		Thresholds: ThresholdConfig{
			TimeWindowMinutes:        d.TimeWindowMinutes,
			DistanceTolerancePercent: d.DistanceTolerancePercent,
			DurationTolerancePercent: d.DurationTolerancePercent,
			MinimumOverlapPercent:    d.MinimumOverlapPercent,
		},
	}
}

// Load reads the config file at path. A missing file is not an error: the
// defaults are returned so commands that need no credentials still work.
func Load(path string) (*File, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// DedupConfig converts the file thresholds into a detector configuration.
func (f *File) DedupConfig() dedup.Config {
	return dedup.Config{
		TimeWindowMinutes:        f.Thresholds.TimeWindowMinutes,
		DistanceTolerancePercent: f.Thresholds.DistanceTolerancePercent,
		DurationTolerancePercent: f.Thresholds.DurationTolerancePercent,
		MinimumOverlapPercent:    f.Thresholds.MinimumOverlapPercent,
	}
}

// DefaultPath returns the standard location of the config file,
// $XDG_CONFIG_HOME/fitdedup/config.yaml or the platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "fitdedup", "config.yaml"), nil
}

// TokenDBPath returns the standard location of the credential cache,
// next to the config file.
func TokenDBPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "fitdedup", "tokens.db"), nil
}
