package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dpup/runtrack/server/internal/lib/elevation"
	"github.com/dpup/runtrack/server/internal/lib/geo"
	"github.com/dpup/runtrack/server/internal/lib/session"
	"github.com/dpup/runtrack/server/internal/lib/track"
)

// EnvPrefix marks environment overrides, e.g. RUNTRACK__TRACKING__REQUIRED_ACCURACY=15
const EnvPrefix = "RUNTRACK__"

// Config represents the complete tracker configuration
type Config struct {
	Tracking    TrackingConfig    `yaml:"tracking"`
	Elevation   elevation.Options `yaml:"elevation"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Snapshots   SnapshotsConfig   `yaml:"snapshots"`
}

// TrackingConfig holds the live session settings
type TrackingConfig struct {
	AppName          string        `yaml:"app_name"`
	RequiredAccuracy float32       `yaml:"required_accuracy"`
	Algorithm        string        `yaml:"algorithm"`
	UpdateInterval   time.Duration `yaml:"update_interval"`
	MinDistance      float64       `yaml:"min_distance"`
	LogDirectory     string        `yaml:"log_directory"`
	FileExtension    string        `yaml:"file_extension"`

	// Accepted fixes kept in memory for track export
	MaxPoints int `yaml:"max_points"`
}

// AggregationConfig selects how batch tracks are measured
type AggregationConfig struct {
	Algorithm string `yaml:"algorithm"`
	Mode      string `yaml:"mode"`
}

// SnapshotsConfig controls session persistence. An empty RedisAddr keeps
// snapshots in memory.
type SnapshotsConfig struct {
	Interval      time.Duration `yaml:"interval"`
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Tracking: TrackingConfig{
			AppName:          "runtrack",
			RequiredAccuracy: 10.0,
			Algorithm:        geo.Vincenty.String(),
			UpdateInterval:   7500 * time.Millisecond,
			MinDistance:      0,
			LogDirectory:     "AndroidRun",
			FileExtension:    ".csv",
			MaxPoints:        100000,
		},
		Elevation: elevation.DefaultOptions(),
		Aggregation: AggregationConfig{
			Algorithm: geo.Vincenty.String(),
			Mode:      track.ModeCumulative.String(),
		},
		Snapshots: SnapshotsConfig{
			Interval: 30 * time.Second,
			TTL:      24 * time.Hour,
		},
	}
}

// Load layers an optional YAML file at path and RUNTRACK__ environment variables
// over the defaults
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	return FromKoanf(k)
}

// FromKoanf unmarshals an already loaded koanf instance over the defaults
func FromKoanf(k *koanf.Koanf) (*Config, error) {
	cfg := DefaultConfig()
	for _, section := range []struct {
		path string
		dst  interface{}
	}{
		{"tracking", &cfg.Tracking},
		{"elevation", &cfg.Elevation},
		{"aggregation", &cfg.Aggregation},
		{"snapshots", &cfg.Snapshots},
	} {
		if !k.Exists(section.path) {
			continue
		}
		if err := k.UnmarshalWithConf(section.path, section.dst, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s section: %w", section.path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the tracker cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Tracking.RequiredAccuracy <= 0 {
		errs = append(errs, fmt.Errorf("tracking.required_accuracy must be positive, got %v", c.Tracking.RequiredAccuracy))
	}
	if _, err := geo.ParseAlgorithm(c.Tracking.Algorithm); err != nil {
		errs = append(errs, fmt.Errorf("tracking.algorithm: %w", err))
	}
	if c.Tracking.MaxPoints < 0 {
		errs = append(errs, fmt.Errorf("tracking.max_points must not be negative, got %d", c.Tracking.MaxPoints))
	}
	if c.Elevation.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("elevation.window_size must be positive, got %d", c.Elevation.WindowSize))
	}
	if c.Elevation.MaxDelta <= 0 {
		errs = append(errs, fmt.Errorf("elevation.max_delta must be positive, got %v", c.Elevation.MaxDelta))
	}
	if c.Elevation.MinSatellites <= 0 {
		errs = append(errs, fmt.Errorf("elevation.min_satellites must be positive, got %d", c.Elevation.MinSatellites))
	}
	if _, err := geo.ParseAlgorithm(c.Aggregation.Algorithm); err != nil {
		errs = append(errs, fmt.Errorf("aggregation.algorithm: %w", err))
	}
	if _, err := track.ParseMode(c.Aggregation.Mode); err != nil {
		errs = append(errs, fmt.Errorf("aggregation.mode: %w", err))
	}
	if c.Snapshots.Interval < 0 {
		errs = append(errs, fmt.Errorf("snapshots.interval must not be negative, got %v", c.Snapshots.Interval))
	}

	return errors.Join(errs...)
}

// SessionConfig builds the live session settings. The log file name is derived
// from now.
func (c *Config) SessionConfig(now time.Time) (session.Config, error) {
	alg, err := geo.ParseAlgorithm(c.Tracking.Algorithm)
	if err != nil {
		return session.Config{}, err
	}

	return session.Config{
		AppName:          c.Tracking.AppName,
		RequiredAccuracy: c.Tracking.RequiredAccuracy,
		Algorithm:        alg,
		Elevation:        c.Elevation,
		UpdateInterval:   c.Tracking.UpdateInterval,
		MinDistance:      c.Tracking.MinDistance,
		LogFileName:      session.LogFileName(c.Tracking.LogDirectory, c.Tracking.FileExtension, now),
	}, nil
}

// Aggregator builds the batch track aggregator
func (c *Config) Aggregator() (*track.Aggregator, error) {
	alg, err := geo.ParseAlgorithm(c.Aggregation.Algorithm)
	if err != nil {
		return nil, err
	}
	mode, err := track.ParseMode(c.Aggregation.Mode)
	if err != nil {
		return nil, err
	}
	return track.NewAggregator(alg, mode), nil
}
