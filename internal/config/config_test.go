package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/runtrack/server/internal/lib/geo"
	"github.com/dpup/runtrack/server/internal/lib/track"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runtrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, float32(10.0), cfg.Tracking.RequiredAccuracy)
	assert.Equal(t, 7500*time.Millisecond, cfg.Tracking.UpdateInterval)
	assert.Equal(t, 4, cfg.Elevation.WindowSize)
	assert.Equal(t, "vincenty", cfg.Aggregation.Algorithm)
	assert.Equal(t, "cumulative", cfg.Aggregation.Mode)
	assert.Empty(t, cfg.Snapshots.RedisAddr)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
tracking:
  required_accuracy: 15.5
  update_interval: 5s
  log_directory: /var/log/runtrack
elevation:
  window_size: 6
aggregation:
  algorithm: haversine
  mode: last-segment
snapshots:
  interval: 1m
  redis_addr: localhost:6379
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, float32(15.5), cfg.Tracking.RequiredAccuracy)
	assert.Equal(t, 5*time.Second, cfg.Tracking.UpdateInterval)
	assert.Equal(t, "/var/log/runtrack", cfg.Tracking.LogDirectory)
	assert.Equal(t, ".csv", cfg.Tracking.FileExtension, "unset keys keep their defaults")
	assert.Equal(t, 6, cfg.Elevation.WindowSize)
	assert.Equal(t, 4.0, cfg.Elevation.MaxDelta)
	assert.Equal(t, time.Minute, cfg.Snapshots.Interval)
	assert.Equal(t, 24*time.Hour, cfg.Snapshots.TTL)
	assert.Equal(t, "localhost:6379", cfg.Snapshots.RedisAddr)

	agg, err := cfg.Aggregator()
	require.NoError(t, err)
	assert.Equal(t, geo.Haversine, agg.Algorithm)
	assert.Equal(t, track.ModeLastSegment, agg.Mode)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "tracking:\n  required_accuracy: 15\n")
	t.Setenv("RUNTRACK__TRACKING__REQUIRED_ACCURACY", "20")
	t.Setenv("RUNTRACK__SNAPSHOTS__TTL", "2h")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, float32(20), cfg.Tracking.RequiredAccuracy)
	assert.Equal(t, 2*time.Hour, cfg.Snapshots.TTL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "aggregation:\n  algorithm: manhattan\n"))
	assert.ErrorIs(t, err, geo.ErrUnknownAlgorithm)

	_, err = Load(writeConfig(t, "aggregation:\n  mode: average\n"))
	assert.ErrorIs(t, err, track.ErrUnknownMode)

	_, err = Load(writeConfig(t, "tracking:\n  required_accuracy: 0\n"))
	assert.ErrorContains(t, err, "tracking.required_accuracy")

	_, err = Load(writeConfig(t, "elevation:\n  min_satellites: 0\n"))
	assert.ErrorContains(t, err, "elevation.min_satellites")
}

func TestSessionConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracking.Algorithm = "great-circle"
	at := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

	sc, err := cfg.SessionConfig(at)
	require.NoError(t, err)
	assert.Equal(t, geo.GreatCircle, sc.Algorithm)
	assert.Equal(t, float32(10.0), sc.RequiredAccuracy)
	assert.Equal(t, cfg.Elevation, sc.Elevation)
	assert.Equal(t, filepath.Join("AndroidRun", "Run_Sat_17_Oct_2026__09_30_00.csv"), sc.LogFileName)
}
