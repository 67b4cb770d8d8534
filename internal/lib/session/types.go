package session

import (
	"time"

	"github.com/dpup/runtrack/server/internal/lib/elevation"
	"github.com/dpup/runtrack/server/internal/lib/geo"
)

// Fix is one position sample delivered by a location provider
type Fix struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Altitude  float64 `json:"alt"`

	// Radius of the 68% confidence circle, in meters
	Accuracy float32 `json:"accuracy"`

	Satellites int32 `json:"satellites"`

	// Monotonic timestamp of the fix, in nanoseconds since an arbitrary origin
	ElapsedRealtimeNanos int64 `json:"elapsed_realtime_nanos"`

	Bearing float32 `json:"bearing"`

	// Device reported ground speed in m/s, 0 when unknown
	Speed float32 `json:"speed,omitempty"`
}

// Point drops everything but the coordinates
func (f Fix) Point() geo.Point {
	return geo.NewPoint3D(f.Latitude, f.Longitude, f.Altitude)
}

// Status is the per-update state written in the last field of a log record
type Status string

const (
	StatusNoUpdate       Status = "no update"
	StatusNoTracking     Status = "no tracking"
	StatusTrackingOK     Status = "tracking ok"
	StatusBadAccuracy    Status = "bad accuracy"
	StatusDistanceFailed Status = "distance failed"
)

// Config holds the per-session tuning
type Config struct {
	AppName string

	// Fixes with a larger accuracy radius (meters) are not integrated
	RequiredAccuracy float32

	// Distance model of the live path
	Algorithm geo.Algorithm

	Elevation elevation.Options

	// Reported in the log header only
	UpdateInterval time.Duration
	MinDistance    float64

	// Session identifier written nowhere but kept across resets
	LogFileName string
}

// DefaultConfig returns the tracker's standard settings: 10 m accuracy gate,
// Vincenty distances and a 7.5 s provider interval.
func DefaultConfig() Config {
	return Config{
		AppName:          "runtrack",
		RequiredAccuracy: 10.0,
		Algorithm:        geo.Vincenty,
		Elevation:        elevation.DefaultOptions(),
		UpdateInterval:   7500 * time.Millisecond,
		MinDistance:      0,
	}
}

// Stats are the running totals shown to the user
type Stats struct {
	ID               string   `json:"id"`
	LogFileName      string   `json:"log_file_name"`
	Tracking         bool     `json:"tracking"`
	Status           Status   `json:"status"`
	DistanceM        float64  `json:"distance_m"`
	ElapsedSeconds   float64  `json:"elapsed_seconds"`
	AverageSpeedMps  float64  `json:"average_speed_mps"`
	InstantSpeedMps  float64  `json:"instant_speed_mps"`
	AscentM          float64  `json:"ascent_m"`
	DescentM         float64  `json:"descent_m"`
	SmoothedAltitude *float64 `json:"smoothed_altitude_m,omitempty"`
	Latitude         float64  `json:"lat"`
	Longitude        float64  `json:"lng"`
	Satellites       int32    `json:"satellites"`
	Signal           Signal   `json:"signal"`
	UpdateCount      int64    `json:"update_count"`
	FirstFixReceived bool     `json:"first_fix_received"`
	DroppedLogLines  int64    `json:"dropped_log_lines"`
}
