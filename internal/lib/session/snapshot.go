package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/dpup/runtrack/server/internal/lib/elevation"
	"github.com/dpup/runtrack/server/internal/lib/geo"
)

var ErrInvalidSnapshot = errors.New("invalid session snapshot")

// Snapshot is plain data describing everything a Session needs to continue after
// its host process is recreated
type Snapshot struct {
	ID          string `json:"id"`
	LogFileName string `json:"log_file_name"`
	Tracking    bool   `json:"tracking"`

	PreviousFix *Fix `json:"previous_fix,omitempty"`

	DistanceM        float64 `json:"distance_m"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
	AverageSpeedMps  float64 `json:"average_speed_mps"`
	InstantSpeedMps  float64 `json:"instant_speed_mps"`
	UpdateCount      int64   `json:"update_count"`
	Latitude         float64 `json:"lat"`
	Longitude        float64 `json:"lng"`
	Satellites       int32   `json:"satellites"`
	FirstFixReceived bool    `json:"first_fix_received"`
	Status           Status  `json:"status"`

	Elevation elevation.State `json:"elevation"`

	SavedAt time.Time `json:"saved_at"`
}

// Snapshot captures the session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:               s.id,
		LogFileName:      s.config.LogFileName,
		Tracking:         s.tracking,
		DistanceM:        float64(s.distance),
		ElapsedSeconds:   s.elapsed,
		AverageSpeedMps:  s.averageSpeed,
		InstantSpeedMps:  s.instantSpeed,
		UpdateCount:      s.updateCount,
		Latitude:         s.latitude,
		Longitude:        s.longitude,
		Satellites:       s.satellites,
		FirstFixReceived: s.firstFix,
		Status:           s.status,
		Elevation:        s.elevation.State(),
		SavedAt:          time.Now().UTC(),
	}
	if s.previousFix != nil {
		previous := *s.previousFix
		snap.PreviousFix = &previous
	}
	return snap
}

// Restore replaces the session state with snap. Nothing changes when snap is invalid.
func (s *Session) Restore(snap Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidSnapshot)
	}
	if snap.DistanceM < 0 || snap.ElapsedSeconds < 0 || snap.UpdateCount < 0 {
		return fmt.Errorf("%w: negative totals", ErrInvalidSnapshot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Restore the filter first, it is the only part that can still fail
	if err := s.elevation.Restore(snap.Elevation); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	s.id = snap.ID
	s.config.LogFileName = snap.LogFileName
	s.tracking = snap.Tracking
	s.previousFix = nil
	if snap.PreviousFix != nil {
		previous := *snap.PreviousFix
		s.previousFix = &previous
	}
	s.distance = geo.Meters(snap.DistanceM)
	s.elapsed = snap.ElapsedSeconds
	s.averageSpeed = snap.AverageSpeedMps
	s.instantSpeed = snap.InstantSpeedMps
	s.updateCount = snap.UpdateCount
	s.latitude = snap.Latitude
	s.longitude = snap.Longitude
	s.satellites = snap.Satellites
	s.firstFix = snap.FirstFixReceived
	s.status = snap.Status
	if s.status == "" {
		s.status = StatusNoUpdate
	}
	s.backgroundSince = -1
	return nil
}
