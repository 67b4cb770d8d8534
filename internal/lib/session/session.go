// Package session integrates a live stream of position fixes into distance,
// time, speed and elevation totals.
package session

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dpup/runtrack/server/internal/lib/elevation"
	"github.com/dpup/runtrack/server/internal/lib/geo"
)

// Session is the streaming controller for one run. All methods are safe for
// concurrent use; updates are serialized so gating, filtering and accumulation
// of a fix happen as one unit.
type Session struct {
	mu sync.Mutex

	id     string
	config Config
	engine geo.Engine
	sink   Sink

	tracking     bool
	previousFix  *Fix
	firstFix     bool
	distance     geo.Meters
	elapsed      float64
	averageSpeed float64
	instantSpeed float64
	latitude     float64
	longitude    float64
	satellites   int32
	updateCount  int64
	status       Status
	elevation    *elevation.Filter

	// Wall clock second at which the host went to background, -1 when not paused
	backgroundSince int64

	droppedLines int64
}

// New creates a stopped session writing its log lines to sink (nil discards them).
// An unknown algorithm in cfg falls back to Vincenty.
func New(cfg Config, sink Sink) *Session {
	if sink == nil {
		sink = Discard
	}

	engine, err := geo.NewEngine(cfg.Algorithm)
	if err != nil {
		cfg.Algorithm = geo.Vincenty
		engine, _ = geo.NewEngine(geo.Vincenty)
	}

	return &Session{
		id:              uuid.NewString(),
		config:          cfg,
		engine:          engine,
		sink:            sink,
		status:          StatusNoUpdate,
		elevation:       elevation.NewFilter(cfg.Elevation),
		backgroundSince: -1,
	}
}

// ID identifies the session. It survives Reset.
func (s *Session) ID() string {
	return s.id
}

// Config returns the configuration the session was built with
func (s *Session) Config() Config {
	return s.config
}

// WriteHeader logs the banner describing the session settings and the record layout
func (s *Session) WriteHeader() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.write("Start of session")
	s.write(s.config.AppName)
	s.write(fmt.Sprintf("GPS update interval: %d ms,  min distance: %v m.", s.config.UpdateInterval.Milliseconds(), s.config.MinDistance))
	s.write(fmt.Sprintf("Required accuracy: %v m.", s.config.RequiredAccuracy))
	s.write(CSVFormat)
}

// Update processes one fix and returns the record that was logged for it
func (s *Session) Update(fix Fix) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		deltaD   geo.Meters
		deltaT   float64
		altitude float64
		bearing  float32
		status   = StatusNoTracking
		accepted = fix.Accuracy <= s.config.RequiredAccuracy
	)

	if accepted {
		s.firstFix = true
		s.updateCount++
		s.latitude = fix.Latitude
		s.longitude = fix.Longitude
		s.satellites = fix.Satellites
		s.instantSpeed = float64(fix.Speed)
		altitude = fix.Altitude
		bearing = fix.Bearing

		if s.previousFix != nil && s.tracking {
			status = s.integrate(*s.previousFix, fix, &deltaD, &deltaT)
		}

		// The previous fix moves even while tracking is stopped
		previous := fix
		s.previousFix = &previous
	} else {
		status = StatusBadAccuracy
	}
	s.status = status

	smoothed, hasSmoothed := s.elevation.Smoothed()
	record := Record{
		Status:              status,
		Accepted:            accepted,
		Tracking:            s.tracking,
		Distance:            s.distance,
		DeltaDistance:       deltaD,
		Accuracy:            fix.Accuracy,
		InstantSpeed:        s.instantSpeed,
		DeltaSeconds:        deltaT,
		Altitude:            altitude,
		Bearing:             bearing,
		Latitude:            s.latitude,
		Longitude:           s.longitude,
		SmoothedAltitude:    smoothed,
		HasSmoothedAltitude: hasSmoothed,
		Ascent:              s.elevation.Ascent(),
		Descent:             s.elevation.Descent(),
		Satellites:          s.satellites,
		UpdateCount:         s.updateCount,
	}

	s.write(record.LogLine())
	return record
}

// integrate accumulates the step from previous to current. Must hold mu.
func (s *Session) integrate(previous, current Fix, deltaD *geo.Meters, deltaT *float64) Status {
	d, err := s.engine.PointToPoint(previous.Point(), current.Point())
	if err != nil {
		return StatusDistanceFailed
	}

	*deltaD = d.Meters()
	*deltaT = float64(current.ElapsedRealtimeNanos-previous.ElapsedRealtimeNanos) / 1e9
	if *deltaT < 0 {
		// Timestamps from a different clock origin, never integrate negative time
		*deltaT = 0
	}

	s.elapsed += *deltaT
	s.distance += *deltaD
	if s.elapsed > 0 {
		s.averageSpeed = float64(s.distance) / s.elapsed
	}
	if *deltaT > 0 {
		s.instantSpeed = float64(*deltaD) / *deltaT
	}

	s.elevation.Add(current.Altitude, int(current.Satellites))
	return StatusTrackingOK
}

// Start begins integrating distance and time. Starting an already started session is a no-op.
func (s *Session) Start() {
	s.setTracking(true)
}

// Pause stops integration but keeps the previous fix. The next accepted fix after
// Start integrates the whole wall clock gap, paused time included.
func (s *Session) Pause() {
	s.setTracking(false)
}

// Toggle flips between started and paused and reports the new state
func (s *Session) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyTracking(!s.tracking)
	return s.tracking
}

// Tracking reports whether fixes are being integrated
func (s *Session) Tracking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracking
}

func (s *Session) setTracking(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracking == on {
		return
	}
	s.applyTracking(on)
}

// applyTracking must hold mu
func (s *Session) applyTracking(on bool) {
	s.tracking = on
	action := "stopped"
	if on {
		action = "started"
	}
	s.write("Tracking is " + action + ".")
}

// EnterBackground notes that the host stopped displaying the session, e.g. a phone
// screen turning off. Only meaningful while tracking.
func (s *Session) EnterBackground(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tracking {
		return
	}
	s.backgroundSince = now.Unix()
	s.write(fmt.Sprintf("Entering pause at %d", s.backgroundSince))
}

// EnterForeground logs how long the host was in background. Elapsed time is not
// adjusted; fixes kept arriving while in background.
func (s *Session) EnterForeground(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tracking || s.backgroundSince == -1 {
		return 0
	}

	nowSeconds := now.Unix()
	paused := nowSeconds - s.backgroundSince
	s.write(fmt.Sprintf("Resumed at %d, pause duration: %d s.", nowSeconds, paused))
	s.backgroundSince = -1
	return time.Duration(paused) * time.Second
}

// Reset zeroes every counter and the elevation state. The session ID, its log
// destination and the tracking flag's off state are what remain.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracking = false
	s.previousFix = nil
	s.distance = 0
	s.elapsed = 0
	s.averageSpeed = 0
	s.instantSpeed = 0
	s.latitude = 0
	s.longitude = 0
	s.satellites = 0
	s.updateCount = 0
	s.status = StatusNoUpdate
	s.backgroundSince = -1
	s.elevation.Reset()

	s.write("Reset")
}

// ProviderState mirrors the availability states a location provider reports
type ProviderState int

const (
	ProviderOutOfService ProviderState = iota
	ProviderTemporarilyUnavailable
	ProviderAvailable
)

func (p ProviderState) String() string {
	switch p {
	case ProviderOutOfService:
		return "out of service"
	case ProviderTemporarilyUnavailable:
		return "temporarily unavailable"
	case ProviderAvailable:
		return "available"
	}
	return "unknown status"
}

// ProviderStatus logs a change in location provider availability
func (s *Session) ProviderStatus(provider string, state ProviderState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(fmt.Sprintf("OSC:%s %s", provider, state))
}

// ProviderEnabled logs the provider being switched on or off
func (s *Session) ProviderEnabled(provider string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enabled {
		s.write("GPS enabled: " + provider)
	} else {
		s.write("GPS disabled: " + provider)
	}
}

// Stats returns a copy of the running totals
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		ID:               s.id,
		LogFileName:      s.config.LogFileName,
		Tracking:         s.tracking,
		Status:           s.status,
		DistanceM:        float64(s.distance),
		ElapsedSeconds:   s.elapsed,
		AverageSpeedMps:  s.averageSpeed,
		InstantSpeedMps:  s.instantSpeed,
		AscentM:          s.elevation.Ascent(),
		DescentM:         s.elevation.Descent(),
		Latitude:         s.latitude,
		Longitude:        s.longitude,
		Satellites:       s.satellites,
		Signal:           SignalQuality(s.satellites),
		UpdateCount:      s.updateCount,
		FirstFixReceived: s.firstFix,
		DroppedLogLines:  s.droppedLines,
	}
	if smoothed, ok := s.elevation.Smoothed(); ok {
		stats.SmoothedAltitude = &smoothed
	}
	return stats
}

// PreviousFix returns the last accepted fix, if any
func (s *Session) PreviousFix() (Fix, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.previousFix == nil {
		return Fix{}, false
	}
	return *s.previousFix, true
}

// Elapsed returns the tracked time in seconds as of nowNanos on the fix clock.
// While tracking, the time since the last fix is included so a display can tick
// between fixes.
func (s *Session) Elapsed(nowNanos int64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracking && s.previousFix != nil {
		since := float64(nowNanos-s.previousFix.ElapsedRealtimeNanos) / 1e9
		return s.elapsed + math.Max(since, 0)
	}
	return s.elapsed
}

// FormatDuration renders seconds as HH:MM:SS, truncating fractions
func FormatDuration(seconds float64) string {
	total := int64(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// write sends one line to the sink. Failures are counted, never returned. Must hold mu.
func (s *Session) write(line string) {
	if err := s.sink.Write(line); err != nil {
		s.droppedLines++
	}
}
