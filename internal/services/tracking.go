package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/dpup/prefab/logging"

	"github.com/dpup/runtrack/server/internal/cache"
	"github.com/dpup/runtrack/server/internal/config"
	"github.com/dpup/runtrack/server/internal/lib/geo"
	"github.com/dpup/runtrack/server/internal/lib/session"
	"github.com/dpup/runtrack/server/internal/lib/track"
)

var ErrSnapshotNotFound = errors.New("session snapshot not found")

// snapshotLister is implemented by stores that can list what they hold
type snapshotLister interface {
	Stats(ctx context.Context) (cache.StoreStats, error)
}

// TrackingService exposes one live session over HTTP and keeps the accepted
// track for export
type TrackingService struct {
	session *session.Session
	store   cache.SnapshotStore
	config  *config.Config

	mu     sync.Mutex
	points []geo.Point
}

// NewTrackingService creates a TrackingService. store may be nil when snapshots are disabled.
func NewTrackingService(sess *session.Session, store cache.SnapshotStore, cfg *config.Config) *TrackingService {
	return &TrackingService{
		session: sess,
		store:   store,
		config:  cfg,
	}
}

// Session returns the live session
func (s *TrackingService) Session() *session.Session {
	return s.session
}

// RecordFix feeds fix to the session. Accepted fixes are kept for export while tracking.
func (s *TrackingService) RecordFix(ctx context.Context, fix session.Fix) session.Record {
	record := s.session.Update(fix)

	if record.Accepted && record.Tracking {
		s.appendPoint(fix.Point())
	}

	if record.Status == session.StatusDistanceFailed {
		logging.Warnw(ctx, "Distance computation did not converge",
			"session", s.session.ID(), "lat", fix.Latitude, "lng", fix.Longitude)
	}
	return record
}

// appendPoint drops the oldest points once max_points is reached
func (s *TrackingService) appendPoint(p geo.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := s.config.Tracking.MaxPoints
	if limit == 0 {
		return
	}
	if len(s.points) >= limit {
		s.points = append(s.points[:0], s.points[len(s.points)-limit+1:]...)
	}
	s.points = append(s.points, p)
}

// Points returns a copy of the exported track
func (s *TrackingService) Points() []geo.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]geo.Point(nil), s.points...)
}

// Reset clears the session and the exported track. The saved snapshot of the
// session is dropped so a restore cannot bring the old totals back.
func (s *TrackingService) Reset(ctx context.Context) {
	s.session.Reset()

	s.mu.Lock()
	s.points = nil
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Delete(ctx, s.session.ID()); err != nil {
			logging.Warnw(ctx, "Failed to drop snapshot on reset", "session", s.session.ID(), "error", err)
		}
	}

	logging.Infow(ctx, "Session reset", "session", s.session.ID())
}

// SaveSnapshot persists the session state
func (s *TrackingService) SaveSnapshot(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, s.session.Snapshot()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// RestoreSnapshot loads the snapshot saved for id into the session
func (s *TrackingService) RestoreSnapshot(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrSnapshotNotFound
	}

	snap, found, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err := s.session.Restore(snap); err != nil {
		return err
	}

	logging.Infow(ctx, "Session restored", "session", id, "saved_at", snap.SavedAt)
	return nil
}

// Routes maps URL paths to handlers, for registration on the server
func (s *TrackingService) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"/api/v1/fixes":                  s.handleFix,
		"/api/v1/session":                s.handleStats,
		"/api/v1/session/toggle":         s.handleToggle,
		"/api/v1/session/pause":          s.handlePause,
		"/api/v1/session/resume":         s.handleResume,
		"/api/v1/session/reset":          s.handleReset,
		"/api/v1/session/track.kml":      s.handleKML,
		"/api/v1/session/polyline":       s.handlePolyline,
		"/api/v1/session/snapshot":       s.handleSnapshot,
		"/api/v1/session/restore":        s.handleRestore,
		"/api/v1/session/provider-event": s.handleProviderEvent,
		"/api/v1/snapshots":              s.handleSnapshots,
	}
}

// Handler returns a mux serving every route
func (s *TrackingService) Handler() http.Handler {
	mux := http.NewServeMux()
	for path, h := range s.Routes() {
		mux.HandleFunc(path, h)
	}
	return mux
}

func (s *TrackingService) handleFix(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var fix session.Fix
	if err := json.NewDecoder(r.Body).Decode(&fix); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid fix: %w", err))
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, s.RecordFix(r.Context(), fix))
}

func (s *TrackingService) handleStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, s.session.Stats())
}

func (s *TrackingService) handleToggle(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.session.Toggle()
	writeJSON(r.Context(), w, http.StatusOK, s.session.Stats())
}

func (s *TrackingService) handlePause(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.session.Pause()
	writeJSON(r.Context(), w, http.StatusOK, s.session.Stats())
}

func (s *TrackingService) handleResume(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.session.Start()
	writeJSON(r.Context(), w, http.StatusOK, s.session.Stats())
}

func (s *TrackingService) handleReset(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.Reset(r.Context())
	writeJSON(r.Context(), w, http.StatusOK, s.session.Stats())
}

func (s *TrackingService) handleKML(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	if err := track.WriteKML(w, s.config.Tracking.AppName+" "+s.session.ID(), s.Points()); err != nil {
		logging.Errorw(r.Context(), "Failed to write KML", "error", err)
	}
}

type polylineResponse struct {
	Polyline string `json:"polyline"`
	Points   int    `json:"points"`
}

func (s *TrackingService) handlePolyline(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	points := s.Points()
	writeJSON(r.Context(), w, http.StatusOK, polylineResponse{
		Polyline: geo.EncodePolyline(points),
		Points:   len(points),
	})
}

func (s *TrackingService) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.SaveSnapshot(r.Context()); err != nil {
		logging.Errorw(r.Context(), "Failed to save snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, s.session.Snapshot())
}

func (s *TrackingService) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	lister, ok := s.store.(snapshotLister)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("snapshot store does not support listing"))
		return
	}

	stats, err := lister.Stats(r.Context())
	if err != nil {
		logging.Errorw(r.Context(), "Failed to list snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, stats)
}

type restoreRequest struct {
	ID string `json:"id"`
}

func (s *TrackingService) handleRestore(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, errors.New("restore requires a session id"))
		return
	}

	err := s.RestoreSnapshot(r.Context(), req.ID)
	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, session.ErrInvalidSnapshot):
		writeError(w, http.StatusUnprocessableEntity, err)
	case err != nil:
		logging.Errorw(r.Context(), "Failed to restore snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(r.Context(), w, http.StatusOK, s.session.Stats())
	}
}

type providerEvent struct {
	Provider string `json:"provider"`
	Enabled  *bool  `json:"enabled,omitempty"`
	State    *int   `json:"state,omitempty"`
}

func (s *TrackingService) handleProviderEvent(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var ev providerEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil || ev.Provider == "" {
		writeError(w, http.StatusBadRequest, errors.New("provider event requires a provider"))
		return
	}

	if ev.Enabled != nil {
		s.session.ProviderEnabled(ev.Provider, *ev.Enabled)
	}
	if ev.State != nil {
		s.session.ProviderStatus(ev.Provider, session.ProviderState(*ev.State))
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Errorw(ctx, "Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}
