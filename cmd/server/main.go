package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dpup/prefab"

	"github.com/dpup/runtrack/server/internal/cache"
	"github.com/dpup/runtrack/server/internal/config"
	"github.com/dpup/runtrack/server/internal/lib/session"
	"github.com/dpup/runtrack/server/internal/services"
)

func main() {
	appConfig := loadConfig()

	sessionConfig, err := appConfig.SessionConfig(time.Now())
	if err != nil {
		log.Fatalf("Invalid tracking settings: %v", err)
	}

	sink := session.NewFileSink(sessionConfig.LogFileName)
	sess := session.New(sessionConfig, sink)
	sess.WriteHeader()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Snapshots go to Redis when an address is configured, memory otherwise
	var store cache.SnapshotStore
	if client := cache.ConnectRedis(appConfig.Snapshots.RedisAddr, appConfig.Snapshots.RedisPassword); client != nil {
		defer client.Close()
		store = cache.NewRedisStore(client, appConfig.Snapshots.TTL)
		log.Printf("Session snapshots stored in Redis at %s", appConfig.Snapshots.RedisAddr)
	} else {
		cacheInstance := cache.NewCache()
		cacheInstance.StartPeriodicCleanup(ctx, time.Hour)
		store = cache.NewMemoryStore(cacheInstance, appConfig.Snapshots.TTL)
		log.Printf("Session snapshots stored in memory")
	}

	trackingService := services.NewTrackingService(sess, store, appConfig)

	periodicSnapshots := services.NewPeriodicSnapshotService(trackingService, appConfig.Snapshots.Interval)
	periodicSnapshots.Start(ctx)
	defer periodicSnapshots.Stop()

	log.Printf("Run tracking server starting")
	log.Printf("Session %s logging to %s", sess.ID(), sink.Path())
	log.Printf("Required accuracy: %v m, algorithm: %s", sessionConfig.RequiredAccuracy, sessionConfig.Algorithm)

	// Server configuration (port, etc.) is loaded from prefab.yaml/env vars
	server := prefab.New(
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
		prefab.WithHTTPHandlerFunc("/api/v1/", trackingService.Handler().ServeHTTP),
	)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig reads the tracker sections from prefab's config (prefab.yaml and PF__
// environment variables). RUNTRACK_CONFIG points at a standalone file instead.
func loadConfig() *config.Config {
	if path := os.Getenv("RUNTRACK_CONFIG"); path != "" {
		appConfig, err := config.Load(path)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", path, err)
		}
		return appConfig
	}

	appConfig, err := config.FromKoanf(prefab.Config)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return appConfig
}

// homepageHandler serves a plain text index of the API at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	index := `runtrack

Live run tracking: distance, speed and elevation gain from a stream of GPS fixes.

API Endpoints:
  POST /api/v1/fixes                   - Submit one fix, returns the session record
  GET  /api/v1/session                 - Current session totals
  POST /api/v1/session/toggle          - Start or pause tracking
  POST /api/v1/session/pause           - Pause tracking
  POST /api/v1/session/resume          - Resume tracking
  POST /api/v1/session/reset           - Zero every total
  GET  /api/v1/session/track.kml       - Accepted track as KML
  GET  /api/v1/session/polyline        - Accepted track as an encoded polyline
  POST /api/v1/session/snapshot        - Save the session state
  POST /api/v1/session/restore         - Restore a saved session by id
  POST /api/v1/session/provider-event  - Record a location provider status change
  GET  /api/v1/snapshots               - Saved snapshots held by the store
`

	if _, err := fmt.Fprint(w, index); err != nil {
		slog.Error("Failed to write homepage", "error", err)
	}
}
