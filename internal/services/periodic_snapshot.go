package services

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
)

// PeriodicSnapshotService saves the tracking session at a fixed interval so a
// restarted server can pick up where it left off
type PeriodicSnapshotService struct {
	tracking *TrackingService
	interval time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	running  bool
}

// NewPeriodicSnapshotService creates a new periodic snapshot service
func NewPeriodicSnapshotService(tracking *TrackingService, interval time.Duration) *PeriodicSnapshotService {
	return &PeriodicSnapshotService{
		tracking: tracking,
		interval: interval,
	}
}

// Start begins saving snapshots in the background. A non-positive interval disables it.
func (p *PeriodicSnapshotService) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running || p.interval <= 0 {
		return
	}

	p.running = true
	p.stopChan = make(chan struct{})
	p.done = make(chan struct{})

	logging.Infow(ctx, "Starting periodic snapshots", "interval", p.interval)
	go p.snapshotLoop(ctx, p.stopChan, p.done)
}

// Stop saves a final snapshot and waits for the loop to exit
func (p *PeriodicSnapshotService) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	done := p.done
	p.mu.Unlock()

	<-done
}

// IsRunning returns whether periodic snapshots are active
func (p *PeriodicSnapshotService) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *PeriodicSnapshotService) snapshotLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer p.markStopped(stop)
	defer func() {
		if r := recover(); r != nil {
			err, _ := errors.ParseStack(debug.Stack())
			skipFrames := 3
			numFrames := 5
			logging.Errorw(ctx, "Periodic snapshots: recovered from panic",
				"error", r, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
		}
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Infow(ctx, "Periodic snapshots stopping due to context cancellation")
			return
		case <-stop:
			p.save(context.WithoutCancel(ctx))
			logging.Infow(ctx, "Periodic snapshots stopped")
			return
		case <-ticker.C:
			p.save(ctx)
		}
	}
}

// markStopped clears running when the loop exits on its own, unless a newer
// loop has been started since
func (p *PeriodicSnapshotService) markStopped(stop <-chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopChan == stop {
		p.running = false
	}
}

func (p *PeriodicSnapshotService) save(ctx context.Context) {
	saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.tracking.SaveSnapshot(saveCtx); err != nil {
		logging.Errorw(ctx, "Periodic snapshot failed", "error", err)
	}
}
