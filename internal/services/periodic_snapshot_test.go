package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/runtrack/server/internal/lib/session"
)

type countingStore struct {
	saves chan session.Snapshot
}

func (c *countingStore) Save(_ context.Context, snap session.Snapshot) error {
	c.saves <- snap
	return nil
}

func (c *countingStore) Load(context.Context, string) (session.Snapshot, bool, error) {
	return session.Snapshot{}, false, nil
}

func (c *countingStore) Delete(context.Context, string) error {
	return nil
}

func TestPeriodicSnapshotService(t *testing.T) {
	svc, _ := newTestService(t)
	store := &countingStore{saves: make(chan session.Snapshot, 100)}
	svc.store = store

	p := NewPeriodicSnapshotService(svc, 5*time.Millisecond)
	p.Start(context.Background())
	assert.True(t, p.IsRunning())

	select {
	case snap := <-store.saves:
		assert.Equal(t, svc.Session().ID(), snap.ID)
	case <-time.After(time.Second):
		t.Fatal("no periodic snapshot saved")
	}

	p.Stop()
	assert.False(t, p.IsRunning())
	p.Stop()

	// Stop writes a final snapshot
	require.NotEmpty(t, store.saves)
}

func TestPeriodicSnapshotService_Disabled(t *testing.T) {
	svc, _ := newTestService(t)
	p := NewPeriodicSnapshotService(svc, 0)
	p.Start(context.Background())
	assert.False(t, p.IsRunning())
	p.Stop()
}

func TestPeriodicSnapshotService_ContextCancel(t *testing.T) {
	svc, _ := newTestService(t)
	store := &countingStore{saves: make(chan session.Snapshot, 100)}
	svc.store = store

	ctx, cancel := context.WithCancel(context.Background())
	p := NewPeriodicSnapshotService(svc, time.Hour)
	p.Start(ctx)
	require.True(t, p.IsRunning())
	cancel()

	assert.Eventually(t, func() bool {
		return !p.IsRunning()
	}, time.Second, 5*time.Millisecond)

	// Stop must not block once the loop has exited on its own
	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked after context cancellation")
	}

	// A cancelled service can be started again
	p.Start(context.Background())
	assert.True(t, p.IsRunning())
	p.Stop()
	assert.False(t, p.IsRunning())
}
