package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/runtrack/server/internal/lib/session"
)

func trackedSnapshot(t *testing.T) session.Snapshot {
	t.Helper()
	s := session.New(session.DefaultConfig(), nil)
	s.Start()
	for i := 0; i < 6; i++ {
		s.Update(session.Fix{
			Latitude:             48.0 + float64(i)*0.001,
			Longitude:            2.0,
			Altitude:             100 + float64(i),
			Accuracy:             4,
			Satellites:           7,
			ElapsedRealtimeNanos: int64(i) * 5e9,
		})
	}
	return s.Snapshot()
}

// Round trips through a store must restore an identical session
func assertStoreRoundTrip(t *testing.T, store SnapshotStore) {
	t.Helper()
	ctx := context.Background()
	snap := trackedSnapshot(t)

	require.NoError(t, store.Save(ctx, snap))

	loaded, found, err := store.Load(ctx, snap.ID)
	require.NoError(t, err)
	require.True(t, found)

	restored := session.New(session.DefaultConfig(), nil)
	require.NoError(t, restored.Restore(loaded))
	assert.Equal(t, snap.DistanceM, restored.Stats().DistanceM)
	assert.Equal(t, snap.UpdateCount, restored.Stats().UpdateCount)
	assert.Equal(t, snap.Elevation, restored.Snapshot().Elevation)

	_, found, err = store.Load(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore(t *testing.T) {
	assertStoreRoundTrip(t, NewMemoryStore(NewCache(), time.Hour))
}

func findSnapshot(t *testing.T, stats StoreStats, id string) SnapshotInfo {
	t.Helper()
	for _, info := range stats.Snapshots {
		if info.ID == id {
			return info
		}
	}
	t.Fatalf("snapshot %s not listed", id)
	return SnapshotInfo{}
}

func TestMemoryStore_StatsAndDelete(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache()
	start := clock.at
	store := NewMemoryStore(c, time.Hour)

	older := trackedSnapshot(t)
	require.NoError(t, store.Save(ctx, older))
	clock.at = clock.at.Add(30 * time.Minute)
	newer := trackedSnapshot(t)
	require.NoError(t, store.Save(ctx, newer))
	clock.at = clock.at.Add(45 * time.Minute)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, 1, stats.Fresh)
	assert.Equal(t, 1, stats.Stale)
	assert.Equal(t, start, stats.Oldest)
	assert.Equal(t, start.Add(30*time.Minute), stats.Newest)
	assert.True(t, findSnapshot(t, stats, older.ID).Stale)

	info := findSnapshot(t, stats, newer.ID)
	assert.False(t, info.Stale)
	assert.Equal(t, start.Add(90*time.Minute), info.ExpiresAt)

	require.NoError(t, store.Delete(ctx, newer.ID))
	_, found, err := store.Load(ctx, newer.ID)
	require.NoError(t, err)
	assert.False(t, found)

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats.Snapshots, 1)
	assert.Equal(t, older.ID, stats.Snapshots[0].ID)
}

func TestRedisStore_StatsAndDelete(t *testing.T) {
	ctx := context.Background()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Hour)
	first, second := trackedSnapshot(t), trackedSnapshot(t)
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, s.Set("unrelated", "x"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "redis", stats.Backend)
	assert.Equal(t, 2, stats.Fresh)
	require.Len(t, stats.Snapshots, 2)
	assert.False(t, findSnapshot(t, stats, first.ID).ExpiresAt.IsZero())

	require.NoError(t, store.Delete(ctx, first.ID))
	assert.False(t, s.Exists("runtrack:snapshot:"+first.ID))

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats.Snapshots, 1)
	assert.Equal(t, second.ID, stats.Snapshots[0].ID)

	// Deleting a missing snapshot is not an error
	assert.NoError(t, store.Delete(ctx, "unknown"))
}

func TestRedisStore(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Hour)
	assertStoreRoundTrip(t, store)

	keys := s.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "runtrack:snapshot:")
	assert.Equal(t, time.Hour, s.TTL(keys[0]))
}

func TestRedisStore_Expiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Minute)
	snap := trackedSnapshot(t)
	require.NoError(t, store.Save(context.Background(), snap))

	s.FastForward(2 * time.Minute)

	_, found, err := store.Load(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	require.NoError(t, s.Set("runtrack:snapshot:bad", "{not json"))

	_, found, err := NewRedisStore(client, time.Minute).Load(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRedisStore_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	defer client.Close()
	s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, NewRedisStore(client, time.Minute).Save(ctx, trackedSnapshot(t)))
}

func TestConnectRedis(t *testing.T) {
	assert.Nil(t, ConnectRedis("", ""))

	client := ConnectRedis("localhost:6379", "")
	require.NotNil(t, client)
	client.Close()
}
