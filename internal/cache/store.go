package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dpup/runtrack/server/internal/lib/session"
)

// SnapshotStore persists session snapshots between process restarts
type SnapshotStore interface {
	Save(ctx context.Context, snap session.Snapshot) error
	Load(ctx context.Context, id string) (session.Snapshot, bool, error)
	Delete(ctx context.Context, id string) error
}

// StoreStats describes the snapshots a store currently holds
type StoreStats struct {
	Backend   string         `json:"backend"`
	Fresh     int            `json:"fresh"`
	Stale     int            `json:"stale"`
	Oldest    time.Time      `json:"oldest,omitzero"`
	Newest    time.Time      `json:"newest,omitzero"`
	Snapshots []SnapshotInfo `json:"snapshots"`
}

// SnapshotInfo is the metadata of one stored snapshot
type SnapshotInfo struct {
	ID        string    `json:"id"`
	StoredAt  time.Time `json:"stored_at,omitzero"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Stale     bool      `json:"stale"`
}

// MemoryStore keeps snapshots in a Cache. Nothing survives the process.
type MemoryStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewMemoryStore creates a store over cache whose entries expire after ttl
func NewMemoryStore(cache *Cache, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache, ttl: ttl}
}

func (s *MemoryStore) Save(_ context.Context, snap session.Snapshot) error {
	return s.cache.SetSnapshot(snap, s.ttl)
}

func (s *MemoryStore) Load(_ context.Context, id string) (session.Snapshot, bool, error) {
	return s.cache.GetSnapshot(id)
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.DeleteSnapshot(id)
	return nil
}

// Stats lists cached snapshots, stale ones included until cleanup removes them
func (s *MemoryStore) Stats(_ context.Context) (StoreStats, error) {
	stats := StoreStats{Backend: "memory", Snapshots: []SnapshotInfo{}}

	keys := s.cache.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		id, ok := strings.CutPrefix(key, snapshotKeyPrefix)
		if !ok {
			continue
		}
		entry, exists, err := s.cache.GetWithMetadata(key, nil)
		if err != nil {
			return StoreStats{}, err
		}
		if !exists {
			continue
		}

		stale := s.cache.IsStale(key)
		stats.Snapshots = append(stats.Snapshots, SnapshotInfo{
			ID:        id,
			StoredAt:  entry.CreatedAt,
			ExpiresAt: entry.ExpiresAt,
			Stale:     stale,
		})
		if stale {
			stats.Stale++
		} else {
			stats.Fresh++
		}
	}

	cacheStats := s.cache.Stats()
	stats.Oldest = cacheStats.OldestEntry
	stats.Newest = cacheStats.NewestEntry
	return stats, nil
}

// RedisStore keeps snapshots as JSON strings with a TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore creates a store on client. Keys are "runtrack:snapshot:<id>".
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, prefix: "runtrack:snapshot:"}
}

// ConnectRedis returns nil when addr is empty
func ConnectRedis(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

func (s *RedisStore) Save(ctx context.Context, snap session.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+snap.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	return nil
}

// Stats scans the snapshot keys. Redis expires keys itself, so nothing listed is stale.
func (s *RedisStore) Stats(ctx context.Context) (StoreStats, error) {
	stats := StoreStats{Backend: "redis", Snapshots: []SnapshotInfo{}}

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		info := SnapshotInfo{ID: strings.TrimPrefix(key, s.prefix)}

		ttl, err := s.client.TTL(ctx, key).Result()
		if err != nil {
			return StoreStats{}, fmt.Errorf("failed to read TTL of %s: %w", key, err)
		}
		if ttl > 0 {
			info.ExpiresAt = time.Now().Add(ttl)
		}

		stats.Snapshots = append(stats.Snapshots, info)
		stats.Fresh++
	}
	if err := iter.Err(); err != nil {
		return StoreStats{}, fmt.Errorf("failed to scan snapshots: %w", err)
	}

	sort.Slice(stats.Snapshots, func(i, j int) bool {
		return stats.Snapshots[i].ID < stats.Snapshots[j].ID
	})
	return stats, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (session.Snapshot, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Snapshot{}, false, nil
	}
	if err != nil {
		return session.Snapshot{}, false, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return session.Snapshot{}, false, fmt.Errorf("failed to unmarshal snapshot %s: %w", id, err)
	}
	return snap, true, nil
}
