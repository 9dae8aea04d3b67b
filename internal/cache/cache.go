// Package cache holds short-lived read models, such as the idea list of a
// collection. Every operation is best-effort: callers log failures and fall
// through to the store.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

// DefaultTTL bounds how long an entry lives without invalidation.
const DefaultTTL = 10 * time.Minute

// Cache stores opaque values by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// CollectionIdeasKey is the key for the cached idea list of a collection.
func CollectionIdeasKey(collectionID string) string {
	return "ideas:collection:" + collectionID
}

// New returns a JetStream KV cache when nc is connected and bucket is set,
// otherwise an in-memory cache.
func New(ctx context.Context, nc *nats.Conn, bucket string, ttl time.Duration, logger *zap.Logger) Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if nc == nil || bucket == "" {
		return NewMemory(ttl)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		logger.Warn("JetStream unavailable, using in-memory cache", zap.Error(err))
		return NewMemory(ttl)
	}
	kv, err := NewKV(ctx, js, bucket, ttl)
	if err != nil {
		logger.Warn("KV bucket unavailable, using in-memory cache",
			zap.String("bucket", bucket), zap.Error(err))
		return NewMemory(ttl)
	}
	logger.Info("KV cache enabled", zap.String("bucket", bucket))
	return kv
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// Memory is a process-local cache with a fixed TTL.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemory creates an in-memory cache.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: append([]byte(nil), value...), expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
