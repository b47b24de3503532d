package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/atlaswatch/api/pkg/logging"
	"github.com/atlaswatch/api/pkg/metrics"
	"go.uber.org/zap"
)

// entry is never mutated after creation; Set replaces it wholesale
type entry struct {
	value    []byte
	storedAt time.Time
}

// ResponseCache is an in-memory key/value store with a fixed TTL checked on read.
// Stale entries stay in memory until overwritten; the key space is bounded by
// the distinct objects and date ranges queried.
type ResponseCache struct {
	data map[string]entry
	mu   sync.RWMutex
	ttl  time.Duration
	now  Clock
}

// NewResponseCache creates an empty cache
func NewResponseCache(opts ...Option) *ResponseCache {
	c := &ResponseCache{
		data: make(map[string]entry),
		ttl:  DefaultTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured freshness window
func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

// Get returns a copy of the value for key if it was stored no longer than TTL ago
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, exists := c.data[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		return nil, false
	}
	return slices.Clone(e.value), true
}

// Set stores a copy of value under key, replacing any previous entry
func (c *ResponseCache) Set(key string, value []byte) {
	value = slices.Clone(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = entry{
		value:    value,
		storedAt: c.now(),
	}
}

// GetOrCompute returns the cached value for key, or runs compute and stores
// its result. Failed computations are not cached. The boolean reports a hit.
func (c *ResponseCache) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) ([]byte, bool, error) {
	if value, ok := c.Get(key); ok {
		metrics.IncCacheLookup("hit")
		logging.Logger.Debug("Cache hit", zap.String("key", key))
		return value, true, nil
	}
	metrics.IncCacheLookup("miss")

	value, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}

	c.Set(key, value)
	return value, false, nil
}

// FirstHit tries each key in order against GetOrCompute and returns the first
// success along with the key that produced it. The error of the last
// candidate is returned when none succeed.
func (c *ResponseCache) FirstHit(ctx context.Context, keys []string, compute func(ctx context.Context, key string) ([]byte, error)) (string, []byte, bool, error) {
	var lastErr error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return "", nil, false, err
		}
		value, hit, err := c.GetOrCompute(ctx, key, func(ctx context.Context) ([]byte, error) {
			return compute(ctx, key)
		})
		if err == nil {
			return key, value, hit, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrNoCandidates
	}
	return "", nil, false, lastErr
}

// Len returns the number of stored entries, stale ones included
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// snapshot copies all entries for persistence
func (c *ResponseCache) snapshot() map[string]entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]entry, len(c.data))
	for k, e := range c.data {
		out[k] = e
	}
	return out
}

// restore inserts an entry keeping its original storedAt
func (c *ResponseCache) restore(key string, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = e
}
