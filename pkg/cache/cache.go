package cache

import (
	"context"
	"time"
)

// DefaultTTL is the freshness window for upstream responses
const DefaultTTL = 5 * time.Minute

// Cache defines the interface for caching operations
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	GetOrCompute(ctx context.Context, key string, compute ComputeFunc) ([]byte, bool, error)
}

// ComputeFunc produces the payload for a key on a cache miss
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Clock returns the current time. Tests inject a fake one to simulate expiry.
type Clock func() time.Time

// Option configures a ResponseCache
type Option func(*ResponseCache)

// WithClock replaces the wall clock
func WithClock(clock Clock) Option {
	return func(c *ResponseCache) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResponseCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}
