// Package designation resolves a tracked object against an upstream source
// that knows it under one of several names.
package designation

import (
	"context"
	"slices"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/atlaswatch/api/pkg/cache"
	"github.com/atlaswatch/api/pkg/logging"
)

// DefaultRemember is how long a winning candidate is tried first
const DefaultRemember = time.Hour

// FetchFunc queries the upstream source for one candidate name
type FetchFunc func(ctx context.Context, candidate string) ([]byte, error)

// Lookup describes one resolution
type Lookup struct {
	// Scope namespaces cache keys and winner memory, e.g. "mpc"
	Scope string
	// Qualifier further narrows cache keys, e.g. a date, without affecting
	// winner memory
	Qualifier  string
	Candidates []string
}

// Resolution is the outcome of a successful Resolve
type Resolution struct {
	Candidate string
	Value     []byte
	Cached    bool
}

// Resolver tries candidate names in order through the response cache
type Resolver struct {
	cache   *cache.ResponseCache
	winners *ttlcache.Cache[string, string]
}

// NewResolver creates a Resolver. A non-positive remember selects DefaultRemember.
func NewResolver(c *cache.ResponseCache, remember time.Duration) *Resolver {
	if remember <= 0 {
		remember = DefaultRemember
	}
	return &Resolver{
		cache: c,
		winners: ttlcache.New[string, string](
			ttlcache.WithTTL[string, string](remember),
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
	}
}

// Resolve tries the lookup's candidates in order and returns the first
// success. The last winner for the scope is tried first.
func (r *Resolver) Resolve(ctx context.Context, lookup Lookup, fetch FetchFunc) (Resolution, error) {
	ordered := r.order(lookup.Scope, lookup.Candidates)

	keys := make([]string, len(ordered))
	byKey := make(map[string]string, len(ordered))
	for i, candidate := range ordered {
		keys[i] = Key(lookup.Scope, lookup.Qualifier, candidate)
		byKey[keys[i]] = candidate
	}

	key, value, hit, err := r.cache.FirstHit(ctx, keys, func(ctx context.Context, key string) ([]byte, error) {
		return fetch(ctx, byKey[key])
	})
	if err != nil {
		logging.Logger.Debug("No designation candidate matched",
			zap.String("scope", lookup.Scope),
			zap.Strings("candidates", ordered),
			zap.Error(err))
		return Resolution{}, err
	}

	winner := byKey[key]
	r.winners.Set(lookup.Scope, winner, ttlcache.DefaultTTL)
	return Resolution{Candidate: winner, Value: value, Cached: hit}, nil
}

// Remembered returns the last winning candidate for scope, if still fresh
func (r *Resolver) Remembered(scope string) (string, bool) {
	item := r.winners.Get(scope)
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

// Key is the response cache key for candidate
func Key(scope, qualifier, candidate string) string {
	if qualifier == "" {
		return scope + ":" + candidate
	}
	return scope + ":" + qualifier + ":" + candidate
}

// order moves the remembered winner to the front
func (r *Resolver) order(scope string, candidates []string) []string {
	out := slices.Clone(candidates)
	winner, ok := r.Remembered(scope)
	if !ok {
		return out
	}
	i := slices.Index(out, winner)
	if i <= 0 {
		return out
	}
	out = slices.Delete(out, i, i+1)
	return slices.Insert(out, 0, winner)
}
