package cache

import (
	"errors"
	"time"
)

// ErrNoCandidates is returned by FirstHit when given no keys
var ErrNoCandidates = errors.New("no candidate keys")

const fileFormatVersion = "1.0"

type fileCacheData struct {
	Entries map[string]*fileCacheEntry `json:"entries"`
	Version string                     `json:"version"`
}

// fileCacheEntry keeps storedAt rather than an expiry so the TTL in effect
// at read time decides freshness after a restart.
type fileCacheEntry struct {
	Value    []byte    `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}
