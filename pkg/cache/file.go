package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atlaswatch/api/pkg/logging"
	"go.uber.org/zap"
)

// FilePersister snapshots a ResponseCache to a JSON file.
// Used in development to keep upstream responses across server restarts.
type FilePersister struct {
	filePath string
	cache    *ResponseCache
}

// NewFilePersister creates the cache directory and returns a persister for c
func NewFilePersister(filePath string, c *ResponseCache) (*FilePersister, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FilePersister{
		filePath: filePath,
		cache:    c,
	}, nil
}

// Load restores still-fresh entries from disk. A missing file is not an error.
func (fp *FilePersister) Load() (int, error) {
	data, err := os.ReadFile(fp.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var fileData fileCacheData
	if err := json.Unmarshal(data, &fileData); err != nil {
		return 0, fmt.Errorf("failed to unmarshal cache file: %w", err)
	}

	now := fp.cache.now()
	loaded := 0
	expired := 0

	for key, e := range fileData.Entries {
		if e == nil {
			continue
		}
		if now.Sub(e.StoredAt) > fp.cache.ttl {
			expired++
			continue
		}

		fp.cache.restore(key, entry{
			value:    e.Value,
			storedAt: e.StoredAt,
		})
		loaded++
	}

	logging.Logger.Info("Cache loaded from disk",
		zap.String("file", fp.filePath),
		zap.Int("loaded", loaded),
		zap.Int("expired", expired))

	return loaded, nil
}

// Save writes all fresh entries to disk
func (fp *FilePersister) Save() error {
	fileData := fileCacheData{
		Version: fileFormatVersion,
		Entries: make(map[string]*fileCacheEntry),
	}

	now := fp.cache.now()
	for key, e := range fp.cache.snapshot() {
		// Don't save expired entries
		if now.Sub(e.storedAt) > fp.cache.ttl {
			continue
		}
		fileData.Entries[key] = &fileCacheEntry{
			Value:    e.value,
			StoredAt: e.storedAt,
		}
	}

	data, err := json.MarshalIndent(fileData, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first, then rename (atomic operation)
	tempFile := fp.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tempFile, fp.filePath); err != nil {
		return err
	}

	logging.Logger.Debug("Cache saved to disk",
		zap.String("file", fp.filePath),
		zap.Int("entries", len(fileData.Entries)))

	return nil
}

// Run saves periodically until ctx is done, then saves one final time
func (fp *FilePersister) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := fp.Save(); err != nil {
				logging.Logger.Warn("Failed to save cache to file",
					zap.String("file", fp.filePath),
					zap.Error(err))
			}
		case <-ctx.Done():
			if err := fp.Save(); err != nil {
				logging.Logger.Warn("Failed to save cache on shutdown",
					zap.String("file", fp.filePath),
					zap.Error(err))
			}
			return
		}
	}
}
