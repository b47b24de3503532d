package cache

import (
	"time"

	"github.com/atlaswatch/api/pkg/logging"
	"go.uber.org/zap"
)

// NewFromConfig creates the response cache. When filePath is set the cache is
// restored from and persisted to that file (development); otherwise it is
// purely in-memory. The returned persister is nil in the in-memory case.
func NewFromConfig(ttl time.Duration, filePath string) (*ResponseCache, *FilePersister) {
	c := NewResponseCache(WithTTL(ttl))

	if filePath == "" {
		logging.Logger.Info("Initialized in-memory response cache",
			zap.Duration("ttl", c.TTL()))
		return c, nil
	}

	fp, err := NewFilePersister(filePath, c)
	if err != nil {
		logging.Logger.Warn("Failed to create file-backed response cache, falling back to memory only",
			zap.String("path", filePath),
			zap.Error(err))
		return c, nil
	}

	if _, err := fp.Load(); err != nil {
		logging.Logger.Warn("Failed to load cache from file, starting with empty cache",
			zap.String("file", filePath),
			zap.Error(err))
	}

	logging.Logger.Info("Initialized file-backed response cache for development",
		zap.String("path", filePath),
		zap.Duration("ttl", c.TTL()))
	return c, fp
}
