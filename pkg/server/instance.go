package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atlaswatch/api/pkg/logging"
)

// GetOrCreateInstanceID retrieves or creates a unique instance ID for this API.
// The ID is stored in path to persist across restarts. An empty path yields
// a fresh ID every start.
func GetOrCreateInstanceID(path string) (string, error) {
	if path == "" {
		instanceID := uuid.New().String()
		logging.Logger.Info("Generated ephemeral API instance ID", zap.String("id", instanceID))
		return instanceID, nil
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if instanceID := strings.TrimSpace(string(data)); instanceID != "" {
			if _, err := uuid.Parse(instanceID); err == nil {
				logging.Logger.Info("Loaded existing API instance ID", zap.String("id", instanceID))
				return instanceID, nil
			}
			logging.Logger.Warn("Ignoring malformed instance ID file", zap.String("file", path))
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read instance ID file: %w", err)
	}

	// Generate new instance ID
	instanceID := uuid.New().String()
	logging.Logger.Info("Generated new API instance ID", zap.String("id", instanceID))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create instance ID directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(instanceID+"\n"), 0644); err != nil {
		return "", fmt.Errorf("failed to save instance ID: %w", err)
	}

	logging.Logger.Info("Saved instance ID", zap.String("file", path))
	return instanceID, nil
}
