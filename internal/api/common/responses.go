package common

import (
	"encoding/json"
	"time"
)

// HealthResponse for GET /api/health
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthInfoResponse for GET /api/health?info=true
type HealthInfoResponse struct {
	HealthResponse
	APIID   string `json:"api_id"`
	Version string `json:"version"`
	Tracked string `json:"tracked"`
}

// ProxyResponse wraps data relayed from an external source
type ProxyResponse struct {
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Designation string    `json:"designation"`
	// Resolved is the designation the source actually answered to
	Resolved string          `json:"resolved"`
	Cached   bool            `json:"cached"`
	Data     json.RawMessage `json:"data"`
}
