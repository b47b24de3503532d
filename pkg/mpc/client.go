// Package mpc queries the Minor Planet Center observation API.
package mpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atlaswatch/api/pkg/logging"
	"github.com/atlaswatch/api/pkg/metrics"
	"github.com/atlaswatch/api/pkg/upstream"
	"go.uber.org/zap"
)

const (
	// SourceName labels errors, logs and metrics
	SourceName = "mpc"

	DefaultBaseURL = "https://data.minorplanetcenter.net"
	obsPath        = "/api/get-obs"
)

type obsRequest struct {
	Desigs       []string `json:"desigs"`
	OutputFormat []string `json:"output_format"`
}

// Client fetches observations for object designators
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: upstream.SharedHTTPClient(timeout),
	}
}

// Observations returns the registry's JSON document for designators.
// Any non-2xx status or an empty body is a miss; the client does not try
// alternate designations.
func (c *Client) Observations(ctx context.Context, designators ...string) (json.RawMessage, error) {
	target := strings.Join(designators, ",")
	if len(designators) == 0 {
		return nil, upstream.Miss(SourceName, target, "no designators given")
	}

	body, err := json.Marshal(obsRequest{
		Desigs:       designators,
		OutputFormat: []string{"ADES_DF"},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	// The API takes its JSON parameters in the body of a GET
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+obsPath, bytes.NewReader(body))
	if err != nil {
		return nil, upstream.Unreachable(SourceName, target, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", upstream.UserAgent())

	began := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(SourceName, "unreachable", time.Since(began))
		logging.LogUpstream(SourceName, target, "unreachable", zap.Error(err))
		return nil, upstream.Unreachable(SourceName, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveUpstream(SourceName, "unreachable", time.Since(began))
		return nil, upstream.Unreachable(SourceName, target, fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveUpstream(SourceName, "miss", time.Since(began))
		logging.LogUpstream(SourceName, target, "miss", zap.Int("status", resp.StatusCode))
		return nil, upstream.Miss(SourceName, target, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		metrics.ObserveUpstream(SourceName, "miss", time.Since(began))
		logging.LogUpstream(SourceName, target, "miss", zap.String("reason", "empty body"))
		return nil, upstream.Miss(SourceName, target, "empty body")
	}
	if !json.Valid(trimmed) {
		metrics.ObserveUpstream(SourceName, "miss", time.Since(began))
		return nil, upstream.Miss(SourceName, target, "response is not JSON")
	}

	metrics.ObserveUpstream(SourceName, "ok", time.Since(began))
	return json.RawMessage(trimmed), nil
}
