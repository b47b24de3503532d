// Package horizons queries the JPL Horizons ephemeris API for heliocentric
// state vectors.
package horizons

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/atlaswatch/api/pkg/logging"
	"github.com/atlaswatch/api/pkg/metrics"
	"github.com/atlaswatch/api/pkg/orbit"
	"github.com/atlaswatch/api/pkg/upstream"
	"go.uber.org/zap"
)

const (
	// SourceName labels errors, logs and metrics
	SourceName = "jpl-horizons"

	DefaultBaseURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

	// Horizons body IDs
	Earth = "399"
	Mars  = "499"
)

// Client fetches vector tables from Horizons
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
		baseURL:    baseURL,
		httpClient: upstream.SharedHTTPClient(timeout),
	}
}

// Query builds the vector-table query for command between start and stop
func Query(command string, start, stop time.Time) url.Values {
	return url.Values{
		"format":     {"text"},
		"COMMAND":    {"'" + command + "'"},
		"OBJ_DATA":   {"NO"},
		"MAKE_EPHEM": {"YES"},
		"EPHEM_TYPE": {"VECTORS"},
		"CENTER":     {"500@10"},
		"START_TIME": {start.UTC().Format(orbit.DateLayout)},
		"STOP_TIME":  {stop.UTC().Format(orbit.DateLayout)},
		"STEP_SIZE":  {"1d"},
		"VEC_TABLE":  {"2"},
		"OUT_UNITS":  {"AU-D"},
		"CSV_FORMAT": {"YES"},
		"VEC_LABELS": {"YES"},
	}
}

// Raw returns the unparsed text response for command
func (c *Client) Raw(ctx context.Context, command string, start, stop time.Time) (string, error) {
	reqURL := c.baseURL + "?" + Query(command, start, stop).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", upstream.Unreachable(SourceName, command, err)
	}
	req.Header.Set("User-Agent", upstream.UserAgent())

	began := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(SourceName, "unreachable", time.Since(began))
		return "", upstream.Unreachable(SourceName, command, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveUpstream(SourceName, "unreachable", time.Since(began))
		return "", upstream.Unreachable(SourceName, command, fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveUpstream(SourceName, "unreachable", time.Since(began))
		return "", upstream.Unreachable(SourceName, command, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	metrics.ObserveUpstream(SourceName, "ok", time.Since(began))
	return string(body), nil
}

// Vectors returns the position of command on start. A response without a
// usable vector row yields a Miss result and a nil error; transport and
// status failures yield an error.
func (c *Client) Vectors(ctx context.Context, command string, start, stop time.Time) (Result, error) {
	text, err := c.Raw(ctx, command, start, stop)
	if err != nil {
		logging.LogUpstream(SourceName, command, "unreachable", zap.Error(err))
		return nil, err
	}

	result := ParseVectors(text, start.UTC().Format(orbit.DateLayout))
	if miss, ok := result.(Miss); ok {
		logging.LogUpstream(SourceName, command, "miss", zap.String("reason", miss.Reason))
	}
	return result, nil
}

// Position is Vectors collapsed to an error: a Miss becomes upstream.ErrMiss
func (c *Client) Position(ctx context.Context, command string, start, stop time.Time) (orbit.Position, error) {
	result, err := c.Vectors(ctx, command, start, stop)
	if err != nil {
		return orbit.Position{}, err
	}
	switch r := result.(type) {
	case Found:
		return r.Position, nil
	case Miss:
		return orbit.Position{}, upstream.Miss(SourceName, command, r.Reason)
	default:
		return orbit.Position{}, fmt.Errorf("unexpected result type %T", result)
	}
}
