package ephemeris

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/atlaswatch/api/internal/api/common"
	"github.com/atlaswatch/api/pkg/config"
	"github.com/atlaswatch/api/pkg/designation"
	"github.com/atlaswatch/api/pkg/horizons"
	"github.com/atlaswatch/api/pkg/logging"
	"github.com/atlaswatch/api/pkg/orbit"
	"github.com/atlaswatch/api/pkg/response"
	"github.com/atlaswatch/api/pkg/upstream"
)

// rawScope keeps raw text apart from the parsed positions in the cache
const rawScope = horizons.SourceName + "-raw"

// RawSource returns the unparsed Horizons response for a command
type RawSource interface {
	Raw(ctx context.Context, command string, start, stop time.Time) (string, error)
}

// Handler relays Horizons vector tables
type Handler struct {
	source   RawSource
	resolver *designation.Resolver
	object   config.TrackedObject
	now      func() time.Time
}

// NewHandler creates a new ephemeris handler. A nil now uses the wall clock.
func NewHandler(source RawSource, resolver *designation.Resolver, object config.TrackedObject, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		source:   source,
		resolver: resolver,
		object:   object,
		now:      now,
	}
}

// envelope is what gets cached per candidate
type envelope struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// GetVectors handles GET /jpl-horizons/:designation
func (h *Handler) GetVectors(c echo.Context) error {
	requested, err := url.PathUnescape(c.Param("designation"))
	if err != nil || requested == "" {
		return response.BadRequest(c, "designation is required")
	}

	now := h.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stop := start.AddDate(0, 0, 1)

	res, err := h.resolver.Resolve(c.Request().Context(), designation.Lookup{
		Scope:      rawScope,
		Qualifier:  start.Format(orbit.DateLayout),
		Candidates: common.Candidates(requested, h.object, h.object.HorizonsCandidates),
	}, func(ctx context.Context, candidate string) ([]byte, error) {
		text, err := h.source.Raw(ctx, candidate, start, stop)
		if err != nil {
			return nil, err
		}
		// Horizons answers unknown objects with 200 and an explanation
		if miss, ok := horizons.ParseVectors(text, "").(horizons.Miss); ok {
			return nil, upstream.Miss(horizons.SourceName, candidate, miss.Reason)
		}
		return json.Marshal(envelope{Timestamp: h.now().UTC(), Text: text})
	})
	if err != nil {
		logging.Logger.Info("No Horizons data for designation",
			zap.String("designation", requested),
			zap.Error(err))
		return response.FromError(c, err)
	}

	var env envelope
	if err := json.Unmarshal(res.Value, &env); err != nil {
		return response.InternalServerError(c, "Failed to decode cached response")
	}
	data, err := json.Marshal(env.Text)
	if err != nil {
		return response.InternalServerError(c, "Failed to encode response")
	}

	return response.OK(c, common.ProxyResponse{
		Timestamp:   env.Timestamp,
		Source:      horizons.SourceName,
		Designation: requested,
		Resolved:    res.Candidate,
		Cached:      res.Cached,
		Data:        data,
	})
}
