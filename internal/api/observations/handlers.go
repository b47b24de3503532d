package observations

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
	"github.com/atlaswatch/api/pkg/logging"
	"github.com/atlaswatch/api/pkg/mpc"
	"github.com/atlaswatch/api/pkg/response"
)

// Source returns observation records for designators
type Source interface {
	Observations(ctx context.Context, designators ...string) (json.RawMessage, error)
}

// Handler relays observation registry records
type Handler struct {
	source   Source
	resolver *designation.Resolver
	object   config.TrackedObject
	now      func() time.Time
}

// NewHandler creates a new observations handler. A nil now uses the wall clock.
func NewHandler(source Source, resolver *designation.Resolver, object config.TrackedObject, now func() time.Time) *Handler {
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

type envelope struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// GetObservations handles GET /mpc-observations/:designation
func (h *Handler) GetObservations(c echo.Context) error {
	requested, err := url.PathUnescape(c.Param("designation"))
	if err != nil || requested == "" {
		return response.BadRequest(c, "designation is required")
	}

	res, err := h.resolver.Resolve(c.Request().Context(), designation.Lookup{
		Scope:      mpc.SourceName,
		Candidates: common.Candidates(requested, h.object, h.object.MPCDesignations),
	}, func(ctx context.Context, candidate string) ([]byte, error) {
		data, err := h.source.Observations(ctx, candidate)
		if err != nil {
			return nil, err
		}
		return json.Marshal(envelope{Timestamp: h.now().UTC(), Data: data})
	})
	if err != nil {
		logging.Logger.Info("No observations for designation",
			zap.String("designation", requested),
			zap.Error(err))
		return response.FromError(c, err)
	}

	var env envelope
	if err := json.Unmarshal(res.Value, &env); err != nil {
		return response.InternalServerError(c, "Failed to decode cached response")
	}

	return response.OK(c, common.ProxyResponse{
		Timestamp:   env.Timestamp,
		Source:      mpc.SourceName,
		Designation: requested,
		Resolved:    res.Candidate,
		Cached:      res.Cached,
		Data:        env.Data,
	})
}
