package briefing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/atlaswatch/api/internal/api/common"
	"github.com/atlaswatch/api/pkg/briefing"
	"github.com/atlaswatch/api/pkg/logging"
	"github.com/atlaswatch/api/pkg/response"
)

const missingFieldsMessage = "Missing required fields: prompt and responseSchema"

// Generator produces a briefing for a prompt and schema
type Generator interface {
	Generate(ctx context.Context, req briefing.Request) (json.RawMessage, error)
}

// Handler handles mission briefing requests
type Handler struct {
	generator Generator
}

// NewHandler creates a new briefing handler
func NewHandler(generator Generator) *Handler {
	return &Handler{generator: generator}
}

// CreateBriefing handles POST /mission-briefing
func (h *Handler) CreateBriefing(c echo.Context) error {
	var req common.MissionBriefingRequest
	if err := c.Bind(&req); err != nil {
		logging.Logger.Error("Failed to bind request", zap.Error(err))
		return response.BadRequest(c, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		logging.Logger.Debug("Request validation failed", zap.Error(err))
		return response.BadRequest(c, missingFieldsMessage)
	}
	// a literal null passes the required check
	if string(req.ResponseSchema) == "null" {
		return response.BadRequest(c, missingFieldsMessage)
	}

	out, err := h.generator.Generate(c.Request().Context(), briefing.Request{
		Prompt:         req.Prompt,
		ResponseSchema: req.ResponseSchema,
		RealData:       req.RealData,
	})
	if err != nil {
		logging.Logger.Error("Failed to generate mission briefing", zap.Error(err))
		if errors.Is(err, briefing.ErrEmptyResponse) {
			return response.InternalServerError(c, "No response content from model")
		}
		return response.FromError(c, err)
	}

	return response.RawJSON(c, out)
}
