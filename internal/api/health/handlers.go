package health

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atlaswatch/api/internal/api/common"
)

// Handler handles the health check
type Handler struct {
	instanceID string
	version    string
	tracked    string
}

// NewHandler creates a new health handler
func NewHandler(instanceID, version, tracked string) *Handler {
	return &Handler{
		instanceID: instanceID,
		version:    version,
		tracked:    tracked,
	}
}

// GetHealth handles GET /health
// Supports ?info=true to add the instance ID, version and tracked object
func (h *Handler) GetHealth(c echo.Context) error {
	resp := common.HealthResponse{
		Status:  "OK",
		Message: h.tracked + " Backend API Running",
	}
	if c.QueryParam("info") == "true" {
		return c.JSON(http.StatusOK, common.HealthInfoResponse{
			HealthResponse: resp,
			APIID:          h.instanceID,
			Version:        h.version,
			Tracked:        h.tracked,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
