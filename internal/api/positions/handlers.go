package positions

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/atlaswatch/api/pkg/logging"
	"github.com/atlaswatch/api/pkg/orbit"
	"github.com/atlaswatch/api/pkg/positions"
	"github.com/atlaswatch/api/pkg/response"
)

// Default trajectory window around perihelion
const (
	defaultStartDays = -60
	defaultEndDays   = 60
	defaultStepDays  = 2
	// bounds the polyline a single request can ask for
	maxPoints = 2000
)

// Handler serves positions and estimates
type Handler struct {
	service *positions.Service
	now     func() time.Time
}

// NewHandler creates a new positions handler. A nil now uses the wall clock.
func NewHandler(service *positions.Service, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{service: service, now: now}
}

// EstimateResponse for GET /estimate
type EstimateResponse struct {
	Object    string         `json:"object"`
	Source    string         `json:"source"`
	Position  orbit.Position `json:"position"`
	Distance  float64        `json:"distanceAU"`
	DayOffset float64        `json:"dayOffset"`
}

// GetSnapshot handles GET /solar-system-positions
func (h *Handler) GetSnapshot(c echo.Context) error {
	snap, err := h.service.Snapshot(c.Request().Context())
	if err != nil {
		logging.Logger.Error("Failed to build positions snapshot", zap.Error(err))
		return response.FromError(c, err)
	}
	return response.OK(c, snap)
}

// GetTrajectory handles GET /trajectory?start=&end=&step=
func (h *Handler) GetTrajectory(c echo.Context) error {
	start, err := intParam(c, "start", defaultStartDays)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	end, err := intParam(c, "end", defaultEndDays)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	step, err := intParam(c, "step", defaultStepDays)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	w := orbit.Window{StartDays: start, EndDays: end}
	n, err := orbit.CountPoints(w, step)
	if err != nil {
		return response.FromError(c, err)
	}
	if n > maxPoints {
		return response.BadRequest(c, "trajectory window too large for step")
	}

	traj, err := h.service.Trajectory(c.Request().Context(), w, step)
	if err != nil {
		logging.Logger.Warn("Failed to estimate trajectory", zap.Error(err))
		return response.FromError(c, err)
	}
	return response.OK(c, traj)
}

// GetEstimate handles GET /estimate?date=YYYY-MM-DD; today when date is absent
func (h *Handler) GetEstimate(c echo.Context) error {
	asOf := h.now().UTC()
	if raw := c.QueryParam("date"); raw != "" {
		date, err := orbit.ParseDate(raw)
		if err != nil {
			return response.BadRequest(c, err.Error())
		}
		asOf = date
	}

	pos, err := h.service.Estimate(asOf)
	if err != nil {
		logging.Logger.Error("Failed to estimate position", zap.Error(err))
		return response.FromError(c, err)
	}

	object := h.service.Object()
	return c.JSON(http.StatusOK, EstimateResponse{
		Object:    object.Name,
		Source:    positions.EstimatorSource,
		Position:  pos,
		Distance:  pos.Distance(),
		DayOffset: asOf.Sub(object.Orbit.PerihelionDate).Hours() / 24,
	})
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, value: raw}
	}
	return v, nil
}

type paramError struct {
	name, value string
}

func (e *paramError) Error() string {
	return "invalid " + e.name + " " + strconv.Quote(e.value) + ", expected an integer day offset"
}
