package positions

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers position routes
func RegisterRoutes(g *echo.Group, handler *Handler) {
	g.GET("/solar-system-positions", handler.GetSnapshot)
	g.GET("/trajectory", handler.GetTrajectory)
	g.GET("/estimate", handler.GetEstimate)
}
