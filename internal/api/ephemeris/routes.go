package ephemeris

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers ephemeris routes
func RegisterRoutes(g *echo.Group, handler *Handler) {
	g.GET("/jpl-horizons/:designation", handler.GetVectors)
}
