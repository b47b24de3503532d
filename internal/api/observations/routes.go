package observations

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers observation routes
func RegisterRoutes(g *echo.Group, handler *Handler) {
	g.GET("/mpc-observations/:designation", handler.GetObservations)
}
