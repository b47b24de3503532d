package health

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers health routes
func RegisterRoutes(g *echo.Group, handler *Handler) {
	g.GET("/health", handler.GetHealth)
}
