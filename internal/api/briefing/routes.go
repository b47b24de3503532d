package briefing

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers briefing routes. mw applies to the route only.
func RegisterRoutes(g *echo.Group, handler *Handler, mw ...echo.MiddlewareFunc) {
	g.POST("/mission-briefing", handler.CreateBriefing, mw...)
}
