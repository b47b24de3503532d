package middleware

import (
	"github.com/labstack/echo/v4"
)

// Identity headers sent on every response. The dashboard compares the
// instance ID between polls: a new ID means the backend restarted and its
// response cache is cold, so the next snapshot will hit Horizons.
const (
	APIIDHeader   = "X-Atlaswatch-API-ID"
	VersionHeader = "X-Atlaswatch-API-Version"
)

// identityHeaders are readable by browser scripts on other origins
var identityHeaders = []string{APIIDHeader, VersionHeader}

// IdentityMiddleware stamps responses with the instance ID and build version
func IdentityMiddleware(instanceID, version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(APIIDHeader, instanceID)
			h.Set(VersionHeader, version)
			return next(c)
		}
	}
}
