package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	briefingapi "github.com/atlaswatch/api/internal/api/briefing"
	"github.com/atlaswatch/api/internal/api/ephemeris"
	"github.com/atlaswatch/api/internal/api/health"
	"github.com/atlaswatch/api/internal/api/observations"
	positionsapi "github.com/atlaswatch/api/internal/api/positions"
	"github.com/atlaswatch/api/internal/middleware"
	"github.com/atlaswatch/api/pkg/designation"
	"github.com/atlaswatch/api/pkg/logging"
	"github.com/atlaswatch/api/pkg/metrics"
	"github.com/atlaswatch/api/pkg/positions"
	"github.com/atlaswatch/api/pkg/response"
)

// VersionInfo contains build version information
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the struct
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Dependencies are the collaborators the routes are built from
type Dependencies struct {
	Positions    *positions.Service
	Resolver     *designation.Resolver
	Ephemeris    ephemeris.RawSource
	Observations observations.Source
	Briefing     briefingapi.Generator
	// BriefingRateLimit is requests per second per client; 0 disables it
	BriefingRateLimit float64
	// Now overrides the wall clock in handlers that pick a date
	Now func() time.Time
}

// Server represents the API server
type Server struct {
	echo        *echo.Echo
	instanceID  string
	versionInfo *VersionInfo
}

// New creates a new API server instance and registers all routes on e
func New(e *echo.Echo, deps Dependencies, instanceID string, versionInfo *VersionInfo) *Server {
	srv := &Server{
		echo:        e,
		instanceID:  instanceID,
		versionInfo: versionInfo,
	}

	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = srv.handleError

	// Global middleware
	e.Use(middleware.RecoverMiddleware())
	e.Use(middleware.LoggerMiddleware())
	e.Use(middleware.CORSMiddleware())
	e.Use(metrics.Middleware())
	e.Use(middleware.IdentityMiddleware(instanceID, versionInfo.Version))

	object := deps.Positions.Object()

	healthHandler := health.NewHandler(instanceID, versionInfo.Version, object.Name)
	briefingHandler := briefingapi.NewHandler(deps.Briefing)
	ephemerisHandler := ephemeris.NewHandler(deps.Ephemeris, deps.Resolver, object, deps.Now)
	observationsHandler := observations.NewHandler(deps.Observations, deps.Resolver, object, deps.Now)
	positionsHandler := positionsapi.NewHandler(deps.Positions, deps.Now)

	api := e.Group("/api")

	var briefingMiddleware []echo.MiddlewareFunc
	if deps.BriefingRateLimit > 0 {
		briefingMiddleware = append(briefingMiddleware, middleware.RateLimitMiddleware(deps.BriefingRateLimit))
	}

	health.RegisterRoutes(api, healthHandler)
	briefingapi.RegisterRoutes(api, briefingHandler, briefingMiddleware...)
	ephemeris.RegisterRoutes(api, ephemerisHandler)
	observations.RegisterRoutes(api, observationsHandler)
	positionsapi.RegisterRoutes(api, positionsHandler)

	api.GET("/version", srv.handleVersion)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	return srv
}

// handleVersion handles the version endpoint
func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, s.versionInfo)
}

// handleError keeps echo's own errors (404 route, 405, bind failures) in
// the {"error": ...} shape
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = response.Error(c, code, message)
	}
	if err != nil {
		logging.Logger.Warn("Failed to write error response", zap.Error(err))
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the API server and blocks until it stops
func (s *Server) Start(addr string) error {
	logging.Logger.Info("Starting server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
