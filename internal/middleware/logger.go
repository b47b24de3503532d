package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atlaswatch/api/pkg/logging"
	"github.com/atlaswatch/api/pkg/response"
)

// LoggerMiddleware logs one structured line per request
func LoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				logging.Logger.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logging.Logger.Info("request", fields...)
			return nil
		},
	})
}

// CORSMiddleware provides CORS support for the browser dashboard
func CORSMiddleware() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		ExposeHeaders: identityHeaders,
	})
}

// RecoverMiddleware provides panic recovery
func RecoverMiddleware() echo.MiddlewareFunc {
	return middleware.Recover()
}

// RateLimitMiddleware limits each client IP to perSecond requests, with
// bursts of up to one second's worth. Rejected requests get a 429.
func RateLimitMiddleware(perSecond float64) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(perSecond),
		Burst: max(1, int(perSecond)),
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logging.Logger.Warn("Rate limit exceeded", zap.String("client", identifier))
			return response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again in a few moments.")
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return response.Error(c, http.StatusForbidden, "Unable to identify client")
		},
	})
}
