package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlaswatch_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlaswatch_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlaswatch_cache_lookups_total",
			Help: "Response cache lookups by result (hit/miss).",
		},
		[]string{"result"},
	)

	upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlaswatch_upstream_requests_total",
			Help: "Outbound calls to external sources by outcome.",
		},
		[]string{"source", "outcome"},
	)

	upstreamDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlaswatch_upstream_duration_seconds",
			Help:    "Outbound call duration in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	estimatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atlaswatch_fallback_estimates_total",
			Help: "Positions produced by the fallback estimator instead of the ephemeris source.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(cacheLookupsTotal)
	prometheus.MustRegister(upstreamRequestsTotal)
	prometheus.MustRegister(upstreamDurationSeconds)
	prometheus.MustRegister(estimatesTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncCacheLookup counts a cache lookup with result "hit" or "miss".
func IncCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveUpstream records one outbound call.
func ObserveUpstream(source, outcome string, d time.Duration) {
	upstreamRequestsTotal.WithLabelValues(source, outcome).Inc()
	upstreamDurationSeconds.WithLabelValues(source).Observe(d.Seconds())
}

// IncFallbackEstimate counts a position served by the estimator.
func IncFallbackEstimate() {
	estimatesTotal.Inc()
}

// Middleware records request count and duration for each request.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}

			httpRequestsTotal.WithLabelValues(path, c.Request().Method, strconv.Itoa(status)).Inc()
			httpDurationSeconds.WithLabelValues(path, c.Request().Method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
