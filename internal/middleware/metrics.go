package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerline_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledgerline_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledgerline_http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"method", "path"},
	)

	httpActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledgerline_http_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"method"},
	)
)

// MetricsConfig configures the metrics middleware
type MetricsConfig struct {
	// Skip function
	Skip func(*fiber.Ctx) bool
	// PathLabel picks the path label for a request
	PathLabel func(*fiber.Ctx) string
}

// DefaultMetricsConfig returns default metrics config
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Skip:      HealthSkipper,
		PathLabel: RoutePath,
	}
}

// RoutePath labels a request by its route pattern so ids do not explode label
// cardinality. Unmatched requests share one label.
func RoutePath(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
		return r.Path
	}
	if c.Response().StatusCode() == fiber.StatusNotFound {
		return "unmatched"
	}
	return c.Path()
}

// MetricsMiddleware creates a Prometheus metrics middleware
type MetricsMiddleware struct {
	config MetricsConfig
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(config MetricsConfig) *MetricsMiddleware {
	if config.PathLabel == nil {
		config.PathLabel = RoutePath
	}
	return &MetricsMiddleware{
		config: config,
	}
}

// Handler returns the metrics handler
func (m *MetricsMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip if configured
		if m.config.Skip != nil && m.config.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()

		// Track active requests
		httpActiveRequests.WithLabelValues(method).Inc()
		defer httpActiveRequests.WithLabelValues(method).Dec()

		// Process request
		err := c.Next()

		// The route is only known after routing
		path := m.config.PathLabel(c)
		status := strconv.Itoa(responseStatus(c, err))

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		// Event streams stay open for the whole session
		if !isStream(c) {
			httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		}
		httpRequestSize.WithLabelValues(method, path).Observe(float64(len(c.Request().Body())))

		return err
	}
}
