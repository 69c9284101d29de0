package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

// LoggerConfig configures the logger middleware
type LoggerConfig struct {
	// Logger instance
	Logger *zap.Logger
	// Skip function
	Skip func(*fiber.Ctx) bool
	// IncludeHeaders logs request headers minus credentials
	IncludeHeaders bool
	// SlowThreshold upgrades successful requests slower than this to warn
	SlowThreshold time.Duration
}

// DefaultLoggerConfig returns default logger config
func DefaultLoggerConfig(logger *zap.Logger) LoggerConfig {
	return LoggerConfig{
		Logger:        logger,
		Skip:          HealthSkipper,
		SlowThreshold: 2 * time.Second,
	}
}

// LoggerMiddleware writes one structured line per request
type LoggerMiddleware struct {
	config LoggerConfig
}

// NewLoggerMiddleware creates a new logger middleware
func NewLoggerMiddleware(config LoggerConfig) *LoggerMiddleware {
	return &LoggerMiddleware{
		config: config,
	}
}

var redactedHeaders = map[string]bool{
	fiber.HeaderAuthorization: true,
	fiber.HeaderCookie:        true,
	fiber.HeaderSetCookie:     true,
}

// Handler returns the logger handler. It expects RequestID to run first.
func (m *LoggerMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.config.Skip != nil && m.config.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := responseStatus(c, err)

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("route", RoutePath(c)),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.Int("bytes_out", len(c.Response().Body())),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}

		if userID, ok := GetUserID(c); ok {
			fields = append(fields, zap.String("user_id", userID.String()))
		}
		if role, ok := GetRole(c); ok {
			fields = append(fields, zap.String("role", string(role)))
		}

		if m.config.IncludeHeaders {
			headers := make(map[string]string)
			c.Request().Header.VisitAll(func(key, value []byte) {
				k := string(key)
				if !redactedHeaders[k] {
					headers[k] = string(value)
				}
			})
			fields = append(fields, zap.Any("headers", headers))
		}

		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			m.config.Logger.Error("request completed", fields...)
		case status >= fiber.StatusBadRequest:
			m.config.Logger.Warn("request completed", fields...)
		case m.config.SlowThreshold > 0 && latency > m.config.SlowThreshold && !isStream(c):
			m.config.Logger.Warn("slow request", fields...)
		default:
			m.config.Logger.Info("request completed", fields...)
		}

		return err
	}
}

// responseStatus derives the final status before the error handler has run
func responseStatus(c *fiber.Ctx, err error) int {
	status := c.Response().StatusCode()
	if err == nil {
		return status
	}
	if fe, ok := err.(*fiber.Error); ok {
		return fe.Code
	}
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr.StatusCode
	}
	if status < fiber.StatusBadRequest {
		return fiber.StatusInternalServerError
	}
	return status
}

// isStream reports whether the response is a server-sent event stream
func isStream(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Response().Header.ContentType()), "text/event-stream")
}

// HealthSkipper skips logging for probe and metrics endpoints
func HealthSkipper(c *fiber.Ctx) bool {
	switch c.Path() {
	case "/health", "/healthz", "/readyz", "/livez", "/version", "/metrics":
		return true
	}
	return false
}
