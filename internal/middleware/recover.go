package middleware

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const contextKeySentryHub ContextKey = "sentryHub"

// SentryConfig holds Sentry-specific configuration
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	Debug            bool
	SampleRate       float64
	TracesSampleRate float64
	FlushTimeout     time.Duration
}

// InitSentry initializes the Sentry SDK. Customer PII such as IP addresses is
// never attached to events.
func InitSentry(config SentryConfig) error {
	if config.DSN == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              config.DSN,
		Environment:      config.Environment,
		Release:          config.Release,
		Debug:            config.Debug,
		SampleRate:       config.SampleRate,
		TracesSampleRate: config.TracesSampleRate,
		AttachStacktrace: true,
		SendDefaultPII:   false,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}

	return nil
}

// FlushSentry flushes any buffered events to Sentry
func FlushSentry(timeout time.Duration) {
	sentry.Flush(timeout)
}

// RecoverWithSentry turns a panic into a 500 response, logs it with the
// stack and reports it to Sentry when enabled
func RecoverWithSentry(logger *zap.Logger, sentryEnabled bool) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			stack := debug.Stack()

			panicErr, ok := r.(error)
			if !ok {
				panicErr = fmt.Errorf("%v", r)
			}

			logger.Error("panic recovered",
				zap.Error(panicErr),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.String("stack", string(stack)),
				zap.String("request_id", GetRequestID(c)),
			)

			if sentryEnabled {
				hub := requestHub(c)
				hub.Scope().SetExtra("stack_trace", string(stack))
				hub.Scope().SetLevel(sentry.LevelFatal)
				if eventID := hub.RecoverWithContext(c.UserContext(), r); eventID != nil {
					logger.Info("panic reported to Sentry", zap.String("event_id", string(*eventID)))
				}
				hub.Flush(2 * time.Second)
			}

			err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Internal Server Error",
				"code":    "INTERNAL_ERROR",
				"message": "An unexpected error occurred",
			})
		}()

		return c.Next()
	}
}

// SentryMiddleware attaches a per-request Sentry hub to the context
func SentryMiddleware(enabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if enabled {
			requestHub(c)
		}
		return c.Next()
	}
}

// CaptureError reports an error to Sentry from a Fiber context
func CaptureError(c *fiber.Ctx, err error) {
	requestHub(c).CaptureException(err)
}

// requestHub returns the hub bound to c, creating it on first use. The caller
// is read at capture time because auth runs after the hub is created.
func requestHub(c *fiber.Ctx) *sentry.Hub {
	hub, ok := c.Locals(contextKeySentryHub).(*sentry.Hub)
	if !ok {
		hub = sentry.CurrentHub().Clone()
		setSentryRequestContext(hub, c)
		c.Locals(contextKeySentryHub, hub)
	}
	if userID, ok := GetUserID(c); ok {
		hub.Scope().SetUser(sentry.User{ID: userID.String()})
	}
	if role, ok := GetRole(c); ok {
		hub.Scope().SetTag("role", string(role))
	}
	return hub
}

// setSentryRequestContext describes the request without credentials
func setSentryRequestContext(hub *sentry.Hub, c *fiber.Ctx) {
	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := string(key)
		if !redactedHeaders[k] {
			headers[k] = string(value)
		}
	})

	hub.Scope().SetTag("request_id", GetRequestID(c))
	// The query string can carry an access token, so only the path is reported
	hub.Scope().SetContext("Request", map[string]interface{}{
		"url":     c.Path(),
		"route":   RoutePath(c),
		"method":  c.Method(),
		"headers": headers,
	})
}
