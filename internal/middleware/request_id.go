package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ContextKeyRequestID holds the request id in locals
const ContextKeyRequestID ContextKey = "requestID"

const maxRequestIDLength = 64

type requestIDCtxKey struct{}

// RequestIDConfig configures the request ID middleware
type RequestIDConfig struct {
	// Header carrying the request id in both directions
	Header string
	// Generator makes an id when the client sent none or an unusable one
	Generator func() string
}

// DefaultRequestIDConfig returns default request ID config
func DefaultRequestIDConfig() RequestIDConfig {
	return RequestIDConfig{
		Header: fiber.HeaderXRequestID,
		Generator: func() string {
			return uuid.New().String()
		},
	}
}

// RequestID tags every request with an id. A client supplied id is kept only
// when it is short and made of URL-safe characters, since it ends up in logs
// and audit records.
func RequestID(config ...RequestIDConfig) fiber.Handler {
	cfg := DefaultRequestIDConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) error {
		requestID := c.Get(cfg.Header)
		if !validRequestID(requestID) {
			requestID = cfg.Generator()
		}

		c.Set(cfg.Header, requestID)
		c.Locals(ContextKeyRequestID, requestID)
		c.SetUserContext(context.WithValue(c.UserContext(), requestIDCtxKey{}, requestID))

		return c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-', ch == '_', ch == '.':
		default:
			return false
		}
	}
	return true
}

// GetRequestID gets the request ID from locals
func GetRequestID(c *fiber.Ctx) string {
	if requestID, ok := c.Locals(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// RequestIDFromContext returns the request id carried by ctx, if any
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}
