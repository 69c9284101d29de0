package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig configures the CORS middleware
type CORSConfig struct {
	// AllowOrigins lists exact origins, "*.example.com" patterns or "*"
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds
	MaxAge int
}

// DefaultCORSConfig returns default CORS config. The API authenticates with
// bearer tokens, so credentials stay off and "*" can be sent as is.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodPut,
			fiber.MethodOptions,
			fiber.MethodHead,
		},
		AllowHeaders: []string{
			fiber.HeaderOrigin,
			fiber.HeaderContentType,
			fiber.HeaderAccept,
			fiber.HeaderAuthorization,
			fiber.HeaderXRequestID,
			fiber.HeaderLastEventID,
		},
		ExposeHeaders: []string{
			fiber.HeaderXRequestID,
			fiber.HeaderRetryAfter,
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge: 600,
	}
}

// CORSConfigForOrigins returns the default config restricted to allowedOrigins
func CORSConfigForOrigins(allowedOrigins []string) CORSConfig {
	config := DefaultCORSConfig()
	config.AllowOrigins = allowedOrigins
	return config
}

// CORSMiddleware applies the configured cross-origin policy
type CORSMiddleware struct {
	config   CORSConfig
	any      bool
	exact    map[string]bool
	suffixes []string
}

// NewCORSMiddleware creates a new CORS middleware
func NewCORSMiddleware(config CORSConfig) *CORSMiddleware {
	m := &CORSMiddleware{config: config, exact: make(map[string]bool)}
	for _, o := range config.AllowOrigins {
		switch {
		case o == "*":
			m.any = true
		case strings.HasPrefix(o, "*."):
			m.suffixes = append(m.suffixes, o[1:])
		default:
			m.exact[strings.TrimSuffix(o, "/")] = true
		}
	}
	if len(config.AllowOrigins) == 0 {
		m.any = true
	}
	return m
}

// allowed returns the Access-Control-Allow-Origin value for origin, or ""
func (m *CORSMiddleware) allowed(origin string) string {
	if m.any {
		if m.config.AllowCredentials {
			return origin
		}
		return "*"
	}
	if m.exact[origin] {
		return origin
	}
	for _, suffix := range m.suffixes {
		if strings.HasSuffix(origin, suffix) {
			return origin
		}
	}
	return ""
}

// Handler returns the CORS handler
func (m *CORSMiddleware) Handler() fiber.Handler {
	allowMethods := strings.Join(m.config.AllowMethods, ", ")
	allowHeaders := strings.Join(m.config.AllowHeaders, ", ")
	exposeHeaders := strings.Join(m.config.ExposeHeaders, ", ")

	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}

		if !m.any || m.config.AllowCredentials {
			c.Vary(fiber.HeaderOrigin)
		}

		allowOrigin := m.allowed(origin)
		if allowOrigin == "" {
			// Unknown origins get no CORS headers; the browser blocks the read
			return c.Next()
		}

		c.Set(fiber.HeaderAccessControlAllowOrigin, allowOrigin)
		if m.config.AllowCredentials {
			c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
		}
		if exposeHeaders != "" {
			c.Set(fiber.HeaderAccessControlExposeHeaders, exposeHeaders)
		}

		if c.Method() == fiber.MethodOptions && c.Get(fiber.HeaderAccessControlRequestMethod) != "" {
			c.Set(fiber.HeaderAccessControlAllowMethods, allowMethods)
			c.Set(fiber.HeaderAccessControlAllowHeaders, allowHeaders)
			if m.config.MaxAge > 0 {
				c.Set(fiber.HeaderAccessControlMaxAge, strconv.Itoa(m.config.MaxAge))
			}
			return c.SendStatus(fiber.StatusNoContent)
		}

		return c.Next()
	}
}
