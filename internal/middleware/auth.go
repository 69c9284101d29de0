package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/domain"
)

// ContextKey type for context keys
type ContextKey string

const (
	// Context keys
	ContextKeyUserID ContextKey = "userID"
	ContextKeyEmail  ContextKey = "email"
	ContextKeyRole   ContextKey = "role"
)

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateJWT(ctx context.Context, token string) (*domain.JWTClaims, error)
}

// AuthMiddleware handles authentication
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
	}
}

// RequireJWT validates JWT authentication and stores the caller in locals
func (m *AuthMiddleware) RequireJWT() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Authorization header required",
			})
		}

		claims, err := m.tokens.ValidateJWT(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid or expired token",
			})
		}

		// Parse user ID from claims
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid user ID in token",
			})
		}

		c.Locals(string(ContextKeyUserID), userID)
		c.Locals(string(ContextKeyEmail), claims.Email)
		c.Locals(string(ContextKeyRole), claims.Role)

		return c.Next()
	}
}

// RequireAdmin rejects callers without the admin role. It must run after RequireJWT.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := GetRole(c); role != domain.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Forbidden",
				"message": "Admin access required",
			})
		}
		return c.Next()
	}
}

// extractBearerToken extracts the JWT from the Authorization header. Browser
// EventSource clients cannot set headers, so the access_token query parameter
// is accepted as well.
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return c.Query("access_token")
}

// GetUserID gets the user ID from context
func GetUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals(string(ContextKeyUserID)).(uuid.UUID)
	return userID, ok
}

// GetRole gets the caller's role from context
func GetRole(c *fiber.Ctx) (domain.Role, bool) {
	role, ok := c.Locals(string(ContextKeyRole)).(domain.Role)
	return role, ok
}

// GetActor describes the authenticated caller for audit records
func GetActor(c *fiber.Ctx) domain.Actor {
	userID, _ := GetUserID(c)
	email, _ := c.Locals(string(ContextKeyEmail)).(string)
	return domain.Actor{
		ID:        userID,
		Email:     email,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}
