// Package testutil provides shared test utilities for the Ledgerline API.
package testutil

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/domain"
	"github.com/ledgerline/ledgerline/internal/middleware"
)

// TestUserMiddleware sets the locals RequireJWT would set for a customer.
// Use this in tests to simulate authenticated requests.
func TestUserMiddleware(userID uuid.UUID) fiber.Handler {
	return TestAuthMiddleware(userID, "customer@example.com", domain.RoleCustomer)
}

// TestAdminMiddleware sets the locals of an authenticated admin
func TestAdminMiddleware(adminID uuid.UUID) fiber.Handler {
	return TestAuthMiddleware(adminID, "admin@example.com", domain.RoleAdmin)
}

// TestAuthMiddleware sets user id, email and role in context
func TestAuthMiddleware(userID uuid.UUID, email string, role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(string(middleware.ContextKeyUserID), userID)
		c.Locals(string(middleware.ContextKeyEmail), email)
		c.Locals(string(middleware.ContextKeyRole), role)
		return c.Next()
	}
}
