package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ledgerline/ledgerline/internal/domain"
)

// FlagReader reads boolean settings
type FlagReader interface {
	Bool(ctx context.Context, key string) bool
}

// Maintenance answers 503 to everyone but admins while maintenance mode is on.
// Run it after RequireJWT to let admins through.
func Maintenance(flags FlagReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !flags.Bool(c.UserContext(), domain.SettingMaintenanceMode) {
			return c.Next()
		}
		if role, _ := GetRole(c); role == domain.RoleAdmin {
			return c.Next()
		}
		c.Set(fiber.HeaderRetryAfter, "300")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":   "Service Unavailable",
			"message": "Ledgerline is down for maintenance. Please try again later.",
		})
	}
}
