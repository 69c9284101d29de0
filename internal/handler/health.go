package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Checker pings one dependency
type Checker func(ctx context.Context) error

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checks    map[string]Checker
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler. Optional dependencies such as
// ClickHouse are simply left out of checks when not configured.
func NewHealthHandler(version string, checks map[string]Checker) *HealthHandler {
	if checks == nil {
		checks = map[string]Checker{}
	}
	return &HealthHandler{
		checks:    checks,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthStatus represents health check status
type HealthStatus struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := HealthStatus{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string, len(h.checks)),
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = "unhealthy: " + err.Error()
		} else {
			status.Checks[name] = "healthy"
		}
	}

	statusCode := fiber.StatusOK
	if status.Status != "healthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(status)
}

// Liveness handles GET /livez - basic liveness probe
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// Readiness handles GET /readyz - readiness probe
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"reason": name + " unavailable",
			})
		}
	}

	return c.JSON(fiber.Map{
		"status": "ready",
	})
}

// Version handles GET /version
func (h *HealthHandler) Version(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": h.version,
		"uptime":  time.Since(h.startTime).String(),
	})
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.Health)
	app.Get("/healthz", h.Health)
	app.Get("/livez", h.Liveness)
	app.Get("/readyz", h.Readiness)
	app.Get("/version", h.Version)
}
