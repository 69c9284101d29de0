package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/handler"
	"github.com/ledgerline/ledgerline/internal/middleware"
	"github.com/ledgerline/ledgerline/internal/repository/objectstore"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Databases    *Databases
	Repositories *Repositories
	Services     *Services
	Handlers     *Handlers

	AuthMiddleware *middleware.AuthMiddleware
	// RateLimiters are nil when rate limiting is disabled
	AuthRateLimit *middleware.RateLimitMiddleware
	APIRateLimit  *middleware.RateLimitMiddleware
}

// initDependencies initializes all dependencies
func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	dbs, err := initDatabases(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	images, err := objectstore.NewCheckImageStore(ctx, dbs.Minio, cfg.MinIO.Bucket, logger)
	if err != nil {
		dbs.Close()
		return nil, fmt.Errorf("failed to initialize check image store: %w", err)
	}

	repos := initRepositories(dbs)
	if repos.LedgerEvents != nil {
		if err := repos.LedgerEvents.EnsureSchema(ctx); err != nil {
			dbs.Close()
			return nil, fmt.Errorf("failed to prepare ledger analytics table: %w", err)
		}
	}

	svcs := initServices(cfg, logger, dbs, repos, images)

	deps := &Dependencies{
		Config:         cfg,
		Logger:         logger,
		Databases:      dbs,
		Repositories:   repos,
		Services:       svcs,
		Handlers:       initHandlers(logger, svcs, healthChecks(dbs)),
		AuthMiddleware: middleware.NewAuthMiddleware(svcs.Auth),
	}

	if cfg.RateLimit.Enabled {
		deps.AuthRateLimit, deps.APIRateLimit = initRateLimiters(cfg, dbs)
	}

	return deps, nil
}

// healthChecks builds the readiness probes for every configured backend
func healthChecks(dbs *Databases) map[string]handler.Checker {
	checks := map[string]handler.Checker{
		"postgres": func(ctx context.Context) error {
			return dbs.Postgres.Pool.Ping(ctx)
		},
		"redis": func(ctx context.Context) error {
			return dbs.Redis.Ping(ctx).Err()
		},
	}
	if dbs.ClickHouse != nil {
		checks["clickhouse"] = func(ctx context.Context) error {
			return dbs.ClickHouse.Ping(ctx)
		}
	}
	return checks
}

// initRateLimiters builds the stricter limiter for credential endpoints and
// the general per-user limiter
func initRateLimiters(cfg *config.Config, dbs *Databases) (auth, api *middleware.RateLimitMiddleware) {
	authCfg := middleware.RateLimitConfig{
		Name:         "auth",
		Max:          cfg.RateLimit.AuthPerMinute,
		Window:       time.Minute,
		KeyGenerator: middleware.IPKey,
	}
	apiCfg := middleware.RateLimitConfig{
		Name:         "api",
		Max:          cfg.RateLimit.RequestsPerMinute,
		Window:       time.Minute,
		KeyGenerator: middleware.UserKey,
		// SSE streams are exempt
		Skip: func(c *fiber.Ctx) bool {
			return c.Path() == "/v1/events"
		},
	}

	return middleware.NewRateLimitMiddleware(dbs.Redis, authCfg),
		middleware.NewRateLimitMiddleware(dbs.Redis, apiCfg)
}

// Close closes all dependencies
func (d *Dependencies) Close() {
	if d.Databases != nil {
		d.Databases.Close()
	}
}
