package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/handler"
	"github.com/ledgerline/ledgerline/internal/middleware"
	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
	"github.com/ledgerline/ledgerline/internal/pkg/logger"
)

const appVersion = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "ledgerline-api"}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Log
	defer logger.Sync()

	sentryEnabled := initSentry(cfg, log)
	if sentryEnabled {
		defer middleware.FlushSentry(5 * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	deps, err := initDependencies(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	app := fiber.New(fiber.Config{
		AppName:               "Ledgerline API",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		BodyLimit:             cfg.Server.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          errorHandler(log, sentryEnabled),
	})

	app.Use(middleware.RequestID())

	loggerMiddleware := middleware.NewLoggerMiddleware(middleware.DefaultLoggerConfig(log))
	app.Use(loggerMiddleware.Handler())

	app.Use(middleware.RecoverWithSentry(log, sentryEnabled))
	if sentryEnabled {
		app.Use(middleware.SentryMiddleware(true))
	}

	corsMiddleware := middleware.NewCORSMiddleware(middleware.CORSConfigForOrigins(cfg.Server.AllowedOrigins))
	app.Use(corsMiddleware.Handler())

	metricsMiddleware := middleware.NewMetricsMiddleware(middleware.DefaultMetricsConfig())
	app.Use(metricsMiddleware.Handler())

	registerRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Info("starting server", zap.String("addr", addr), zap.String("version", appVersion))
		if err := app.Listen(addr); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
}

// initSentry initializes Sentry and reports whether it is active
func initSentry(cfg *config.Config, log *zap.Logger) bool {
	if !cfg.Sentry.Enabled || cfg.Sentry.DSN == "" {
		return false
	}

	sentryConfig := middleware.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		Debug:            cfg.Sentry.Debug,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		FlushTimeout:     5 * time.Second,
	}
	if sentryConfig.Release == "" {
		sentryConfig.Release = "ledgerline@" + appVersion
	}
	if sentryConfig.Environment == "" {
		sentryConfig.Environment = cfg.Server.Env
	}

	if err := middleware.InitSentry(sentryConfig); err != nil {
		log.Error("failed to initialize Sentry", zap.Error(err))
		return false
	}
	log.Info("Sentry initialized",
		zap.String("environment", sentryConfig.Environment),
		zap.String("release", sentryConfig.Release),
	)
	return true
}

// errorHandler renders errors that escape handlers, such as routing misses,
// body limit violations and panics converted by the recover middleware
func errorHandler(log *zap.Logger, sentryEnabled bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		resp := handler.ErrorResponse{
			Error:   utils.StatusMessage(code),
			Code:    apperrors.CodeInternal,
			Message: "An unexpected error occurred",
		}

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			resp.Error = utils.StatusMessage(code)
			resp.Code = fiberErrorCode(code)
			resp.Message = e.Message
		} else if appErr := apperrors.GetAppError(err); appErr != nil {
			code = appErr.StatusCode
			resp.Error = utils.StatusMessage(code)
			resp.Code = appErr.Code
			resp.Message = appErr.Message
			resp.Details = appErr.Details
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("request error",
				zap.Int("status", code),
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.String("request_id", middleware.GetRequestID(c)),
			)
			if sentryEnabled {
				middleware.CaptureError(c, err)
			}
		}

		return c.Status(code).JSON(resp)
	}
}

func fiberErrorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return apperrors.CodeNotFound
	case fiber.StatusMethodNotAllowed, fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
		return apperrors.CodeBadRequest
	case fiber.StatusTooManyRequests:
		return apperrors.CodeRateLimited
	case fiber.StatusServiceUnavailable:
		return apperrors.CodeUnavailable
	default:
		return apperrors.CodeInternal
	}
}
