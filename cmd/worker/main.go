package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/pkg/database"
	"github.com/ledgerline/ledgerline/internal/pkg/logger"
	chrepo "github.com/ledgerline/ledgerline/internal/repository/clickhouse"
	pgrepo "github.com/ledgerline/ledgerline/internal/repository/postgres"
	"github.com/ledgerline/ledgerline/internal/service"
	"github.com/ledgerline/ledgerline/internal/worker"
)

const (
	settingsCacheTTL   = 5 * time.Minute
	ledgerWatermarkKey = "ledgerline:ledger_sync:watermark"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "ledgerline-worker"}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Named("worker")
	defer logger.Sync()

	log.Info("starting worker service")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	deps, cleanup, err := initWorkerDependencies(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer cleanup()

	workerServer, err := worker.NewServer(log, cfg, deps)
	if err != nil {
		log.Fatal("failed to create worker server", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- workerServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down worker...")
		workerServer.Stop()
	case err := <-errCh:
		if err != nil {
			log.Error("worker server error", zap.Error(err))
		}
	}

	log.Info("worker stopped")
}

// initWorkerDependencies initializes dependencies for the worker
func initWorkerDependencies(ctx context.Context, cfg *config.Config, log *zap.Logger) (*worker.Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	closers = append(closers, pgDB.Close)

	sqlxDB, err := database.NewSQLX(ctx, cfg.Postgres)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to initialize audit store: %w", err)
	}
	closers = append(closers, func() { _ = sqlxDB.Close() })

	redisClient, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	asynqClient := asynq.NewClient(worker.RedisOpt(cfg.Redis))
	closers = append(closers, func() { _ = asynqClient.Close() })

	userRepo := pgrepo.NewUserRepository(pgDB)
	accountRepo := pgrepo.NewAccountRepository(pgDB)
	loanRepo := pgrepo.NewLoanRepository(pgDB)

	auditService := service.NewAuditService(pgrepo.NewAuditRepository(sqlxDB))
	settingsService := service.NewSettingsService(
		pgrepo.NewSettingRepository(pgDB),
		database.NewCache(redisClient, "settings", settingsCacheTTL),
		auditService,
		log,
	)
	// Events published here have no SSE subscribers; customers get the email
	notificationService := service.NewNotificationService(
		service.NewRealtimeService(),
		worker.NewEnqueuer(asynqClient),
		userRepo,
		log,
	)
	loanService := service.NewLoanService(
		pgDB,
		loanRepo,
		accountRepo,
		settingsService,
		notificationService,
		auditService,
		service.SystemRand,
		log,
	)

	deps := &worker.Dependencies{
		Mailer: service.NewMailService(cfg.SMTP, log),
		Loans:  loanService,
	}

	if cfg.ClickHouse.Enabled {
		chDB, err := database.NewClickHouse(ctx, cfg.ClickHouse)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to initialize ClickHouse: %w", err)
		}
		closers = append(closers, func() { _ = chDB.Close() })

		events := chrepo.NewLedgerEventRepository(chDB)
		if err := events.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to prepare ledger analytics table: %w", err)
		}

		deps.LedgerSync = service.NewLedgerSyncService(
			accountRepo,
			events,
			database.NewWatermark(redisClient, ledgerWatermarkKey),
			cfg.Worker.LedgerSyncBatchSize,
			log,
		)
	} else {
		log.Info("ClickHouse disabled, ledger sync will not be scheduled")
	}

	return deps, cleanup, nil
}
