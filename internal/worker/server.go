package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/config"
)

// Server is the worker server
type Server struct {
	logger    *zap.Logger
	config    *config.Config
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	syncOn    bool
}

// Dependencies holds the services the workers call into
type Dependencies struct {
	Mailer Mailer
	// LedgerSync is nil when ClickHouse is disabled
	LedgerSync LedgerSyncer
	Loans      OverdueScanner
}

// RedisOpt builds the asynq connection options from cfg
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewServer creates a new worker server
func NewServer(
	logger *zap.Logger,
	cfg *config.Config,
	deps *Dependencies,
) (*Server, error) {
	if deps == nil || deps.Mailer == nil || deps.Loans == nil {
		return nil, fmt.Errorf("worker requires a mailer and a loan scanner")
	}

	redisOpt := RedisOpt(cfg.Redis)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				logger.Error("task processing failed",
					zap.String("type", task.Type()),
					zap.Int("retried", retried),
					zap.Error(err),
				)
			}),
			Logger: &asynqLogger{logger: logger},
		},
	)

	mux := asynq.NewServeMux()
	NewNotificationWorker(logger, deps.Mailer).RegisterHandlers(mux)
	NewLedgerWorker(logger, deps.LedgerSync, deps.Loans).RegisterHandlers(mux)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   &asynqLogger{logger: logger},
	})

	return &Server{
		logger:    logger,
		config:    cfg,
		server:    server,
		mux:       mux,
		scheduler: scheduler,
		syncOn:    deps.LedgerSync != nil,
	}, nil
}

// Start starts the worker server and blocks until it stops
func (s *Server) Start() error {
	if err := s.registerScheduledTasks(); err != nil {
		return fmt.Errorf("failed to register scheduled tasks: %w", err)
	}

	go func() {
		if err := s.scheduler.Run(); err != nil {
			s.logger.Error("scheduler stopped", zap.Error(err))
		}
	}()

	s.logger.Info("starting worker server",
		zap.Int("concurrency", s.config.Worker.Concurrency),
		zap.Bool("ledger_sync", s.syncOn),
	)

	return s.server.Run(s.mux)
}

// Stop stops the worker server
func (s *Server) Stop() {
	s.server.Shutdown()
	s.scheduler.Shutdown()
}

// registerScheduledTasks registers periodic tasks with the scheduler
func (s *Server) registerScheduledTasks() error {
	if s.syncOn {
		// Unique keeps a slow run from stacking up behind itself
		_, err := s.scheduler.Register(
			s.config.Worker.LedgerSyncCron,
			asynq.NewTask(TypeLedgerSync, nil),
			asynq.Queue(QueueLow),
			asynq.Unique(10*time.Minute),
		)
		if err != nil {
			return fmt.Errorf("failed to register ledger sync task: %w", err)
		}
	}

	_, err := s.scheduler.Register(
		s.config.Worker.OverdueScanCron,
		asynq.NewTask(TypeLoanOverdueScan, nil),
		asynq.Queue(QueueDefault),
		asynq.Unique(time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to register overdue scan task: %w", err)
	}

	return nil
}

// asynqLogger adapts zap.Logger to asynq.Logger
type asynqLogger struct {
	logger *zap.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
