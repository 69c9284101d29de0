package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/pkg/database"
	"github.com/ledgerline/ledgerline/internal/pkg/logger"
	pgrepo "github.com/ledgerline/ledgerline/internal/repository/postgres"
	"github.com/ledgerline/ledgerline/internal/service"
)

// Version is set at build time
var Version = "0.1.0"

var (
	verbose bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Ledgerline operator CLI",
	Long: `ledgerctl manages a Ledgerline deployment. It reads the same
environment variables and config.yaml as the API server.

Commands:
  migrate   - apply, roll back or inspect database migrations
  admin     - manage admin users
  settings  - list and change system settings

Example:
  ledgerctl migrate up
  ledgerctl admin create --email ops@bank.example --password '...' --name "Ops"
  ledgerctl settings set system.maintenance_mode true`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Timeout for the whole command")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(settingsCmd)
}

// env is the set of connections a command needs
type env struct {
	cfg    *config.Config
	log    *zap.Logger
	pg     *database.PostgresDB
	sqlx   *sqlx.DB
	redis  *redis.Client
	closer []func()
}

func (e *env) Close() {
	for i := len(e.closer) - 1; i >= 0; i-- {
		e.closer[i]()
	}
}

// commandContext bounds a command by the --timeout flag
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// loadEnv loads config and opens the SQL connection. withPool also opens the
// pgx pool and Redis for commands that go through the services.
func loadEnv(ctx context.Context, withPool bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(logger.Config{Level: level, Format: "console"}); err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: logger.Named("ledgerctl")}

	db, err := database.NewSQLX(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	e.sqlx = db
	e.closer = append(e.closer, func() { _ = db.Close() })

	if !withPool {
		return e, nil
	}

	pg, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.pg = pg
	e.closer = append(e.closer, pg.Close)

	rdb, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.redis = rdb
	e.closer = append(e.closer, func() { _ = rdb.Close() })

	return e, nil
}

// services builds the settings and auth services over e's connections
func (e *env) services() (*service.SettingsService, *service.AuthService) {
	audit := service.NewAuditService(pgrepo.NewAuditRepository(e.sqlx))
	settings := service.NewSettingsService(
		pgrepo.NewSettingRepository(e.pg),
		database.NewCache(e.redis, "settings", 5*time.Minute),
		audit,
		e.log,
	)
	auth := service.NewAuthService(
		e.cfg.JWT,
		e.pg,
		pgrepo.NewUserRepository(e.pg),
		pgrepo.NewAccountRepository(e.pg),
		settings,
		audit,
		e.log,
	)
	return settings, auth
}
