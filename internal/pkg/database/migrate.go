package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/ledgerline/ledgerline/internal/config"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "migrations"

// NewSQLX opens a database/sql connection pool through lib/pq
func NewSQLX(ctx context.Context, cfg config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}

	db.SetMaxOpenConns(int(cfg.MinConns) + 5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

func initGoose() error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectPostgres)); err != nil {
		return fmt.Errorf("setting dialect for migrations: %w", err)
	}
	return nil
}

// Migrate applies all pending migrations
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if err := initGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, migrationsDir); err != nil {
		return fmt.Errorf("applying migration: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration
func MigrateDown(ctx context.Context, db *sqlx.DB) error {
	if err := initGoose(); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db.DB, migrationsDir); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	return nil
}

// MigrationVersion returns the current schema version
func MigrationVersion(ctx context.Context, db *sqlx.DB) (int64, error) {
	if err := initGoose(); err != nil {
		return 0, err
	}
	version, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return 0, fmt.Errorf("reading migration version: %w", err)
	}
	return version, nil
}
