package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/pkg/database"
	"github.com/ledgerline/ledgerline/internal/worker"
)

// Databases holds all database connections
type Databases struct {
	Postgres *database.PostgresDB
	SQLX     *sqlx.DB
	// ClickHouse is nil when analytics is disabled
	ClickHouse  *database.ClickHouseDB
	Redis       *redis.Client
	Minio       *minio.Client
	AsynqClient *asynq.Client
}

// initDatabases initializes all database connections
func initDatabases(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Databases, error) {
	dbs := &Databases{}

	pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	dbs.Postgres = pgDB

	sqlxDB, err := database.NewSQLX(ctx, cfg.Postgres)
	if err != nil {
		dbs.Close()
		return nil, fmt.Errorf("failed to initialize audit store: %w", err)
	}
	dbs.SQLX = sqlxDB

	if cfg.ClickHouse.Enabled {
		chDB, err := database.NewClickHouse(ctx, cfg.ClickHouse)
		if err != nil {
			dbs.Close()
			return nil, fmt.Errorf("failed to initialize ClickHouse: %w", err)
		}
		dbs.ClickHouse = chDB
	} else {
		logger.Info("ClickHouse disabled, dashboard volumes will be read from PostgreSQL")
	}

	redisClient, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		dbs.Close()
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	dbs.Redis = redisClient

	minioClient, err := initMinio(cfg)
	if err != nil {
		dbs.Close()
		return nil, fmt.Errorf("failed to initialize MinIO: %w", err)
	}
	dbs.Minio = minioClient

	dbs.AsynqClient = asynq.NewClient(worker.RedisOpt(cfg.Redis))

	return dbs, nil
}

// Close closes all database connections
func (d *Databases) Close() {
	if d.Postgres != nil {
		d.Postgres.Close()
	}
	if d.SQLX != nil {
		_ = d.SQLX.Close()
	}
	if d.ClickHouse != nil {
		_ = d.ClickHouse.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.AsynqClient != nil {
		_ = d.AsynqClient.Close()
	}
}

// initMinio initializes the MinIO client
func initMinio(cfg *config.Config) (*minio.Client, error) {
	if cfg.MinIO.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is not configured")
	}

	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return client, nil
}
