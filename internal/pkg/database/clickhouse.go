package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/pkg/logger"
	"github.com/ledgerline/ledgerline/internal/pkg/metrics"
)

const clickhouseLabel = "clickhouse"

// ClickHouseDB holds the analytics connection that mirrors the ledger.
// Every call is timed into the shared query metrics.
type ClickHouseDB struct {
	Conn driver.Conn
}

func clickhouseOptions(cfg config.ClickHouseConfig) *clickhouse.Options {
	return &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 30,
		},
		Compression:      &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		DialTimeout:      5 * time.Second,
		MaxOpenConns:     4,
		MaxIdleConns:     2,
		ConnMaxLifetime:  30 * time.Minute,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	}
}

// NewClickHouse opens and pings the analytics store
func NewClickHouse(ctx context.Context, cfg config.ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(clickhouseOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	db := &ClickHouseDB{Conn: conn}
	if err := db.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	logger.Info("connected to ClickHouse",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
	)
	return db, nil
}

// Ping checks the connection; used by the readiness probe
func (db *ClickHouseDB) Ping(ctx context.Context) error {
	if db.Conn == nil {
		return fmt.Errorf("clickhouse not connected")
	}
	return db.observe("ping", func() error { return db.Conn.Ping(ctx) })
}

func (db *ClickHouseDB) Close() error {
	if db.Conn != nil {
		return db.Conn.Close()
	}
	return nil
}

// PrepareBatch starts a batch insert. Only preparation is timed; Send is
// the caller's.
func (db *ClickHouseDB) PrepareBatch(ctx context.Context, query string) (driver.Batch, error) {
	var batch driver.Batch
	err := db.observe("batch", func() error {
		var err error
		batch, err = db.Conn.PrepareBatch(ctx, query)
		return err
	})
	return batch, err
}

func (db *ClickHouseDB) Exec(ctx context.Context, query string, args ...any) error {
	return db.observe(operationOf(query), func() error {
		return db.Conn.Exec(ctx, query, args...)
	})
}

// Select scans all rows of query into dest, a pointer to a slice of structs
func (db *ClickHouseDB) Select(ctx context.Context, dest any, query string, args ...any) error {
	return db.observe("select", func() error {
		return db.Conn.Select(ctx, dest, query, args...)
	})
}

func (db *ClickHouseDB) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	metrics.RecordDBQuery(clickhouseLabel, op, elapsed)
	if err != nil {
		metrics.RecordDBError(clickhouseLabel, op)
	}
	if elapsed > slowQueryThreshold && op != "batch" {
		logger.Warn("slow clickhouse call",
			zap.String("operation", op),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
		)
	}
	return err
}
