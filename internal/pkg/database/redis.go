package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ledgerline/ledgerline/internal/config"
	"github.com/ledgerline/ledgerline/internal/pkg/logger"
	"github.com/ledgerline/ledgerline/internal/pkg/metrics"
)

// NewRedis creates a new Redis client
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr(),
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolSize:        50,
		MinIdleConns:    5,
		PoolTimeout:     4 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("connected to Redis",
		zap.String("addr", cfg.Addr()),
		zap.Int("db", cfg.DB),
	)

	return client, nil
}

// Cache stores JSON encoded values under a key prefix with a fixed TTL
type Cache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewCache creates a new cache
func NewCache(client redis.Cmdable, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *Cache) key(k string) string {
	return c.prefix + ":" + k
}

// Get decodes the cached value into dest. It reports false on a miss or a decode failure.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheLookup(c.prefix, false)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.RecordCacheLookup(c.prefix, false)
		return false, nil
	}
	metrics.RecordCacheLookup(c.prefix, true)
	return true, nil
}

// Set encodes and stores a value
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return c.client.Set(ctx, c.key(key), raw, c.ttl).Err()
}

// Delete removes cached values
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// Watermark persists a monotonically advancing int64 position in Redis
type Watermark struct {
	client redis.Cmdable
	key    string
}

// NewWatermark creates a watermark stored under key
func NewWatermark(client redis.Cmdable, key string) *Watermark {
	return &Watermark{client: client, key: key}
}

// Get returns the stored position, or zero when none is recorded
func (w *Watermark) Get(ctx context.Context) (int64, error) {
	v, err := w.client.Get(ctx, w.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read watermark: %w", err)
	}
	return v, nil
}

// Set stores the position
func (w *Watermark) Set(ctx context.Context, pos int64) error {
	if err := w.client.Set(ctx, w.key, pos, 0).Err(); err != nil {
		return fmt.Errorf("failed to store watermark: %w", err)
	}
	return nil
}
