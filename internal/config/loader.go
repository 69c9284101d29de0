package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ledgerline")

	// Ignore error if config file not found
	_ = v.ReadInConfig()

	cfg := fromViper(v)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	var cfg Config

	// Server
	cfg.Server.Host = v.GetString("server_host")
	cfg.Server.Port = v.GetInt("server_port")
	cfg.Server.Env = v.GetString("server_env")
	cfg.Server.AllowedOrigins = splitList(v.GetString("server_allowed_origins"))
	cfg.Server.BodyLimitMB = v.GetInt("server_body_limit_mb")

	// PostgreSQL
	cfg.Postgres.Host = v.GetString("postgres_host")
	cfg.Postgres.Port = v.GetInt("postgres_port")
	cfg.Postgres.User = v.GetString("postgres_user")
	cfg.Postgres.Password = v.GetString("postgres_password")
	cfg.Postgres.Database = v.GetString("postgres_db")
	cfg.Postgres.SSLMode = v.GetString("postgres_ssl_mode")
	cfg.Postgres.MaxConns = int32(v.GetInt("postgres_max_conns"))
	cfg.Postgres.MinConns = int32(v.GetInt("postgres_min_conns"))

	// ClickHouse
	cfg.ClickHouse.Enabled = v.GetBool("clickhouse_enabled")
	cfg.ClickHouse.Host = v.GetString("clickhouse_host")
	cfg.ClickHouse.Port = v.GetInt("clickhouse_port")
	cfg.ClickHouse.User = v.GetString("clickhouse_user")
	cfg.ClickHouse.Password = v.GetString("clickhouse_password")
	cfg.ClickHouse.Database = v.GetString("clickhouse_db")

	// Redis
	cfg.Redis.Host = v.GetString("redis_host")
	cfg.Redis.Port = v.GetInt("redis_port")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Redis.DB = v.GetInt("redis_db")

	// MinIO
	cfg.MinIO.Endpoint = v.GetString("minio_endpoint")
	cfg.MinIO.AccessKey = v.GetString("minio_access_key")
	cfg.MinIO.SecretKey = v.GetString("minio_secret_key")
	cfg.MinIO.UseSSL = v.GetBool("minio_use_ssl")
	cfg.MinIO.Bucket = v.GetString("minio_bucket")

	// JWT
	cfg.JWT.Secret = v.GetString("jwt_secret")
	cfg.JWT.AccessExpiry = v.GetInt("jwt_access_expiry")
	cfg.JWT.RefreshExpiryDays = v.GetInt("jwt_refresh_expiry_days")
	cfg.JWT.RefreshExpiry = time.Duration(cfg.JWT.RefreshExpiryDays) * 24 * time.Hour
	cfg.JWT.Issuer = v.GetString("jwt_issuer")

	// Rate Limiting
	cfg.RateLimit.Enabled = v.GetBool("rate_limit_enabled")
	cfg.RateLimit.RequestsPerMinute = v.GetInt("rate_limit_requests_per_minute")
	cfg.RateLimit.AuthPerMinute = v.GetInt("rate_limit_auth_per_minute")

	// Worker
	cfg.Worker.Concurrency = v.GetInt("worker_concurrency")
	cfg.Worker.LedgerSyncBatchSize = v.GetInt("worker_ledger_sync_batch_size")
	cfg.Worker.LedgerSyncCron = v.GetString("worker_ledger_sync_cron")
	cfg.Worker.OverdueScanCron = v.GetString("worker_overdue_scan_cron")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	// Sentry
	cfg.Sentry.Enabled = v.GetBool("sentry_enabled")
	cfg.Sentry.DSN = v.GetString("sentry_dsn")
	cfg.Sentry.Environment = v.GetString("sentry_environment")
	cfg.Sentry.Release = v.GetString("sentry_release")
	cfg.Sentry.Debug = v.GetBool("sentry_debug")
	cfg.Sentry.SampleRate = v.GetFloat64("sentry_sample_rate")
	cfg.Sentry.TracesSampleRate = v.GetFloat64("sentry_traces_sample_rate")

	// SMTP
	cfg.SMTP.Host = v.GetString("smtp_host")
	cfg.SMTP.Port = v.GetInt("smtp_port")
	cfg.SMTP.Username = v.GetString("smtp_username")
	cfg.SMTP.Password = v.GetString("smtp_password")
	cfg.SMTP.From = v.GetString("smtp_from")

	// Pricing
	cfg.Pricing.FeedURL = v.GetString("pricing_feed_url")
	cfg.Pricing.Timeout = v.GetDuration("pricing_timeout")
	cfg.Pricing.CacheTTL = v.GetDuration("pricing_cache_ttl")

	return &cfg
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_env", "development")
	v.SetDefault("server_allowed_origins", "*")
	v.SetDefault("server_body_limit_mb", 16)

	// PostgreSQL defaults
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "ledgerline")
	v.SetDefault("postgres_password", "ledgerline")
	v.SetDefault("postgres_db", "ledgerline")
	v.SetDefault("postgres_ssl_mode", "disable")
	v.SetDefault("postgres_max_conns", 25)
	v.SetDefault("postgres_min_conns", 5)

	// ClickHouse defaults
	v.SetDefault("clickhouse_enabled", false)
	v.SetDefault("clickhouse_host", "localhost")
	v.SetDefault("clickhouse_port", 9000)
	v.SetDefault("clickhouse_user", "ledgerline")
	v.SetDefault("clickhouse_password", "ledgerline")
	v.SetDefault("clickhouse_db", "ledgerline")

	// Redis defaults
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	// MinIO defaults
	v.SetDefault("minio_endpoint", "localhost:9000")
	v.SetDefault("minio_access_key", "ledgerline")
	v.SetDefault("minio_secret_key", "ledgerline123")
	v.SetDefault("minio_use_ssl", false)
	v.SetDefault("minio_bucket", "ledgerline-checks")

	// JWT defaults
	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("jwt_access_expiry", 15)
	v.SetDefault("jwt_refresh_expiry_days", 7)
	v.SetDefault("jwt_issuer", "ledgerline")

	// Rate limiting defaults
	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_requests_per_minute", 300)
	v.SetDefault("rate_limit_auth_per_minute", 20)

	// Worker defaults
	v.SetDefault("worker_concurrency", 10)
	v.SetDefault("worker_ledger_sync_batch_size", 1000)
	v.SetDefault("worker_ledger_sync_cron", "*/5 * * * *")
	v.SetDefault("worker_overdue_scan_cron", "0 6 * * *")

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Sentry defaults
	v.SetDefault("sentry_enabled", false)
	v.SetDefault("sentry_sample_rate", 1.0)
	v.SetDefault("sentry_traces_sample_rate", 0.1)

	// SMTP defaults
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_from", "no-reply@ledgerline.local")

	// Pricing defaults
	v.SetDefault("pricing_timeout", 5*time.Second)
	v.SetDefault("pricing_cache_ttl", 60*time.Second)
}

func validate(cfg *Config) error {
	if cfg.JWT.Secret == defaultJWTSecret && cfg.IsProduction() {
		return fmt.Errorf("JWT secret must be changed in production")
	}
	if cfg.JWT.AccessExpiry <= 0 {
		return fmt.Errorf("jwt_access_expiry must be positive")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
