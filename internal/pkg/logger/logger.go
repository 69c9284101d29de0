package logger

import (
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the global logger instance
	Log *zap.Logger
	// Sugar is the sugared logger for convenience methods
	Sugar *zap.SugaredLogger
	// currentLevel stores the current log level for IsDebug checks
	currentLevel zapcore.Level
)

// Config holds logger configuration
type Config struct {
	Level  string
	Format string // "json" or "console"
	// Service is attached to every entry when set
	Service string
}

// Init replaces the global logger
func Init(cfg Config) error {
	Log = New(cfg)
	Sugar = Log.Sugar()
	return nil
}

func init() {
	Log = zap.NewNop()
	Sugar = Log.Sugar()
}

// New builds a logger from cfg without touching the global instance.
// JSON output is sampled per second after the first 100 identical entries.
func New(cfg Config) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	currentLevel = level

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "msg"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.MillisDurationEncoder

	var core zapcore.Core
	if cfg.Format == "console" {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stdout), level)
	} else {
		enc.EncodeLevel = zapcore.LowercaseLevelEncoder
		core = zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(os.Stdout), level)
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", cfg.Service)))
	}
	return zap.New(core, opts...)
}

// Sync flushes any buffered log entries
func Sync() error {
	if Log != nil {
		return Log.Sync()
	}
	return nil
}

// Named returns a child of the global logger tagged with component
func Named(component string) *zap.Logger {
	return Log.With(zap.String("component", component))
}

// AccountNumber logs an account number with all but its last four digits
// masked.
func AccountNumber(number string) zap.Field {
	return zap.String("account_number", MaskNumber(number))
}

// MaskNumber replaces every character but the last four with '*'
func MaskNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

// Amount logs a money value with two decimal places
func Amount(key string, amount decimal.Decimal) zap.Field {
	return zap.String(key, amount.StringFixed(2))
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	Log.Fatal(msg, fields...)
}

// IsDebug returns true if the logger is configured for debug level
func IsDebug() bool {
	return currentLevel <= zapcore.DebugLevel
}
