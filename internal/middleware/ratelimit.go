package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/ledgerline/ledgerline/internal/pkg/errors"
)

// RateLimitConfig configures one sliding window limiter
type RateLimitConfig struct {
	// Name separates the counters of independent limiters
	Name   string
	Max    int
	Window time.Duration
	// KeyGenerator picks the bucket; defaults to the client IP
	KeyGenerator func(*fiber.Ctx) string
	Skip         func(*fiber.Ctx) bool
}

// IPKey buckets requests by client address
func IPKey(c *fiber.Ctx) string {
	return "ip:" + c.IP()
}

// UserKey keys the limiter by authenticated user, falling back to the client IP
func UserKey(c *fiber.Ctx) string {
	if userID, ok := GetUserID(c); ok {
		return "user:" + userID.String()
	}
	return IPKey(c)
}

// RateLimitMiddleware is a sliding window rate limiter backed by a Redis
// sorted set per bucket. Requests pass when Redis is unreachable.
type RateLimitMiddleware struct {
	redis redis.Cmdable
	cfg   RateLimitConfig
}

func NewRateLimitMiddleware(client redis.Cmdable, cfg RateLimitConfig) *RateLimitMiddleware {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Max <= 0 {
		cfg.Max = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = IPKey
	}
	return &RateLimitMiddleware{redis: client, cfg: cfg}
}

func (m *RateLimitMiddleware) Handler() fiber.Handler {
	limit := strconv.Itoa(m.cfg.Max)
	retryAfter := strconv.Itoa(int(m.cfg.Window.Seconds()))

	return func(c *fiber.Ctx) error {
		if m.cfg.Skip != nil && m.cfg.Skip(c) {
			return c.Next()
		}

		key := "ratelimit:" + m.cfg.Name + ":" + m.cfg.KeyGenerator(c)
		now := time.Now()
		member := fmt.Sprintf("%d:%s", now.UnixNano(), GetRequestID(c))
		ctx := c.UserContext()

		// the count includes this request
		var card *redis.IntCmd
		_, err := m.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.Add(-m.cfg.Window).UnixMicro(), 10))
			p.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMicro()), Member: member})
			card = p.ZCard(ctx, key)
			p.Expire(ctx, key, m.cfg.Window)
			return nil
		})
		if err != nil {
			return c.Next()
		}

		count := int(card.Val())
		c.Set("X-RateLimit-Limit", limit)
		c.Set("X-RateLimit-Reset", strconv.FormatInt(now.Add(m.cfg.Window).Unix(), 10))

		if count > m.cfg.Max {
			// rejected requests do not hold a slot
			m.redis.ZRem(ctx, key, member)
			c.Set("X-RateLimit-Remaining", "0")
			c.Set(fiber.HeaderRetryAfter, retryAfter)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "Too Many Requests",
				"code":    apperrors.CodeRateLimited,
				"message": "Rate limit exceeded. Please try again later.",
			})
		}

		c.Set("X-RateLimit-Remaining", strconv.Itoa(m.cfg.Max-count))
		return c.Next()
	}
}
