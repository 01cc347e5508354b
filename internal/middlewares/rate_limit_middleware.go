package middlewares

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type RateLimitConfig struct {
	MaxRequests   int
	WindowSeconds int
}

// slidingWindowScript counts requests per key in a rolling window
// using a sorted set of request timestamps.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

local current = redis.call('ZCARD', key)
if current < limit then
	redis.call('ZADD', key, now, now)
	redis.call('PEXPIRE', key, window)
	return {1, limit - current - 1}
end

return {0, 0}
`)

// RateLimitMiddleware enforces a per-project sliding window over
// Redis. When the limiter itself fails the request passes through.
func RateLimitMiddleware(client *redis.Client, cfg RateLimitConfig) fiber.Handler {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = 60
	}

	window := time.Duration(cfg.WindowSeconds) * time.Second

	return func(c fiber.Ctx) error {
		key := "rate_limit:ip:" + c.IP()
		if identity, ok := ProjectFromContext(c); ok {
			key = fmt.Sprintf("rate_limit:project:%d", identity.ProjectID)
		}

		result, err := slidingWindowScript.Run(c.RequestCtx(), client,
			[]string{key}, time.Now().UnixMilli(), window.Milliseconds(), cfg.MaxRequests).Int64Slice()
		if err != nil {
			log.Error().
				Err(err).
				Str("key", key).
				Msg("Rate limiter unavailable, letting request through")
			return c.Next()
		}
		if len(result) != 2 {
			log.Error().
				Str("key", key).
				Msg("Unexpected rate limiter reply, letting request through")
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(result[1], 10))

		if result[0] == 0 {
			c.Set("Retry-After", strconv.Itoa(cfg.WindowSeconds))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}

		return c.Next()
	}
}
