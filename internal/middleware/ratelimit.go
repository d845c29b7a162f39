package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ticket-resale-market/internal/config"
)

// windowCounter records a hit against a caller's window and reports the
// post-increment count plus the window's remaining lifetime.
type windowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, remaining time.Duration, err error)
}

// incrWindow increments the counter and arms the window TTL on the
// first hit as a single atomic unit, so a crash between the two steps
// can never leave a counter that outlives its window.
var incrWindow = redis.NewScript(`
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {c, redis.call("PTTL", KEYS[1])}
`)

type redisCounter struct {
	rdb *redis.Client
}

func (r redisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	vals, err := incrWindow.Run(ctx, r.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("ratelimit: unexpected script reply of %d values", len(vals))
	}
	return vals[0], time.Duration(vals[1]) * time.Millisecond, nil
}

// RateLimit returns a fixed-window limiter keyed per caller and route,
// backed by Redis so the limit holds across instances.  Applied to the
// purchase-intent endpoint, where each allowed request costs a
// processor call.  When Redis is unavailable the limiter fails open:
// losing the limit is preferable to refusing purchases.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return rateLimitWith(cfg, redisCounter{rdb: rdb})
}

func rateLimitWith(cfg config.RateLimitConfig, counter windowCounter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, _ := c.Get("user_id").(string)
			if caller == "" {
				caller = c.RealIP()
			}
			key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, c.Path(), caller)

			count, ttl, err := counter.Hit(c.Request().Context(), key, cfg.Window)
			if err != nil {
				log.Printf("ratelimit: counter hit failed: %v", err)
				return next(c)
			}

			left := int64(cfg.Limit) - count
			if left < 0 {
				left = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(left, 10))

			if count > int64(cfg.Limit) {
				if ttl > 0 {
					c.Response().Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())+1))
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
