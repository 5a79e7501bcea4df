package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storyboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed answers 503 if Redis is unavailable.
	FailClosed
)

var errNoRedis = errors.New("redis client is nil")

// RateLimit configures one limited resource.
type RateLimit struct {
	// Env disables limiting for "test" and "development".
	Env      string
	Resource string
	Limit    int
	Window   time.Duration
	Policy   FailPolicy
}

func (r RateLimit) bypassed() bool {
	switch r.Env {
	case "", "test", "development":
		return true
	}
	return r.Limit <= 0
}

// CheckRateLimit counts one hit for id against the resource. It reports
// whether the hit is inside the budget.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, errNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// RateLimiter returns a handler enforcing cfg. It keys by the authenticated
// user when there is one and by remote IP otherwise.
func RateLimiter(rdb *redis.Client, cfg RateLimit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.bypassed() {
			return c.Next()
		}

		id := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok {
			id = fmt.Sprintf("user:%d", uid)
		}
		resource := cfg.Resource
		if resource == "" {
			resource = c.Path()
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, cfg.Limit, cfg.Window)
		if err != nil {
			if cfg.Policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					"resource", resource, "error", err)
				return models.RespondWithError(c, fiber.StatusServiceUnavailable, models.NewUnavailableError(err))
			}
			return c.Next()
		}
		if !allowed {
			return models.RespondWithError(c, fiber.StatusTooManyRequests, models.NewRateLimitedError())
		}
		return c.Next()
	}
}
