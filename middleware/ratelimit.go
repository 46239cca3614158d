package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"insights/utils"
)

// RateLimiter is a fixed window limiter keyed by user or client IP.
type RateLimiter struct {
	max     int
	window  time.Duration
	storage fiber.Storage
}

// NewRateLimiter builds a limiter allowing max requests per window. A nil
// storage keeps counters in process memory.
func NewRateLimiter(max int, window time.Duration, storage fiber.Storage) *RateLimiter {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{max: max, window: window, storage: storage}
}

// Key identifies the caller: the authenticated user when present,
// otherwise the client IP.
func (rl *RateLimiter) Key(c *fiber.Ctx) string {
	ip := utils.ClientIP(c.Get(fiber.HeaderXForwardedFor), c.Get("X-Real-IP"), c.Context().RemoteAddr().String())
	return utils.RateLimitKey(UserID(c), ip)
}

func (rl *RateLimiter) Handler() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               rl.max,
		Expiration:        rl.window,
		KeyGenerator:      rl.Key,
		LimitReached:      rl.limitReached,
		Storage:           rl.storage,
		LimiterMiddleware: limiter.FixedWindow{},
	})
}

func (rl *RateLimiter) limitReached(c *fiber.Ctx) error {
	retryAfter, err := strconv.Atoi(string(c.Response().Header.Peek(fiber.HeaderRetryAfter)))
	if err != nil || retryAfter <= 0 {
		retryAfter = int(rl.window.Seconds())
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
	}
	c.Set("X-RateLimit-Limit", strconv.Itoa(rl.max))
	c.Set("X-RateLimit-Remaining", "0")
	c.Set("X-RateLimit-Reset", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"status":     "error",
		"message":    "Too many requests, please try again later",
		"retryAfter": retryAfter,
	})
}
