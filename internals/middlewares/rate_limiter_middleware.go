package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "majibill_backend/internals/helpers"
)

func limitByIP(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// Global limiter for every endpoint
func GlobalRateLimiter() fiber.Handler {
	return limitByIP(100, time.Minute, "too many requests, please try again later")
}

// Login is stricter
func LoginRateLimiter() fiber.Handler {
	return limitByIP(5, time.Minute, "too many login attempts, please wait a minute")
}

func SignupRateLimiter() fiber.Handler {
	return limitByIP(3, 5*time.Minute, "too many signups from this address, please wait a few minutes")
}

// Gateways retry webhooks in bursts, so the public callbacks get a wider window.
func WebhookRateLimiter() fiber.Handler {
	return limitByIP(300, time.Minute, "too many callbacks")
}
