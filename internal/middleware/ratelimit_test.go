package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitEnabled(t *testing.T) {
	assert.False(t, RateLimitEnabled("test"))
	assert.False(t, RateLimitEnabled("development"))
	assert.False(t, RateLimitEnabled(""))
	assert.True(t, RateLimitEnabled("production"))
	assert.True(t, RateLimitEnabled("staging"))
}

func TestCheckRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := CheckRateLimit(ctx, rdb, "login", "ip:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := CheckRateLimit(ctx, rdb, "login", "ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(time.Minute + time.Second)
	allowed, err = CheckRateLimit(ctx, rdb, "login", "ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "the window resets after expiry")

	_, err = CheckRateLimit(ctx, nil, "login", "x", 1, time.Minute)
	assert.Error(t, err)
}

func TestRateLimiter_Middleware(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := fiber.New()
	app.Post("/limited", NewRateLimiter(rdb, "production").Limit("comment", 1, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Post("/dev", NewRateLimiter(rdb, "development").Limit("dev", 1, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Post("/closed", NewRateLimiter(nil, "production").LimitWithPolicy("closed", 1, time.Minute, FailClosed), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Post("/open", NewRateLimiter(nil, "production").Limit("open", 1, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	status := func(path string) int {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, path, nil))
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusNoContent, status("/limited"))
	assert.Equal(t, fiber.StatusTooManyRequests, status("/limited"))

	assert.Equal(t, fiber.StatusNoContent, status("/dev"))
	assert.Equal(t, fiber.StatusNoContent, status("/dev"))

	assert.Equal(t, fiber.StatusServiceUnavailable, status("/closed"))
	assert.Equal(t, fiber.StatusNoContent, status("/open"))
}
