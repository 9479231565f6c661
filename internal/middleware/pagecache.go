package middleware

import (
	"bytes"
	"log/slog"
	"strconv"

	"postboard/internal/cache"
	"postboard/internal/observability"
	"postboard/internal/pagination"

	"github.com/gofiber/fiber/v2"
)

// CacheHeader reports how a response related to the page cache.
const CacheHeader = "X-Cache"

// PageCache serves GET responses for a route from pc, keyed by route and
// page number rather than by viewer. Only 200 responses are stored. Cache
// failures never fail the request.
func PageCache(pc cache.PageCache, route string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet {
			return c.Next()
		}

		ctx := c.UserContext()
		key := pageCacheKey(route, c.Query("page"))
		body, ok, err := pc.Get(ctx, key)
		if err != nil {
			observability.PageCacheRequests.WithLabelValues("error").Inc()
			Logger.WarnContext(ctx, "page cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		if ok {
			observability.PageCacheRequests.WithLabelValues("hit").Inc()
			c.Set(CacheHeader, "HIT")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(fiber.StatusOK).Send(body)
		}

		observability.PageCacheRequests.WithLabelValues("miss").Inc()
		c.Set(CacheHeader, "MISS")
		if err := c.Next(); err != nil {
			return err
		}
		if c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}
		if err := pc.Set(ctx, key, bytes.Clone(c.Response().Body())); err != nil {
			Logger.WarnContext(ctx, "page cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil
	}
}

// pageCacheKey normalizes the page query the way the feed handlers parse it,
// so "", "1" and "abc" share the route's entry and "?page=2" gets its own.
func pageCacheKey(route, rawPage string) string {
	n := pagination.ParseNumber(rawPage)
	if n == 1 {
		return route
	}
	return route + "?page=" + strconv.Itoa(n)
}
