package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		// Default cache times by endpoint pattern
		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case path == "/v1/rides/search":
			ttl = "public, max-age=30" // Availability shifts with every booking

		case strings.HasPrefix(path, "/v1/bookings") || path == "/v1/rides/mine":
			ttl = "private, no-store" // Per-user data

		case strings.HasPrefix(path, "/v1/rides/"):
			ttl = "public, max-age=60" // Single ride snapshot
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
