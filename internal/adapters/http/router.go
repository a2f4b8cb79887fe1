package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/ridepool/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	auth := AuthMiddleware(deps.JWTSecret)
	to := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, 15*time.Second)
	}

	// Public ride lookups
	v1 := app.Group("/v1")
	v1.Get("/rides/search", to(SearchRidesHandler(deps)))
	v1.Get("/rides/mine", auth, to(MyRidesHandler(deps)))
	v1.Get("/rides/:id", to(GetRideHandler(deps)))

	// Ride lifecycle (driver)
	v1.Post("/rides", auth, to(CreateRideHandler(deps)))
	v1.Patch("/rides/:id", auth, to(UpdateRideHandler(deps)))
	v1.Post("/rides/:id/start", auth, to(StartRideHandler(deps)))
	v1.Post("/rides/:id/complete", auth, to(CompleteRideHandler(deps)))
	v1.Post("/rides/:id/cancel", auth, to(CancelRideHandler(deps)))

	// Booking lifecycle
	v1.Post("/rides/:id/bookings", auth, to(RequestBookingHandler(deps)))
	v1.Get("/bookings/passenger", auth, to(PassengerBookingsHandler(deps)))
	v1.Get("/bookings/driver", auth, to(DriverBookingsHandler(deps)))
	v1.Get("/bookings/:id", auth, to(GetBookingHandler(deps)))
	v1.Post("/bookings/:id/confirm", auth, to(ConfirmBookingHandler(deps)))
	v1.Post("/bookings/:id/reject", auth, to(RejectBookingHandler(deps)))
	v1.Post("/bookings/:id/cancel", auth, to(CancelBookingHandler(deps)))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket notification relay
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
