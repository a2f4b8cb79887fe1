package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridepool",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ridepool",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Lifecycle metrics
	RidesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ridepool",
		Subsystem: "rides",
		Name:      "created_total",
		Help:      "Total rides created",
	})

	RideTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridepool",
		Subsystem: "rides",
		Name:      "transitions_total",
		Help:      "Total ride status transitions",
	}, []string{"to"})

	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridepool",
		Subsystem: "bookings",
		Name:      "requests_total",
		Help:      "Total booking requests by outcome",
	}, []string{"outcome"})

	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridepool",
		Subsystem: "bookings",
		Name:      "transitions_total",
		Help:      "Total booking status transitions",
	}, []string{"to"})

	SeatReservationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ridepool",
		Subsystem: "seats",
		Name:      "reservation_conflicts_total",
		Help:      "Seat reservations retried after a failed conditional update",
	})

	CascadeFanout = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ridepool",
		Subsystem: "cascade",
		Name:      "fanout_bookings",
		Help:      "Number of bookings touched per ride-level cascade",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	}, []string{"kind"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridepool",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridepool",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ridepool",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ridepool",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ridepool",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates pool gauges from pgx pool stats. The stat is
// accepted as an interface so this package does not import pgxpool.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
