package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricBookingConversion = "business.booking_conversion_rate"
	MetricSeatUtilization   = "business.seat_utilization"
	MetricCancellationRate  = "business.ride_cancellation_rate"
)
