package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ridepool/internal/adapters/postgres"
	"github.com/samirrijal/ridepool/internal/adapters/valkey"
	"github.com/samirrijal/ridepool/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Rides     *usecases.RideService
	Bookings  *usecases.BookingService
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
	JWTSecret string
}
