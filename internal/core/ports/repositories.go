package ports

import (
	"context"

	"github.com/samirrijal/ridepool/internal/core/domain"
)

// RideRepository persists rides.
//
// The seat columns are owned by the three atomic primitives and are never
// written by Update: CompareAndSwapSeats and ResizeSeats apply conditional
// writes keyed on the available count (they either swap or report false,
// never overwrite), ReleaseSeats an increment capped at total_seats. Any
// other write path would silently undo a concurrent reservation.
type RideRepository interface {
	Create(ctx context.Context, ride *domain.Ride) error
	GetByID(ctx context.Context, id string) (*domain.Ride, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Ride, error)
	Update(ctx context.Context, ride *domain.Ride) error
	Search(ctx context.Context, filter domain.RideSearch) ([]domain.Ride, error)
	ListByDriver(ctx context.Context, driverID string) ([]domain.Ride, error)
	CompareAndSwapSeats(ctx context.Context, rideID string, expected, next int) (bool, error)
	ResizeSeats(ctx context.Context, rideID string, expectedAvailable, newTotal, newAvailable int) (bool, error)
	ReleaseSeats(ctx context.Context, rideID string, n int) error
}

// BookingRepository persists bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	ListByPassenger(ctx context.Context, passengerID string) ([]domain.Booking, error)
	ListByDriver(ctx context.Context, driverID string) ([]domain.Booking, error)
	ListByRideAndStatus(ctx context.Context, rideID string, statuses ...domain.BookingStatus) ([]domain.Booking, error)
	ExistsActive(ctx context.Context, rideID, passengerID string) (bool, error)
}

// UserRepository resolves users for ownership checks and display names.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.User, error)
}
