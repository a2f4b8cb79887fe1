package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/ridepool/internal/core/domain"
	"github.com/samirrijal/ridepool/internal/core/ports"
	"github.com/samirrijal/ridepool/internal/pkg/metrics"
)

// Cascade propagates a ride-level status change to the ride's bookings.
// It is invoked synchronously by RideService after the ride's own status
// transition has been committed, so a late booking request fails the ride
// status check instead of attaching to a dead ride. Each booking is handled
// independently: one failure is logged and the rest are still attempted.
type Cascade struct {
	bookings ports.BookingRepository
	rides    ports.RideRepository
	notifier ports.Notifier
}

// NewCascade creates a new Cascade coordinator.
func NewCascade(bookings ports.BookingRepository, rides ports.RideRepository, notifier ports.Notifier) *Cascade {
	return &Cascade{bookings: bookings, rides: rides, notifier: notifier}
}

// OnCancel drives every active booking of a cancelled ride to
// CANCELLED_BY_DRIVER. Seats are released even though the ride is leaving
// the bookable pool; it keeps the seat-conservation invariant auditable.
func (c *Cascade) OnCancel(ctx context.Context, ride *domain.Ride) error {
	active, err := c.bookings.ListByRideAndStatus(ctx, ride.ID,
		domain.BookingRequested, domain.BookingConfirmed)
	if err != nil {
		return fmt.Errorf("list active bookings: %w", err)
	}

	metrics.CascadeFanout.WithLabelValues("cancel").Observe(float64(len(active)))

	var failed int
	now := time.Now()
	for i := range active {
		b := &active[i]
		b.Status = domain.BookingCancelledByDriver
		b.CancellationTime = &now
		b.UpdatedAt = now

		if err := c.bookings.Update(ctx, b); err != nil {
			failed++
			slog.Error("cascade: cancel booking", "booking_id", b.ID, "ride_id", ride.ID, "error", err)
			continue
		}
		if err := c.rides.ReleaseSeats(ctx, ride.ID, b.RequestedSeats); err != nil {
			slog.Warn("cascade: release seats", "booking_id", b.ID, "ride_id", ride.ID, "error", err)
		}

		c.notify(ctx, b.PassengerID, domain.Notification{
			Event:     domain.EventBookingCancelled,
			RideID:    ride.ID,
			BookingID: b.ID,
			Message: fmt.Sprintf("Your booking for %s to %s was cancelled because the driver cancelled the ride.",
				ride.DepartureCity, ride.DestinationCity),
			Time: now,
		})
	}

	if failed > 0 {
		return fmt.Errorf("cascade cancel: %d of %d bookings failed", failed, len(active))
	}
	return nil
}

// OnComplete closes out the bookings of a completed ride: CONFIRMED
// bookings become COMPLETED, and REQUESTED bookings the driver never acted
// on become EXPIRED so they cannot linger in a pending state forever.
func (c *Cascade) OnComplete(ctx context.Context, ride *domain.Ride) error {
	active, err := c.bookings.ListByRideAndStatus(ctx, ride.ID,
		domain.BookingRequested, domain.BookingConfirmed)
	if err != nil {
		return fmt.Errorf("list active bookings: %w", err)
	}

	metrics.CascadeFanout.WithLabelValues("complete").Observe(float64(len(active)))

	var failed int
	now := time.Now()
	for i := range active {
		b := &active[i]

		event := domain.EventBookingCompleted
		message := fmt.Sprintf("Your ride from %s to %s is complete. Thanks for travelling with us!",
			ride.DepartureCity, ride.DestinationCity)

		switch b.Status {
		case domain.BookingConfirmed:
			b.Status = domain.BookingCompleted
		case domain.BookingRequested:
			b.Status = domain.BookingExpired
			b.CancellationTime = &now
			event = domain.EventBookingExpired
			message = fmt.Sprintf("Your booking request for %s to %s expired: the ride completed before the driver responded.",
				ride.DepartureCity, ride.DestinationCity)
		}
		b.UpdatedAt = now

		if err := c.bookings.Update(ctx, b); err != nil {
			failed++
			slog.Error("cascade: complete booking", "booking_id", b.ID, "ride_id", ride.ID, "error", err)
			continue
		}
		if b.Status == domain.BookingExpired {
			if err := c.rides.ReleaseSeats(ctx, ride.ID, b.RequestedSeats); err != nil {
				slog.Warn("cascade: release seats", "booking_id", b.ID, "ride_id", ride.ID, "error", err)
			}
		}

		c.notify(ctx, b.PassengerID, domain.Notification{
			Event:     event,
			RideID:    ride.ID,
			BookingID: b.ID,
			Message:   message,
			Time:      now,
		})
	}

	if failed > 0 {
		return fmt.Errorf("cascade complete: %d of %d bookings failed", failed, len(active))
	}
	return nil
}

func (c *Cascade) notify(ctx context.Context, userID string, n domain.Notification) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, userID, n); err != nil {
		slog.Warn("cascade: notify", "user_id", userID, "event", n.Event, "error", err)
	}
}
