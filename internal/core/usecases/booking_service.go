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

// maxReserveAttempts bounds the read-check-swap loops when concurrent
// writers race for the same ride's seat counters.
const maxReserveAttempts = 5

// BookingService owns the booking state machine: request, confirm, reject
// and passenger cancellation, plus the enriched list projections.
type BookingService struct {
	bookings ports.BookingRepository
	rides    ports.RideRepository
	users    ports.UserRepository
	notifier ports.Notifier
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings ports.BookingRepository,
	rides ports.RideRepository,
	users ports.UserRepository,
	notifier ports.Notifier,
) *BookingService {
	return &BookingService{bookings: bookings, rides: rides, users: users, notifier: notifier}
}

// Request places a seat hold on a ride and creates a REQUESTED booking.
//
// The seat decrement goes through the repository's conditional update: read
// the ride, check availability, attempt the swap, and on a lost race re-read
// and re-check. The ride's status is part of every re-read, so a ride
// cancelled mid-flight fails the SCHEDULED check instead of taking seats.
func (s *BookingService) Request(ctx context.Context, rideID, passengerID string, requestedSeats int) (*domain.Booking, error) {
	if requestedSeats <= 0 {
		metrics.BookingsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalid("requested seats must be positive, got %d", requestedSeats)
	}

	reserved := false
	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		ride, err := s.rides.GetByID(ctx, rideID)
		if err != nil {
			return nil, err
		}
		if ride == nil {
			return nil, domain.ErrNotFound("ride", rideID)
		}
		if ride.DriverID == passengerID {
			metrics.BookingsTotal.WithLabelValues("self_booking").Inc()
			return nil, domain.ErrSelfBooking()
		}
		if ride.Status != domain.RideScheduled {
			metrics.BookingsTotal.WithLabelValues("illegal_state").Inc()
			return nil, domain.ErrIllegalRideState(ride.Status, domain.RideScheduled)
		}
		if !ride.DepartureTime.After(time.Now()) {
			metrics.BookingsTotal.WithLabelValues("illegal_state").Inc()
			return nil, domain.ErrInvalid("ride departure time is in the past")
		}

		exists, err := s.bookings.ExistsActive(ctx, rideID, passengerID)
		if err != nil {
			return nil, fmt.Errorf("check duplicate booking: %w", err)
		}
		if exists {
			metrics.BookingsTotal.WithLabelValues("duplicate").Inc()
			return nil, domain.ErrDuplicateBooking(rideID)
		}

		next, err := domain.ReserveSeats(ride, requestedSeats)
		if err != nil {
			metrics.BookingsTotal.WithLabelValues("insufficient_seats").Inc()
			return nil, err
		}

		ok, err := s.rides.CompareAndSwapSeats(ctx, rideID, ride.AvailableSeats, next)
		if err != nil {
			return nil, fmt.Errorf("reserve seats: %w", err)
		}
		if ok {
			reserved = true
			break
		}
		// Lost the race; re-read and re-check, never blind-write.
		metrics.SeatReservationConflicts.Inc()
	}
	if !reserved {
		metrics.BookingsTotal.WithLabelValues("insufficient_seats").Inc()
		return nil, domain.ErrInsufficientSeats(requestedSeats, 0)
	}

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil || ride == nil {
		// Seats are held but the ride vanished; release and bail out.
		_ = s.rides.ReleaseSeats(ctx, rideID, requestedSeats)
		if err == nil {
			err = domain.ErrNotFound("ride", rideID)
		}
		return nil, err
	}

	now := time.Now()
	booking := &domain.Booking{
		RideID:         rideID,
		PassengerID:    passengerID,
		DriverID:       ride.DriverID,
		RequestedSeats: requestedSeats,
		Status:         domain.BookingRequested,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		// Keep the seat ledger consistent if the booking row failed.
		_ = s.rides.ReleaseSeats(ctx, rideID, requestedSeats)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.BookingsTotal.WithLabelValues("requested").Inc()
	slog.Info("booking requested", "booking_id", booking.ID, "ride_id", rideID,
		"passenger_id", passengerID, "seats", requestedSeats)

	s.notify(ctx, ride.DriverID, domain.Notification{
		Event:     domain.EventBookingRequested,
		RideID:    rideID,
		BookingID: booking.ID,
		Message: fmt.Sprintf("New booking request for %d seat(s) on your ride from %s to %s.",
			requestedSeats, ride.DepartureCity, ride.DestinationCity),
		Time: now,
	})
	return booking, nil
}

// Confirm accepts a REQUESTED booking. Seats stay as they are: the hold was
// taken at request time.
func (s *BookingService) Confirm(ctx context.Context, bookingID, driverID string) (*domain.Booking, error) {
	booking, err := s.driverBooking(ctx, bookingID, driverID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingRequested {
		return nil, domain.ErrIllegalBookingState(booking.Status, domain.BookingRequested)
	}

	now := time.Now()
	booking.Status = domain.BookingConfirmed
	booking.ConfirmationTime = &now
	booking.UpdatedAt = now
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("confirm booking: %w", err)
	}
	metrics.BookingTransitions.WithLabelValues(string(domain.BookingConfirmed)).Inc()

	s.notify(ctx, booking.PassengerID, domain.Notification{
		Event:     domain.EventBookingConfirmed,
		RideID:    booking.RideID,
		BookingID: booking.ID,
		Message:   "Your booking was confirmed by the driver.",
		Time:      now,
	})
	return booking, nil
}

// Reject declines a REQUESTED booking and releases its seat hold.
func (s *BookingService) Reject(ctx context.Context, bookingID, driverID string) (*domain.Booking, error) {
	booking, err := s.driverBooking(ctx, bookingID, driverID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingRequested {
		return nil, domain.ErrIllegalBookingState(booking.Status, domain.BookingRequested)
	}

	now := time.Now()
	booking.Status = domain.BookingRejectedByDriver
	booking.CancellationTime = &now
	booking.UpdatedAt = now
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("reject booking: %w", err)
	}
	metrics.BookingTransitions.WithLabelValues(string(domain.BookingRejectedByDriver)).Inc()

	if err := s.rides.ReleaseSeats(ctx, booking.RideID, booking.RequestedSeats); err != nil {
		slog.Error("release seats after reject", "booking_id", booking.ID, "error", err)
	}

	s.notify(ctx, booking.PassengerID, domain.Notification{
		Event:     domain.EventBookingRejected,
		RideID:    booking.RideID,
		BookingID: booking.ID,
		Message:   "Your booking was rejected by the driver.",
		Time:      now,
	})
	return booking, nil
}

// CancelByPassenger withdraws a REQUESTED or CONFIRMED booking. Seats are
// released in both cases: the hold is taken at request time, not at
// confirmation.
func (s *BookingService) CancelByPassenger(ctx context.Context, bookingID, passengerID string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.ErrNotFound("booking", bookingID)
	}
	if booking.PassengerID != passengerID {
		return nil, domain.ErrUnauthorized("only the passenger can cancel this booking")
	}
	if !booking.Status.Active() {
		return nil, domain.ErrIllegalBookingState(booking.Status,
			domain.BookingRequested, domain.BookingConfirmed)
	}

	now := time.Now()
	booking.Status = domain.BookingCancelledByPassenger
	booking.CancellationTime = &now
	booking.UpdatedAt = now
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	metrics.BookingTransitions.WithLabelValues(string(domain.BookingCancelledByPassenger)).Inc()

	if err := s.rides.ReleaseSeats(ctx, booking.RideID, booking.RequestedSeats); err != nil {
		slog.Error("release seats after cancel", "booking_id", booking.ID, "error", err)
	}

	s.notify(ctx, booking.DriverID, domain.Notification{
		Event:     domain.EventBookingCancelled,
		RideID:    booking.RideID,
		BookingID: booking.ID,
		Message:   fmt.Sprintf("A passenger cancelled their booking for %d seat(s).", booking.RequestedSeats),
		Time:      now,
	})
	return booking, nil
}

// GetByID returns a booking if the caller is its passenger or driver.
func (s *BookingService) GetByID(ctx context.Context, bookingID, callerID string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.ErrNotFound("booking", bookingID)
	}
	if booking.PassengerID != callerID && booking.DriverID != callerID {
		return nil, domain.ErrUnauthorized("not a party to this booking")
	}
	return booking, nil
}

// ListByPassenger returns the passenger's bookings enriched with ride route
// and driver name.
func (s *BookingService) ListByPassenger(ctx context.Context, passengerID string) ([]domain.BookingDetail, error) {
	bookings, err := s.bookings.ListByPassenger(ctx, passengerID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, bookings, true)
}

// ListByDriver returns the bookings on the driver's rides enriched with ride
// route and passenger name.
func (s *BookingService) ListByDriver(ctx context.Context, driverID string) ([]domain.BookingDetail, error) {
	bookings, err := s.bookings.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, bookings, false)
}

// enrich joins denormalized ride and user fields onto bookings. Lookups are
// batched on the distinct ride and user ids so the fan-out stays at two
// queries regardless of result size.
func (s *BookingService) enrich(ctx context.Context, bookings []domain.Booking, withDriverName bool) ([]domain.BookingDetail, error) {
	if len(bookings) == 0 {
		return []domain.BookingDetail{}, nil
	}

	rideIDs := make(map[string]struct{})
	userIDs := make(map[string]struct{})
	for _, b := range bookings {
		rideIDs[b.RideID] = struct{}{}
		if withDriverName {
			userIDs[b.DriverID] = struct{}{}
		} else {
			userIDs[b.PassengerID] = struct{}{}
		}
	}

	rides, err := s.rides.GetByIDs(ctx, keys(rideIDs))
	if err != nil {
		return nil, fmt.Errorf("load rides: %w", err)
	}
	rideByID := make(map[string]domain.Ride, len(rides))
	for _, r := range rides {
		rideByID[r.ID] = r
	}

	users, err := s.users.GetByIDs(ctx, keys(userIDs))
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	nameByID := make(map[string]string, len(users))
	for _, u := range users {
		nameByID[u.ID] = u.DisplayName
	}

	details := make([]domain.BookingDetail, 0, len(bookings))
	for _, b := range bookings {
		d := domain.BookingDetail{Booking: b}
		if r, ok := rideByID[b.RideID]; ok {
			d.DepartureCity = r.DepartureCity
			d.DestinationCity = r.DestinationCity
			d.DepartureState = r.DepartureState
			d.DestinationState = r.DestinationState
			d.DepartureTime = r.DepartureTime
			d.FarePerSeat = r.FarePerSeat
		}
		if withDriverName {
			d.DriverName = nameByID[b.DriverID]
		} else {
			d.PassengerName = nameByID[b.PassengerID]
		}
		details = append(details, d)
	}
	return details, nil
}

// driverBooking fetches a booking and verifies driverID owns it.
func (s *BookingService) driverBooking(ctx context.Context, bookingID, driverID string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.ErrNotFound("booking", bookingID)
	}
	if booking.DriverID != driverID {
		return nil, domain.ErrUnauthorized("only the ride's driver can manage this booking")
	}
	return booking, nil
}

func (s *BookingService) notify(ctx context.Context, userID string, n domain.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, n); err != nil {
		slog.Warn("notify", "user_id", userID, "event", n.Event, "error", err)
	}
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
