package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/ridepool/internal/core/domain"
	"github.com/samirrijal/ridepool/internal/core/ports"
	"github.com/samirrijal/ridepool/internal/pkg/metrics"
)

// RideService owns the ride state machine: create, start, complete, cancel,
// edit and search. Cancellation and completion hand the ride's bookings to
// the cascade after the ride's own transition has been persisted.
type RideService struct {
	rides    ports.RideRepository
	bookings ports.BookingRepository
	cascade  *Cascade
	notifier ports.Notifier
	cache    ports.CacheService
}

// NewRideService creates a new RideService.
func NewRideService(
	rides ports.RideRepository,
	bookings ports.BookingRepository,
	cascade *Cascade,
	notifier ports.Notifier,
	cache ports.CacheService,
) *RideService {
	return &RideService{
		rides:    rides,
		bookings: bookings,
		cascade:  cascade,
		notifier: notifier,
		cache:    cache,
	}
}

// Create validates and persists a new ride offered by driverID.
func (s *RideService) Create(ctx context.Context, driverID string, ride *domain.Ride) (*domain.Ride, error) {
	if ride.TotalSeats <= 0 {
		return nil, domain.ErrInvalid("total seats must be positive, got %d", ride.TotalSeats)
	}
	if ride.FarePerSeat < 0 {
		return nil, domain.ErrInvalid("fare per seat cannot be negative")
	}
	if ride.DepartureTime.IsZero() || !ride.DepartureTime.After(time.Now()) {
		return nil, domain.ErrInvalid("departure time must be in the future")
	}
	if ride.DepartureCity == "" || ride.DestinationCity == "" {
		return nil, domain.ErrInvalid("departure and destination city are required")
	}

	now := time.Now()
	ride.DriverID = driverID
	ride.AvailableSeats = ride.TotalSeats
	ride.Status = domain.RideScheduled
	ride.CreatedAt = now
	ride.UpdatedAt = now

	if err := s.rides.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}

	metrics.RidesCreated.Inc()
	slog.Info("ride created", "ride_id", ride.ID, "driver_id", driverID, "seats", ride.TotalSeats)
	return ride, nil
}

// GetByID returns a single ride.
func (s *RideService) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	return s.rides.GetByID(ctx, id)
}

// ListByDriver returns the rides offered by a driver.
func (s *RideService) ListByDriver(ctx context.Context, driverID string) ([]domain.Ride, error) {
	return s.rides.ListByDriver(ctx, driverID)
}

// Search returns bookable rides matching the route exactly: SCHEDULED,
// departing after the filter time (default now), with seats available.
func (s *RideService) Search(ctx context.Context, filter domain.RideSearch) ([]domain.Ride, error) {
	if filter.DepartureCity == "" || filter.DestinationCity == "" {
		return nil, domain.ErrInvalid("departure and destination city are required")
	}
	if filter.EarliestDeparture.IsZero() {
		filter.EarliestDeparture = time.Now()
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	cacheKey := fmt.Sprintf("rides:search:%s:%s:%s:%s:%d:%d",
		filter.DepartureCity, filter.DestinationCity,
		filter.DepartureState, filter.DestinationState,
		filter.EarliestDeparture.Unix()/30, filter.Limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var rides []domain.Ride
			if err := json.Unmarshal(data, &rides); err == nil {
				metrics.CacheHits.WithLabelValues("ride_search").Inc()
				return rides, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("ride_search").Inc()
	}

	rides, err := s.rides.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Short TTL: availability changes with every booking.
	if s.cache != nil {
		if data, err := json.Marshal(rides); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 30)
		}
	}

	return rides, nil
}

// Start transitions a SCHEDULED ride to ACTIVE.
func (s *RideService) Start(ctx context.Context, rideID, callerID string) (*domain.Ride, error) {
	ride, err := s.ownedRide(ctx, rideID, callerID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideScheduled {
		return nil, domain.ErrIllegalRideState(ride.Status, domain.RideScheduled)
	}

	ride.Status = domain.RideActive
	ride.UpdatedAt = time.Now()
	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, fmt.Errorf("start ride: %w", err)
	}
	metrics.RideTransitions.WithLabelValues(string(domain.RideActive)).Inc()

	s.notifyActivePassengers(ctx, ride, domain.EventRideStarted,
		fmt.Sprintf("Your ride from %s to %s has started.", ride.DepartureCity, ride.DestinationCity))
	return ride, nil
}

// Complete transitions an ACTIVE ride to COMPLETED and closes out its
// bookings through the cascade.
func (s *RideService) Complete(ctx context.Context, rideID, callerID string) (*domain.Ride, error) {
	ride, err := s.ownedRide(ctx, rideID, callerID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideActive {
		return nil, domain.ErrIllegalRideState(ride.Status, domain.RideActive)
	}

	ride.Status = domain.RideCompleted
	ride.UpdatedAt = time.Now()
	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, fmt.Errorf("complete ride: %w", err)
	}
	metrics.RideTransitions.WithLabelValues(string(domain.RideCompleted)).Inc()

	// Ride status is committed before the cascade runs; a booking request
	// arriving now fails the SCHEDULED check instead of orphaning itself.
	if err := s.cascade.OnComplete(ctx, ride); err != nil {
		slog.Error("completion cascade", "ride_id", ride.ID, "error", err)
	}
	return ride, nil
}

// Cancel transitions a ride to CANCELLED_BY_DRIVER and cancels its active
// bookings. Cancelling an already-cancelled ride is a no-op; cancelling a
// completed ride is an error.
func (s *RideService) Cancel(ctx context.Context, rideID, callerID string) (*domain.Ride, error) {
	ride, err := s.ownedRide(ctx, rideID, callerID)
	if err != nil {
		return nil, err
	}
	switch ride.Status {
	case domain.RideCompleted:
		return nil, domain.ErrIllegalRideState(ride.Status, domain.RideScheduled, domain.RideActive)
	case domain.RideCancelledByDriver:
		slog.Warn("cancel of already-cancelled ride", "ride_id", ride.ID)
		return ride, nil
	}

	ride.Status = domain.RideCancelledByDriver
	ride.UpdatedAt = time.Now()
	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, fmt.Errorf("cancel ride: %w", err)
	}
	metrics.RideTransitions.WithLabelValues(string(domain.RideCancelledByDriver)).Inc()

	if err := s.cascade.OnCancel(ctx, ride); err != nil {
		slog.Error("cancellation cascade", "ride_id", ride.ID, "error", err)
	}
	return ride, nil
}

// Update applies a partial edit to a SCHEDULED ride. Route, schedule, seat
// and fare changes are significant and trigger a best-effort notification
// to passengers holding active bookings; cosmetic changes do not.
func (s *RideService) Update(ctx context.Context, rideID, callerID string, upd domain.RideUpdate) (*domain.Ride, error) {
	ride, err := s.ownedRide(ctx, rideID, callerID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideScheduled {
		return nil, domain.ErrIllegalRideState(ride.Status, domain.RideScheduled)
	}

	if upd.DepartureTime != nil && !upd.DepartureTime.After(time.Now()) {
		return nil, domain.ErrInvalid("new departure time must be in the future")
	}
	if upd.TotalSeats != nil && *upd.TotalSeats <= 0 {
		return nil, domain.ErrInvalid("total seats must be positive, got %d", *upd.TotalSeats)
	}
	if upd.FarePerSeat != nil && *upd.FarePerSeat < 0 {
		return nil, domain.ErrInvalid("fare per seat cannot be negative")
	}

	significant := false

	// Seat capacity changes go through a conditional write keyed on the
	// available count, the same discipline as seat reservation. A booking
	// that lands between the read and the write fails the swap and forces
	// a re-read with fresh bounds, so a held seat is never silently undone.
	if upd.TotalSeats != nil || upd.AvailableSeats != nil {
		resized := false
		for attempt := 0; attempt < maxReserveAttempts; attempt++ {
			booked := ride.BookedSeats()
			newTotal := ride.TotalSeats
			if upd.TotalSeats != nil {
				newTotal = *upd.TotalSeats
				if newTotal < booked {
					return nil, domain.ErrInvalid("total seats cannot go below the %d seats already booked", booked)
				}
			}
			// Keep the booked count intact unless availableSeats is set too.
			newAvailable := newTotal - booked
			if upd.AvailableSeats != nil {
				newAvailable = *upd.AvailableSeats
				if newAvailable < booked {
					return nil, domain.ErrInvalid("available seats cannot go below the %d seats already booked", booked)
				}
				if newAvailable > newTotal {
					return nil, domain.ErrInvalid("available seats cannot exceed total seats (%d)", newTotal)
				}
			}

			ok, err := s.rides.ResizeSeats(ctx, ride.ID, ride.AvailableSeats, newTotal, newAvailable)
			if err != nil {
				return nil, fmt.Errorf("update ride seats: %w", err)
			}
			if ok {
				ride.TotalSeats = newTotal
				ride.AvailableSeats = newAvailable
				significant = true
				resized = true
				break
			}
			metrics.SeatReservationConflicts.Inc()

			fresh, err := s.rides.GetByID(ctx, ride.ID)
			if err != nil {
				return nil, err
			}
			if fresh == nil {
				return nil, domain.ErrNotFound("ride", ride.ID)
			}
			if fresh.Status != domain.RideScheduled {
				return nil, domain.ErrIllegalRideState(fresh.Status, domain.RideScheduled)
			}
			ride = fresh
		}
		if !resized {
			return nil, fmt.Errorf("update ride %s: seat availability kept changing, giving up", ride.ID)
		}
	}

	setStr := func(dst *string, v *string, sig bool) {
		if v != nil {
			if sig && *dst != *v {
				significant = true
			}
			*dst = *v
		}
	}

	setStr(&ride.DepartureCity, upd.DepartureCity, true)
	setStr(&ride.DestinationCity, upd.DestinationCity, true)
	setStr(&ride.DepartureState, upd.DepartureState, true)
	setStr(&ride.DestinationState, upd.DestinationState, true)
	setStr(&ride.DepartureAddress, upd.DepartureAddress, false)
	setStr(&ride.DestinationAddress, upd.DestinationAddress, false)
	setStr(&ride.LuggagePreference, upd.LuggagePreference, false)
	setStr(&ride.Notes, upd.Notes, false)

	if upd.DepartureTime != nil && !upd.DepartureTime.Equal(ride.DepartureTime) {
		ride.DepartureTime = *upd.DepartureTime
		significant = true
	}
	if upd.EstimatedArrival != nil {
		ride.EstimatedArrival = upd.EstimatedArrival
		significant = true
	}
	if upd.FarePerSeat != nil && *upd.FarePerSeat != ride.FarePerSeat {
		ride.FarePerSeat = *upd.FarePerSeat
		significant = true
	}
	if upd.IntermediateStops != nil {
		ride.IntermediateStops = upd.IntermediateStops
	}
	if upd.SmokingAllowed != nil {
		ride.SmokingAllowed = *upd.SmokingAllowed
	}
	if upd.PetsAllowed != nil {
		ride.PetsAllowed = *upd.PetsAllowed
	}

	ride.UpdatedAt = time.Now()
	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, fmt.Errorf("update ride: %w", err)
	}

	if significant {
		s.notifyActivePassengers(ctx, ride, domain.EventRideUpdated,
			fmt.Sprintf("Details of your ride from %s to %s changed. Please review the update.",
				ride.DepartureCity, ride.DestinationCity))
	}
	return ride, nil
}

// ownedRide fetches a ride and verifies callerID is its driver.
func (s *RideService) ownedRide(ctx context.Context, rideID, callerID string) (*domain.Ride, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, domain.ErrNotFound("ride", rideID)
	}
	if ride.DriverID != callerID {
		return nil, domain.ErrUnauthorized("only the driver can manage this ride")
	}
	return ride, nil
}

// notifyActivePassengers sends a best-effort notification to every passenger
// holding a REQUESTED or CONFIRMED booking on the ride.
func (s *RideService) notifyActivePassengers(ctx context.Context, ride *domain.Ride, event, message string) {
	if s.notifier == nil {
		return
	}
	active, err := s.bookings.ListByRideAndStatus(ctx, ride.ID,
		domain.BookingRequested, domain.BookingConfirmed)
	if err != nil {
		slog.Warn("list bookings for notification", "ride_id", ride.ID, "error", err)
		return
	}
	now := time.Now()
	for _, b := range active {
		n := domain.Notification{
			Event:     event,
			RideID:    ride.ID,
			BookingID: b.ID,
			Message:   message,
			Time:      now,
		}
		if err := s.notifier.Notify(ctx, b.PassengerID, n); err != nil {
			slog.Warn("notify passenger", "user_id", b.PassengerID, "event", event, "error", err)
		}
	}
}
