package domain

// RideStatus is the lifecycle state of a ride.
type RideStatus string

const (
	RideScheduled         RideStatus = "SCHEDULED"
	RideActive            RideStatus = "ACTIVE"
	RideCompleted         RideStatus = "COMPLETED"
	RideCancelledByDriver RideStatus = "CANCELLED_BY_DRIVER"
)

// Valid reports whether s is a known ride status.
func (s RideStatus) Valid() bool {
	switch s {
	case RideScheduled, RideActive, RideCompleted, RideCancelledByDriver:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s RideStatus) Terminal() bool {
	return s == RideCompleted || s == RideCancelledByDriver
}

// CanTransitionTo reports whether the ride state machine allows s -> next.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	switch s {
	case RideScheduled:
		return next == RideActive || next == RideCancelledByDriver
	case RideActive:
		return next == RideCompleted || next == RideCancelledByDriver
	}
	return false
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingRequested            BookingStatus = "REQUESTED"
	BookingConfirmed            BookingStatus = "CONFIRMED"
	BookingRejectedByDriver     BookingStatus = "REJECTED_BY_DRIVER"
	BookingCancelledByPassenger BookingStatus = "CANCELLED_BY_PASSENGER"
	BookingCancelledByDriver    BookingStatus = "CANCELLED_BY_DRIVER"
	BookingCompleted            BookingStatus = "COMPLETED"
	// BookingExpired marks bookings the driver never acted on before the
	// ride completed. They held seats but never carried a passenger.
	BookingExpired BookingStatus = "EXPIRED"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingRequested, BookingConfirmed, BookingRejectedByDriver,
		BookingCancelledByPassenger, BookingCancelledByDriver,
		BookingCompleted, BookingExpired:
		return true
	}
	return false
}

// Active reports whether the booking still holds seats on its ride.
func (s BookingStatus) Active() bool {
	return s == BookingRequested || s == BookingConfirmed
}

// CanTransitionTo reports whether the booking state machine allows s -> next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingRequested:
		switch next {
		case BookingConfirmed, BookingRejectedByDriver,
			BookingCancelledByPassenger, BookingCancelledByDriver,
			BookingExpired:
			return true
		}
	case BookingConfirmed:
		switch next {
		case BookingCompleted, BookingCancelledByPassenger, BookingCancelledByDriver:
			return true
		}
	}
	return false
}
