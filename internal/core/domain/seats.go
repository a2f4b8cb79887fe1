package domain

// Seat inventory arithmetic. These are pure functions over the ride's
// capacity pair; persistence applies the result atomically (see the
// repository's CompareAndSwapSeats / ReleaseSeats primitives).

// ReserveSeats returns the availableSeats value after holding n seats.
// It never mutates the ride.
func ReserveSeats(ride *Ride, n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalid("requested seats must be positive, got %d", n)
	}
	if n > ride.AvailableSeats {
		return 0, ErrInsufficientSeats(n, ride.AvailableSeats)
	}
	return ride.AvailableSeats - n, nil
}

// ReleaseSeats returns the availableSeats value after restoring n seats,
// capped at totalSeats. The cap makes double release harmless.
func ReleaseSeats(ride *Ride, n int) int {
	next := ride.AvailableSeats + n
	if next > ride.TotalSeats {
		return ride.TotalSeats
	}
	return next
}
