package domain_test

import (
	"testing"

	"github.com/samirrijal/ridepool/internal/core/domain"
)

func TestReserveSeats(t *testing.T) {
	ride := &domain.Ride{TotalSeats: 4, AvailableSeats: 4}

	got, err := domain.ReserveSeats(ride, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("expected 1 seat left, got %d", got)
	}
}

func TestReserveSeats_Insufficient(t *testing.T) {
	ride := &domain.Ride{TotalSeats: 4, AvailableSeats: 2}

	_, err := domain.ReserveSeats(ride, 3)
	if !domain.IsKind(err, domain.KindInsufficientSeats) {
		t.Fatalf("expected insufficient_seats, got %v", err)
	}
}

func TestReserveSeats_NonPositive(t *testing.T) {
	ride := &domain.Ride{TotalSeats: 4, AvailableSeats: 4}

	for _, n := range []int{0, -1} {
		if _, err := domain.ReserveSeats(ride, n); !domain.IsKind(err, domain.KindInvalidArgument) {
			t.Errorf("n=%d: expected invalid_argument, got %v", n, err)
		}
	}
}

func TestReserveSeats_DoesNotMutate(t *testing.T) {
	ride := &domain.Ride{TotalSeats: 4, AvailableSeats: 4}
	_, _ = domain.ReserveSeats(ride, 2)
	if ride.AvailableSeats != 4 {
		t.Errorf("ReserveSeats mutated the ride: %d", ride.AvailableSeats)
	}
}

func TestReleaseSeats_Caps(t *testing.T) {
	ride := &domain.Ride{TotalSeats: 4, AvailableSeats: 3}

	if got := domain.ReleaseSeats(ride, 2); got != 4 {
		t.Errorf("expected cap at 4, got %d", got)
	}
}

func TestReleaseSeats_DoubleReleaseIdempotent(t *testing.T) {
	ride := &domain.Ride{TotalSeats: 4, AvailableSeats: 2}

	ride.AvailableSeats = domain.ReleaseSeats(ride, 2)
	ride.AvailableSeats = domain.ReleaseSeats(ride, 2)
	if ride.AvailableSeats != 4 {
		t.Errorf("double release exceeded total: %d", ride.AvailableSeats)
	}
}
