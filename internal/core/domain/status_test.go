package domain_test

import (
	"testing"

	"github.com/samirrijal/ridepool/internal/core/domain"
)

func TestRideStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to domain.RideStatus
		ok       bool
	}{
		{domain.RideScheduled, domain.RideActive, true},
		{domain.RideScheduled, domain.RideCancelledByDriver, true},
		{domain.RideScheduled, domain.RideCompleted, false},
		{domain.RideActive, domain.RideCompleted, true},
		{domain.RideActive, domain.RideCancelledByDriver, true},
		{domain.RideActive, domain.RideScheduled, false},
		{domain.RideCompleted, domain.RideCancelledByDriver, false},
		{domain.RideCancelledByDriver, domain.RideActive, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s: expected %v, got %v", c.from, c.to, c.ok, got)
		}
	}
}

func TestBookingStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to domain.BookingStatus
		ok       bool
	}{
		{domain.BookingRequested, domain.BookingConfirmed, true},
		{domain.BookingRequested, domain.BookingRejectedByDriver, true},
		{domain.BookingRequested, domain.BookingCancelledByPassenger, true},
		{domain.BookingRequested, domain.BookingCancelledByDriver, true},
		{domain.BookingRequested, domain.BookingExpired, true},
		{domain.BookingRequested, domain.BookingCompleted, false},
		{domain.BookingConfirmed, domain.BookingCompleted, true},
		{domain.BookingConfirmed, domain.BookingCancelledByPassenger, true},
		{domain.BookingConfirmed, domain.BookingExpired, false},
		{domain.BookingCompleted, domain.BookingConfirmed, false},
		{domain.BookingRejectedByDriver, domain.BookingConfirmed, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s: expected %v, got %v", c.from, c.to, c.ok, got)
		}
	}
}

func TestBookingStatus_Active(t *testing.T) {
	active := []domain.BookingStatus{domain.BookingRequested, domain.BookingConfirmed}
	for _, s := range active {
		if !s.Active() {
			t.Errorf("%s should be active", s)
		}
	}
	inactive := []domain.BookingStatus{
		domain.BookingRejectedByDriver, domain.BookingCancelledByPassenger,
		domain.BookingCancelledByDriver, domain.BookingCompleted, domain.BookingExpired,
	}
	for _, s := range inactive {
		if s.Active() {
			t.Errorf("%s should not be active", s)
		}
	}
}
