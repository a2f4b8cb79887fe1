package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain failure so the transport layer can map it
// to a response without string matching.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindInvalidArgument   ErrorKind = "invalid_argument"
	KindInsufficientSeats ErrorKind = "insufficient_seats"
	KindDuplicateBooking  ErrorKind = "duplicate_booking"
	KindSelfBooking       ErrorKind = "self_booking"
	KindIllegalState      ErrorKind = "illegal_state"
	KindUnauthorized      ErrorKind = "unauthorized"
)

// Error is a classified domain error.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or "" for unclassified errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// ErrNotFound builds a not-found error for an entity.
func ErrNotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// ErrInvalid builds an invalid-argument error.
func ErrInvalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// ErrInsufficientSeats reports a reservation that exceeds availability.
func ErrInsufficientSeats(requested, available int) *Error {
	return &Error{
		Kind:    KindInsufficientSeats,
		Message: fmt.Sprintf("not enough available seats: requested %d, available %d", requested, available),
	}
}

// ErrDuplicateBooking reports an already-active booking on the same ride.
func ErrDuplicateBooking(rideID string) *Error {
	return &Error{
		Kind:    KindDuplicateBooking,
		Message: "an active booking already exists for ride " + rideID,
	}
}

// ErrSelfBooking reports a driver booking their own ride.
func ErrSelfBooking() *Error {
	return &Error{Kind: KindSelfBooking, Message: "driver cannot book their own ride"}
}

// ErrIllegalRideState reports a ride operation against the wrong status.
func ErrIllegalRideState(got RideStatus, want ...RideStatus) *Error {
	return &Error{
		Kind:    KindIllegalState,
		Message: fmt.Sprintf("ride status is %s, operation requires %v", got, want),
	}
}

// ErrIllegalBookingState reports a booking operation against the wrong status.
func ErrIllegalBookingState(got BookingStatus, want ...BookingStatus) *Error {
	return &Error{
		Kind:    KindIllegalState,
		Message: fmt.Sprintf("booking status is %s, operation requires %v", got, want),
	}
}

// ErrUnauthorized builds an authorization error.
func ErrUnauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}
