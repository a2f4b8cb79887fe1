package domain

import (
	"time"
)

// User is a registered account. Drivers and passengers are the same kind
// of user; the role is implied by what they do on a given ride.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ride is a driver's offered trip with a seat capacity and schedule.
type Ride struct {
	ID                 string     `json:"id"`
	DriverID           string     `json:"driver_id"`
	DepartureCity      string     `json:"departure_city"`
	DestinationCity    string     `json:"destination_city"`
	DepartureState     string     `json:"departure_state"`
	DestinationState   string     `json:"destination_state"`
	DepartureAddress   string     `json:"departure_address,omitempty"`
	DestinationAddress string     `json:"destination_address,omitempty"`
	DepartureTime      time.Time  `json:"departure_time"`
	EstimatedArrival   *time.Time `json:"estimated_arrival_time,omitempty"`
	TotalSeats         int        `json:"total_seats"`
	AvailableSeats     int        `json:"available_seats"`
	FarePerSeat        float64    `json:"fare_per_seat"`
	IntermediateStops  []string   `json:"intermediate_stops,omitempty"`
	LuggagePreference  string     `json:"luggage_preference,omitempty"`
	SmokingAllowed     bool       `json:"smoking_allowed"`
	PetsAllowed        bool       `json:"pets_allowed"`
	Notes              string     `json:"notes,omitempty"`
	Status             RideStatus `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// BookedSeats is the number of seats currently held by active bookings.
func (r *Ride) BookedSeats() int {
	return r.TotalSeats - r.AvailableSeats
}

// Booking is a passenger's request to occupy seats on a ride. DriverID is
// denormalized from the ride at creation so driver-side queries and
// notifications never need a join.
type Booking struct {
	ID               string        `json:"id"`
	RideID           string        `json:"ride_id"`
	PassengerID      string        `json:"passenger_id"`
	DriverID         string        `json:"driver_id"`
	RequestedSeats   int           `json:"requested_seats"`
	Status           BookingStatus `json:"status"`
	ConfirmationTime *time.Time    `json:"confirmation_time,omitempty"`
	CancellationTime *time.Time    `json:"cancellation_time,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// RideSearch holds the exact-match route filter for ride search.
type RideSearch struct {
	DepartureCity     string
	DestinationCity   string
	DepartureState    string
	DestinationState  string
	EarliestDeparture time.Time
	Limit             int
}

// RideUpdate is a partial ride edit; nil fields are left untouched.
type RideUpdate struct {
	DepartureCity      *string    `json:"departure_city"`
	DestinationCity    *string    `json:"destination_city"`
	DepartureState     *string    `json:"departure_state"`
	DestinationState   *string    `json:"destination_state"`
	DepartureAddress   *string    `json:"departure_address"`
	DestinationAddress *string    `json:"destination_address"`
	DepartureTime      *time.Time `json:"departure_time"`
	EstimatedArrival   *time.Time `json:"estimated_arrival_time"`
	TotalSeats         *int       `json:"total_seats"`
	AvailableSeats     *int       `json:"available_seats"`
	FarePerSeat        *float64   `json:"fare_per_seat"`
	IntermediateStops  []string   `json:"intermediate_stops"`
	LuggagePreference  *string    `json:"luggage_preference"`
	SmokingAllowed     *bool      `json:"smoking_allowed"`
	PetsAllowed        *bool      `json:"pets_allowed"`
	Notes              *string    `json:"notes"`
}

// BookingDetail is a booking enriched with denormalized ride and driver
// fields for list views.
type BookingDetail struct {
	Booking
	DepartureCity    string    `json:"departure_city"`
	DestinationCity  string    `json:"destination_city"`
	DepartureState   string    `json:"departure_state"`
	DestinationState string    `json:"destination_state"`
	DepartureTime    time.Time `json:"departure_time"`
	FarePerSeat      float64   `json:"fare_per_seat"`
	DriverName       string    `json:"driver_name,omitempty"`
	PassengerName    string    `json:"passenger_name,omitempty"`
}

// Notification is the payload fanned out to a user after a lifecycle change.
type Notification struct {
	Event     string    `json:"event"`
	RideID    string    `json:"ride_id,omitempty"`
	BookingID string    `json:"booking_id,omitempty"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// Notification event names.
const (
	EventRideStarted      = "ride.started"
	EventRideCompleted    = "ride.completed"
	EventRideCancelled    = "ride.cancelled"
	EventRideUpdated      = "ride.updated"
	EventBookingRequested = "booking.requested"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingRejected  = "booking.rejected"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
	EventBookingExpired   = "booking.expired"
)
