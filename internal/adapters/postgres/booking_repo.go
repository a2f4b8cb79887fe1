package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/ridepool/internal/core/domain"
)

// BookingRepo implements ports.BookingRepository.
type BookingRepo struct {
	db *DB
}

func NewBookingRepo(db *DB) *BookingRepo {
	return &BookingRepo{db: db}
}

const bookingColumns = `
	id, ride_id, passenger_id, driver_id, requested_seats,
	status, confirmation_time, cancellation_time, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := row.Scan(
		&b.ID, &b.RideID, &b.PassengerID, &b.DriverID, &b.RequestedSeats,
		&b.Status, &b.ConfirmationTime, &b.CancellationTime, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (repo *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	return repo.db.Pool.QueryRow(ctx, `
		INSERT INTO bookings (
			ride_id, passenger_id, driver_id, requested_seats,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, b.RideID, b.PassengerID, b.DriverID, b.RequestedSeats,
		b.Status, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
}

func (repo *BookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	booking, err := scanBooking(repo.db.Pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return booking, err
}

func (repo *BookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	_, err := repo.db.Pool.Exec(ctx, `
		UPDATE bookings SET
			status = $2, confirmation_time = $3, cancellation_time = $4, updated_at = $5
		WHERE id = $1
	`, b.ID, b.Status, b.ConfirmationTime, b.CancellationTime, b.UpdatedAt)
	return err
}

func (repo *BookingRepo) ListByPassenger(ctx context.Context, passengerID string) ([]domain.Booking, error) {
	rows, err := repo.db.Pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE passenger_id = $1
		ORDER BY created_at DESC
	`, passengerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (repo *BookingRepo) ListByDriver(ctx context.Context, driverID string) ([]domain.Booking, error) {
	rows, err := repo.db.Pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE driver_id = $1
		ORDER BY created_at DESC
	`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (repo *BookingRepo) ListByRideAndStatus(ctx context.Context, rideID string, statuses ...domain.BookingStatus) ([]domain.Booking, error) {
	rows, err := repo.db.Pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE ride_id = $1 AND status = ANY($2)
		ORDER BY created_at
	`, rideID, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ExistsActive reports whether the passenger already holds a REQUESTED or
// CONFIRMED booking on the ride.
func (repo *BookingRepo) ExistsActive(ctx context.Context, rideID, passengerID string) (bool, error) {
	var exists bool
	err := repo.db.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE ride_id = $1 AND passenger_id = $2 AND status = ANY($3)
		)
	`, rideID, passengerID, []domain.BookingStatus{
		domain.BookingRequested, domain.BookingConfirmed,
	}).Scan(&exists)
	return exists, err
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
