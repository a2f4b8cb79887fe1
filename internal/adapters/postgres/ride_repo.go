package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/ridepool/internal/core/domain"
)

// RideRepo implements ports.RideRepository.
type RideRepo struct {
	db *DB
}

func NewRideRepo(db *DB) *RideRepo {
	return &RideRepo{db: db}
}

const rideColumns = `
	id, driver_id, departure_city, destination_city,
	COALESCE(departure_state, ''), COALESCE(destination_state, ''),
	COALESCE(departure_address, ''), COALESCE(destination_address, ''),
	departure_time, estimated_arrival_time,
	total_seats, available_seats, fare_per_seat,
	intermediate_stops, COALESCE(luggage_preference, ''),
	smoking_allowed, pets_allowed, COALESCE(notes, ''),
	status, created_at, updated_at`

func scanRide(row pgx.Row) (*domain.Ride, error) {
	r := &domain.Ride{}
	err := row.Scan(
		&r.ID, &r.DriverID, &r.DepartureCity, &r.DestinationCity,
		&r.DepartureState, &r.DestinationState,
		&r.DepartureAddress, &r.DestinationAddress,
		&r.DepartureTime, &r.EstimatedArrival,
		&r.TotalSeats, &r.AvailableSeats, &r.FarePerSeat,
		&r.IntermediateStops, &r.LuggagePreference,
		&r.SmokingAllowed, &r.PetsAllowed, &r.Notes,
		&r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (repo *RideRepo) Create(ctx context.Context, r *domain.Ride) error {
	return repo.db.Pool.QueryRow(ctx, `
		INSERT INTO rides (
			driver_id, departure_city, destination_city,
			departure_state, destination_state,
			departure_address, destination_address,
			departure_time, estimated_arrival_time,
			total_seats, available_seats, fare_per_seat,
			intermediate_stops, luggage_preference,
			smoking_allowed, pets_allowed, notes,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id
	`, r.DriverID, r.DepartureCity, r.DestinationCity,
		r.DepartureState, r.DestinationState,
		r.DepartureAddress, r.DestinationAddress,
		r.DepartureTime, r.EstimatedArrival,
		r.TotalSeats, r.AvailableSeats, r.FarePerSeat,
		r.IntermediateStops, r.LuggagePreference,
		r.SmokingAllowed, r.PetsAllowed, r.Notes,
		r.Status, r.CreatedAt, r.UpdatedAt,
	).Scan(&r.ID)
}

func (repo *RideRepo) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	ride, err := scanRide(repo.db.Pool.QueryRow(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ride, err
}

func (repo *RideRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Ride, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := repo.db.Pool.Query(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// Update writes every column except the seat counters. Those belong to the
// conditional primitives below; writing them from a struct read earlier in
// the request would erase any reservation committed in between.
func (repo *RideRepo) Update(ctx context.Context, r *domain.Ride) error {
	_, err := repo.db.Pool.Exec(ctx, `
		UPDATE rides SET
			departure_city = $2, destination_city = $3,
			departure_state = $4, destination_state = $5,
			departure_address = $6, destination_address = $7,
			departure_time = $8, estimated_arrival_time = $9,
			fare_per_seat = $10,
			intermediate_stops = $11, luggage_preference = $12,
			smoking_allowed = $13, pets_allowed = $14, notes = $15,
			status = $16, updated_at = $17
		WHERE id = $1
	`, r.ID, r.DepartureCity, r.DestinationCity,
		r.DepartureState, r.DestinationState,
		r.DepartureAddress, r.DestinationAddress,
		r.DepartureTime, r.EstimatedArrival,
		r.FarePerSeat,
		r.IntermediateStops, r.LuggagePreference,
		r.SmokingAllowed, r.PetsAllowed, r.Notes,
		r.Status, r.UpdatedAt)
	return err
}

// Search returns SCHEDULED rides matching the route with seats still
// available, soonest departure first. State filters apply only when set.
func (repo *RideRepo) Search(ctx context.Context, f domain.RideSearch) ([]domain.Ride, error) {
	rows, err := repo.db.Pool.Query(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE status = $1
		  AND departure_city = $2
		  AND destination_city = $3
		  AND ($4 = '' OR departure_state = $4)
		  AND ($5 = '' OR destination_state = $5)
		  AND departure_time > $6
		  AND available_seats > 0
		ORDER BY departure_time
		LIMIT $7
	`, domain.RideScheduled, f.DepartureCity, f.DestinationCity,
		f.DepartureState, f.DestinationState, f.EarliestDeparture, f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

func (repo *RideRepo) ListByDriver(ctx context.Context, driverID string) ([]domain.Ride, error) {
	rows, err := repo.db.Pool.Query(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE driver_id = $1
		ORDER BY departure_time DESC
	`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// CompareAndSwapSeats performs the conditional seat update behind seat
// reservation. It succeeds only if available_seats still holds the value
// the caller read; a concurrent reservation in between makes it return
// false so the caller can re-read and retry.
func (repo *RideRepo) CompareAndSwapSeats(ctx context.Context, rideID string, expected, next int) (bool, error) {
	tag, err := repo.db.Pool.Exec(ctx, `
		UPDATE rides
		SET available_seats = $3, updated_at = $4
		WHERE id = $1 AND available_seats = $2
	`, rideID, expected, next, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ResizeSeats changes a ride's seat capacity, conditional on available_seats
// still holding the value the caller read. Like CompareAndSwapSeats it
// reports false on a lost race so the caller can re-read and retry.
func (repo *RideRepo) ResizeSeats(ctx context.Context, rideID string, expectedAvailable, newTotal, newAvailable int) (bool, error) {
	tag, err := repo.db.Pool.Exec(ctx, `
		UPDATE rides
		SET total_seats = $3, available_seats = $4, updated_at = $5
		WHERE id = $1 AND available_seats = $2
	`, rideID, expectedAvailable, newTotal, newAvailable, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseSeats returns n seats to the pool, capped at total_seats so a
// double release can never create capacity out of thin air.
func (repo *RideRepo) ReleaseSeats(ctx context.Context, rideID string, n int) error {
	_, err := repo.db.Pool.Exec(ctx, `
		UPDATE rides
		SET available_seats = LEAST(total_seats, available_seats + $2), updated_at = $3
		WHERE id = $1
	`, rideID, n, time.Now())
	return err
}

func collectRides(rows pgx.Rows) ([]domain.Ride, error) {
	var rides []domain.Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, *r)
	}
	return rides, rows.Err()
}
