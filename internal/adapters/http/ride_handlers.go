package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/ridepool/internal/core/domain"
)

// createRideRequest is the POST /v1/rides body.
type createRideRequest struct {
	DepartureCity      string     `json:"departure_city"`
	DestinationCity    string     `json:"destination_city"`
	DepartureState     string     `json:"departure_state"`
	DestinationState   string     `json:"destination_state"`
	DepartureAddress   string     `json:"departure_address"`
	DestinationAddress string     `json:"destination_address"`
	DepartureTime      time.Time  `json:"departure_time"`
	EstimatedArrival   *time.Time `json:"estimated_arrival_time"`
	TotalSeats         int        `json:"total_seats"`
	FarePerSeat        float64    `json:"fare_per_seat"`
	IntermediateStops  []string   `json:"intermediate_stops"`
	LuggagePreference  string     `json:"luggage_preference"`
	SmokingAllowed     bool       `json:"smoking_allowed"`
	PetsAllowed        bool       `json:"pets_allowed"`
	Notes              string     `json:"notes"`
}

// CreateRideHandler offers a new ride on behalf of the caller.
func CreateRideHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createRideRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		ride := &domain.Ride{
			DepartureCity:      req.DepartureCity,
			DestinationCity:    req.DestinationCity,
			DepartureState:     req.DepartureState,
			DestinationState:   req.DestinationState,
			DepartureAddress:   req.DepartureAddress,
			DestinationAddress: req.DestinationAddress,
			DepartureTime:      req.DepartureTime,
			EstimatedArrival:   req.EstimatedArrival,
			TotalSeats:         req.TotalSeats,
			FarePerSeat:        req.FarePerSeat,
			IntermediateStops:  req.IntermediateStops,
			LuggagePreference:  req.LuggagePreference,
			SmokingAllowed:     req.SmokingAllowed,
			PetsAllowed:        req.PetsAllowed,
			Notes:              req.Notes,
		}

		created, err := deps.Rides.Create(c.Context(), callerID(c), ride)
		if err != nil {
			return errDomain(c, err)
		}
		return c.Status(201).JSON(created)
	}
}

// SearchRidesHandler returns bookable rides matching the route.
func SearchRidesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := domain.RideSearch{
			DepartureCity:    c.Query("from"),
			DestinationCity:  c.Query("to"),
			DepartureState:   c.Query("from_state"),
			DestinationState: c.Query("to_state"),
			Limit:            c.QueryInt("limit", 50),
		}
		if after := c.Query("after"); after != "" {
			t, err := time.Parse(time.RFC3339, after)
			if err != nil {
				return errBadRequest(c, "after must be an RFC 3339 timestamp")
			}
			filter.EarliestDeparture = t
		}

		rides, err := deps.Rides.Search(c.Context(), filter)
		if err != nil {
			return errDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=30")
		return c.JSON(fiber.Map{"data": rides, "count": len(rides)})
	}
}

// GetRideHandler returns a single ride by ID.
func GetRideHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ride, err := deps.Rides.GetByID(c.Context(), c.Params("id"))
		if err != nil {
			return errDomain(c, err)
		}
		if ride == nil {
			return errNotFound(c, "ride not found")
		}
		return c.JSON(ride)
	}
}

// MyRidesHandler returns the rides the caller offers as a driver.
func MyRidesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rides, err := deps.Rides.ListByDriver(c.Context(), callerID(c))
		if err != nil {
			return errDomain(c, err)
		}

		pg := paginate(c, len(rides))
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: rides[pg.Offset:min(pg.Offset+pg.Limit, len(rides))], Pagination: pg})
	}
}

// UpdateRideHandler applies a partial edit to a scheduled ride.
func UpdateRideHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var upd domain.RideUpdate
		if err := c.BodyParser(&upd); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		ride, err := deps.Rides.Update(c.Context(), c.Params("id"), callerID(c), upd)
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(ride)
	}
}

// StartRideHandler transitions a ride to ACTIVE.
func StartRideHandler(deps *Dependencies) fiber.Handler {
	return rideTransition(deps, func(c *fiber.Ctx) (*domain.Ride, error) {
		return deps.Rides.Start(c.Context(), c.Params("id"), callerID(c))
	})
}

// CompleteRideHandler transitions a ride to COMPLETED.
func CompleteRideHandler(deps *Dependencies) fiber.Handler {
	return rideTransition(deps, func(c *fiber.Ctx) (*domain.Ride, error) {
		return deps.Rides.Complete(c.Context(), c.Params("id"), callerID(c))
	})
}

// CancelRideHandler transitions a ride to CANCELLED_BY_DRIVER.
func CancelRideHandler(deps *Dependencies) fiber.Handler {
	return rideTransition(deps, func(c *fiber.Ctx) (*domain.Ride, error) {
		return deps.Rides.Cancel(c.Context(), c.Params("id"), callerID(c))
	})
}

func rideTransition(deps *Dependencies, op func(c *fiber.Ctx) (*domain.Ride, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ride, err := op(c)
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(ride)
	}
}
