package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/ridepool/internal/core/domain"
)

// requestBookingRequest is the POST /v1/rides/:id/bookings body.
type requestBookingRequest struct {
	Seats int `json:"seats"`
}

// RequestBookingHandler places a seat request on a ride for the caller.
func RequestBookingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req requestBookingRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		booking, err := deps.Bookings.Request(c.Context(), c.Params("id"), callerID(c), req.Seats)
		if err != nil {
			return errDomain(c, err)
		}
		return c.Status(201).JSON(booking)
	}
}

// GetBookingHandler returns a booking visible to its driver or passenger.
func GetBookingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		booking, err := deps.Bookings.GetByID(c.Context(), c.Params("id"), callerID(c))
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(booking)
	}
}

// ConfirmBookingHandler accepts a seat request as the ride's driver.
func ConfirmBookingHandler(deps *Dependencies) fiber.Handler {
	return bookingTransition(deps, func(c *fiber.Ctx) (*domain.Booking, error) {
		return deps.Bookings.Confirm(c.Context(), c.Params("id"), callerID(c))
	})
}

// RejectBookingHandler declines a seat request as the ride's driver.
func RejectBookingHandler(deps *Dependencies) fiber.Handler {
	return bookingTransition(deps, func(c *fiber.Ctx) (*domain.Booking, error) {
		return deps.Bookings.Reject(c.Context(), c.Params("id"), callerID(c))
	})
}

// CancelBookingHandler withdraws a booking as its passenger.
func CancelBookingHandler(deps *Dependencies) fiber.Handler {
	return bookingTransition(deps, func(c *fiber.Ctx) (*domain.Booking, error) {
		return deps.Bookings.CancelByPassenger(c.Context(), c.Params("id"), callerID(c))
	})
}

// PassengerBookingsHandler lists the caller's bookings as a passenger.
func PassengerBookingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		details, err := deps.Bookings.ListByPassenger(c.Context(), callerID(c))
		if err != nil {
			return errDomain(c, err)
		}

		pg := paginate(c, len(details))
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: details[pg.Offset:min(pg.Offset+pg.Limit, len(details))], Pagination: pg})
	}
}

// DriverBookingsHandler lists the booking requests on the caller's rides.
func DriverBookingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		details, err := deps.Bookings.ListByDriver(c.Context(), callerID(c))
		if err != nil {
			return errDomain(c, err)
		}

		pg := paginate(c, len(details))
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: details[pg.Offset:min(pg.Offset+pg.Limit, len(details))], Pagination: pg})
	}
}

func bookingTransition(deps *Dependencies, op func(c *fiber.Ctx) (*domain.Booking, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		booking, err := op(c)
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(booking)
	}
}
