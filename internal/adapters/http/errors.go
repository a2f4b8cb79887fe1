package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/ridepool/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, conflict, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

// errDomain maps a service-layer error to its HTTP shape. Validation
// failures are 400, missing resources 404, ownership violations 403, and
// the booking/lifecycle conflicts all map to 409 with a code that tells
// the client which rule fired.
func errDomain(c *fiber.Ctx, err error) error {
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindNotFound:
		return newError(c, 404, string(kind), err.Error())
	case domain.KindInvalidArgument:
		return newError(c, 400, string(kind), err.Error())
	case domain.KindUnauthorized:
		return newError(c, 403, string(kind), err.Error())
	case domain.KindInsufficientSeats, domain.KindDuplicateBooking,
		domain.KindSelfBooking, domain.KindIllegalState:
		return newError(c, 409, string(kind), err.Error())
	default:
		return errInternal(c, err.Error())
	}
}
