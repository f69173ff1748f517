// Package apperrors defines the error taxonomy shared by the booking core and
// its HTTP surface.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound is returned when a booking, spot or account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller may not act on the resource.
	ErrForbidden = errors.New("not authorized")

	// ErrInvalidState is returned for an illegal booking state transition.
	ErrInvalidState = errors.New("invalid state")

	// ErrCapacityExceeded is returned when a spot has no available units.
	ErrCapacityExceeded = errors.New("no spots available")

	// ErrInsufficientFunds is returned when a wallet cannot cover a booking.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidArgument is returned for malformed input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthenticated is returned when no caller identity is present.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// HTTPStatus maps an error onto the status code the API responds with.
// Anything outside the taxonomy is an internal fault.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
