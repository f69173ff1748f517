package bookings

import (
	"fmt"
	"net/http"

	"github.com/chris/spot-booking-ledger/pkg/api"
	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/booking"
	"github.com/chris/spot-booking-ledger/pkg/handlers/respond"
	"github.com/chris/spot-booking-ledger/pkg/mapping"
	"github.com/chris/spot-booking-ledger/pkg/middleware"
	"github.com/chris/spot-booking-ledger/pkg/models"
)

// BookingsHandler holds the dependencies for booking-related handlers.
type BookingsHandler struct {
	Bookings booking.Lifecycle
}

// NewBookingsHandler creates a new BookingsHandler.
func NewBookingsHandler(bookings booking.Lifecycle) *BookingsHandler {
	return &BookingsHandler{Bookings: bookings}
}

// CreateBooking reserves a unit for the caller and charges their wallet.
func (h *BookingsHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var in api.NewBooking
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}

	created, err := h.Bookings.Create(r.Context(), mapping.ToDomainNewBooking(caller.AccountID, &in))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, mapping.ToApiBooking(created))
}

func (h *BookingsHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	bookings, err := h.Bookings.ListForDriver(r.Context(), caller.AccountID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiBookings(bookings))
}

// ListOwnerBookings lists the bookings on every spot the caller owns.
func (h *BookingsHandler) ListOwnerBookings(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	bookings, err := h.Bookings.ListForOwner(r.Context(), caller.AccountID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiBookings(bookings))
}

func (h *BookingsHandler) GetBooking(w http.ResponseWriter, r *http.Request, bookingId string) {
	b, err := h.visibleBooking(r, bookingId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiBooking(b))
}

// CancelBooking cancels the caller's booking and refunds the base amount.
func (h *BookingsHandler) CancelBooking(w http.ResponseWriter, r *http.Request, bookingId string) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	cancelled, err := h.Bookings.Cancel(r.Context(), bookingId, caller.AccountID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiBooking(cancelled))
}

// CompleteBooking checks the driver out, charging any overtime.
func (h *BookingsHandler) CompleteBooking(w http.ResponseWriter, r *http.Request, bookingId string) {
	if _, err := h.visibleBooking(r, bookingId); err != nil {
		respond.Error(w, r, err)
		return
	}

	res, err := h.Bookings.Complete(r.Context(), bookingId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiCompletion(res))
}

// visibleBooking loads a booking the caller is allowed to act on: their own,
// or any booking for an admin.
func (h *BookingsHandler) visibleBooking(r *http.Request, bookingID string) (*models.Booking, error) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		return nil, err
	}

	b, err := h.Bookings.Get(r.Context(), bookingID)
	if err != nil {
		return nil, err
	}
	if b.DriverId != caller.AccountID && caller.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: booking %s belongs to another driver", apperrors.ErrForbidden, bookingID)
	}
	return b, nil
}
