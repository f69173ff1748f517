package spots

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chris/spot-booking-ledger/pkg/api"
	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/booking"
	"github.com/chris/spot-booking-ledger/pkg/handlers/respond"
	"github.com/chris/spot-booking-ledger/pkg/mapping"
	"github.com/chris/spot-booking-ledger/pkg/middleware"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	"github.com/google/uuid"
)

// Store is the storage the spot handlers read and write.
type Store interface {
	storage.SpotReader
	storage.SpotWriter
}

// Stats reports an owner's dashboard figures.
type Stats interface {
	OwnerStats(ctx context.Context, ownerID string) (*booking.OwnerStats, error)
}

// SpotsHandler holds the dependencies for spot-related handlers.
type SpotsHandler struct {
	Store Store
	Stats Stats
}

// NewSpotsHandler creates a new SpotsHandler.
func NewSpotsHandler(store Store, stats Stats) *SpotsHandler {
	return &SpotsHandler{Store: store, Stats: stats}
}

// CreateSpot lists a new spot owned by the caller with every unit free.
func (h *SpotsHandler) CreateSpot(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err == nil {
		err = caller.RequireRole(models.RoleOwner, models.RoleAdmin)
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var in api.NewSpot
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := validateNewSpot(&in); err != nil {
		respond.Error(w, r, err)
		return
	}

	spot := mapping.ToDomainNewSpot(&in)
	spot.Id = uuid.New().String()
	spot.OwnerId = caller.AccountID
	spot.CreatedAt = time.Now().UTC()

	created, err := h.Store.CreateSpot(r.Context(), spot)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, mapping.ToApiSpot(created))
}

func validateNewSpot(in *api.NewSpot) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", apperrors.ErrInvalidArgument)
	case !in.PricePerHour.IsPositive():
		return fmt.Errorf("%w: pricePerHour must be positive", apperrors.ErrInvalidArgument)
	case in.TotalUnits < 1:
		return fmt.Errorf("%w: totalUnits must be at least 1", apperrors.ErrInvalidArgument)
	}
	return nil
}

// ListSpots lists active spots. Admins may ask for inactive ones.
func (h *SpotsHandler) ListSpots(w http.ResponseWriter, r *http.Request, params api.ListSpotsParams) {
	status := models.SpotActive
	if params.Status != nil {
		status = models.SpotStatus(*params.Status)
	}
	if status != models.SpotActive {
		caller, err := middleware.IdentityFrom(r.Context())
		if err == nil {
			err = caller.RequireRole(models.RoleAdmin)
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	spots, err := h.Store.ListSpots(r.Context(), status)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiSpots(spots))
}

// ListOwnerSpots lists the caller's spots regardless of status.
func (h *SpotsHandler) ListOwnerSpots(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	spots, err := h.Store.ListSpotsByOwner(r.Context(), caller.AccountID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiSpots(spots))
}

// GetOwnerStats returns revenue, activity and utilization for the caller's spots.
func (h *SpotsHandler) GetOwnerStats(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	stats, err := h.Stats.OwnerStats(r.Context(), caller.AccountID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiOwnerStats(stats))
}

func (h *SpotsHandler) GetSpot(w http.ResponseWriter, r *http.Request, spotId string) {
	spot, err := h.Store.GetSpot(r.Context(), spotId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiSpot(spot))
}

// SetSpotStatus approves or suspends a spot. Only its owner or an admin may.
func (h *SpotsHandler) SetSpotStatus(w http.ResponseWriter, r *http.Request, spotId string) {
	var in api.SpotStatusUpdate
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	status := models.SpotStatus(in.Status)
	if status != models.SpotActive && status != models.SpotInactive {
		respond.Error(w, r, fmt.Errorf("%w: unknown spot status %q", apperrors.ErrInvalidArgument, in.Status))
		return
	}

	if err := h.authorize(r, spotId); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := h.Store.SetSpotStatus(r.Context(), spotId, status)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiSpot(updated))
}

// UpdateSpot edits a spot's details. A new unit total must still cover the
// units held by active bookings.
func (h *SpotsHandler) UpdateSpot(w http.ResponseWriter, r *http.Request, spotId string) {
	var in api.SpotUpdate
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := validateSpotUpdate(&in); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.authorize(r, spotId); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := h.Store.UpdateSpot(r.Context(), spotId, mapping.ToDomainSpotChanges(&in))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiSpot(updated))
}

func validateSpotUpdate(in *api.SpotUpdate) error {
	switch {
	case in.Name != nil && *in.Name == "":
		return fmt.Errorf("%w: name must not be empty", apperrors.ErrInvalidArgument)
	case in.PricePerHour != nil && !in.PricePerHour.IsPositive():
		return fmt.Errorf("%w: pricePerHour must be positive", apperrors.ErrInvalidArgument)
	case in.TotalUnits != nil && *in.TotalUnits < 1:
		return fmt.Errorf("%w: totalUnits must be at least 1", apperrors.ErrInvalidArgument)
	}
	return nil
}

// DeleteSpot removes a spot with no active bookings on it.
func (h *SpotsHandler) DeleteSpot(w http.ResponseWriter, r *http.Request, spotId string) {
	if err := h.authorize(r, spotId); err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.Store.DeleteSpot(r.Context(), spotId); err != nil {
		respond.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorize allows the spot's owner and admins.
func (h *SpotsHandler) authorize(r *http.Request, spotId string) error {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		return err
	}
	spot, err := h.Store.GetSpot(r.Context(), spotId)
	if err != nil {
		return err
	}
	if spot.OwnerId != caller.AccountID && caller.Role != models.RoleAdmin {
		return fmt.Errorf("%w: spot %s belongs to another owner", apperrors.ErrForbidden, spotId)
	}
	return nil
}
