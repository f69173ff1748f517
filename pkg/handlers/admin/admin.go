package admin

import (
	"context"
	"net/http"

	"github.com/chris/spot-booking-ledger/pkg/handlers/respond"
	"github.com/chris/spot-booking-ledger/pkg/mapping"
	"github.com/chris/spot-booking-ledger/pkg/middleware"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	"github.com/shopspring/decimal"
)

// Store is the storage the admin dashboard reads.
type Store interface {
	storage.AccountReader
	storage.SpotReader
}

// Volume sums the base amounts of completed bookings.
type Volume interface {
	CompletedVolume(ctx context.Context) (decimal.Decimal, error)
}

// AdminHandler holds the dependencies for the admin dashboard.
type AdminHandler struct {
	Store  Store
	Volume Volume
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store Store, volume Volume) *AdminHandler {
	return &AdminHandler{Store: store, Volume: volume}
}

// GetAdminStats reports the driver count, the spots awaiting approval and
// the completed booking volume. Admin only.
func (h *AdminHandler) GetAdminStats(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err == nil {
		err = caller.RequireRole(models.RoleAdmin)
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	accounts, err := h.Store.ListAccounts(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	drivers := 0
	for i := range accounts {
		if accounts[i].Role == models.RoleDriver {
			drivers++
		}
	}

	pending, err := h.Store.ListSpots(r.Context(), models.SpotInactive)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	volume, err := h.Volume.CompletedVolume(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiAdminStats(drivers, len(pending), volume))
}
