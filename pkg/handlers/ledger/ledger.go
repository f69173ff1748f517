package ledger

import (
	"fmt"
	"net/http"

	"github.com/chris/spot-booking-ledger/pkg/api"
	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/handlers/respond"
	"github.com/chris/spot-booking-ledger/pkg/mapping"
	"github.com/chris/spot-booking-ledger/pkg/middleware"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
)

const defaultLimit = 20

// LedgerHandler holds the dependencies for ledger-related handlers.
type LedgerHandler struct {
	Store storage.LedgerReader
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(store storage.LedgerReader) *LedgerHandler {
	return &LedgerHandler{Store: store}
}

// ListLedgerEntries returns the newest journal entries across all wallets. Admin only.
func (h *LedgerHandler) ListLedgerEntries(w http.ResponseWriter, r *http.Request, params api.ListLedgerEntriesParams) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err == nil {
		err = caller.RequireRole(models.RoleAdmin)
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	limit := int32(defaultLimit)
	if params.Limit != nil {
		if *params.Limit < 1 {
			respond.Error(w, r, fmt.Errorf("%w: limit must be positive", apperrors.ErrInvalidArgument))
			return
		}
		limit = int32(*params.Limit)
	}

	entries, err := h.Store.ListLedgerEntries(r.Context(), limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiTransactions(entries))
}
