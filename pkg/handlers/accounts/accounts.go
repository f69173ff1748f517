package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chris/spot-booking-ledger/pkg/api"
	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/handlers/respond"
	"github.com/chris/spot-booking-ledger/pkg/mapping"
	"github.com/chris/spot-booking-ledger/pkg/middleware"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the storage the account handlers read and write.
type Store interface {
	storage.AccountReader
	storage.AccountWriter
	storage.LedgerReader
	storage.SpotReader
	storage.SpotWriter
	storage.BookingReader
}

// Wallet posts top-ups and reports balances.
type Wallet interface {
	TopUp(ctx context.Context, accountID string, amount decimal.Decimal) (*models.Transaction, error)
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// AccountsHandler holds the dependencies for account-related handlers.
type AccountsHandler struct {
	Store  Store
	Wallet Wallet
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(store Store, wallet Wallet) *AccountsHandler {
	return &AccountsHandler{Store: store, Wallet: wallet}
}

// CreateAccount registers a driver, owner or admin with an empty wallet.
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var in api.NewAccount
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}

	account := mapping.ToDomainNewAccount(&in)
	account.Name = strings.TrimSpace(account.Name)
	if account.Name == "" {
		respond.Error(w, r, fmt.Errorf("%w: name is required", apperrors.ErrInvalidArgument))
		return
	}
	if !account.Role.Valid() {
		respond.Error(w, r, fmt.Errorf("%w: unknown role %q", apperrors.ErrInvalidArgument, in.Role))
		return
	}
	account.Id = uuid.New().String()
	account.CreatedAt = time.Now().UTC()

	created, err := h.Store.CreateAccount(r.Context(), account)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, mapping.ToApiAccount(created))
}

// ListAccounts returns every account. Admin only.
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
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

	out := make([]*api.Account, len(accounts))
	for i := range accounts {
		out[i] = mapping.ToApiAccount(&accounts[i])
	}
	respond.JSON(w, http.StatusOK, out)
}

// GetMyAccount returns the caller's profile with the wallet journal.
func (h *AccountsHandler) GetMyAccount(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	account, err := h.Store.GetAccount(r.Context(), caller.AccountID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiProfile(account))
}

// UpdateMyAccount renames the caller's account.
func (h *AccountsHandler) UpdateMyAccount(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var in api.AccountUpdate
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		respond.Error(w, r, fmt.Errorf("%w: name is required", apperrors.ErrInvalidArgument))
		return
	}

	account, err := h.Store.RenameAccount(r.Context(), caller.AccountID, name)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiAccount(account))
}

// DeleteAccount removes an account. Admin only. Deleting an owner also
// removes their spots, which must have no units in use. Ledger entries stay.
func (h *AccountsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request, accountId string) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err == nil {
		err = caller.RequireRole(models.RoleAdmin)
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if accountId == caller.AccountID {
		respond.Error(w, r, fmt.Errorf("%w: admins cannot delete their own account", apperrors.ErrInvalidArgument))
		return
	}

	account, err := h.Store.GetAccount(r.Context(), accountId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	switch account.Role {
	case models.RoleDriver:
		err = h.checkNoActiveBookings(r.Context(), accountId)
	case models.RoleOwner:
		err = h.deleteOwnedSpots(r.Context(), accountId)
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.Store.DeleteAccount(r.Context(), accountId); err != nil {
		respond.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountsHandler) checkNoActiveBookings(ctx context.Context, driverID string) error {
	bookings, err := h.Store.ListBookingsByDriver(ctx, driverID)
	if err != nil {
		return err
	}
	for i := range bookings {
		if bookings[i].Status == models.BookingActive {
			return fmt.Errorf("%w: driver %s has active bookings", apperrors.ErrInvalidState, driverID)
		}
	}
	return nil
}

// deleteOwnedSpots checks every spot before removing any, so a refusal
// leaves the owner's spots untouched.
func (h *AccountsHandler) deleteOwnedSpots(ctx context.Context, ownerID string) error {
	spots, err := h.Store.ListSpotsByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	for i := range spots {
		if spots[i].Occupied() > 0 {
			return fmt.Errorf("%w: spot %s has units in use", apperrors.ErrInvalidState, spots[i].Id)
		}
	}
	for i := range spots {
		if err := h.Store.DeleteSpot(ctx, spots[i].Id); err != nil {
			return err
		}
	}
	return nil
}

// TopUpWallet credits the caller's wallet.
func (h *AccountsHandler) TopUpWallet(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var in api.TopUpRequest
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}

	tx, err := h.Wallet.TopUp(r.Context(), caller.AccountID, in.Amount)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	balance, err := h.Wallet.Balance(r.Context(), caller.AccountID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, api.TopUpResponse{
		WalletBalance: balance.InexactFloat64(),
		Transaction:   mapping.ToApiTransaction(tx),
	})
}

// ListMyTransactions returns the caller's wallet journal, oldest first.
func (h *AccountsHandler) ListMyTransactions(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	entries, err := h.Store.ListEntries(r.Context(), caller.AccountID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, mapping.ToApiTransactions(entries))
}

// ListFavorites resolves the caller's favorite spot ids. Spots that no longer
// exist are left out.
func (h *AccountsHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	account, err := h.Store.GetAccount(r.Context(), caller.AccountID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	spots := make([]api.Spot, 0, len(account.Favorites))
	for _, id := range account.Favorites {
		spot, err := h.Store.GetSpot(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		spots = append(spots, mapping.ToApiSpot(spot))
	}
	respond.JSON(w, http.StatusOK, spots)
}

// ToggleFavorite adds the spot to the caller's favorites, or removes it if present.
func (h *AccountsHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.IdentityFrom(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var in api.ToggleFavoriteRequest
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	if in.SpotId == "" {
		respond.Error(w, r, fmt.Errorf("%w: spotId is required", apperrors.ErrInvalidArgument))
		return
	}
	if _, err := h.Store.GetSpot(r.Context(), in.SpotId); err != nil {
		respond.Error(w, r, err)
		return
	}

	favorites, err := h.Store.ToggleFavorite(r.Context(), caller.AccountID, in.SpotId)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, api.Favorites{Favorites: favorites})
}
