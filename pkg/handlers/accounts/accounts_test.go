package accounts_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chris/spot-booking-ledger/pkg/api"
	"github.com/chris/spot-booking-ledger/pkg/handlers/accounts"
	"github.com/chris/spot-booking-ledger/pkg/ledger"
	"github.com/chris/spot-booking-ledger/pkg/middleware"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	"github.com/chris/spot-booking-ledger/pkg/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*accounts.AccountsHandler, *memory.Store) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	_, err := store.CreateAccount(ctx, &models.Account{Id: "driver-1", Name: "Dana", Role: models.RoleDriver})
	require.NoError(t, err)
	_, err = store.CreateSpot(ctx, &models.ParkingSpot{
		Id: "spot-1", OwnerId: "owner-1", Name: "Lot A", PricePerHour: decimal.NewFromInt(5),
		TotalUnits: 3, AvailableUnits: 3, Status: models.SpotActive, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	return accounts.NewAccountsHandler(store, ledger.New(store)), store
}

func as(req *http.Request, id string, role models.Role) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), middleware.Identity{AccountID: id, Role: role}))
}

func TestCreateAccount(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, store := setup(t)

		body, _ := json.Marshal(api.NewAccount{Name: "Olu", Role: api.Owner})
		rr := httptest.NewRecorder()
		h.CreateAccount(rr, httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body)))

		require.Equal(t, http.StatusCreated, rr.Code)
		var created api.Account
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
		assert.NotEmpty(t, created.Id)
		assert.Equal(t, api.Owner, created.Role)
		assert.Zero(t, created.WalletBalance)

		stored, err := store.GetAccount(context.Background(), created.Id)
		require.NoError(t, err)
		assert.Equal(t, "Olu", stored.Name)
	})

	t.Run("Unknown Role", func(t *testing.T) {
		h, _ := setup(t)
		body, _ := json.Marshal(api.NewAccount{Name: "Eve", Role: "root"})
		rr := httptest.NewRecorder()
		h.CreateAccount(rr, httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestListAccounts(t *testing.T) {
	h, _ := setup(t)

	t.Run("Admin", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ListAccounts(rr, as(httptest.NewRequest(http.MethodGet, "/accounts", nil), "admin-1", models.RoleAdmin))
		require.Equal(t, http.StatusOK, rr.Code)
		var out []api.Account
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.Len(t, out, 1)
	})

	t.Run("Driver Forbidden", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ListAccounts(rr, as(httptest.NewRequest(http.MethodGet, "/accounts", nil), "driver-1", models.RoleDriver))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Anonymous", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ListAccounts(rr, httptest.NewRequest(http.MethodGet, "/accounts", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestTopUpWallet(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h, _ := setup(t)

		body, _ := json.Marshal(api.TopUpRequest{Amount: decimal.RequireFromString("25.5")})
		rr := httptest.NewRecorder()
		h.TopUpWallet(rr, as(httptest.NewRequest(http.MethodPost, "/accounts/me/top-up", bytes.NewReader(body)), "driver-1", models.RoleDriver))

		require.Equal(t, http.StatusOK, rr.Code)
		var out api.TopUpResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.Equal(t, 25.5, out.WalletBalance)
		assert.Equal(t, api.Credit, out.Transaction.Type)
		assert.Equal(t, ledger.TopUpDescription, out.Transaction.Description)

		rr = httptest.NewRecorder()
		h.GetMyAccount(rr, as(httptest.NewRequest(http.MethodGet, "/accounts/me", nil), "driver-1", models.RoleDriver))
		require.Equal(t, http.StatusOK, rr.Code)
		var profile api.Account
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
		require.NotNil(t, profile.Transactions)
		assert.Len(t, *profile.Transactions, 1)
	})

	t.Run("Non Positive Amount", func(t *testing.T) {
		h, _ := setup(t)
		body, _ := json.Marshal(api.TopUpRequest{Amount: decimal.Zero})
		rr := httptest.NewRecorder()
		h.TopUpWallet(rr, as(httptest.NewRequest(http.MethodPost, "/accounts/me/top-up", bytes.NewReader(body)), "driver-1", models.RoleDriver))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Unknown Account", func(t *testing.T) {
		h, _ := setup(t)
		body, _ := json.Marshal(api.TopUpRequest{Amount: decimal.NewFromInt(10)})
		rr := httptest.NewRecorder()
		h.TopUpWallet(rr, as(httptest.NewRequest(http.MethodPost, "/accounts/me/top-up", bytes.NewReader(body)), "ghost", models.RoleDriver))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestFavorites(t *testing.T) {
	h, _ := setup(t)
	toggle := func(spotID string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(api.ToggleFavoriteRequest{SpotId: spotID})
		rr := httptest.NewRecorder()
		h.ToggleFavorite(rr, as(httptest.NewRequest(http.MethodPost, "/accounts/me/favorites/toggle", bytes.NewReader(body)), "driver-1", models.RoleDriver))
		return rr
	}

	rr := toggle("spot-1")
	require.Equal(t, http.StatusOK, rr.Code)
	var favs api.Favorites
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &favs))
	assert.Equal(t, []string{"spot-1"}, favs.Favorites)

	rr = httptest.NewRecorder()
	h.ListFavorites(rr, as(httptest.NewRequest(http.MethodGet, "/accounts/me/favorites", nil), "driver-1", models.RoleDriver))
	require.Equal(t, http.StatusOK, rr.Code)
	var spots []api.Spot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &spots))
	require.Len(t, spots, 1)
	assert.Equal(t, "Lot A", spots[0].Name)

	rr = toggle("spot-1")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &favs))
	assert.Empty(t, favs.Favorites)

	assert.Equal(t, http.StatusNotFound, toggle("nope").Code)
}

func TestUpdateMyAccount(t *testing.T) {
	rename := func(h *accounts.AccountsHandler, id, name string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(api.AccountUpdate{Name: name})
		rr := httptest.NewRecorder()
		h.UpdateMyAccount(rr, as(httptest.NewRequest(http.MethodPut, "/accounts/me", bytes.NewReader(body)), id, models.RoleDriver))
		return rr
	}

	t.Run("Success", func(t *testing.T) {
		h, store := setup(t)
		rr := rename(h, "driver-1", "  Dana K  ")

		require.Equal(t, http.StatusOK, rr.Code)
		var out api.Account
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.Equal(t, "Dana K", out.Name)

		stored, err := store.GetAccount(context.Background(), "driver-1")
		require.NoError(t, err)
		assert.Equal(t, "Dana K", stored.Name)
	})

	t.Run("Blank Name", func(t *testing.T) {
		h, _ := setup(t)
		assert.Equal(t, http.StatusBadRequest, rename(h, "driver-1", " ").Code)
	})

	t.Run("Unknown Account", func(t *testing.T) {
		h, _ := setup(t)
		assert.Equal(t, http.StatusNotFound, rename(h, "ghost", "Gus").Code)
	})
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	del := func(h *accounts.AccountsHandler, callerID string, role models.Role, target string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.DeleteAccount(rr, as(httptest.NewRequest(http.MethodDelete, "/accounts/"+target, nil), callerID, role), target)
		return rr
	}
	withOwner := func(t *testing.T, store *memory.Store) {
		t.Helper()
		_, err := store.CreateAccount(ctx, &models.Account{Id: "owner-1", Name: "Olu", Role: models.RoleOwner})
		require.NoError(t, err)
		_, err = store.CreateSpot(ctx, &models.ParkingSpot{
			Id: "spot-2", OwnerId: "owner-1", Name: "Lot B", PricePerHour: decimal.NewFromInt(4),
			TotalUnits: 1, AvailableUnits: 1, Status: models.SpotInactive, CreatedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	t.Run("Driver Keeps Journal", func(t *testing.T) {
		h, store := setup(t)
		_, err := ledger.New(store).TopUp(ctx, "driver-1", decimal.NewFromInt(10))
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, del(h, "admin-1", models.RoleAdmin, "driver-1").Code)

		_, err = store.GetAccount(ctx, "driver-1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		entries, err := store.ListLedgerEntries(ctx, 0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "driver-1", entries[0].AccountId)
	})

	t.Run("Owner Removes Spots", func(t *testing.T) {
		h, store := setup(t)
		withOwner(t, store)

		assert.Equal(t, http.StatusNoContent, del(h, "admin-1", models.RoleAdmin, "owner-1").Code)

		owned, err := store.ListSpotsByOwner(ctx, "owner-1")
		require.NoError(t, err)
		assert.Empty(t, owned)
		_, err = store.GetAccount(ctx, "owner-1")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Owner With Units In Use", func(t *testing.T) {
		h, store := setup(t)
		withOwner(t, store)
		_, err := store.TakeUnit(ctx, "spot-1")
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, del(h, "admin-1", models.RoleAdmin, "owner-1").Code)

		owned, err := store.ListSpotsByOwner(ctx, "owner-1")
		require.NoError(t, err)
		assert.Len(t, owned, 2)
		_, err = store.GetAccount(ctx, "owner-1")
		assert.NoError(t, err)
	})

	t.Run("Driver With Active Booking", func(t *testing.T) {
		h, store := setup(t)
		start := time.Now().UTC()
		_, err := store.CreateBooking(ctx, &models.Booking{
			Id: "b1", DriverId: "driver-1", SpotId: "spot-1", Status: models.BookingActive,
			ScheduledStart: start, ScheduledEnd: start.Add(time.Hour),
			BaseAmount: decimal.NewFromInt(5), CreatedAt: start,
		})
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, del(h, "admin-1", models.RoleAdmin, "driver-1").Code)
	})

	t.Run("Not Admin", func(t *testing.T) {
		h, _ := setup(t)
		assert.Equal(t, http.StatusForbidden, del(h, "driver-1", models.RoleDriver, "driver-1").Code)
	})

	t.Run("Self", func(t *testing.T) {
		h, _ := setup(t)
		assert.Equal(t, http.StatusBadRequest, del(h, "admin-1", models.RoleAdmin, "admin-1").Code)
	})

	t.Run("Unknown Account", func(t *testing.T) {
		h, _ := setup(t)
		assert.Equal(t, http.StatusNotFound, del(h, "admin-1", models.RoleAdmin, "ghost").Code)
	})
}
