package handlers

import (
	"github.com/chris/spot-booking-ledger/pkg/api"
	"github.com/chris/spot-booking-ledger/pkg/booking"
	"github.com/chris/spot-booking-ledger/pkg/handlers/accounts"
	"github.com/chris/spot-booking-ledger/pkg/handlers/admin"
	"github.com/chris/spot-booking-ledger/pkg/handlers/bookings"
	"github.com/chris/spot-booking-ledger/pkg/handlers/ledger"
	"github.com/chris/spot-booking-ledger/pkg/handlers/spots"
	"github.com/chris/spot-booking-ledger/pkg/storage"
)

// ApiHandler implements the API server interface by composing the
// per-resource handlers.
type ApiHandler struct {
	*accounts.AccountsHandler
	*spots.SpotsHandler
	*bookings.BookingsHandler
	*ledger.LedgerHandler
	*admin.AdminHandler
}

// NewApiHandler wires each resource handler to the narrowest dependency it needs.
func NewApiHandler(store storage.ApiStore, wallet accounts.Wallet, lifecycle booking.Lifecycle) *ApiHandler {
	return &ApiHandler{
		AccountsHandler: accounts.NewAccountsHandler(store, wallet),
		SpotsHandler:    spots.NewSpotsHandler(store, lifecycle),
		BookingsHandler: bookings.NewBookingsHandler(lifecycle),
		LedgerHandler:   ledger.NewLedgerHandler(store),
		AdminHandler:    admin.NewAdminHandler(store, lifecycle),
	}
}

// Make sure we conform to the interface
var _ api.ServerInterface = (*ApiHandler)(nil)
