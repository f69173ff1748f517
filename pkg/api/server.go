package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Create an account
	// (POST /accounts)
	CreateAccount(w http.ResponseWriter, r *http.Request)
	// List accounts
	// (GET /accounts)
	ListAccounts(w http.ResponseWriter, r *http.Request)
	// The caller's profile with wallet history
	// (GET /accounts/me)
	GetMyAccount(w http.ResponseWriter, r *http.Request)
	// Rename the caller
	// (PUT /accounts/me)
	UpdateMyAccount(w http.ResponseWriter, r *http.Request)
	// Remove an account, and an owner's spots with it
	// (DELETE /accounts/{accountId})
	DeleteAccount(w http.ResponseWriter, r *http.Request, accountId string)
	// Add funds to the caller's wallet
	// (POST /accounts/me/top-up)
	TopUpWallet(w http.ResponseWriter, r *http.Request)
	// (GET /accounts/me/transactions)
	ListMyTransactions(w http.ResponseWriter, r *http.Request)
	// (GET /accounts/me/favorites)
	ListFavorites(w http.ResponseWriter, r *http.Request)
	// (POST /accounts/me/favorites/toggle)
	ToggleFavorite(w http.ResponseWriter, r *http.Request)

	// (POST /spots)
	CreateSpot(w http.ResponseWriter, r *http.Request)
	// (GET /spots)
	ListSpots(w http.ResponseWriter, r *http.Request, params ListSpotsParams)
	// (GET /spots/owner)
	ListOwnerSpots(w http.ResponseWriter, r *http.Request)
	// (GET /spots/stats)
	GetOwnerStats(w http.ResponseWriter, r *http.Request)
	// (GET /spots/{spotId})
	GetSpot(w http.ResponseWriter, r *http.Request, spotId string)
	// (PUT /spots/{spotId})
	UpdateSpot(w http.ResponseWriter, r *http.Request, spotId string)
	// (DELETE /spots/{spotId})
	DeleteSpot(w http.ResponseWriter, r *http.Request, spotId string)
	// Approve or suspend a spot
	// (PUT /spots/{spotId}/status)
	SetSpotStatus(w http.ResponseWriter, r *http.Request, spotId string)

	// (POST /bookings)
	CreateBooking(w http.ResponseWriter, r *http.Request)
	// (GET /bookings/mine)
	ListMyBookings(w http.ResponseWriter, r *http.Request)
	// (GET /bookings/owner)
	ListOwnerBookings(w http.ResponseWriter, r *http.Request)
	// (GET /bookings/{bookingId})
	GetBooking(w http.ResponseWriter, r *http.Request, bookingId string)
	// (PUT /bookings/{bookingId}/cancel)
	CancelBooking(w http.ResponseWriter, r *http.Request, bookingId string)
	// (PUT /bookings/{bookingId}/complete)
	CompleteBooking(w http.ResponseWriter, r *http.Request, bookingId string)

	// Most recent ledger entries across all accounts
	// (GET /ledger)
	ListLedgerEntries(w http.ResponseWriter, r *http.Request, params ListLedgerEntriesParams)
	// Platform totals
	// (GET /admin/stats)
	GetAdminStats(w http.ResponseWriter, r *http.Request)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareFunc func(http.Handler) http.Handler

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	handler := http.Handler(fn)
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

// pathParam binds a required simple-style path parameter.
func (siw *ServerInterfaceWrapper) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return "", false
	}
	return value, true
}

func (siw *ServerInterfaceWrapper) CreateAccount(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.CreateAccount)
}

func (siw *ServerInterfaceWrapper) ListAccounts(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListAccounts)
}

func (siw *ServerInterfaceWrapper) GetMyAccount(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetMyAccount)
}

func (siw *ServerInterfaceWrapper) UpdateMyAccount(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.UpdateMyAccount)
}

func (siw *ServerInterfaceWrapper) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountId, ok := siw.pathParam(w, r, "accountId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteAccount(w, r, accountId)
	})
}

func (siw *ServerInterfaceWrapper) TopUpWallet(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.TopUpWallet)
}

func (siw *ServerInterfaceWrapper) ListMyTransactions(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListMyTransactions)
}

func (siw *ServerInterfaceWrapper) ListFavorites(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListFavorites)
}

func (siw *ServerInterfaceWrapper) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ToggleFavorite)
}

func (siw *ServerInterfaceWrapper) CreateSpot(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.CreateSpot)
}

func (siw *ServerInterfaceWrapper) ListSpots(w http.ResponseWriter, r *http.Request) {
	var params ListSpotsParams

	err := runtime.BindQueryParameter("form", true, false, "status", r.URL.Query(), &params.Status)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "status", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListSpots(w, r, params)
	})
}

func (siw *ServerInterfaceWrapper) ListOwnerSpots(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListOwnerSpots)
}

func (siw *ServerInterfaceWrapper) GetOwnerStats(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetOwnerStats)
}

func (siw *ServerInterfaceWrapper) GetSpot(w http.ResponseWriter, r *http.Request) {
	spotId, ok := siw.pathParam(w, r, "spotId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetSpot(w, r, spotId)
	})
}

func (siw *ServerInterfaceWrapper) UpdateSpot(w http.ResponseWriter, r *http.Request) {
	spotId, ok := siw.pathParam(w, r, "spotId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.UpdateSpot(w, r, spotId)
	})
}

func (siw *ServerInterfaceWrapper) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	spotId, ok := siw.pathParam(w, r, "spotId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteSpot(w, r, spotId)
	})
}

func (siw *ServerInterfaceWrapper) SetSpotStatus(w http.ResponseWriter, r *http.Request) {
	spotId, ok := siw.pathParam(w, r, "spotId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SetSpotStatus(w, r, spotId)
	})
}

func (siw *ServerInterfaceWrapper) CreateBooking(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.CreateBooking)
}

func (siw *ServerInterfaceWrapper) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListMyBookings)
}

func (siw *ServerInterfaceWrapper) ListOwnerBookings(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListOwnerBookings)
}

func (siw *ServerInterfaceWrapper) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingId, ok := siw.pathParam(w, r, "bookingId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetBooking(w, r, bookingId)
	})
}

func (siw *ServerInterfaceWrapper) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingId, ok := siw.pathParam(w, r, "bookingId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.CancelBooking(w, r, bookingId)
	})
}

func (siw *ServerInterfaceWrapper) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingId, ok := siw.pathParam(w, r, "bookingId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.CompleteBooking(w, r, bookingId)
	})
}

func (siw *ServerInterfaceWrapper) ListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	var params ListLedgerEntriesParams

	err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListLedgerEntries(w, r, params)
	})
}

func (siw *ServerInterfaceWrapper) GetAdminStats(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetAdminStats)
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerFromMux creates http.Handler with routing matching the API, mounted on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{
		BaseRouter: r,
	})
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/accounts", wrapper.CreateAccount)
		r.Get(options.BaseURL+"/accounts", wrapper.ListAccounts)
		r.Get(options.BaseURL+"/accounts/me", wrapper.GetMyAccount)
		r.Put(options.BaseURL+"/accounts/me", wrapper.UpdateMyAccount)
		r.Delete(options.BaseURL+"/accounts/{accountId}", wrapper.DeleteAccount)
		r.Post(options.BaseURL+"/accounts/me/top-up", wrapper.TopUpWallet)
		r.Get(options.BaseURL+"/accounts/me/transactions", wrapper.ListMyTransactions)
		r.Get(options.BaseURL+"/accounts/me/favorites", wrapper.ListFavorites)
		r.Post(options.BaseURL+"/accounts/me/favorites/toggle", wrapper.ToggleFavorite)

		r.Post(options.BaseURL+"/spots", wrapper.CreateSpot)
		r.Get(options.BaseURL+"/spots", wrapper.ListSpots)
		r.Get(options.BaseURL+"/spots/owner", wrapper.ListOwnerSpots)
		r.Get(options.BaseURL+"/spots/stats", wrapper.GetOwnerStats)
		r.Get(options.BaseURL+"/spots/{spotId}", wrapper.GetSpot)
		r.Put(options.BaseURL+"/spots/{spotId}", wrapper.UpdateSpot)
		r.Delete(options.BaseURL+"/spots/{spotId}", wrapper.DeleteSpot)
		r.Put(options.BaseURL+"/spots/{spotId}/status", wrapper.SetSpotStatus)

		r.Post(options.BaseURL+"/bookings", wrapper.CreateBooking)
		r.Get(options.BaseURL+"/bookings/mine", wrapper.ListMyBookings)
		r.Get(options.BaseURL+"/bookings/owner", wrapper.ListOwnerBookings)
		r.Get(options.BaseURL+"/bookings/{bookingId}", wrapper.GetBooking)
		r.Put(options.BaseURL+"/bookings/{bookingId}/cancel", wrapper.CancelBooking)
		r.Put(options.BaseURL+"/bookings/{bookingId}/complete", wrapper.CompleteBooking)

		r.Get(options.BaseURL+"/ledger", wrapper.ListLedgerEntries)
		r.Get(options.BaseURL+"/admin/stats", wrapper.GetAdminStats)
	})

	return r
}
