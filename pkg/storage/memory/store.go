// Package memory is an in-process storage backend used by tests and local runs.
package memory

import (
	"sync"

	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
)

// Store implements storage.Storage on maps guarded by a single RWMutex.
// Every method hands out copies, so callers never alias stored records.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account
	spots    map[string]*models.ParkingSpot
	bookings map[string]*models.Booking
	// journal holds every ledger entry across accounts in append order.
	journal []models.Transaction
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*models.Account),
		spots:    make(map[string]*models.ParkingSpot),
		bookings: make(map[string]*models.Booking),
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

func copyAccount(a *models.Account, withJournal bool) *models.Account {
	out := *a
	out.Favorites = append([]string(nil), a.Favorites...)
	if withJournal {
		out.Transactions = append([]models.Transaction(nil), a.Transactions...)
	} else {
		out.Transactions = nil
	}
	return &out
}

func copySpot(s *models.ParkingSpot) *models.ParkingSpot {
	out := *s
	return &out
}

func copyBooking(b *models.Booking) *models.Booking {
	out := *b
	if b.ActualEnd != nil {
		t := *b.ActualEnd
		out.ActualEnd = &t
	}
	if b.TotalAmount != nil {
		d := *b.TotalAmount
		out.TotalAmount = &d
	}
	return &out
}
