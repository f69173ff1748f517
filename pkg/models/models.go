package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role identifies what an account may do on the platform.
type Role string

const (
	RoleDriver Role = "driver"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// TransactionKind is the direction of a ledger entry.
type TransactionKind string

const (
	CREDIT TransactionKind = "Credit"
	DEBIT  TransactionKind = "Debit"
)

// TransactionStatus defines the possible states of a ledger entry.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "Completed"
)

// SpotStatus is the approval flag of a parking spot.
type SpotStatus string

const (
	SpotActive   SpotStatus = "Active"
	SpotInactive SpotStatus = "Inactive"
)

// BookingStatus defines the possible states of a booking.
type BookingStatus string

const (
	BookingActive    BookingStatus = "Active"
	BookingCompleted BookingStatus = "Completed"
	BookingCancelled BookingStatus = "Cancelled"
)

// Account represents a driver, owner or admin together with their wallet.
type Account struct {
	Id            string
	Name          string
	Role          Role
	WalletBalance decimal.Decimal
	// Transactions holds the wallet journal, oldest first.
	Transactions []Transaction
	Favorites    []string
	CreatedAt    time.Time
}

// HasFavorite reports whether spotID is in the account's favorites.
func (a *Account) HasFavorite(spotID string) bool {
	for _, id := range a.Favorites {
		if id == spotID {
			return true
		}
	}
	return false
}

// Transaction is a single immutable entry in an account's wallet journal.
type Transaction struct {
	Id          string
	AccountId   string
	Kind        TransactionKind
	Amount      decimal.Decimal
	Description string
	Status      TransactionStatus
	BookingId   string
	Timestamp   time.Time
}

// Delta returns the signed change the entry applies to the account balance.
func (t Transaction) Delta() decimal.Decimal {
	if t.Kind == DEBIT {
		return t.Amount.Neg()
	}
	return t.Amount
}

// ParkingSpot is a parking location with a fixed number of bookable units.
type ParkingSpot struct {
	Id             string
	OwnerId        string
	Name           string
	Location       string
	PricePerHour   decimal.Decimal
	TotalUnits     int
	AvailableUnits int
	Status         SpotStatus
	LiveFeedURL    string
	CreatedAt      time.Time
}

// Occupied returns the number of units currently held by active bookings.
func (s *ParkingSpot) Occupied() int {
	return s.TotalUnits - s.AvailableUnits
}

// Booking is a driver's reservation of one unit of a parking spot.
type Booking struct {
	Id       string
	DriverId string
	SpotId   string
	Date     string // "YYYY-MM-DD"
	Time     string // "HH:MM - HH:MM"

	BaseAmount decimal.Decimal
	Status     BookingStatus

	ScheduledStart time.Time
	ScheduledEnd   time.Time
	ActualEnd      *time.Time

	OvertimeFee decimal.Decimal
	TotalAmount *decimal.Decimal

	// Voided marks a booking rolled back while it was being created. It never
	// held a unit and its charge was reversed.
	Voided bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal reports whether the booking can no longer change state.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingCompleted || b.Status == BookingCancelled
}
