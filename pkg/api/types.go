// Package api holds the HTTP wire types and the chi routing for the service.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// AccountRole defines model for AccountRole.
type AccountRole string

const (
	Admin  AccountRole = "admin"
	Driver AccountRole = "driver"
	Owner  AccountRole = "owner"
)

// TransactionType defines model for Transaction.Type.
type TransactionType string

const (
	Credit TransactionType = "Credit"
	Debit  TransactionType = "Debit"
)

// SpotStatus defines model for SpotStatus.
type SpotStatus string

const (
	SpotStatusActive   SpotStatus = "Active"
	SpotStatusInactive SpotStatus = "Inactive"
)

// BookingStatus defines model for BookingStatus.
type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "Active"
	BookingStatusCancelled BookingStatus = "Cancelled"
	BookingStatusCompleted BookingStatus = "Completed"
)

// AccountUpdate defines model for AccountUpdate.
type AccountUpdate struct {
	Name string `json:"name"`
}

// NewAccount defines model for NewAccount.
type NewAccount struct {
	Name string      `json:"name"`
	Role AccountRole `json:"role"`
}

// Account defines model for Account.
type Account struct {
	Id            string         `json:"id"`
	Name          string         `json:"name"`
	Role          AccountRole    `json:"role"`
	WalletBalance float64        `json:"walletBalance"`
	Favorites     []string       `json:"favorites"`
	Transactions  *[]Transaction `json:"transactions,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Transaction defines model for Transaction. It is also the admin ledger entry.
type Transaction struct {
	Id          string          `json:"id"`
	AccountId   string          `json:"accountId"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	BookingId   *string         `json:"bookingId,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// TopUpRequest defines model for TopUpRequest. Amount accepts a JSON number
// or a decimal string.
type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TopUpResponse defines model for TopUpResponse.
type TopUpResponse struct {
	WalletBalance float64     `json:"walletBalance"`
	Transaction   Transaction `json:"transaction"`
}

// ToggleFavoriteRequest defines model for ToggleFavoriteRequest.
type ToggleFavoriteRequest struct {
	SpotId string `json:"spotId"`
}

// Favorites defines model for Favorites.
type Favorites struct {
	Favorites []string `json:"favorites"`
}

// NewSpot defines model for NewSpot.
type NewSpot struct {
	Name         string          `json:"name"`
	Location     string          `json:"location"`
	PricePerHour decimal.Decimal `json:"pricePerHour"`
	TotalUnits   int             `json:"totalUnits"`
	LiveFeedUrl  *string         `json:"liveFeedUrl,omitempty"`
}

// SpotUpdate defines model for SpotUpdate. Omitted fields are left unchanged.
type SpotUpdate struct {
	Name         *string          `json:"name,omitempty"`
	Location     *string          `json:"location,omitempty"`
	PricePerHour *decimal.Decimal `json:"pricePerHour,omitempty"`
	TotalUnits   *int             `json:"totalUnits,omitempty"`
	LiveFeedUrl  *string          `json:"liveFeedUrl,omitempty"`
}

// Spot defines model for Spot.
type Spot struct {
	Id             string     `json:"id"`
	OwnerId        string     `json:"ownerId"`
	Name           string     `json:"name"`
	Location       string     `json:"location"`
	PricePerHour   float64    `json:"pricePerHour"`
	TotalUnits     int        `json:"totalUnits"`
	AvailableUnits int        `json:"availableUnits"`
	Status         SpotStatus `json:"status"`
	LiveFeedUrl    *string    `json:"liveFeedUrl,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// SpotStatusUpdate defines model for SpotStatusUpdate.
type SpotStatusUpdate struct {
	Status SpotStatus `json:"status"`
}

// OwnerStats defines model for OwnerStats.
type OwnerStats struct {
	TotalSpots     int       `json:"totalSpots"`
	TotalRevenue   float64   `json:"totalRevenue"`
	ActiveBookings int       `json:"activeBookings"`
	Utilization    int       `json:"utilization"`
	RecentBookings []Booking `json:"recentBookings"`
}

// AdminStats defines model for AdminStats.
type AdminStats struct {
	TotalDrivers int     `json:"totalDrivers"`
	PendingSpots int     `json:"pendingSpots"`
	TotalVolume  float64 `json:"totalVolume"`
}

// NewBooking defines model for NewBooking.
type NewBooking struct {
	SpotId string             `json:"spotId"`
	Date   openapi_types.Date `json:"date"`
	// Time is a civil range, "HH:MM - HH:MM".
	Time   string          `json:"time"`
	Amount decimal.Decimal `json:"amount"`
}

// Booking defines model for Booking.
type Booking struct {
	Id             string        `json:"id"`
	DriverId       string        `json:"driverId"`
	SpotId         string        `json:"spotId"`
	Date           string        `json:"date"`
	Time           string        `json:"time"`
	BaseAmount     float64       `json:"baseAmount"`
	Status         BookingStatus `json:"status"`
	ScheduledStart time.Time     `json:"scheduledStart"`
	ScheduledEnd   time.Time     `json:"scheduledEnd"`
	ActualEnd      *time.Time    `json:"actualEnd,omitempty"`
	OvertimeFee    float64       `json:"overtimeFee"`
	TotalAmount    *float64      `json:"totalAmount,omitempty"`
	Voided         bool          `json:"voided,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// Completion defines model for Completion.
type Completion struct {
	Booking       Booking `json:"booking"`
	OvertimeHours int64   `json:"overtimeHours"`
	OvertimeFee   float64 `json:"overtimeFee"`
	TotalAmount   float64 `json:"totalAmount"`
}

// Error defines model for Error.
type Error struct {
	Error string `json:"error"`
}

// ListSpotsParams defines parameters for ListSpots.
type ListSpotsParams struct {
	// Status filters by approval flag. Only admins may list inactive spots.
	Status *SpotStatus `form:"status,omitempty" json:"status,omitempty"`
}

// ListLedgerEntriesParams defines parameters for ListLedgerEntries.
type ListLedgerEntriesParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}
