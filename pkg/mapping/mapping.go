package mapping

import (
	"github.com/chris/spot-booking-ledger/pkg/api"
	"github.com/chris/spot-booking-ledger/pkg/booking"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/shopspring/decimal"
)

// ToApiAccount converts a domain Account to an API Account without its history.
func ToApiAccount(acc *models.Account) *api.Account {
	favorites := acc.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	return &api.Account{
		Id:            acc.Id,
		Name:          acc.Name,
		Role:          api.AccountRole(acc.Role),
		WalletBalance: acc.WalletBalance.InexactFloat64(),
		Favorites:     favorites,
		CreatedAt:     acc.CreatedAt,
	}
}

// ToApiProfile converts a domain Account including its wallet history.
func ToApiProfile(acc *models.Account) *api.Account {
	out := ToApiAccount(acc)
	txs := ToApiTransactions(acc.Transactions)
	out.Transactions = &txs
	return out
}

// ToDomainNewAccount converts an API NewAccount to a domain Account with a zero balance.
func ToDomainNewAccount(in *api.NewAccount) *models.Account {
	return &models.Account{
		Name:          in.Name,
		Role:          models.Role(in.Role),
		WalletBalance: decimal.Zero,
		Favorites:     []string{},
	}
}

// ToApiTransaction converts a domain Transaction to an API Transaction.
func ToApiTransaction(tx *models.Transaction) api.Transaction {
	out := api.Transaction{
		Id:          tx.Id,
		AccountId:   tx.AccountId,
		Type:        api.TransactionType(tx.Kind),
		Amount:      tx.Amount.InexactFloat64(),
		Description: tx.Description,
		Status:      string(tx.Status),
		Timestamp:   tx.Timestamp,
	}
	if tx.BookingId != "" {
		id := tx.BookingId
		out.BookingId = &id
	}
	return out
}

func ToApiTransactions(txs []models.Transaction) []api.Transaction {
	out := make([]api.Transaction, len(txs))
	for i := range txs {
		out[i] = ToApiTransaction(&txs[i])
	}
	return out
}

// ToApiSpot converts a domain ParkingSpot to an API Spot.
func ToApiSpot(spot *models.ParkingSpot) api.Spot {
	out := api.Spot{
		Id:             spot.Id,
		OwnerId:        spot.OwnerId,
		Name:           spot.Name,
		Location:       spot.Location,
		PricePerHour:   spot.PricePerHour.InexactFloat64(),
		TotalUnits:     spot.TotalUnits,
		AvailableUnits: spot.AvailableUnits,
		Status:         api.SpotStatus(spot.Status),
		CreatedAt:      spot.CreatedAt,
	}
	if spot.LiveFeedURL != "" {
		url := spot.LiveFeedURL
		out.LiveFeedUrl = &url
	}
	return out
}

func ToApiSpots(spots []models.ParkingSpot) []api.Spot {
	out := make([]api.Spot, len(spots))
	for i := range spots {
		out[i] = ToApiSpot(&spots[i])
	}
	return out
}

// ToDomainNewSpot converts an API NewSpot to a domain ParkingSpot with every unit free.
func ToDomainNewSpot(in *api.NewSpot) *models.ParkingSpot {
	spot := &models.ParkingSpot{
		Name:           in.Name,
		Location:       in.Location,
		PricePerHour:   in.PricePerHour,
		TotalUnits:     in.TotalUnits,
		AvailableUnits: in.TotalUnits,
		Status:         models.SpotActive,
	}
	if in.LiveFeedUrl != nil {
		spot.LiveFeedURL = *in.LiveFeedUrl
	}
	return spot
}

// ToDomainSpotChanges converts an API SpotUpdate. Only fields present in the
// request are set.
func ToDomainSpotChanges(in *api.SpotUpdate) models.SpotChanges {
	return models.SpotChanges{
		Name:         in.Name,
		Location:     in.Location,
		PricePerHour: in.PricePerHour,
		TotalUnits:   in.TotalUnits,
		LiveFeedURL:  in.LiveFeedUrl,
	}
}

// ToApiBooking converts a domain Booking to an API Booking.
func ToApiBooking(b *models.Booking) api.Booking {
	out := api.Booking{
		Id:             b.Id,
		DriverId:       b.DriverId,
		SpotId:         b.SpotId,
		Date:           b.Date,
		Time:           b.Time,
		BaseAmount:     b.BaseAmount.InexactFloat64(),
		Status:         api.BookingStatus(b.Status),
		ScheduledStart: b.ScheduledStart,
		ScheduledEnd:   b.ScheduledEnd,
		ActualEnd:      b.ActualEnd,
		OvertimeFee:    b.OvertimeFee.InexactFloat64(),
		Voided:         b.Voided,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	if b.TotalAmount != nil {
		total := b.TotalAmount.InexactFloat64()
		out.TotalAmount = &total
	}
	return out
}

func ToApiBookings(bookings []models.Booking) []api.Booking {
	out := make([]api.Booking, len(bookings))
	for i := range bookings {
		out[i] = ToApiBooking(&bookings[i])
	}
	return out
}

// ToDomainNewBooking converts an API NewBooking placed by driverID.
func ToDomainNewBooking(driverID string, in *api.NewBooking) booking.NewBooking {
	return booking.NewBooking{
		DriverID: driverID,
		SpotID:   in.SpotId,
		Date:     in.Date.String(),
		Time:     in.Time,
		Amount:   in.Amount,
	}
}

func ToApiCompletion(res *booking.CompletionResult) api.Completion {
	return api.Completion{
		Booking:       ToApiBooking(res.Booking),
		OvertimeHours: res.OvertimeHours,
		OvertimeFee:   res.OvertimeFee.InexactFloat64(),
		TotalAmount:   res.TotalAmount.InexactFloat64(),
	}
}

func ToApiOwnerStats(stats *booking.OwnerStats) api.OwnerStats {
	return api.OwnerStats{
		TotalSpots:     stats.TotalSpots,
		TotalRevenue:   stats.TotalRevenue.InexactFloat64(),
		ActiveBookings: stats.ActiveBookings,
		Utilization:    stats.Utilization,
		RecentBookings: ToApiBookings(stats.RecentBookings),
	}
}

func ToApiAdminStats(drivers, pendingSpots int, volume decimal.Decimal) api.AdminStats {
	return api.AdminStats{
		TotalDrivers: drivers,
		PendingSpots: pendingSpots,
		TotalVolume:  volume.InexactFloat64(),
	}
}
