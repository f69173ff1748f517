package dynamodb

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/shopspring/decimal"
)

// number stores a decimal as a DynamoDB N attribute so that update
// expressions can do arithmetic on it without losing precision.
type number decimal.Decimal

func (n number) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: decimal.Decimal(n).String()}, nil
}

func (n *number) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	v, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return fmt.Errorf("expected number attribute, got %T", av)
	}
	d, err := decimal.NewFromString(v.Value)
	if err != nil {
		return fmt.Errorf("failed to parse decimal %q: %w", v.Value, err)
	}
	*n = number(d)
	return nil
}

func (n number) value() decimal.Decimal { return decimal.Decimal(n) }

type accountItem struct {
	Id            string    `dynamodbav:"id"`
	Name          string    `dynamodbav:"name"`
	Role          string    `dynamodbav:"role"`
	WalletBalance number    `dynamodbav:"wallet_balance"`
	Favorites     []string  `dynamodbav:"favorites,stringset,omitempty"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
	Version       int64     `dynamodbav:"version"`
}

func toAccountItem(a *models.Account) accountItem {
	return accountItem{
		Id:            a.Id,
		Name:          a.Name,
		Role:          string(a.Role),
		WalletBalance: number(a.WalletBalance),
		Favorites:     a.Favorites,
		CreatedAt:     a.CreatedAt,
	}
}

func (i accountItem) model() *models.Account {
	favs := i.Favorites
	if favs == nil {
		favs = []string{}
	}
	return &models.Account{
		Id:            i.Id,
		Name:          i.Name,
		Role:          models.Role(i.Role),
		WalletBalance: i.WalletBalance.value(),
		Favorites:     favs,
		CreatedAt:     i.CreatedAt,
	}
}

// ledgerItem is keyed by account, sorted by a fixed-width UTC timestamp so
// that a range query returns an account's journal in append order.
type ledgerItem struct {
	AccountId   string    `dynamodbav:"account_id"`
	SK          string    `dynamodbav:"sk"`
	Id          string    `dynamodbav:"id"`
	Kind        string    `dynamodbav:"kind"`
	Amount      number    `dynamodbav:"amount"`
	Description string    `dynamodbav:"description"`
	Status      string    `dynamodbav:"status"`
	BookingId   string    `dynamodbav:"booking_id,omitempty"`
	Timestamp   time.Time `dynamodbav:"timestamp"`
	GSI1PK      string    `dynamodbav:"gsi1pk"`
}

const sortTimeLayout = "2006-01-02T15:04:05.000000000Z"

func ledgerSortKey(t time.Time, id string) string {
	return t.UTC().Format(sortTimeLayout) + "#" + id
}

func toLedgerItem(tx *models.Transaction) ledgerItem {
	return ledgerItem{
		AccountId:   tx.AccountId,
		SK:          ledgerSortKey(tx.Timestamp, tx.Id),
		Id:          tx.Id,
		Kind:        string(tx.Kind),
		Amount:      number(tx.Amount),
		Description: tx.Description,
		Status:      string(tx.Status),
		BookingId:   tx.BookingId,
		Timestamp:   tx.Timestamp,
		GSI1PK:      ledgerPartition,
	}
}

func (i ledgerItem) model() models.Transaction {
	return models.Transaction{
		Id:          i.Id,
		AccountId:   i.AccountId,
		Kind:        models.TransactionKind(i.Kind),
		Amount:      i.Amount.value(),
		Description: i.Description,
		Status:      models.TransactionStatus(i.Status),
		BookingId:   i.BookingId,
		Timestamp:   i.Timestamp,
	}
}

type spotItem struct {
	Id             string    `dynamodbav:"id"`
	OwnerId        string    `dynamodbav:"owner_id"`
	Name           string    `dynamodbav:"name"`
	Location       string    `dynamodbav:"location"`
	PricePerHour   number    `dynamodbav:"price_per_hour"`
	TotalUnits     int       `dynamodbav:"total_units"`
	AvailableUnits int       `dynamodbav:"available_units"`
	Status         string    `dynamodbav:"status"`
	LiveFeedURL    string    `dynamodbav:"live_feed_url,omitempty"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
}

func toSpotItem(s *models.ParkingSpot) spotItem {
	return spotItem{
		Id:             s.Id,
		OwnerId:        s.OwnerId,
		Name:           s.Name,
		Location:       s.Location,
		PricePerHour:   number(s.PricePerHour),
		TotalUnits:     s.TotalUnits,
		AvailableUnits: s.AvailableUnits,
		Status:         string(s.Status),
		LiveFeedURL:    s.LiveFeedURL,
		CreatedAt:      s.CreatedAt,
	}
}

func (i spotItem) model() *models.ParkingSpot {
	return &models.ParkingSpot{
		Id:             i.Id,
		OwnerId:        i.OwnerId,
		Name:           i.Name,
		Location:       i.Location,
		PricePerHour:   i.PricePerHour.value(),
		TotalUnits:     i.TotalUnits,
		AvailableUnits: i.AvailableUnits,
		Status:         models.SpotStatus(i.Status),
		LiveFeedURL:    i.LiveFeedURL,
		CreatedAt:      i.CreatedAt,
	}
}

type bookingItem struct {
	Id             string     `dynamodbav:"id"`
	DriverId       string     `dynamodbav:"driver_id"`
	SpotId         string     `dynamodbav:"spot_id"`
	Date           string     `dynamodbav:"date"`
	Time           string     `dynamodbav:"time"`
	BaseAmount     number     `dynamodbav:"base_amount"`
	Status         string     `dynamodbav:"status"`
	ScheduledStart time.Time  `dynamodbav:"scheduled_start,unixtime"`
	ScheduledEnd   time.Time  `dynamodbav:"scheduled_end,unixtime"`
	ActualEnd      *time.Time `dynamodbav:"actual_end,omitempty"`
	OvertimeFee    number     `dynamodbav:"overtime_fee"`
	TotalAmount    *number    `dynamodbav:"total_amount,omitempty"`
	Voided         bool       `dynamodbav:"voided,omitempty"`
	CreatedAt      time.Time  `dynamodbav:"created_at"`
	UpdatedAt      time.Time  `dynamodbav:"updated_at"`
}

func toBookingItem(b *models.Booking) bookingItem {
	item := bookingItem{
		Id:             b.Id,
		DriverId:       b.DriverId,
		SpotId:         b.SpotId,
		Date:           b.Date,
		Time:           b.Time,
		BaseAmount:     number(b.BaseAmount),
		Status:         string(b.Status),
		ScheduledStart: b.ScheduledStart,
		ScheduledEnd:   b.ScheduledEnd,
		ActualEnd:      b.ActualEnd,
		OvertimeFee:    number(b.OvertimeFee),
		Voided:         b.Voided,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	if b.TotalAmount != nil {
		total := number(*b.TotalAmount)
		item.TotalAmount = &total
	}
	return item
}

func (i bookingItem) model() *models.Booking {
	b := &models.Booking{
		Id:             i.Id,
		DriverId:       i.DriverId,
		SpotId:         i.SpotId,
		Date:           i.Date,
		Time:           i.Time,
		BaseAmount:     i.BaseAmount.value(),
		Status:         models.BookingStatus(i.Status),
		ScheduledStart: i.ScheduledStart.UTC(),
		ScheduledEnd:   i.ScheduledEnd.UTC(),
		ActualEnd:      i.ActualEnd,
		OvertimeFee:    i.OvertimeFee.value(),
		Voided:         i.Voided,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
	if i.TotalAmount != nil {
		total := i.TotalAmount.value()
		b.TotalAmount = &total
	}
	return b
}
