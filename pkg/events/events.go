// Package events publishes booking and wallet lifecycle notifications.
package events

import (
	"context"
	"time"

	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/shopspring/decimal"
)

// Type defines the kind of an event.
type Type string

const (
	BookingCreated   Type = "booking.created"
	BookingCancelled Type = "booking.cancelled"
	BookingCompleted Type = "booking.completed"
	BookingOverdue   Type = "booking.overdue"
	WalletUpdated    Type = "wallet.updated"
)

// Message is the envelope every backend serializes.
type Message struct {
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// BookingPayload is the payload of the booking.* events.
type BookingPayload struct {
	BookingID     string           `json:"booking_id"`
	DriverID      string           `json:"driver_id"`
	SpotID        string           `json:"spot_id"`
	Status        string           `json:"status"`
	BaseAmount    decimal.Decimal  `json:"base_amount"`
	OvertimeHours int64            `json:"overtime_hours,omitempty"`
	OvertimeFee   decimal.Decimal  `json:"overtime_fee"`
	TotalAmount   *decimal.Decimal `json:"total_amount,omitempty"`
	ScheduledEnd  time.Time        `json:"scheduled_end"`
}

// BookingMessage builds a booking.* event for b.
func BookingMessage(typ Type, b *models.Booking, overtimeHours int64) Message {
	return Message{
		Type: typ,
		Payload: BookingPayload{
			BookingID:     b.Id,
			DriverID:      b.DriverId,
			SpotID:        b.SpotId,
			Status:        string(b.Status),
			BaseAmount:    b.BaseAmount,
			OvertimeHours: overtimeHours,
			OvertimeFee:   b.OvertimeFee,
			TotalAmount:   b.TotalAmount,
			ScheduledEnd:  b.ScheduledEnd,
		},
	}
}

// WalletUpdatePayload is the payload for a wallet.updated message.
type WalletUpdatePayload struct {
	AccountID     string          `json:"account_id"`
	TransactionID string          `json:"transaction_id"`
	Change        decimal.Decimal `json:"change"`
	NewBalance    decimal.Decimal `json:"new_balance"`
}

// Publisher defines the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, message Message) error
}

// NoOpPublisher is a publisher that does nothing.
type NoOpPublisher struct{}

// Publish does nothing.
func (p *NoOpPublisher) Publish(ctx context.Context, message Message) error {
	return nil
}
