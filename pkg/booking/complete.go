package booking

import (
	"context"
	"fmt"

	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/events"
	"github.com/chris/spot-booking-ledger/pkg/ledger"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/overtime"
	"go.opentelemetry.io/otel/attribute"
)

// Complete closes an Active booking now, charging whole hours of overtime past
// its scheduled end, and frees its unit.
func (s *Service) Complete(ctx context.Context, bookingID string) (_ *CompletionResult, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Complete")
	span.SetAttributes(attribute.String("booking.id", bookingID))
	defer func() { endSpan(span, err) }()

	unlock := s.bookingLocks.Lock(bookingID)
	defer unlock()

	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, lookupErr("booking", bookingID, err)
	}
	if b.IsTerminal() {
		return nil, fmt.Errorf("booking %s is %s: %w", bookingID, b.Status, apperrors.ErrInvalidState)
	}

	spot, err := s.store.GetSpot(ctx, b.SpotId)
	if err != nil {
		return nil, lookupErr("spot", b.SpotId, err)
	}

	now := s.clock.Now()
	hours, fee := overtime.Calculate(b.ScheduledEnd, now, spot.PricePerHour)
	span.SetAttributes(attribute.Int64("overtime.hours", hours))

	tx := &saga{op: "complete", logger: s.logger}

	if fee.IsPositive() {
		if s.overtime == OvertimeOverdraftDenied {
			balance, err := s.ledger.Balance(ctx, b.DriverId)
			if err != nil {
				return nil, err
			}
			if balance.LessThan(fee) {
				return nil, fmt.Errorf("driver %s cannot cover overtime %s: %w", b.DriverId, fee, apperrors.ErrInsufficientFunds)
			}
		}

		res, err := s.ledger.Transfer(ctx, ledger.TransferRequest{
			From:              b.DriverId,
			To:                spot.OwnerId,
			Amount:            fee,
			DebitDescription:  fmt.Sprintf("Overtime fee (%d hrs) for %s", hours, spot.Name),
			CreditDescription: fmt.Sprintf("Overtime revenue for %s", spot.Name),
			BookingID:         b.Id,
			Optional:          ledger.CreditLeg,
		})
		if err != nil {
			return nil, err
		}
		tx.onFailure("reverse overtime", func(ctx context.Context) error {
			return s.ledger.Reverse(ctx, res)
		})
	}

	prev := *b
	total := b.BaseAmount.Add(fee)
	b.Status = models.BookingCompleted
	b.ActualEnd = &now
	b.OvertimeFee = fee
	b.TotalAmount = &total
	b.UpdatedAt = now

	if err := s.store.FinalizeBooking(ctx, b, models.BookingActive); err != nil {
		return nil, tx.abort(ctx, finalizeErr(b, err))
	}
	tx.onFailure("reopen booking", func(ctx context.Context) error {
		return s.store.FinalizeBooking(ctx, &prev, models.BookingCompleted)
	})

	if _, err := s.capacity.ReleaseUnit(ctx, spot.Id); err != nil {
		return nil, tx.abort(ctx, err)
	}

	s.logger.Info("booking completed", "booking_id", b.Id, "overtime_hours", hours, "overtime_fee", fee.String())
	s.publish(ctx, events.BookingCompleted, b, hours)

	return &CompletionResult{
		Booking:       b,
		OvertimeHours: hours,
		OvertimeFee:   fee,
		TotalAmount:   total,
	}, nil
}
