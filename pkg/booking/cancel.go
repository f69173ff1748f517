package booking

import (
	"context"
	"fmt"

	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/events"
	"github.com/chris/spot-booking-ledger/pkg/ledger"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"go.opentelemetry.io/otel/attribute"
)

// Cancel cancels an Active booking on behalf of its driver, frees its unit and
// refunds the base amount from the owner.
func (s *Service) Cancel(ctx context.Context, bookingID, requesterID string) (_ *models.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Cancel")
	span.SetAttributes(attribute.String("booking.id", bookingID))
	defer func() { endSpan(span, err) }()

	unlock := s.bookingLocks.Lock(bookingID)
	defer unlock()

	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, lookupErr("booking", bookingID, err)
	}
	if b.DriverId != requesterID {
		return nil, fmt.Errorf("booking %s: %w", bookingID, apperrors.ErrForbidden)
	}
	if b.IsTerminal() {
		return nil, fmt.Errorf("booking %s is %s: %w", bookingID, b.Status, apperrors.ErrInvalidState)
	}

	// The spot lock covers the unit release and its compensation.
	unlockSpot := s.spotLocks.Lock(b.SpotId)
	defer unlockSpot()

	spot, err := s.store.GetSpot(ctx, b.SpotId)
	if err != nil {
		return nil, lookupErr("spot", b.SpotId, err)
	}

	prev := *b
	b.Status = models.BookingCancelled
	b.UpdatedAt = s.clock.Now()

	tx := &saga{op: "cancel", logger: s.logger}

	if err := s.store.FinalizeBooking(ctx, b, models.BookingActive); err != nil {
		return nil, finalizeErr(b, err)
	}
	tx.onFailure("restore booking", func(ctx context.Context) error {
		return s.store.FinalizeBooking(ctx, &prev, models.BookingCancelled)
	})

	if _, err := s.capacity.ReleaseUnit(ctx, spot.Id); err != nil {
		return nil, tx.abort(ctx, err)
	}
	tx.onFailure("re-reserve unit", func(ctx context.Context) error {
		_, err := s.capacity.ReserveUnit(ctx, spot.Id)
		return err
	})

	_, err = s.ledger.Transfer(ctx, ledger.TransferRequest{
		From:              spot.OwnerId,
		To:                b.DriverId,
		Amount:            b.BaseAmount,
		DebitDescription:  fmt.Sprintf("Refund deducted for cancelled booking at %s", spot.Name),
		CreditDescription: fmt.Sprintf("Refund for booking at %s", spot.Name),
		BookingID:         b.Id,
		Optional:          ledger.DebitLeg,
	})
	if err != nil {
		return nil, tx.abort(ctx, err)
	}

	s.logger.Info("booking cancelled", "booking_id", b.Id, "spot_id", spot.Id)
	s.publish(ctx, events.BookingCancelled, b, 0)

	return b, nil
}
