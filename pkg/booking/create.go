package booking

import (
	"context"
	"fmt"

	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/clock"
	"github.com/chris/spot-booking-ledger/pkg/events"
	"github.com/chris/spot-booking-ledger/pkg/ledger"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Create books one unit of a spot for a driver and charges the booking amount.
// Nothing is mutated until the spot, its capacity, the driver's funds and the
// time window have been checked.
func (s *Service) Create(ctx context.Context, req NewBooking) (_ *models.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.Create")
	span.SetAttributes(attribute.String("spot.id", req.SpotID), attribute.String("driver.id", req.DriverID))
	defer func() { endSpan(span, err) }()

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrInvalidArgument)
	}

	unlock := s.spotLocks.Lock(req.SpotID)
	defer unlock()

	spot, err := s.store.GetSpot(ctx, req.SpotID)
	if err != nil {
		return nil, lookupErr("spot", req.SpotID, err)
	}
	if err := s.capacity.Check(spot); err != nil {
		return nil, err
	}

	balance, err := s.ledger.Balance(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(req.Amount) {
		return nil, fmt.Errorf("driver %s balance %s below %s: %w", req.DriverID, balance, req.Amount, apperrors.ErrInsufficientFunds)
	}

	start, end, err := clock.Window(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	b := &models.Booking{
		Id:             uuid.New().String(),
		DriverId:       req.DriverID,
		SpotId:         spot.Id,
		Date:           req.Date,
		Time:           req.Time,
		BaseAmount:     req.Amount,
		Status:         models.BookingActive,
		ScheduledStart: start,
		ScheduledEnd:   end,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx := &saga{op: "create", logger: s.logger}

	created, err := s.store.CreateBooking(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	tx.onFailure("void booking", func(ctx context.Context) error {
		void := *created
		void.Status = models.BookingCancelled
		void.Voided = true
		void.UpdatedAt = s.clock.Now()
		return s.store.FinalizeBooking(ctx, &void, models.BookingActive)
	})

	if _, err := s.capacity.ReserveUnit(ctx, spot.Id); err != nil {
		return nil, tx.abort(ctx, err)
	}
	tx.onFailure("release unit", func(ctx context.Context) error {
		_, err := s.capacity.ReleaseUnit(ctx, spot.Id)
		return err
	})

	_, err = s.ledger.Transfer(ctx, ledger.TransferRequest{
		From:              req.DriverID,
		To:                spot.OwnerId,
		Amount:            req.Amount,
		DebitDescription:  fmt.Sprintf("Booking for %s", spot.Name),
		CreditDescription: fmt.Sprintf("Revenue from booking at %s", spot.Name),
		BookingID:         created.Id,
		Optional:          ledger.CreditLeg,
	})
	if err != nil {
		return nil, tx.abort(ctx, err)
	}

	span.SetAttributes(attribute.String("booking.id", created.Id))
	s.logger.Info("booking created", "booking_id", created.Id, "spot_id", spot.Id, "driver_id", req.DriverID)
	s.publish(ctx, events.BookingCreated, created, 0)

	return created, nil
}
