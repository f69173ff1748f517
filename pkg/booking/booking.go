// Package booking coordinates a booking's life: it reserves spot capacity,
// moves money through the ledger and prices overtime on completion.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/capacity"
	"github.com/chris/spot-booking-ledger/pkg/clock"
	"github.com/chris/spot-booking-ledger/pkg/events"
	"github.com/chris/spot-booking-ledger/pkg/ledger"
	"github.com/chris/spot-booking-ledger/pkg/lock"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Lifecycle is the booking API consumed by handlers and lambdas.
type Lifecycle interface {
	Create(ctx context.Context, req NewBooking) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID, requesterID string) (*models.Booking, error)
	Complete(ctx context.Context, bookingID string) (*CompletionResult, error)

	Get(ctx context.Context, bookingID string) (*models.Booking, error)
	ListForDriver(ctx context.Context, driverID string) ([]models.Booking, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Booking, error)
	ListOverdue(ctx context.Context) ([]models.Booking, error)
	OwnerStats(ctx context.Context, ownerID string) (*OwnerStats, error)
	CompletedVolume(ctx context.Context) (decimal.Decimal, error)
}

// Store is the storage the lifecycle reads and writes directly.
type Store interface {
	storage.SpotReader
	storage.BookingReader
	storage.BookingWriter
}

// NewBooking is a driver's request to reserve a unit.
type NewBooking struct {
	DriverID string
	SpotID   string
	Date     string
	Time     string
	Amount   decimal.Decimal
}

// CompletionResult is what Complete reports back.
type CompletionResult struct {
	Booking       *models.Booking
	OvertimeHours int64
	OvertimeFee   decimal.Decimal
	TotalAmount   decimal.Decimal
}

// OvertimePolicy decides whether an overtime fee may overdraw a wallet.
type OvertimePolicy string

const (
	OvertimeOverdraftAllowed OvertimePolicy = "allow"
	OvertimeOverdraftDenied  OvertimePolicy = "deny"
)

// Service implements Lifecycle.
type Service struct {
	store    Store
	capacity *capacity.Manager
	ledger   *ledger.Ledger

	clock     clock.Clock
	publisher events.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
	overtime  OvertimePolicy

	spotLocks    lock.Keyed
	bookingLocks lock.Keyed
}

var _ Lifecycle = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

func WithPublisher(p events.Publisher) Option { return func(s *Service) { s.publisher = p } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

func WithTracer(t trace.Tracer) Option { return func(s *Service) { s.tracer = t } }

// WithOvertimePolicy sets the overdraft policy for overtime fees. The default
// lets an overtime debit drive the driver's balance negative.
func WithOvertimePolicy(p OvertimePolicy) Option { return func(s *Service) { s.overtime = p } }

// NewService creates a new Service.
func NewService(store Store, capacity *capacity.Manager, ledger *ledger.Ledger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		capacity:  capacity,
		ledger:    ledger,
		clock:     clock.Real{},
		publisher: &events.NoOpPublisher{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("github.com/chris/spot-booking-ledger/pkg/booking"),
		overtime:  OvertimeOverdraftAllowed,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves a booking by id.
func (s *Service) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, lookupErr("booking", bookingID, err)
	}
	return b, nil
}

// ListForDriver lists the driver's bookings, oldest first. Voided bookings
// are left out.
func (s *Service) ListForDriver(ctx context.Context, driverID string) ([]models.Booking, error) {
	out, err := s.store.ListBookingsByDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list driver bookings: %w", err)
	}
	return withoutVoided(out), nil
}

// ListOverdue lists Active bookings past their scheduled end.
func (s *Service) ListOverdue(ctx context.Context) ([]models.Booking, error) {
	out, err := s.store.ListOverdueBookings(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue bookings: %w", err)
	}
	return out, nil
}

func withoutVoided(bookings []models.Booking) []models.Booking {
	kept := bookings[:0]
	for _, b := range bookings {
		if !b.Voided {
			kept = append(kept, b)
		}
	}
	return kept
}

func (s *Service) publish(ctx context.Context, typ events.Type, b *models.Booking, hours int64) {
	if err := s.publisher.Publish(ctx, events.BookingMessage(typ, b, hours)); err != nil {
		s.logger.Error("failed to publish booking event", "type", typ, "booking_id", b.Id, "error", err)
	}
}

// lookupErr translates a storage miss into the domain NotFound.
func lookupErr(kind, id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, apperrors.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s %s: %w", kind, id, err)
}

// finalizeErr translates a lost conditional write into InvalidState.
func finalizeErr(b *models.Booking, err error) error {
	if errors.Is(err, storage.ErrStatusConflict) {
		return fmt.Errorf("booking %s: %w", b.Id, apperrors.ErrInvalidState)
	}
	return fmt.Errorf("failed to update booking %s: %w", b.Id, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
