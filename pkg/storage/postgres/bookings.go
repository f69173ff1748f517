package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const bookingColumns = `id, driver_id, spot_id, date, time_range, base_amount::text, status,
	scheduled_start, scheduled_end, actual_end, overtime_fee::text, total_amount::text, voided, created_at, updated_at`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b                 models.Booking
		base, fee, status string
		total             *string
	)
	err := row.Scan(&b.Id, &b.DriverId, &b.SpotId, &b.Date, &b.Time, &base, &status,
		&b.ScheduledStart, &b.ScheduledEnd, &b.ActualEnd, &fee, &total, &b.Voided, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if b.BaseAmount, err = parseDecimal(base); err != nil {
		return nil, err
	}
	if b.OvertimeFee, err = parseDecimal(fee); err != nil {
		return nil, err
	}
	if total != nil {
		d, err := parseDecimal(*total)
		if err != nil {
			return nil, err
		}
		b.TotalAmount = &d
	}
	b.Status = models.BookingStatus(status)
	b.ScheduledStart = b.ScheduledStart.UTC()
	b.ScheduledEnd = b.ScheduledEnd.UTC()
	return &b, nil
}

func totalText(b *models.Booking) *string {
	if b.TotalAmount == nil {
		return nil
	}
	s := b.TotalAmount.String()
	return &s
}

func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO bookings (id, driver_id, spot_id, date, time_range, base_amount, status,
		                       scheduled_start, scheduled_end, actual_end, overtime_fee, total_amount, voided, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11::numeric, $12::numeric, $13, $14, $15)
		 RETURNING `+bookingColumns,
		booking.Id, booking.DriverId, booking.SpotId, booking.Date, booking.Time, booking.BaseAmount.String(),
		string(booking.Status), booking.ScheduledStart, booking.ScheduledEnd, booking.ActualEnd,
		booking.OvertimeFee.String(), totalText(booking), booking.Voided, booking.CreatedAt, booking.UpdatedAt,
	)
	created, err := scanBooking(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("booking %s: %w", booking.Id, storage.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return created, nil
}

func (s *Store) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := scanBooking(s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("booking %s: %w", bookingID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// FinalizeBooking updates the mutable columns only while the status is still from.
func (s *Store) FinalizeBooking(ctx context.Context, b *models.Booking, from models.BookingStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE bookings
		 SET status = $2, actual_end = $3, overtime_fee = $4::numeric, total_amount = $5::numeric, updated_at = $6, voided = $8
		 WHERE id = $1 AND status = $7`,
		b.Id, string(b.Status), b.ActualEnd, b.OvertimeFee.String(), totalText(b), b.UpdatedAt, string(from), b.Voided,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	ok, err := s.exists(ctx, "bookings", b.Id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("booking %s: %w", b.Id, storage.ErrNotFound)
	}
	return fmt.Errorf("booking %s: %w", b.Id, storage.ErrStatusConflict)
}

func (s *Store) ListBookingsByDriver(ctx context.Context, driverID string) ([]models.Booking, error) {
	return s.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE driver_id = $1 ORDER BY created_at, id`, driverID)
}

func (s *Store) ListBookingsBySpot(ctx context.Context, spotID string) ([]models.Booking, error) {
	return s.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE spot_id = $1 ORDER BY created_at, id`, spotID)
}

func (s *Store) ListBookingsByStatus(ctx context.Context, status models.BookingStatus) ([]models.Booking, error) {
	return s.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE status = $1 ORDER BY created_at, id`, string(status))
}

func (s *Store) ListOverdueBookings(ctx context.Context, now time.Time) ([]models.Booking, error) {
	return s.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE status = $1 AND scheduled_end < $2 ORDER BY created_at, id`,
		string(models.BookingActive), now)
}

func (s *Store) queryBookings(ctx context.Context, sql string, args ...any) ([]models.Booking, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
