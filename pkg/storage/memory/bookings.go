package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
)

func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[booking.Id]; ok {
		return nil, fmt.Errorf("booking %s: %w", booking.Id, storage.ErrAlreadyExists)
	}
	s.bookings[booking.Id] = copyBooking(booking)
	return copyBooking(booking), nil
}

func (s *Store) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", bookingID, storage.ErrNotFound)
	}
	return copyBooking(b), nil
}

// FinalizeBooking overwrites the booking if its stored status is still from.
func (s *Store) FinalizeBooking(ctx context.Context, b *models.Booking, from models.BookingStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.bookings[b.Id]
	if !ok {
		return fmt.Errorf("booking %s: %w", b.Id, storage.ErrNotFound)
	}
	if stored.Status != from {
		return fmt.Errorf("booking %s is %s: %w", b.Id, stored.Status, storage.ErrStatusConflict)
	}
	s.bookings[b.Id] = copyBooking(b)
	return nil
}

func (s *Store) ListBookingsByDriver(ctx context.Context, driverID string) ([]models.Booking, error) {
	return s.filterBookings(ctx, func(b *models.Booking) bool { return b.DriverId == driverID })
}

func (s *Store) ListBookingsBySpot(ctx context.Context, spotID string) ([]models.Booking, error) {
	return s.filterBookings(ctx, func(b *models.Booking) bool { return b.SpotId == spotID })
}

func (s *Store) ListBookingsByStatus(ctx context.Context, status models.BookingStatus) ([]models.Booking, error) {
	return s.filterBookings(ctx, func(b *models.Booking) bool { return b.Status == status })
}

func (s *Store) ListOverdueBookings(ctx context.Context, now time.Time) ([]models.Booking, error) {
	return s.filterBookings(ctx, func(b *models.Booking) bool {
		return b.Status == models.BookingActive && b.ScheduledEnd.Before(now)
	})
}

// filterBookings returns matching bookings ordered by creation time.
func (s *Store) filterBookings(ctx context.Context, keep func(*models.Booking) bool) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, *copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Id < out[j].Id
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
