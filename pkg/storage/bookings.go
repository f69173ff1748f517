package storage

import (
	"context"
	"time"

	"github.com/chris/spot-booking-ledger/pkg/models"
)

// BookingReader defines the interface for reading bookings.
type BookingReader interface {
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)

	ListBookingsByDriver(ctx context.Context, driverID string) ([]models.Booking, error)

	ListBookingsBySpot(ctx context.Context, spotID string) ([]models.Booking, error)

	ListBookingsByStatus(ctx context.Context, status models.BookingStatus) ([]models.Booking, error)

	// ListOverdueBookings retrieves Active bookings whose scheduled end is before now.
	ListOverdueBookings(ctx context.Context, now time.Time) ([]models.Booking, error)
}

// BookingWriter is used by the booking lifecycle only.
type BookingWriter interface {
	CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error)

	// FinalizeBooking replaces the stored booking with b if its stored status
	// still equals from, and fails with ErrStatusConflict otherwise.
	FinalizeBooking(ctx context.Context, b *models.Booking, from models.BookingStatus) error
}
