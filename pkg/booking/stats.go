package booking

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/shopspring/decimal"
)

const recentBookingsLimit = 5

// OwnerStats summarizes an owner's spots and the bookings on them.
type OwnerStats struct {
	TotalSpots     int
	TotalRevenue   decimal.Decimal
	ActiveBookings int
	// Utilization is the share of the owner's units currently occupied, in whole percent.
	Utilization    int
	RecentBookings []models.Booking
}

// ListForOwner lists bookings on every spot the owner has, oldest first.
func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]models.Booking, error) {
	spots, err := s.store.ListSpotsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner spots: %w", err)
	}
	return s.bookingsOn(ctx, spots)
}

func (s *Service) bookingsOn(ctx context.Context, spots []models.ParkingSpot) ([]models.Booking, error) {
	out := []models.Booking{}
	for _, spot := range spots {
		bs, err := s.store.ListBookingsBySpot(ctx, spot.Id)
		if err != nil {
			return nil, fmt.Errorf("failed to list bookings for spot %s: %w", spot.Id, err)
		}
		out = append(out, withoutVoided(bs)...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// OwnerStats computes revenue from completed bookings, the active count,
// current utilization and the most recent bookings, newest first.
func (s *Service) OwnerStats(ctx context.Context, ownerID string) (*OwnerStats, error) {
	spots, err := s.store.ListSpotsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner spots: %w", err)
	}
	bookings, err := s.bookingsOn(ctx, spots)
	if err != nil {
		return nil, err
	}

	stats := &OwnerStats{
		TotalSpots:     len(spots),
		TotalRevenue:   decimal.Zero,
		RecentBookings: []models.Booking{},
	}
	for _, b := range bookings {
		switch b.Status {
		case models.BookingCompleted:
			stats.TotalRevenue = stats.TotalRevenue.Add(b.BaseAmount)
		case models.BookingActive:
			stats.ActiveBookings++
		}
	}

	total, occupied := 0, 0
	for _, spot := range spots {
		total += spot.TotalUnits
		occupied += spot.Occupied()
	}
	if total > 0 {
		stats.Utilization = int(math.Round(float64(occupied) / float64(total) * 100))
	}

	for i := len(bookings) - 1; i >= 0 && len(stats.RecentBookings) < recentBookingsLimit; i-- {
		stats.RecentBookings = append(stats.RecentBookings, bookings[i])
	}

	return stats, nil
}

// CompletedVolume sums the base amounts of every Completed booking.
func (s *Service) CompletedVolume(ctx context.Context) (decimal.Decimal, error) {
	completed, err := s.store.ListBookingsByStatus(ctx, models.BookingCompleted)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list completed bookings: %w", err)
	}
	volume := decimal.Zero
	for _, b := range completed {
		volume = volume.Add(b.BaseAmount)
	}
	return volume, nil
}
