package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
)

func (s *Store) CreateSpot(ctx context.Context, spot *models.ParkingSpot) (*models.ParkingSpot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spots[spot.Id]; ok {
		return nil, fmt.Errorf("spot %s: %w", spot.Id, storage.ErrAlreadyExists)
	}
	s.spots[spot.Id] = copySpot(spot)
	return copySpot(spot), nil
}

func (s *Store) GetSpot(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	spot, ok := s.spots[spotID]
	if !ok {
		return nil, fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
	}
	return copySpot(spot), nil
}

func (s *Store) ListSpots(ctx context.Context, status models.SpotStatus) ([]models.ParkingSpot, error) {
	return s.filterSpots(ctx, func(p *models.ParkingSpot) bool {
		return status == "" || p.Status == status
	})
}

func (s *Store) ListSpotsByOwner(ctx context.Context, ownerID string) ([]models.ParkingSpot, error) {
	return s.filterSpots(ctx, func(p *models.ParkingSpot) bool {
		return p.OwnerId == ownerID
	})
}

func (s *Store) filterSpots(ctx context.Context, keep func(*models.ParkingSpot) bool) ([]models.ParkingSpot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.ParkingSpot{}
	for _, p := range s.spots {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SetSpotStatus(ctx context.Context, spotID string, status models.SpotStatus) (*models.ParkingSpot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	spot, ok := s.spots[spotID]
	if !ok {
		return nil, fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
	}
	spot.Status = status
	return copySpot(spot), nil
}

// TakeUnit decrements the spot's available units.
func (s *Store) TakeUnit(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	spot, ok := s.spots[spotID]
	if !ok {
		return nil, fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
	}
	if spot.AvailableUnits <= 0 {
		return nil, fmt.Errorf("spot %s: %w", spotID, storage.ErrNoUnitsAvailable)
	}
	spot.AvailableUnits--
	return copySpot(spot), nil
}

// ReturnUnit increments the spot's available units.
func (s *Store) ReturnUnit(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	spot, ok := s.spots[spotID]
	if !ok {
		return nil, fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
	}
	if spot.AvailableUnits >= spot.TotalUnits {
		return nil, fmt.Errorf("spot %s: %w", spotID, storage.ErrAllUnitsFree)
	}
	spot.AvailableUnits++
	return copySpot(spot), nil
}

// UpdateSpot applies changes, keeping the occupied unit count fixed.
func (s *Store) UpdateSpot(ctx context.Context, spotID string, changes models.SpotChanges) (*models.ParkingSpot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	spot, ok := s.spots[spotID]
	if !ok {
		return nil, fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
	}
	if changes.TotalUnits != nil && *changes.TotalUnits < spot.Occupied() {
		return nil, fmt.Errorf("spot %s has %d units occupied: %w", spotID, spot.Occupied(), storage.ErrUnitsInUse)
	}

	if changes.Name != nil {
		spot.Name = *changes.Name
	}
	if changes.Location != nil {
		spot.Location = *changes.Location
	}
	if changes.PricePerHour != nil {
		spot.PricePerHour = *changes.PricePerHour
	}
	if changes.LiveFeedURL != nil {
		spot.LiveFeedURL = *changes.LiveFeedURL
	}
	if changes.TotalUnits != nil {
		spot.AvailableUnits += *changes.TotalUnits - spot.TotalUnits
		spot.TotalUnits = *changes.TotalUnits
	}
	return copySpot(spot), nil
}

// DeleteSpot removes a spot with no occupied units.
func (s *Store) DeleteSpot(ctx context.Context, spotID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	spot, ok := s.spots[spotID]
	if !ok {
		return fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
	}
	if spot.Occupied() > 0 {
		return fmt.Errorf("spot %s has %d units occupied: %w", spotID, spot.Occupied(), storage.ErrUnitsInUse)
	}
	delete(s.spots, spotID)
	return nil
}
