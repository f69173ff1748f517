// Package capacity tracks how many units of a parking spot are free.
package capacity

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
)

// ErrDoubleRelease is returned when a unit is released on a spot whose units are all free.
var ErrDoubleRelease = fmt.Errorf("%w: unit released twice", apperrors.ErrInvalidState)

// Manager reserves and releases spot units through an atomic store.
type Manager struct {
	store storage.CapacityStore
}

// NewManager creates a new Manager.
func NewManager(store storage.CapacityStore) *Manager {
	return &Manager{store: store}
}

// Check fails with ErrCapacityExceeded when the spot has no free unit.
func (m *Manager) Check(spot *models.ParkingSpot) error {
	if spot.AvailableUnits <= 0 {
		return fmt.Errorf("spot %s: %w", spot.Id, apperrors.ErrCapacityExceeded)
	}
	return nil
}

// ReserveUnit takes one unit of the spot.
func (m *Manager) ReserveUnit(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	spot, err := m.store.TakeUnit(ctx, spotID)
	switch {
	case err == nil:
		return spot, nil
	case errors.Is(err, storage.ErrNoUnitsAvailable):
		return nil, fmt.Errorf("spot %s: %w", spotID, apperrors.ErrCapacityExceeded)
	case errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("spot %s: %w", spotID, apperrors.ErrNotFound)
	default:
		return nil, fmt.Errorf("failed to reserve unit: %w", err)
	}
}

// ReleaseUnit gives one unit back to the spot. Releasing on a fully free spot
// is reported as ErrDoubleRelease and leaves the spot unchanged.
func (m *Manager) ReleaseUnit(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	spot, err := m.store.ReturnUnit(ctx, spotID)
	switch {
	case err == nil:
		return spot, nil
	case errors.Is(err, storage.ErrAllUnitsFree):
		return nil, fmt.Errorf("spot %s: %w", spotID, ErrDoubleRelease)
	case errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("spot %s: %w", spotID, apperrors.ErrNotFound)
	default:
		return nil, fmt.Errorf("failed to release unit: %w", err)
	}
}
