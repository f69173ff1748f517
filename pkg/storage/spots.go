package storage

import (
	"context"

	"github.com/chris/spot-booking-ledger/pkg/models"
)

// SpotReader defines the interface for reading parking spots.
type SpotReader interface {
	GetSpot(ctx context.Context, spotID string) (*models.ParkingSpot, error)

	// ListSpots retrieves spots with the given status; an empty status lists all.
	ListSpots(ctx context.Context, status models.SpotStatus) ([]models.ParkingSpot, error)

	ListSpotsByOwner(ctx context.Context, ownerID string) ([]models.ParkingSpot, error)
}

// SpotWriter defines the interface for creating, editing and removing spots.
type SpotWriter interface {
	CreateSpot(ctx context.Context, spot *models.ParkingSpot) (*models.ParkingSpot, error)

	SetSpotStatus(ctx context.Context, spotID string, status models.SpotStatus) (*models.ParkingSpot, error)

	// UpdateSpot applies the non-nil changes. A new unit total shifts the
	// available units by the same amount and fails with ErrUnitsInUse when
	// it would drop below the units currently occupied.
	UpdateSpot(ctx context.Context, spotID string, changes models.SpotChanges) (*models.ParkingSpot, error)

	// DeleteSpot removes a spot whose units are all free, failing with
	// ErrUnitsInUse otherwise.
	DeleteSpot(ctx context.Context, spotID string) error
}

// CapacityStore adjusts a spot's available units atomically.
type CapacityStore interface {
	// TakeUnit decrements available units, failing with ErrNoUnitsAvailable at zero.
	TakeUnit(ctx context.Context, spotID string) (*models.ParkingSpot, error)

	// ReturnUnit increments available units, failing with ErrAllUnitsFree at the total.
	ReturnUnit(ctx context.Context, spotID string) (*models.ParkingSpot, error)
}
