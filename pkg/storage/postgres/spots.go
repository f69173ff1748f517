package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const spotColumns = `id, owner_id, name, location, price_per_hour::text, total_units, available_units, status, live_feed_url, created_at`

func scanSpot(row rowScanner) (*models.ParkingSpot, error) {
	var (
		p      models.ParkingSpot
		price  string
		status string
	)
	if err := row.Scan(&p.Id, &p.OwnerId, &p.Name, &p.Location, &price, &p.TotalUnits, &p.AvailableUnits, &status, &p.LiveFeedURL, &p.CreatedAt); err != nil {
		return nil, err
	}
	d, err := parseDecimal(price)
	if err != nil {
		return nil, err
	}
	p.PricePerHour = d
	p.Status = models.SpotStatus(status)
	return &p, nil
}

func (s *Store) CreateSpot(ctx context.Context, spot *models.ParkingSpot) (*models.ParkingSpot, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO spots (id, owner_id, name, location, price_per_hour, total_units, available_units, status, live_feed_url, created_at)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10)
		 RETURNING `+spotColumns,
		spot.Id, spot.OwnerId, spot.Name, spot.Location, spot.PricePerHour.String(),
		spot.TotalUnits, spot.AvailableUnits, string(spot.Status), spot.LiveFeedURL, spot.CreatedAt,
	)
	created, err := scanSpot(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("spot %s: %w", spot.Id, storage.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("insert spot: %w", err)
	}
	return created, nil
}

func (s *Store) GetSpot(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	spot, err := scanSpot(s.db.QueryRow(ctx, `SELECT `+spotColumns+` FROM spots WHERE id = $1`, spotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("get spot: %w", err)
	}
	return spot, nil
}

func (s *Store) ListSpots(ctx context.Context, status models.SpotStatus) ([]models.ParkingSpot, error) {
	return s.querySpots(ctx, `SELECT `+spotColumns+` FROM spots WHERE $1 = '' OR status = $1 ORDER BY created_at`, string(status))
}

func (s *Store) ListSpotsByOwner(ctx context.Context, ownerID string) ([]models.ParkingSpot, error) {
	return s.querySpots(ctx, `SELECT `+spotColumns+` FROM spots WHERE owner_id = $1 ORDER BY created_at`, ownerID)
}

func (s *Store) querySpots(ctx context.Context, sql string, args ...any) ([]models.ParkingSpot, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	defer rows.Close()

	spots := []models.ParkingSpot{}
	for rows.Next() {
		p, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		spots = append(spots, *p)
	}
	return spots, rows.Err()
}

func (s *Store) SetSpotStatus(ctx context.Context, spotID string, status models.SpotStatus) (*models.ParkingSpot, error) {
	spot, err := scanSpot(s.db.QueryRow(ctx,
		`UPDATE spots SET status = $2 WHERE id = $1 RETURNING `+spotColumns, spotID, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("update spot status: %w", err)
	}
	return spot, nil
}

// TakeUnit decrements available units with a guarded UPDATE; the row lock it
// takes serializes concurrent reservations on the same spot.
func (s *Store) TakeUnit(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	return s.adjustUnits(ctx, spotID,
		`UPDATE spots SET available_units = available_units - 1
		 WHERE id = $1 AND available_units > 0
		 RETURNING `+spotColumns,
		storage.ErrNoUnitsAvailable)
}

// ReturnUnit increments available units while below the total.
func (s *Store) ReturnUnit(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	return s.adjustUnits(ctx, spotID,
		`UPDATE spots SET available_units = available_units + 1
		 WHERE id = $1 AND available_units < total_units
		 RETURNING `+spotColumns,
		storage.ErrAllUnitsFree)
}

// UpdateSpot applies the non-nil changes in one guarded UPDATE. Every SET
// expression reads the pre-update row, so available_units shifts by the
// change in total_units.
func (s *Store) UpdateSpot(ctx context.Context, spotID string, changes models.SpotChanges) (*models.ParkingSpot, error) {
	var price *string
	if changes.PricePerHour != nil {
		p := changes.PricePerHour.String()
		price = &p
	}
	return s.adjustUnits(ctx, spotID,
		`UPDATE spots
		 SET name            = COALESCE($2::text, name),
		     location        = COALESCE($3::text, location),
		     price_per_hour  = COALESCE($4::numeric, price_per_hour),
		     live_feed_url   = COALESCE($5::text, live_feed_url),
		     available_units = available_units + COALESCE($6::int, total_units) - total_units,
		     total_units     = COALESCE($6::int, total_units)
		 WHERE id = $1 AND COALESCE($6::int, total_units) >= total_units - available_units
		 RETURNING `+spotColumns,
		storage.ErrUnitsInUse,
		changes.Name, changes.Location, price, changes.LiveFeedURL, changes.TotalUnits)
}

// DeleteSpot removes the spot only while every unit is free.
func (s *Store) DeleteSpot(ctx context.Context, spotID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM spots WHERE id = $1 AND available_units = total_units`, spotID)
	if err != nil {
		return fmt.Errorf("delete spot: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	ok, err := s.exists(ctx, "spots", spotID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
	}
	return fmt.Errorf("spot %s: %w", spotID, storage.ErrUnitsInUse)
}

func (s *Store) adjustUnits(ctx context.Context, spotID, sql string, onConflict error, args ...any) (*models.ParkingSpot, error) {
	spot, err := scanSpot(s.db.QueryRow(ctx, sql, append([]any{spotID}, args...)...))
	if err == nil {
		return spot, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjust units: %w", err)
	}

	ok, err := s.exists(ctx, "spots", spotID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
	}
	return nil, fmt.Errorf("spot %s: %w", spotID, onConflict)
}
