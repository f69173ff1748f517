package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to TEST_DATABASE_URL and skips the test when it is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.Migrate(ctx))
	return s
}

func newID() string { return uuid.NewString() }

func TestAccountsAndLedger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	acc, err := s.CreateAccount(ctx, &models.Account{Id: newID(), Name: "Dana", Role: models.RoleDriver, CreatedAt: now})
	require.NoError(t, err)
	assert.True(t, acc.WalletBalance.IsZero())
	assert.Empty(t, acc.Favorites)

	_, err = s.CreateAccount(ctx, &models.Account{Id: acc.Id, Role: models.RoleDriver, CreatedAt: now})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	bal, err := s.AppendEntry(ctx, &models.Transaction{
		Id: newID(), AccountId: acc.Id, Kind: models.CREDIT, Amount: decimal.RequireFromString("50.25"),
		Description: "Added funds to wallet", Status: models.TransactionCompleted, Timestamp: now,
	})
	require.NoError(t, err)
	assert.Equal(t, "50.25", bal.String())

	bal, err = s.AppendEntry(ctx, &models.Transaction{
		Id: newID(), AccountId: acc.Id, Kind: models.DEBIT, Amount: decimal.NewFromInt(10),
		Description: "Booking for Lot A", Status: models.TransactionCompleted, BookingId: "b1", Timestamp: now,
	})
	require.NoError(t, err)
	assert.Equal(t, "40.25", bal.String())

	_, err = s.AppendEntry(ctx, &models.Transaction{
		Id: newID(), AccountId: newID(), Kind: models.CREDIT, Amount: decimal.NewFromInt(1), Timestamp: now,
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := s.GetAccount(ctx, acc.Id)
	require.NoError(t, err)
	require.Len(t, got.Transactions, 2)
	assert.Equal(t, models.CREDIT, got.Transactions[0].Kind)
	assert.Equal(t, "b1", got.Transactions[1].BookingId)

	favs, err := s.ToggleFavorite(ctx, acc.Id, "spot1")
	require.NoError(t, err)
	assert.Equal(t, []string{"spot1"}, favs)
	favs, err = s.ToggleFavorite(ctx, acc.Id, "spot1")
	require.NoError(t, err)
	assert.Empty(t, favs)

	_, err = s.GetAccount(ctx, newID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUnits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	spot, err := s.CreateSpot(ctx, &models.ParkingSpot{
		Id: newID(), OwnerId: newID(), Name: "Lot A", Location: "MG Road", PricePerHour: decimal.NewFromInt(5),
		TotalUnits: 2, AvailableUnits: 2, Status: models.SpotActive, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = s.ReturnUnit(ctx, spot.Id)
	assert.ErrorIs(t, err, storage.ErrAllUnitsFree)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.TakeUnit(ctx, spot.Id)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	taken := 0
	for err := range errs {
		if err == nil {
			taken++
			continue
		}
		assert.ErrorIs(t, err, storage.ErrNoUnitsAvailable)
	}
	assert.Equal(t, 2, taken)

	got, err := s.GetSpot(ctx, spot.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableUnits)

	_, err = s.TakeUnit(ctx, newID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFinalizeBooking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	b, err := s.CreateBooking(ctx, &models.Booking{
		Id: newID(), DriverId: newID(), SpotId: newID(), Date: "2024-05-01", Time: "14:00 - 15:00",
		BaseAmount: decimal.NewFromInt(5), Status: models.BookingActive,
		ScheduledStart: start, ScheduledEnd: start.Add(time.Hour), CreatedAt: start, UpdatedAt: start,
	})
	require.NoError(t, err)
	assert.Nil(t, b.TotalAmount)
	assert.Nil(t, b.ActualEnd)

	overdue, err := s.ListOverdueBookings(ctx, start.Add(2*time.Hour))
	require.NoError(t, err)
	ids := make([]string, 0, len(overdue))
	for _, o := range overdue {
		ids = append(ids, o.Id)
	}
	assert.Contains(t, ids, b.Id)

	end := start.Add(90 * time.Minute)
	total := decimal.NewFromInt(10)
	b.Status = models.BookingCompleted
	b.ActualEnd = &end
	b.OvertimeFee = decimal.NewFromInt(5)
	b.TotalAmount = &total
	require.NoError(t, s.FinalizeBooking(ctx, b, models.BookingActive))

	err = s.FinalizeBooking(ctx, b, models.BookingActive)
	assert.ErrorIs(t, err, storage.ErrStatusConflict)

	got, err := s.GetBooking(ctx, b.Id)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, got.Status)
	require.NotNil(t, got.TotalAmount)
	assert.True(t, got.TotalAmount.Equal(total))
	require.NotNil(t, got.ActualEnd)
	assert.True(t, got.ActualEnd.Equal(end))

	missing := *b
	missing.Id = newID()
	assert.ErrorIs(t, s.FinalizeBooking(ctx, &missing, models.BookingActive), storage.ErrNotFound)
}

func TestUpdateAndDeleteSpot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	spot, err := s.CreateSpot(ctx, &models.ParkingSpot{
		Id: newID(), OwnerId: newID(), Name: "Lot B", Location: "Indiranagar", PricePerHour: decimal.NewFromInt(5),
		TotalUnits: 3, AvailableUnits: 3, Status: models.SpotActive, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	_, err = s.TakeUnit(ctx, spot.Id)
	require.NoError(t, err)

	name, price, units := "Lot B2", decimal.RequireFromString("7.5"), 5
	got, err := s.UpdateSpot(ctx, spot.Id, models.SpotChanges{Name: &name, PricePerHour: &price, TotalUnits: &units})
	require.NoError(t, err)
	assert.Equal(t, "Lot B2", got.Name)
	assert.Equal(t, "Indiranagar", got.Location)
	assert.Equal(t, "7.5", got.PricePerHour.String())
	assert.Equal(t, 5, got.TotalUnits)
	assert.Equal(t, 4, got.AvailableUnits)

	zero := 0
	_, err = s.UpdateSpot(ctx, spot.Id, models.SpotChanges{TotalUnits: &zero})
	assert.ErrorIs(t, err, storage.ErrUnitsInUse)

	assert.ErrorIs(t, s.DeleteSpot(ctx, spot.Id), storage.ErrUnitsInUse)
	_, err = s.ReturnUnit(ctx, spot.Id)
	require.NoError(t, err)
	require.NoError(t, s.DeleteSpot(ctx, spot.Id))
	assert.ErrorIs(t, s.DeleteSpot(ctx, spot.Id), storage.ErrNotFound)

	_, err = s.UpdateSpot(ctx, spot.Id, models.SpotChanges{Name: &name})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRenameAndDeleteAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	acc, err := s.CreateAccount(ctx, &models.Account{Id: newID(), Name: "Ravi", Role: models.RoleOwner, CreatedAt: now})
	require.NoError(t, err)
	entryID := newID()
	_, err = s.AppendEntry(ctx, &models.Transaction{
		Id: entryID, AccountId: acc.Id, Kind: models.CREDIT, Amount: decimal.NewFromInt(1),
		Description: "Added funds to wallet", Status: models.TransactionCompleted, Timestamp: now,
	})
	require.NoError(t, err)

	renamed, err := s.RenameAccount(ctx, acc.Id, "Ravi K")
	require.NoError(t, err)
	assert.Equal(t, "Ravi K", renamed.Name)

	require.NoError(t, s.DeleteAccount(ctx, acc.Id))
	assert.ErrorIs(t, s.DeleteAccount(ctx, acc.Id), storage.ErrNotFound)
	_, err = s.RenameAccount(ctx, acc.Id, "x")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	entries, err := s.ListLedgerEntries(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Id)
	}
	assert.Contains(t, ids, entryID)
}

func TestVoidedBookingRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	b, err := s.CreateBooking(ctx, &models.Booking{
		Id: newID(), DriverId: newID(), SpotId: newID(), Date: "2024-05-01", Time: "14:00 - 15:00",
		BaseAmount: decimal.NewFromInt(5), Status: models.BookingActive,
		ScheduledStart: now, ScheduledEnd: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.False(t, b.Voided)

	b.Status = models.BookingCancelled
	b.Voided = true
	require.NoError(t, s.FinalizeBooking(ctx, b, models.BookingActive))

	got, err := s.GetBooking(ctx, b.Id)
	require.NoError(t, err)
	assert.True(t, got.Voided)

	cancelled, err := s.ListBookingsByStatus(ctx, models.BookingCancelled)
	require.NoError(t, err)
	ids := make([]string, 0, len(cancelled))
	for _, c := range cancelled {
		ids = append(ids, c.Id)
	}
	assert.Contains(t, ids, b.Id)
}
