package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/capacity"
	"github.com/chris/spot-booking-ledger/pkg/clock"
	"github.com/chris/spot-booking-ledger/pkg/events"
	"github.com/chris/spot-booking-ledger/pkg/ledger"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store    *memory.Store
	ledger   *ledger.Ledger
	svc      *Service
	clock    *fakeClock
	recorder *events.Recorder
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// newFixture seeds a driver with $50, an owner, and "Lot A" with 3 of 5 units free at $5/h.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	fc := &fakeClock{now: time.Date(2024, 5, 1, 4, 0, 0, 0, time.UTC)}
	rec := &events.Recorder{}

	_, err := store.CreateAccount(ctx, &models.Account{Id: "driver", Role: models.RoleDriver})
	require.NoError(t, err)
	_, err = store.CreateAccount(ctx, &models.Account{Id: "owner", Role: models.RoleOwner})
	require.NoError(t, err)
	_, err = store.CreateSpot(ctx, &models.ParkingSpot{
		Id: "spot1", OwnerId: "owner", Name: "Lot A", PricePerHour: dec("5"),
		TotalUnits: 5, AvailableUnits: 3, Status: models.SpotActive,
	})
	require.NoError(t, err)

	l := ledger.New(store, ledger.WithClock(fc))
	_, err = l.TopUp(ctx, "driver", dec("50"))
	require.NoError(t, err)

	opts = append([]Option{WithClock(fc), WithPublisher(rec)}, opts...)
	svc := NewService(store, capacity.NewManager(store), l, opts...)
	return &fixture{store: store, ledger: l, svc: svc, clock: fc, recorder: rec}
}

func (f *fixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	b, err := f.ledger.Balance(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) available(t *testing.T) int {
	t.Helper()
	spot, err := f.store.GetSpot(context.Background(), "spot1")
	require.NoError(t, err)
	return spot.AvailableUnits
}

func (f *fixture) book(t *testing.T) *models.Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), NewBooking{
		DriverID: "driver", SpotID: "spot1", Date: "2024-05-01", Time: "12:00 - 14:00", Amount: dec("11"),
	})
	require.NoError(t, err)
	return b
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t)

		assert.Equal(t, models.BookingActive, b.Status)
		assert.Equal(t, time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC), b.ScheduledStart)
		assert.Equal(t, time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC), b.ScheduledEnd)
		assert.True(t, b.OvertimeFee.IsZero())
		assert.Nil(t, b.TotalAmount)

		assert.True(t, f.balance(t, "driver").Equal(dec("39")))
		assert.True(t, f.balance(t, "owner").Equal(dec("11")))
		assert.Equal(t, 2, f.available(t))

		driver, _ := f.store.GetAccount(ctx, "driver")
		last := driver.Transactions[len(driver.Transactions)-1]
		assert.Equal(t, "Booking for Lot A", last.Description)
		assert.Equal(t, b.Id, last.BookingId)
		owner, _ := f.store.GetAccount(ctx, "owner")
		assert.Equal(t, "Revenue from booking at Lot A", owner.Transactions[0].Description)

		assert.Equal(t, []events.Type{events.BookingCreated}, f.recorder.Types())
	})

	t.Run("Spot Not Found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, NewBooking{DriverID: "driver", SpotID: "ghost", Date: "2024-05-01", Time: "12:00 - 14:00", Amount: dec("11")})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Capacity Exceeded Before Funds", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.store.CreateSpot(ctx, &models.ParkingSpot{Id: "full", OwnerId: "owner", TotalUnits: 1, AvailableUnits: 0})
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, NewBooking{DriverID: "driver", SpotID: "full", Date: "2024-05-01", Time: "12:00 - 14:00", Amount: dec("1000")})
		assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)
	})

	t.Run("Insufficient Funds", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, NewBooking{DriverID: "driver", SpotID: "spot1", Date: "2024-05-01", Time: "12:00 - 14:00", Amount: dec("50.01")})
		assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

		assert.True(t, f.balance(t, "driver").Equal(dec("50")))
		assert.Equal(t, 3, f.available(t))
		bs, _ := f.store.ListBookingsByDriver(ctx, "driver")
		assert.Empty(t, bs)
	})

	t.Run("Malformed Time Range", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, NewBooking{DriverID: "driver", SpotID: "spot1", Date: "2024-05-01", Time: "noon", Amount: dec("11")})
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		assert.Equal(t, 3, f.available(t))
	})

	t.Run("Owner Missing Still Books", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.store.CreateSpot(ctx, &models.ParkingSpot{Id: "orphan", OwnerId: "gone", Name: "Lot B", TotalUnits: 2, AvailableUnits: 2, PricePerHour: dec("5")})
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, NewBooking{DriverID: "driver", SpotID: "orphan", Date: "2024-05-01", Time: "12:00 - 14:00", Amount: dec("11")})
		require.NoError(t, err)
		assert.True(t, f.balance(t, "driver").Equal(dec("39")))
	})

	t.Run("Concurrent Creates Respect Capacity", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.TopUp(ctx, "driver", dec("1000"))
		require.NoError(t, err)

		var wg sync.WaitGroup
		var mu sync.Mutex
		ok, full := 0, 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.Create(ctx, NewBooking{DriverID: "driver", SpotID: "spot1", Date: "2024-05-01", Time: "12:00 - 14:00", Amount: dec("1")})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					ok++
				} else if errors.Is(err, apperrors.ErrCapacityExceeded) {
					full++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 3, ok)
		assert.Equal(t, 7, full)
		assert.Equal(t, 0, f.available(t))
	})
}

// failingLedgerStore fails AppendEntry for one account.
type failingLedgerStore struct {
	*memory.Store
	failFor string
}

func (s *failingLedgerStore) AppendEntry(ctx context.Context, entry *models.Transaction) (decimal.Decimal, error) {
	if entry.AccountId == s.failFor {
		return decimal.Zero, errors.New("throughput exceeded")
	}
	return s.Store.AppendEntry(ctx, entry)
}

func TestCreateCompensates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	broken := ledger.New(&failingLedgerStore{Store: f.store, failFor: "owner"}, ledger.WithClock(f.clock))
	svc := NewService(f.store, capacity.NewManager(f.store), broken, WithClock(f.clock))

	_, err := svc.Create(ctx, NewBooking{DriverID: "driver", SpotID: "spot1", Date: "2024-05-01", Time: "12:00 - 14:00", Amount: dec("11")})
	require.Error(t, err)

	assert.True(t, f.balance(t, "driver").Equal(dec("50")))
	assert.Equal(t, 3, f.available(t))

	bs, _ := f.store.ListBookingsByDriver(ctx, "driver")
	require.Len(t, bs, 1)
	assert.Equal(t, models.BookingCancelled, bs[0].Status)
	assert.True(t, bs[0].Voided)

	mine, err := svc.ListForDriver(ctx, "driver")
	require.NoError(t, err)
	assert.Empty(t, mine)
	owned, err := svc.ListForOwner(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, owned)
}

// blockingRefundStore parks the refund credit to the driver until release is
// closed, then fails it.
type blockingRefundStore struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
}

func (s *blockingRefundStore) AppendEntry(ctx context.Context, entry *models.Transaction) (decimal.Decimal, error) {
	if entry.AccountId == "driver" && entry.Kind == models.CREDIT && entry.Description == "Refund for booking at Lot A" {
		close(s.entered)
		<-s.release
		return decimal.Zero, errors.New("throughput exceeded")
	}
	return s.Store.AppendEntry(ctx, entry)
}

func TestCancelHoldsSpotUntilRefund(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _ = f.ledger.TopUp(ctx, "driver", dec("100"))

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, f.book(t).Id)
	}
	require.Equal(t, 0, f.available(t))

	blocking := &blockingRefundStore{Store: f.store, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(f.store, capacity.NewManager(f.store), ledger.New(blocking, ledger.WithClock(f.clock)), WithClock(f.clock))

	cancelErr := make(chan error, 1)
	go func() {
		_, err := svc.Cancel(ctx, ids[0], "driver")
		cancelErr <- err
	}()
	<-blocking.entered

	createErr := make(chan error, 1)
	go func() {
		_, err := svc.Create(ctx, NewBooking{DriverID: "driver", SpotID: "spot1", Date: "2024-05-01", Time: "12:00 - 14:00", Amount: dec("1")})
		createErr <- err
	}()

	select {
	case err := <-createErr:
		t.Fatalf("create finished while cancel held the spot: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(blocking.release)
	require.Error(t, <-cancelErr)
	assert.ErrorIs(t, <-createErr, apperrors.ErrCapacityExceeded)

	stored, err := f.store.GetBooking(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.BookingActive, stored.Status)
	assert.Equal(t, 0, f.available(t))
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Refund", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t)

		cancelled, err := f.svc.Cancel(ctx, b.Id, "driver")
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, cancelled.Status)

		assert.True(t, f.balance(t, "driver").Equal(dec("50")))
		assert.True(t, f.balance(t, "owner").IsZero())
		assert.Equal(t, 3, f.available(t))

		driver, _ := f.store.GetAccount(ctx, "driver")
		assert.Equal(t, "Refund for booking at Lot A", driver.Transactions[len(driver.Transactions)-1].Description)
		owner, _ := f.store.GetAccount(ctx, "owner")
		assert.Equal(t, "Refund deducted for cancelled booking at Lot A", owner.Transactions[len(owner.Transactions)-1].Description)

		_, err = f.svc.Cancel(ctx, b.Id, "driver")
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		assert.Equal(t, 3, f.available(t))
		assert.True(t, f.balance(t, "driver").Equal(dec("50")))
	})

	t.Run("Not Found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Cancel(ctx, "ghost", "driver")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Forbidden Before State", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t)
		_, err := f.svc.Complete(ctx, b.Id)
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, b.Id, "someone-else")
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("After Complete Is Invalid", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t)
		_, err := f.svc.Complete(ctx, b.Id)
		require.NoError(t, err)
		avail := f.available(t)
		driverBal := f.balance(t, "driver")

		_, err = f.svc.Cancel(ctx, b.Id, "driver")
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		assert.Equal(t, avail, f.available(t))
		assert.True(t, f.balance(t, "driver").Equal(driverBal))
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("On Time", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t)
		f.clock.Set(b.ScheduledEnd.Add(-10 * time.Minute))

		res, err := f.svc.Complete(ctx, b.Id)
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.OvertimeHours)
		assert.True(t, res.OvertimeFee.IsZero())
		assert.True(t, res.TotalAmount.Equal(dec("11")))
		assert.Equal(t, 3, f.available(t))
		assert.True(t, f.balance(t, "driver").Equal(dec("39")))
	})

	t.Run("Overtime", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t)
		// 15:40 civil time, 100 minutes past the 14:00 end.
		f.clock.Set(time.Date(2024, 5, 1, 10, 10, 0, 0, time.UTC))

		res, err := f.svc.Complete(ctx, b.Id)
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.OvertimeHours)
		assert.True(t, res.OvertimeFee.Equal(dec("10")))
		assert.True(t, res.TotalAmount.Equal(dec("21")))
		assert.Equal(t, models.BookingCompleted, res.Booking.Status)
		require.NotNil(t, res.Booking.ActualEnd)
		assert.Equal(t, 3, f.available(t))

		assert.True(t, f.balance(t, "driver").Equal(dec("29")))
		assert.True(t, f.balance(t, "owner").Equal(dec("21")))

		driver, _ := f.store.GetAccount(ctx, "driver")
		assert.Equal(t, "Overtime fee (2 hrs) for Lot A", driver.Transactions[len(driver.Transactions)-1].Description)

		stored, _ := f.store.GetBooking(ctx, b.Id)
		require.NotNil(t, stored.TotalAmount)
		assert.True(t, stored.TotalAmount.Equal(dec("21")))
		assert.Contains(t, f.recorder.Types(), events.BookingCompleted)
	})

	t.Run("Overtime Overdraws By Default", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t)
		f.clock.Set(b.ScheduledEnd.Add(10 * time.Hour))

		res, err := f.svc.Complete(ctx, b.Id)
		require.NoError(t, err)
		assert.True(t, res.OvertimeFee.Equal(dec("50")))
		assert.True(t, f.balance(t, "driver").Equal(dec("-11")))
	})

	t.Run("Overtime Denied Policy", func(t *testing.T) {
		f := newFixture(t, WithOvertimePolicy(OvertimeOverdraftDenied))
		b := f.book(t)
		f.clock.Set(b.ScheduledEnd.Add(10 * time.Hour))

		_, err := f.svc.Complete(ctx, b.Id)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

		stored, _ := f.store.GetBooking(ctx, b.Id)
		assert.Equal(t, models.BookingActive, stored.Status)
		assert.Equal(t, 2, f.available(t))
	})

	t.Run("Twice Is Invalid", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t)
		_, err := f.svc.Complete(ctx, b.Id)
		require.NoError(t, err)

		_, err = f.svc.Complete(ctx, b.Id)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		assert.Equal(t, 3, f.available(t))
	})

	t.Run("After Cancel Is Invalid", func(t *testing.T) {
		f := newFixture(t)
		b := f.book(t)
		_, err := f.svc.Cancel(ctx, b.Id, "driver")
		require.NoError(t, err)

		_, err = f.svc.Complete(ctx, b.Id)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		assert.Equal(t, 3, f.available(t))
	})

	t.Run("Not Found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Complete(ctx, "ghost")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

// doubleReleaseStore reports every unit as already free on release.
type doubleReleaseStore struct {
	*memory.Store
}

func (s *doubleReleaseStore) ReturnUnit(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	return s.Store.ReturnUnit(ctx, spotID+"-missing")
}

func TestCompleteCompensates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.book(t)
	f.clock.Set(b.ScheduledEnd.Add(90 * time.Minute))

	svc := NewService(f.store, capacity.NewManager(&doubleReleaseStore{Store: f.store}), f.ledger, WithClock(f.clock))
	_, err := svc.Complete(ctx, b.Id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	stored, _ := f.store.GetBooking(ctx, b.Id)
	assert.Equal(t, models.BookingActive, stored.Status)
	assert.True(t, f.balance(t, "driver").Equal(dec("39")))
	assert.True(t, f.balance(t, "owner").Equal(dec("11")))
}

func TestCapacityConservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _ = f.ledger.TopUp(ctx, "driver", dec("100"))

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, f.book(t).Id)
	}
	assert.Equal(t, 0, f.available(t))

	_, err := f.svc.Cancel(ctx, ids[0], "driver")
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, ids[1])
	require.NoError(t, err)

	bs, _ := f.store.ListBookingsByDriver(ctx, "driver")
	active := 0
	for _, b := range bs {
		if b.Status == models.BookingActive {
			active++
		}
	}
	assert.Equal(t, 3-active, f.available(t))
	assert.Equal(t, 1, active)
}

func TestOwnerStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _ = f.ledger.TopUp(ctx, "driver", dec("100"))

	var ids []string
	for i := 0; i < 3; i++ {
		f.clock.Set(f.clock.Now().Add(time.Minute))
		ids = append(ids, f.book(t).Id)
	}
	_, err := f.svc.Complete(ctx, ids[0])
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, ids[1], "driver")
	require.NoError(t, err)

	stats, err := f.svc.OwnerStats(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSpots)
	assert.True(t, stats.TotalRevenue.Equal(dec("11")))
	assert.Equal(t, 1, stats.ActiveBookings)
	// 3 of 5 units occupied: two seeded plus the remaining active booking.
	assert.Equal(t, 60, stats.Utilization)
	require.Len(t, stats.RecentBookings, 3)
	assert.Equal(t, ids[2], stats.RecentBookings[0].Id)

	owned, err := f.svc.ListForOwner(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, owned, 3)
}

func TestCompletedVolume(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, _ = f.ledger.TopUp(ctx, "driver", dec("100"))

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, f.book(t).Id)
	}
	f.clock.Set(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	_, err := f.svc.Complete(ctx, ids[0])
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, ids[1])
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, ids[2], "driver")
	require.NoError(t, err)

	volume, err := f.svc.CompletedVolume(ctx)
	require.NoError(t, err)
	// Base amounts only; the overtime charged on completion is not volume.
	assert.True(t, volume.Equal(dec("22")), volume.String())
}

func TestListOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.book(t)

	overdue, err := f.svc.ListOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	f.clock.Set(b.ScheduledEnd.Add(time.Minute))
	overdue, err = f.svc.ListOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, b.Id, overdue[0].Id)
}

func TestSagaAbort(t *testing.T) {
	var order []string
	s := &saga{op: "test", logger: slog.Default()}
	s.onFailure("first", func(context.Context) error { order = append(order, "first"); return nil })
	s.onFailure("second", func(context.Context) error { order = append(order, "second"); return fmt.Errorf("boom") })

	cause := fmt.Errorf("step failed: %w", apperrors.ErrCapacityExceeded)
	err := s.abort(context.Background(), cause)

	assert.Equal(t, []string{"second", "first"}, order)
	assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)
	assert.ErrorContains(t, err, "compensate second")
}

var _ clock.Clock = (*fakeClock)(nil)
