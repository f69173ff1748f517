// Package ledger moves money between account wallets. Every movement is an
// append-only journal entry applied to the balance by the store atomically.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chris/spot-booking-ledger/pkg/apperrors"
	"github.com/chris/spot-booking-ledger/pkg/clock"
	"github.com/chris/spot-booking-ledger/pkg/events"
	"github.com/chris/spot-booking-ledger/pkg/lock"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopUpDescription is the journal description of a wallet top-up.
const TopUpDescription = "Added funds to wallet"

// Store is the storage the ledger needs.
type Store interface {
	storage.LedgerWriter
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
}

// Ledger posts credits and debits, one account at a time.
type Ledger struct {
	store     Store
	clock     clock.Clock
	locks     lock.Keyed
	logger    *slog.Logger
	publisher events.Publisher
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithClock(c clock.Clock) Option { return func(l *Ledger) { l.clock = c } }

func WithLogger(logger *slog.Logger) Option { return func(l *Ledger) { l.logger = logger } }

// WithPublisher emits a wallet.updated event after every posted entry.
func WithPublisher(p events.Publisher) Option { return func(l *Ledger) { l.publisher = p } }

// New creates a new Ledger.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		clock:     clock.Real{},
		logger:    slog.Default(),
		publisher: &events.NoOpPublisher{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Debit removes amount from the account. It never checks the balance, so the
// wallet may go negative.
func (l *Ledger) Debit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	return l.post(ctx, accountID, models.DEBIT, amount, description, "")
}

// Credit adds amount to the account.
func (l *Ledger) Credit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	return l.post(ctx, accountID, models.CREDIT, amount, description, "")
}

// TopUp credits an account with funds from outside the platform.
func (l *Ledger) TopUp(ctx context.Context, accountID string, amount decimal.Decimal) (*models.Transaction, error) {
	return l.Credit(ctx, accountID, amount, TopUpDescription)
}

// Balance returns the account's current wallet balance.
func (l *Ledger) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	acc, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, accountErr(accountID, err)
	}
	return acc.WalletBalance, nil
}

func (l *Ledger) post(ctx context.Context, accountID string, kind models.TransactionKind, amount decimal.Decimal, description, bookingID string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrInvalidArgument, amount)
	}

	unlock := l.locks.Lock(accountID)
	defer unlock()

	entry := &models.Transaction{
		Id:          uuid.New().String(),
		AccountId:   accountID,
		Kind:        kind,
		Amount:      amount,
		Description: description,
		Status:      models.TransactionCompleted,
		BookingId:   bookingID,
		Timestamp:   l.clock.Now(),
	}

	balance, err := l.store.AppendEntry(ctx, entry)
	if err != nil {
		return nil, accountErr(accountID, err)
	}

	msg := events.Message{
		Type: events.WalletUpdated,
		Payload: events.WalletUpdatePayload{
			AccountID:     accountID,
			TransactionID: entry.Id,
			Change:        entry.Delta(),
			NewBalance:    balance,
		},
	}
	if err := l.publisher.Publish(ctx, msg); err != nil {
		l.logger.Error("failed to publish wallet update", "account_id", accountID, "transaction_id", entry.Id, "error", err)
	}

	return entry, nil
}

func accountErr(accountID string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	return fmt.Errorf("failed to post ledger entry for %s: %w", accountID, err)
}
