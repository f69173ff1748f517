package storage

import (
	"context"

	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/shopspring/decimal"
)

// LedgerReader defines the interface for reading ledger data.
type LedgerReader interface {
	// ListEntries retrieves an account's ledger entries, oldest first.
	ListEntries(ctx context.Context, accountID string) ([]models.Transaction, error)

	// ListLedgerEntries retrieves the most recent ledger entries across all accounts, newest first.
	ListLedgerEntries(ctx context.Context, limit int32) ([]models.Transaction, error)
}

// LedgerWriter is the privileged interface for moving money.
// It should only be exposed to the wallet ledger.
type LedgerWriter interface {
	// AppendEntry atomically appends the entry to the account's journal and
	// applies its delta to the balance. It returns the new balance, or
	// ErrNotFound when the account does not exist.
	AppendEntry(ctx context.Context, entry *models.Transaction) (decimal.Decimal, error)
}
