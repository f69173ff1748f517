package memory

import (
	"context"
	"fmt"

	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	"github.com/shopspring/decimal"
)

// AppendEntry appends the entry and applies its delta under the write lock.
func (s *Store) AppendEntry(ctx context.Context, entry *models.Transaction) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[entry.AccountId]
	if !ok {
		return decimal.Zero, fmt.Errorf("account %s: %w", entry.AccountId, storage.ErrNotFound)
	}

	a.WalletBalance = a.WalletBalance.Add(entry.Delta())
	a.Transactions = append(a.Transactions, *entry)
	s.journal = append(s.journal, *entry)
	return a.WalletBalance, nil
}

// ListEntries returns an account's journal, oldest first.
func (s *Store) ListEntries(ctx context.Context, accountID string) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	return append([]models.Transaction(nil), a.Transactions...), nil
}

// ListLedgerEntries returns up to limit entries across all accounts, newest first.
func (s *Store) ListLedgerEntries(ctx context.Context, limit int32) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.journal)
	if limit > 0 && int(limit) < n {
		n = int(limit)
	}
	out := make([]models.Transaction, 0, n)
	for i := len(s.journal) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.journal[i])
	}
	return out, nil
}
