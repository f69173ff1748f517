package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const entryColumns = `id, account_id, kind, amount::text, description, status, booking_id, created_at`

func scanEntry(row rowScanner) (models.Transaction, error) {
	var (
		t            models.Transaction
		kind, status string
		amount       string
	)
	if err := row.Scan(&t.Id, &t.AccountId, &kind, &amount, &t.Description, &status, &t.BookingId, &t.Timestamp); err != nil {
		return t, err
	}
	d, err := parseDecimal(amount)
	if err != nil {
		return t, err
	}
	t.Kind = models.TransactionKind(kind)
	t.Status = models.TransactionStatus(status)
	t.Amount = d
	return t, nil
}

// AppendEntry applies the delta and inserts the entry in one transaction.
// The balance update takes the account's row lock, serializing writers.
func (s *Store) AppendEntry(ctx context.Context, entry *models.Transaction) (decimal.Decimal, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback is a no-op if the transaction has already been committed.
	defer tx.Rollback(ctx) //nolint:errcheck

	var balance string
	err = tx.QueryRow(ctx,
		`UPDATE accounts SET wallet_balance = wallet_balance + $2::numeric
		 WHERE id = $1
		 RETURNING wallet_balance::text`,
		entry.AccountId, entry.Delta().String(),
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("account %s: %w", entry.AccountId, storage.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("update balance: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO ledger_entries (id, account_id, kind, amount, description, status, booking_id, created_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`,
		entry.Id, entry.AccountId, string(entry.Kind), entry.Amount.String(),
		entry.Description, string(entry.Status), entry.BookingId, entry.Timestamp,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("commit: %w", err)
	}
	return parseDecimal(balance)
}

func (s *Store) ListEntries(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE account_id = $1 ORDER BY seq`, accountID)
}

// ListLedgerEntries returns the newest entries first. A non-positive limit returns all of them.
func (s *Store) ListLedgerEntries(ctx context.Context, limit int32) ([]models.Transaction, error) {
	if limit <= 0 {
		return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM ledger_entries ORDER BY seq DESC`)
	}
	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM ledger_entries ORDER BY seq DESC LIMIT $1`, limit)
}

func (s *Store) queryEntries(ctx context.Context, sql string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []models.Transaction{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
