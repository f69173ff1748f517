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

const accountColumns = `id, name, role, wallet_balance::text, favorites, created_at`

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a       models.Account
		role    string
		balance string
	)
	if err := row.Scan(&a.Id, &a.Name, &role, &balance, &a.Favorites, &a.CreatedAt); err != nil {
		return nil, err
	}
	bal, err := parseDecimal(balance)
	if err != nil {
		return nil, err
	}
	a.Role = models.Role(role)
	a.WalletBalance = bal
	if a.Favorites == nil {
		a.Favorites = []string{}
	}
	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	favorites := account.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	row := s.db.QueryRow(ctx,
		`INSERT INTO accounts (id, name, role, wallet_balance, favorites, created_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6)
		 RETURNING `+accountColumns,
		account.Id, account.Name, string(account.Role), account.WalletBalance.String(), favorites, account.CreatedAt,
	)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("account %s: %w", account.Id, storage.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return created, nil
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	acc, err := scanAccount(s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	acc.Transactions, err = s.ListEntries(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// ToggleFavorite flips spotID in the favorites array in a single statement.
func (s *Store) ToggleFavorite(ctx context.Context, accountID, spotID string) ([]string, error) {
	var favorites []string
	err := s.db.QueryRow(ctx,
		`UPDATE accounts
		 SET favorites = CASE WHEN $2 = ANY (favorites)
		                      THEN array_remove(favorites, $2)
		                      ELSE array_append(favorites, $2) END
		 WHERE id = $1
		 RETURNING favorites`,
		accountID, spotID,
	).Scan(&favorites)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("toggle favorite: %w", err)
	}
	if favorites == nil {
		favorites = []string{}
	}
	return favorites, nil
}

func (s *Store) RenameAccount(ctx context.Context, accountID, name string) (*models.Account, error) {
	acc, err := scanAccount(s.db.QueryRow(ctx,
		`UPDATE accounts SET name = $2 WHERE id = $1 RETURNING `+accountColumns, accountID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("rename account: %w", err)
	}
	return acc, nil
}

// DeleteAccount removes the account row. Ledger entries are not keyed to it
// and stay in place.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	return nil
}
