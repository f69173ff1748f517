package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
)

// CreateAccount stores a new account.
func (s *Store) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Id]; ok {
		return nil, fmt.Errorf("account %s: %w", account.Id, storage.ErrAlreadyExists)
	}
	stored := copyAccount(account, false)
	s.accounts[account.Id] = stored
	return copyAccount(stored, false), nil
}

// GetAccount returns the account with its journal.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	return copyAccount(a, true), nil
}

// ListAccounts returns all accounts ordered by creation time.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, *copyAccount(a, false))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Id < out[j].Id
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ToggleFavorite flips membership of spotID in the account's favorites.
func (s *Store) ToggleFavorite(ctx context.Context, accountID, spotID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}

	if a.HasFavorite(spotID) {
		kept := a.Favorites[:0]
		for _, id := range a.Favorites {
			if id != spotID {
				kept = append(kept, id)
			}
		}
		a.Favorites = kept
	} else {
		a.Favorites = append(a.Favorites, spotID)
	}
	return append([]string(nil), a.Favorites...), nil
}

// RenameAccount sets the account's name.
func (s *Store) RenameAccount(ctx context.Context, accountID, name string) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	a.Name = name
	return copyAccount(a, false), nil
}

// DeleteAccount drops the account. Its entries stay in the shared journal.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[accountID]; !ok {
		return fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	delete(s.accounts, accountID)
	return nil
}
