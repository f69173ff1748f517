package storage

import (
	"context"

	"github.com/chris/spot-booking-ledger/pkg/models"
)

// AccountReader defines the interface for reading accounts.
type AccountReader interface {
	// GetAccount retrieves an account by id, including its journal oldest first.
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)

	// ListAccounts retrieves all accounts without their journals.
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

// AccountWriter defines the interface for creating, editing and removing accounts.
type AccountWriter interface {
	// CreateAccount stores a new account. Its balance must be zero.
	CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error)

	// ToggleFavorite adds spotID to the account's favorites, or removes it if present,
	// and returns the resulting set.
	ToggleFavorite(ctx context.Context, accountID, spotID string) ([]string, error)

	// RenameAccount sets the account's display name.
	RenameAccount(ctx context.Context, accountID, name string) (*models.Account, error)

	// DeleteAccount removes the account record. Its ledger entries are kept.
	DeleteAccount(ctx context.Context, accountID string) error
}
