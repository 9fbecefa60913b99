package repositories

import (
	"context"

	"github.com/cpenarrieta/finsight/internal/core/domain"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByExternalID retrieves an account by its provider account id.
	FindAccountByExternalID(ctx context.Context, externalID string) (*domain.Account, error)

	// ListAccountsByItemID retrieves every account under a linked item.
	ListAccountsByItemID(ctx context.Context, itemID string) ([]domain.Account, error)

	// ListAccounts retrieves every account.
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// UpsertAccount inserts or updates an account keyed by external id.
	// The display name is written only on insert; updates leave the
	// user-edited name untouched. Returns true when a new row was created.
	UpsertAccount(ctx context.Context, account domain.Account) (bool, error)
}

// AccountRepository combines read and write access to accounts.
type AccountRepository interface {
	AccountReader
	AccountWriter
}
