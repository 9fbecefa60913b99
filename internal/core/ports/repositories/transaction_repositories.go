package repositories

import (
	"context"
	"time"

	"github.com/cpenarrieta/finsight/internal/core/domain"
)

// TransactionReader defines read operations for transaction data.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction by its local identifier.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindTransactionByExternalID retrieves a transaction by its provider id.
	FindTransactionByExternalID(ctx context.Context, externalID string) (*domain.Transaction, error)

	// FindSplitParentByOriginalExternalID finds a split parent whose
	// provider id was consumed by its children and survives only in
	// OriginalExternalID.
	FindSplitParentByOriginalExternalID(ctx context.Context, externalID string) (*domain.Transaction, error)

	// ListRecentCategorized retrieves the most recent categorized,
	// non-split transactions, newest first.
	ListRecentCategorized(ctx context.Context, limit int) ([]domain.Transaction, error)

	// ListSimilarCategorized retrieves categorized, non-split transactions
	// matched by exact merchant-name equality or by name prefix.
	ListSimilarCategorized(ctx context.Context, name string, merchantName *string, limit int) ([]domain.Transaction, error)

	// ListTransactions retrieves a paginated list of transactions, newest first.
	ListTransactions(ctx context.Context, limit, offset int) ([]domain.Transaction, error)
}

// TransactionWriter defines write operations for transaction data.
type TransactionWriter interface {
	// SaveTransaction persists a new transaction.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	// UpdateFromFeed updates the provider-owned fields of an existing row
	// (amount, dates, pending, name, provider category hint). User-owned
	// fields (notes, assigned category, split markers) are not touched.
	UpdateFromFeed(ctx context.Context, txn domain.Transaction) error

	// DeleteByExternalIDs deletes all matching rows that are not split
	// protected and returns the number actually deleted.
	DeleteByExternalIDs(ctx context.Context, externalIDs []string) (int64, error)

	// ApplyCategorization assigns a category (and optional subcategory).
	ApplyCategorization(ctx context.Context, transactionID string, categoryID string, subcategoryID *string, now time.Time) error
}

// TransactionRepository combines read and write access to transactions.
type TransactionRepository interface {
	TransactionReader
	TransactionWriter
}
