package repositories

import (
	"context"
	"time"

	"github.com/cpenarrieta/finsight/internal/core/domain"
)

// ItemReader defines read operations for linked items.
type ItemReader interface {
	// FindItemByID retrieves a linked item by its local identifier.
	FindItemByID(ctx context.Context, itemID string) (*domain.LinkedItem, error)

	// FindItemByProviderItemID retrieves a linked item by the provider-side item id.
	FindItemByProviderItemID(ctx context.Context, providerItemID string) (*domain.LinkedItem, error)

	// ListItems retrieves every linked item.
	ListItems(ctx context.Context) ([]domain.LinkedItem, error)
}

// ItemWriter defines write operations for linked items. Cursor fields are
// mutated only through these methods, by the sync layer.
type ItemWriter interface {
	// SaveItem persists a new linked item.
	SaveItem(ctx context.Context, item domain.LinkedItem) error

	// UpdateTransactionsCursor stores the cursor returned by a completed
	// transaction sync pass.
	UpdateTransactionsCursor(ctx context.Context, itemID string, cursor string, now time.Time) error

	// MarkItemLoginRequired flips the item status after a provider auth failure.
	// Cleared only by re-authentication, which is outside the sync layer.
	MarkItemLoginRequired(ctx context.Context, itemID string, now time.Time) error
}

// ItemRepository combines read and write access to linked items.
type ItemRepository interface {
	ItemReader
	ItemWriter
}
