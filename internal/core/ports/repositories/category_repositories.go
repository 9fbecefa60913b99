package repositories

import (
	"context"

	"github.com/cpenarrieta/finsight/internal/core/domain"
)

// CategoryReader provides read-only access to the category taxonomy.
// Sync and categorization never mutate the taxonomy.
type CategoryReader interface {
	// ListCategories retrieves the full taxonomy with subcategories attached.
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// TagRepository manages free-form transaction tags.
type TagRepository interface {
	// FindOrCreateTag returns the tag with the given name, creating it on first use.
	FindOrCreateTag(ctx context.Context, name string) (*domain.Tag, error)

	// AttachTagToTransaction links a tag to a transaction (idempotent).
	AttachTagToTransaction(ctx context.Context, tagID, transactionID string) error
}
