package pgsql

import (
	"context"
	"fmt"

	"github.com/cpenarrieta/finsight/internal/core/domain"
	portsrepo "github.com/cpenarrieta/finsight/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCategoryRepository struct {
	BaseRepository
}

// newPgxCategoryRepository creates a new read-only repository for the
// category taxonomy.
func newPgxCategoryRepository(pool *pgxpool.Pool) portsrepo.CategoryReader {
	return &PgxCategoryRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.CategoryReader = (*PgxCategoryRepository)(nil)

// ListCategories retrieves the full taxonomy with subcategories attached.
func (r *PgxCategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT category_id, name FROM categories ORDER BY name;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Category, error) {
		var cat domain.Category
		err := row.Scan(&cat.CategoryID, &cat.Name)
		return cat, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}

	subQuery := `SELECT subcategory_id, category_id, name FROM subcategories ORDER BY name;`
	subRows, err := r.Pool.Query(ctx, subQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query subcategories: %w", err)
	}
	defer subRows.Close()

	subs, err := pgx.CollectRows(subRows, func(row pgx.CollectableRow) (domain.Subcategory, error) {
		var sub domain.Subcategory
		err := row.Scan(&sub.SubcategoryID, &sub.CategoryID, &sub.Name)
		return sub, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan subcategories: %w", err)
	}

	byCategory := map[string][]domain.Subcategory{}
	for _, sub := range subs {
		byCategory[sub.CategoryID] = append(byCategory[sub.CategoryID], sub)
	}
	for i := range categories {
		categories[i].Subcategories = byCategory[categories[i].CategoryID]
	}
	return categories, nil
}

type PgxTagRepository struct {
	BaseRepository
}

// newPgxTagRepository creates a new repository for transaction tags.
func newPgxTagRepository(pool *pgxpool.Pool) portsrepo.TagRepository {
	return &PgxTagRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.TagRepository = (*PgxTagRepository)(nil)

// FindOrCreateTag returns the tag with the given name, creating it on
// first use.
func (r *PgxTagRepository) FindOrCreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	// The no-op DO UPDATE makes RETURNING yield the row in both cases.
	query := `
		INSERT INTO tags (tag_id, name, created_at, last_updated_at)
		VALUES (gen_random_uuid(), $1, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING tag_id, name, created_at, last_updated_at;
	`
	var tag domain.Tag
	err := r.Pool.QueryRow(ctx, query, name).Scan(&tag.TagID, &tag.Name, &tag.CreatedAt, &tag.LastUpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create tag %s: %w", name, err)
	}
	return &tag, nil
}

// AttachTagToTransaction links a tag to a transaction (idempotent).
func (r *PgxTagRepository) AttachTagToTransaction(ctx context.Context, tagID, transactionID string) error {
	query := `
		INSERT INTO transaction_tags (transaction_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING;
	`
	if _, err := r.Pool.Exec(ctx, query, transactionID, tagID); err != nil {
		return fmt.Errorf("failed to attach tag %s to transaction %s: %w", tagID, transactionID, err)
	}
	return nil
}
