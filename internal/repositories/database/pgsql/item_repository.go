package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cpenarrieta/finsight/internal/apperrors"
	"github.com/cpenarrieta/finsight/internal/core/domain"
	portsrepo "github.com/cpenarrieta/finsight/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxItemRepository struct {
	BaseRepository
}

// newPgxItemRepository creates a new repository for linked-item data.
func newPgxItemRepository(pool *pgxpool.Pool) portsrepo.ItemRepository {
	return &PgxItemRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.ItemRepository = (*PgxItemRepository)(nil)

const itemColumns = `item_id, provider_item_id, access_token, institution_name, status, transactions_cursor, investments_cursor, created_at, last_updated_at`

func scanItem(row pgx.Row) (*domain.LinkedItem, error) {
	var item domain.LinkedItem
	err := row.Scan(
		&item.ItemID,
		&item.ProviderItemID,
		&item.AccessToken,
		&item.InstitutionName,
		&item.Status,
		&item.TransactionsCursor,
		&item.InvestmentsCursor,
		&item.CreatedAt,
		&item.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SaveItem persists a new linked item.
func (r *PgxItemRepository) SaveItem(ctx context.Context, item domain.LinkedItem) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		item.ItemID,
		item.ProviderItemID,
		item.AccessToken,
		item.InstitutionName,
		item.Status,
		item.TransactionsCursor,
		item.InvestmentsCursor,
		item.CreatedAt,
		item.LastUpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save item %s: %w", item.ItemID, err)
	}
	return nil
}

// FindItemByID retrieves a linked item by its local identifier.
func (r *PgxItemRepository) FindItemByID(ctx context.Context, itemID string) (*domain.LinkedItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE item_id = $1;`
	item, err := scanItem(r.Pool.QueryRow(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find item by id %s: %w", itemID, err)
	}
	return item, nil
}

// FindItemByProviderItemID retrieves a linked item by the provider-side item id.
func (r *PgxItemRepository) FindItemByProviderItemID(ctx context.Context, providerItemID string) (*domain.LinkedItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE provider_item_id = $1;`
	item, err := scanItem(r.Pool.QueryRow(ctx, query, providerItemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find item by provider id %s: %w", providerItemID, err)
	}
	return item, nil
}

// ListItems retrieves every linked item.
func (r *PgxItemRepository) ListItems(ctx context.Context) ([]domain.LinkedItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LinkedItem, error) {
		item, err := scanItem(row)
		if err != nil {
			return domain.LinkedItem{}, err
		}
		return *item, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan items: %w", err)
	}
	return items, nil
}

// UpdateTransactionsCursor stores the cursor returned by a completed
// transaction sync pass.
func (r *PgxItemRepository) UpdateTransactionsCursor(ctx context.Context, itemID string, cursor string, now time.Time) error {
	query := `UPDATE items SET transactions_cursor = $2, last_updated_at = $3 WHERE item_id = $1;`
	tag, err := r.Pool.Exec(ctx, query, itemID, cursor, now)
	if err != nil {
		return fmt.Errorf("failed to update transactions cursor for item %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkItemLoginRequired flips the item status after a provider auth failure.
func (r *PgxItemRepository) MarkItemLoginRequired(ctx context.Context, itemID string, now time.Time) error {
	query := `UPDATE items SET status = $2, last_updated_at = $3 WHERE item_id = $1;`
	tag, err := r.Pool.Exec(ctx, query, itemID, domain.ItemStatusLoginRequired, now)
	if err != nil {
		return fmt.Errorf("failed to mark item %s login required: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
