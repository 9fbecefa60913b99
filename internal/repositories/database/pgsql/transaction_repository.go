package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cpenarrieta/finsight/internal/apperrors"
	"github.com/cpenarrieta/finsight/internal/core/domain"
	portsrepo "github.com/cpenarrieta/finsight/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for transaction data.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepository {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.TransactionRepository = (*PgxTransactionRepository)(nil)

const transactionColumns = `transaction_id, account_id, external_id, original_external_id, parent_transaction_id, is_split, amount, currency_code, date, authorized_date, datetime, name, merchant_name, pending, category_id, subcategory_id, provider_category, notes, receipt_urls, created_at, last_updated_at`

// splitProtected is the SQL predicate guarding user-made splits: rows on
// either side of a split are never touched by feed writes or deletes.
const splitProtected = `(is_split = TRUE OR parent_transaction_id IS NOT NULL)`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLikePattern escapes LIKE metacharacters so a transaction name is
// matched literally when used as a prefix pattern.
func escapeLikePattern(s string) string {
	return likeEscaper.Replace(s)
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := row.Scan(
		&txn.TransactionID,
		&txn.AccountID,
		&txn.ExternalID,
		&txn.OriginalExternalID,
		&txn.ParentTransactionID,
		&txn.IsSplit,
		&txn.Amount,
		&txn.CurrencyCode,
		&txn.Date,
		&txn.AuthorizedDate,
		&txn.DateTime,
		&txn.Name,
		&txn.MerchantName,
		&txn.Pending,
		&txn.CategoryID,
		&txn.SubcategoryID,
		&txn.ProviderCategory,
		&txn.Notes,
		&txn.ReceiptURLs,
		&txn.CreatedAt,
		&txn.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// SaveTransaction persists a new transaction.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21);
	`
	_, err := r.Pool.Exec(ctx, query,
		txn.TransactionID,
		txn.AccountID,
		txn.ExternalID,
		txn.OriginalExternalID,
		txn.ParentTransactionID,
		txn.IsSplit,
		txn.Amount,
		txn.CurrencyCode,
		txn.Date,
		txn.AuthorizedDate,
		txn.DateTime,
		txn.Name,
		txn.MerchantName,
		txn.Pending,
		txn.CategoryID,
		txn.SubcategoryID,
		txn.ProviderCategory,
		txn.Notes,
		txn.ReceiptURLs,
		txn.CreatedAt,
		txn.LastUpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

// UpdateFromFeed updates the provider-owned fields of an existing row.
// User-owned fields (notes, assigned category, split markers, receipts)
// are untouched, and split-protected rows are excluded at the SQL level.
func (r *PgxTransactionRepository) UpdateFromFeed(ctx context.Context, txn domain.Transaction) error {
	query := `
		UPDATE transactions SET
			amount = $2,
			currency_code = $3,
			date = $4,
			authorized_date = $5,
			datetime = $6,
			name = $7,
			merchant_name = $8,
			pending = $9,
			provider_category = $10,
			last_updated_at = $11
		WHERE transaction_id = $1 AND NOT ` + splitProtected + `;
	`
	tag, err := r.Pool.Exec(ctx, query,
		txn.TransactionID,
		txn.Amount,
		txn.CurrencyCode,
		txn.Date,
		txn.AuthorizedDate,
		txn.DateTime,
		txn.Name,
		txn.MerchantName,
		txn.Pending,
		txn.ProviderCategory,
		txn.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s from feed: %w", txn.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteByExternalIDs deletes all matching rows that are not split
// protected and returns the number actually deleted.
func (r *PgxTransactionRepository) DeleteByExternalIDs(ctx context.Context, externalIDs []string) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	query := `DELETE FROM transactions WHERE external_id = ANY($1) AND NOT ` + splitProtected + `;`
	tag, err := r.Pool.Exec(ctx, query, externalIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions by external ids: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ApplyCategorization assigns a category (and optional subcategory).
func (r *PgxTransactionRepository) ApplyCategorization(ctx context.Context, transactionID string, categoryID string, subcategoryID *string, now time.Time) error {
	query := `UPDATE transactions SET category_id = $2, subcategory_id = $3, last_updated_at = $4 WHERE transaction_id = $1;`
	tag, err := r.Pool.Exec(ctx, query, transactionID, categoryID, subcategoryID, now)
	if err != nil {
		return fmt.Errorf("failed to apply categorization to transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindTransactionByID retrieves a transaction by its local identifier.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by id %s: %w", transactionID, err)
	}
	return txn, nil
}

// FindTransactionByExternalID retrieves a transaction by its provider id.
func (r *PgxTransactionRepository) FindTransactionByExternalID(ctx context.Context, externalID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE external_id = $1;`
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by external id %s: %w", externalID, err)
	}
	return txn, nil
}

// FindSplitParentByOriginalExternalID finds a split parent whose provider
// id was consumed by its children and survives only in original_external_id.
func (r *PgxTransactionRepository) FindSplitParentByOriginalExternalID(ctx context.Context, externalID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE original_external_id = $1 AND is_split = TRUE;`
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find split parent by original external id %s: %w", externalID, err)
	}
	return txn, nil
}

// ListRecentCategorized retrieves the most recent categorized, non-split
// transactions, newest first.
func (r *PgxTransactionRepository) ListRecentCategorized(ctx context.Context, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE category_id IS NOT NULL AND NOT ` + splitProtected + `
		ORDER BY date DESC, transaction_id
		LIMIT $1;
	`
	rows, err := r.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent categorized transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListSimilarCategorized retrieves categorized, non-split transactions
// matched by exact merchant-name equality or by name prefix.
func (r *PgxTransactionRepository) ListSimilarCategorized(ctx context.Context, name string, merchantName *string, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE category_id IS NOT NULL AND NOT ` + splitProtected + `
		AND (($2::text IS NOT NULL AND merchant_name = $2) OR name ILIKE $1 || '%')
		ORDER BY date DESC, transaction_id
		LIMIT $3;
	`
	rows, err := r.Pool.Query(ctx, query, escapeLikePattern(name), merchantName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar categorized transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListTransactions retrieves a paginated list of transactions, newest first.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		ORDER BY date DESC, transaction_id
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	txns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		txn, err := scanTransaction(row)
		if err != nil {
			return domain.Transaction{}, err
		}
		return *txn, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan transactions: %w", err)
	}
	return txns, nil
}
