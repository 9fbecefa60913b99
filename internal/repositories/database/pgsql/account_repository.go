package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cpenarrieta/finsight/internal/apperrors"
	"github.com/cpenarrieta/finsight/internal/core/domain"
	portsrepo "github.com/cpenarrieta/finsight/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepository {
	return &PgxAccountRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.AccountRepository = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, item_id, external_id, name, official_name, mask, account_type, account_subtype, current_balance, available_balance, credit_limit, currency_code, created_at, last_updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	err := row.Scan(
		&acc.AccountID,
		&acc.ItemID,
		&acc.ExternalID,
		&acc.Name,
		&acc.OfficialName,
		&acc.Mask,
		&acc.AccountType,
		&acc.AccountSubtype,
		&acc.CurrentBalance,
		&acc.AvailableBalance,
		&acc.CreditLimit,
		&acc.CurrencyCode,
		&acc.CreatedAt,
		&acc.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// UpsertAccount inserts or updates an account keyed by external id. The
// display name is user-editable, so it is written only on insert; every
// other provider-owned field is refreshed on conflict.
func (r *PgxAccountRepository) UpsertAccount(ctx context.Context, account domain.Account) (bool, error) {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (external_id) DO UPDATE SET
			official_name = EXCLUDED.official_name,
			mask = EXCLUDED.mask,
			account_type = EXCLUDED.account_type,
			account_subtype = EXCLUDED.account_subtype,
			current_balance = EXCLUDED.current_balance,
			available_balance = EXCLUDED.available_balance,
			credit_limit = EXCLUDED.credit_limit,
			currency_code = EXCLUDED.currency_code,
			last_updated_at = EXCLUDED.last_updated_at
		RETURNING (xmax = 0);
	`
	// xmax = 0 distinguishes a fresh insert from a conflict update.
	var inserted bool
	err := r.Pool.QueryRow(ctx, query,
		account.AccountID,
		account.ItemID,
		account.ExternalID,
		account.Name,
		account.OfficialName,
		account.Mask,
		account.AccountType,
		account.AccountSubtype,
		account.CurrentBalance,
		account.AvailableBalance,
		account.CreditLimit,
		account.CurrencyCode,
		account.CreatedAt,
		account.LastUpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert account %s: %w", account.ExternalID, err)
	}
	return inserted, nil
}

// FindAccountByExternalID retrieves an account by its provider account id.
func (r *PgxAccountRepository) FindAccountByExternalID(ctx context.Context, externalID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE external_id = $1;`
	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by external id %s: %w", externalID, err)
	}
	return acc, nil
}

// ListAccountsByItemID retrieves every account under a linked item.
func (r *PgxAccountRepository) ListAccountsByItemID(ctx context.Context, itemID string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE item_id = $1 ORDER BY name;`
	rows, err := r.Pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for item %s: %w", itemID, err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// ListAccounts retrieves every account.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY name;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]domain.Account, error) {
	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Account, error) {
		acc, err := scanAccount(row)
		if err != nil {
			return domain.Account{}, err
		}
		return *acc, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan accounts: %w", err)
	}
	return accounts, nil
}
