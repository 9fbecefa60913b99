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

type PgxInvestmentRepository struct {
	BaseRepository
}

// newPgxInvestmentRepository creates a new repository for investment data.
func newPgxInvestmentRepository(pool *pgxpool.Pool) portsrepo.InvestmentRepository {
	return &PgxInvestmentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.InvestmentRepository = (*PgxInvestmentRepository)(nil)

const securityColumns = `security_id, external_id, name, ticker_symbol, security_type, close_price, close_price_as_of, currency_code, created_at, last_updated_at`

const holdingColumns = `holding_id, account_id, security_id, quantity, cost_basis, price, price_as_of, value, currency_code, created_at, last_updated_at`

// UpsertSecurity inserts or updates a security keyed by external id.
func (r *PgxInvestmentRepository) UpsertSecurity(ctx context.Context, sec domain.Security) (bool, error) {
	query := `
		INSERT INTO securities (` + securityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (external_id) DO UPDATE SET
			name = EXCLUDED.name,
			ticker_symbol = EXCLUDED.ticker_symbol,
			security_type = EXCLUDED.security_type,
			close_price = EXCLUDED.close_price,
			close_price_as_of = EXCLUDED.close_price_as_of,
			currency_code = EXCLUDED.currency_code,
			last_updated_at = EXCLUDED.last_updated_at
		RETURNING (xmax = 0);
	`
	var inserted bool
	err := r.Pool.QueryRow(ctx, query,
		sec.SecurityID,
		sec.ExternalID,
		sec.Name,
		sec.TickerSymbol,
		sec.SecurityType,
		sec.ClosePrice,
		sec.ClosePriceAsOf,
		sec.CurrencyCode,
		sec.CreatedAt,
		sec.LastUpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert security %s: %w", sec.ExternalID, err)
	}
	return inserted, nil
}

// FindSecurityByExternalID retrieves a security by its provider id.
func (r *PgxInvestmentRepository) FindSecurityByExternalID(ctx context.Context, externalID string) (*domain.Security, error) {
	query := `SELECT ` + securityColumns + ` FROM securities WHERE external_id = $1;`
	var sec domain.Security
	err := r.Pool.QueryRow(ctx, query, externalID).Scan(
		&sec.SecurityID,
		&sec.ExternalID,
		&sec.Name,
		&sec.TickerSymbol,
		&sec.SecurityType,
		&sec.ClosePrice,
		&sec.ClosePriceAsOf,
		&sec.CurrencyCode,
		&sec.CreatedAt,
		&sec.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find security by external id %s: %w", externalID, err)
	}
	return &sec, nil
}

// UpsertHolding inserts or updates a holding keyed by its (account,
// security) pair. The stored holding_id survives updates.
func (r *PgxInvestmentRepository) UpsertHolding(ctx context.Context, holding domain.Holding) (bool, error) {
	query := `
		INSERT INTO holdings (` + holdingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (account_id, security_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			cost_basis = EXCLUDED.cost_basis,
			price = EXCLUDED.price,
			price_as_of = EXCLUDED.price_as_of,
			value = EXCLUDED.value,
			currency_code = EXCLUDED.currency_code,
			last_updated_at = EXCLUDED.last_updated_at
		RETURNING (xmax = 0);
	`
	var inserted bool
	err := r.Pool.QueryRow(ctx, query,
		holding.HoldingID,
		holding.AccountID,
		holding.SecurityID,
		holding.Quantity,
		holding.CostBasis,
		holding.Price,
		holding.PriceAsOf,
		holding.Value,
		holding.CurrencyCode,
		holding.CreatedAt,
		holding.LastUpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert holding for account %s security %s: %w", holding.AccountID, holding.SecurityID, err)
	}
	return inserted, nil
}

// FindHoldingByAccountAndSecurity retrieves the holding for one (account,
// security) pair.
func (r *PgxInvestmentRepository) FindHoldingByAccountAndSecurity(ctx context.Context, accountID, securityID string) (*domain.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE account_id = $1 AND security_id = $2;`
	h, err := scanHolding(r.Pool.QueryRow(ctx, query, accountID, securityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find holding for account %s security %s: %w", accountID, securityID, err)
	}
	return h, nil
}

// ListHoldingsByItemID retrieves every holding under a linked item's accounts.
func (r *PgxInvestmentRepository) ListHoldingsByItemID(ctx context.Context, itemID string) ([]domain.Holding, error) {
	query := `
		SELECT h.holding_id, h.account_id, h.security_id, h.quantity, h.cost_basis, h.price, h.price_as_of, h.value, h.currency_code, h.created_at, h.last_updated_at
		FROM holdings h
		JOIN accounts a ON a.account_id = h.account_id
		WHERE a.item_id = $1;
	`
	rows, err := r.Pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for item %s: %w", itemID, err)
	}
	defer rows.Close()
	return collectHoldings(rows)
}

// ListHoldings retrieves every holding.
func (r *PgxInvestmentRepository) ListHoldings(ctx context.Context) ([]domain.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()
	return collectHoldings(rows)
}

// DeleteHolding removes one holding.
func (r *PgxInvestmentRepository) DeleteHolding(ctx context.Context, holdingID string) error {
	query := `DELETE FROM holdings WHERE holding_id = $1;`
	tag, err := r.Pool.Exec(ctx, query, holdingID)
	if err != nil {
		return fmt.Errorf("failed to delete holding %s: %w", holdingID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpsertInvestmentTransaction inserts or updates by external id.
func (r *PgxInvestmentRepository) UpsertInvestmentTransaction(ctx context.Context, txn domain.InvestmentTransaction) (bool, error) {
	query := `
		INSERT INTO investment_transactions (investment_transaction_id, external_id, account_id, security_id, name, amount, quantity, price, fees, type, subtype, date, currency_code, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (external_id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			security_id = EXCLUDED.security_id,
			name = EXCLUDED.name,
			amount = EXCLUDED.amount,
			quantity = EXCLUDED.quantity,
			price = EXCLUDED.price,
			fees = EXCLUDED.fees,
			type = EXCLUDED.type,
			subtype = EXCLUDED.subtype,
			date = EXCLUDED.date,
			currency_code = EXCLUDED.currency_code,
			last_updated_at = EXCLUDED.last_updated_at
		RETURNING (xmax = 0);
	`
	var inserted bool
	err := r.Pool.QueryRow(ctx, query,
		txn.InvestmentTransactionID,
		txn.ExternalID,
		txn.AccountID,
		txn.SecurityID,
		txn.Name,
		txn.Amount,
		txn.Quantity,
		txn.Price,
		txn.Fees,
		txn.Type,
		txn.Subtype,
		txn.Date,
		txn.CurrencyCode,
		txn.CreatedAt,
		txn.LastUpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert investment transaction %s: %w", txn.ExternalID, err)
	}
	return inserted, nil
}

func scanHolding(row pgx.Row) (*domain.Holding, error) {
	var h domain.Holding
	err := row.Scan(
		&h.HoldingID,
		&h.AccountID,
		&h.SecurityID,
		&h.Quantity,
		&h.CostBasis,
		&h.Price,
		&h.PriceAsOf,
		&h.Value,
		&h.CurrencyCode,
		&h.CreatedAt,
		&h.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func collectHoldings(rows pgx.Rows) ([]domain.Holding, error) {
	holdings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Holding, error) {
		h, err := scanHolding(row)
		if err != nil {
			return domain.Holding{}, err
		}
		return *h, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan holdings: %w", err)
	}
	return holdings, nil
}
