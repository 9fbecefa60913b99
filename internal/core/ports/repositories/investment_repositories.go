package repositories

import (
	"context"

	"github.com/cpenarrieta/finsight/internal/core/domain"
)

// InvestmentReader defines read operations for investment data.
type InvestmentReader interface {
	// FindSecurityByExternalID retrieves a security by its provider id.
	FindSecurityByExternalID(ctx context.Context, externalID string) (*domain.Security, error)

	// FindHoldingByAccountAndSecurity retrieves the holding for one
	// (account, security) pair.
	FindHoldingByAccountAndSecurity(ctx context.Context, accountID, securityID string) (*domain.Holding, error)

	// ListHoldingsByItemID retrieves every holding under a linked item's accounts.
	ListHoldingsByItemID(ctx context.Context, itemID string) ([]domain.Holding, error)

	// ListHoldings retrieves every holding.
	ListHoldings(ctx context.Context) ([]domain.Holding, error)
}

// InvestmentWriter defines write operations for investment data.
type InvestmentWriter interface {
	// UpsertSecurity inserts or updates a security keyed by external id.
	// Returns true when a new row was created.
	UpsertSecurity(ctx context.Context, sec domain.Security) (bool, error)

	// UpsertHolding inserts or updates a holding keyed by its
	// (account, security) pair. Returns true when a new row was created.
	UpsertHolding(ctx context.Context, holding domain.Holding) (bool, error)

	// DeleteHolding removes one holding.
	DeleteHolding(ctx context.Context, holdingID string) error

	// UpsertInvestmentTransaction inserts or updates by external id.
	// Returns true when a new row was created.
	UpsertInvestmentTransaction(ctx context.Context, txn domain.InvestmentTransaction) (bool, error)
}

// InvestmentRepository combines read and write access to investment data.
type InvestmentRepository interface {
	InvestmentReader
	InvestmentWriter
}
