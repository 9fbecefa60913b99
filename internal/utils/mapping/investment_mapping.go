package mapping

import (
	"fmt"
	"time"

	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	"github.com/shopspring/decimal"
)

// SecurityFromProvider builds a local security from a provider record.
func SecurityFromProvider(p providers.Security, securityID string, now time.Time) (domain.Security, error) {
	closeAsOf, err := parseOptionalDate(p.ClosePriceAsOf)
	if err != nil {
		return domain.Security{}, fmt.Errorf("invalid close price date: %w", err)
	}
	return domain.Security{
		SecurityID:     securityID,
		ExternalID:     p.SecurityID,
		Name:           p.Name,
		TickerSymbol:   p.TickerSymbol,
		SecurityType:   p.Type,
		ClosePrice:     nullDecimal(p.ClosePrice),
		ClosePriceAsOf: closeAsOf,
		CurrencyCode:   p.ISOCurrencyCode,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}, nil
}

// HoldingFromProvider builds a holding from a snapshot record, carrying
// the provider's price as reported (possibly zero). The price preservation
// rule against an existing row is applied by the investment sync engine.
func HoldingFromProvider(p providers.HoldingRecord, accountID, securityID, holdingID string, now time.Time) (domain.Holding, error) {
	priceAsOf, err := parseOptionalDate(p.InstitutionPriceAsOf)
	if err != nil {
		return domain.Holding{}, fmt.Errorf("invalid holding price date: %w", err)
	}
	return domain.Holding{
		HoldingID:    holdingID,
		AccountID:    accountID,
		SecurityID:   securityID,
		Quantity:     p.Quantity,
		CostBasis:    coalesceDecimal(p.CostBasis),
		Price:        coalesceDecimal(p.InstitutionPrice),
		PriceAsOf:    priceAsOf,
		Value:        coalesceDecimal(p.InstitutionValue),
		CurrencyCode: p.ISOCurrencyCode,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}, nil
}

// InvestmentTransactionFromProvider builds a local investment transaction.
// SecurityID stays nil for cash movements the provider reports without a
// security reference.
func InvestmentTransactionFromProvider(p providers.InvestmentTransaction, accountID string, securityID *string, localID string, now time.Time) (domain.InvestmentTransaction, error) {
	date, err := parseDate(p.Date)
	if err != nil {
		return domain.InvestmentTransaction{}, fmt.Errorf("invalid investment transaction date %q: %w", p.Date, err)
	}
	return domain.InvestmentTransaction{
		InvestmentTransactionID: localID,
		ExternalID:              p.InvestmentTransactionID,
		AccountID:               accountID,
		SecurityID:              securityID,
		Name:                    p.Name,
		Amount:                  p.Amount,
		Quantity:                p.Quantity,
		Price:                   p.Price,
		Fees:                    p.Fees,
		Type:                    p.Type,
		Subtype:                 p.Subtype,
		Date:                    date,
		CurrencyCode:            p.ISOCurrencyCode,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}, nil
}

func coalesceDecimal(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
