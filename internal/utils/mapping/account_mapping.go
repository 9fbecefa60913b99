package mapping

import (
	"time"

	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	"github.com/shopspring/decimal"
)

// AccountFromProvider builds a local account from a provider record.
// Name is copied here for the initial insert only; the repository upsert
// never writes it on update, so a user-edited display name survives sync.
func AccountFromProvider(p providers.Account, itemID, accountID string, now time.Time) domain.Account {
	current := decimal.Zero
	if p.Balances.Current != nil {
		current = *p.Balances.Current
	}
	return domain.Account{
		AccountID:        accountID,
		ItemID:           itemID,
		ExternalID:       p.AccountID,
		Name:             p.Name,
		OfficialName:     p.OfficialName,
		Mask:             p.Mask,
		AccountType:      p.Type,
		AccountSubtype:   p.Subtype,
		CurrentBalance:   current,
		AvailableBalance: nullDecimal(p.Balances.Available),
		CreditLimit:      nullDecimal(p.Balances.Limit),
		CurrencyCode:     p.Balances.ISOCurrencyCode,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
