package mapping

import (
	"fmt"
	"time"

	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
)

const dateLayout = "2006-01-02"

// parseDate parses the provider's date-only format.
func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// parseOptionalDate parses a nullable date-only string.
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseOptionalDateTime parses a nullable RFC3339 datetime string.
func parseOptionalDateTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// providerCategoryHint flattens the provider's category guess into a
// single nullable string, preferring the detailed label.
func providerCategoryHint(c *providers.FinanceCategory) *string {
	if c == nil {
		return nil
	}
	if c.Detailed != "" {
		return &c.Detailed
	}
	if c.Primary != "" {
		return &c.Primary
	}
	return nil
}

// TransactionFromProvider builds a new local transaction from a provider
// record. This is the single point where the amount sign convention is
// inverted: the provider reports positive = expense, local storage keeps
// negative = expense.
func TransactionFromProvider(p providers.Transaction, accountID, transactionID string, now time.Time) (domain.Transaction, error) {
	date, err := parseDate(p.Date)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid transaction date %q: %w", p.Date, err)
	}
	authorizedDate, err := parseOptionalDate(p.AuthorizedDate)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid authorized date: %w", err)
	}
	dateTime, err := parseOptionalDateTime(p.DateTime)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid transaction datetime: %w", err)
	}

	externalID := p.TransactionID
	return domain.Transaction{
		TransactionID:    transactionID,
		AccountID:        accountID,
		ExternalID:       &externalID,
		Amount:           p.Amount.Neg(),
		CurrencyCode:     p.ISOCurrencyCode,
		Date:             date,
		AuthorizedDate:   authorizedDate,
		DateTime:         dateTime,
		Name:             p.Name,
		MerchantName:     p.MerchantName,
		Pending:          p.Pending,
		ProviderCategory: providerCategoryHint(p.PersonalFinanceCategory),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}, nil
}

// ApplyProviderUpdate returns a copy of an existing transaction with the
// provider-owned fields replaced from a "modified" feed record. User-owned
// state (notes, assigned category, split markers, local id) is preserved.
func ApplyProviderUpdate(existing domain.Transaction, p providers.Transaction, now time.Time) (domain.Transaction, error) {
	date, err := parseDate(p.Date)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid transaction date %q: %w", p.Date, err)
	}
	authorizedDate, err := parseOptionalDate(p.AuthorizedDate)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid authorized date: %w", err)
	}
	dateTime, err := parseOptionalDateTime(p.DateTime)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid transaction datetime: %w", err)
	}

	updated := existing
	updated.Amount = p.Amount.Neg()
	updated.CurrencyCode = p.ISOCurrencyCode
	updated.Date = date
	updated.AuthorizedDate = authorizedDate
	updated.DateTime = dateTime
	updated.Name = p.Name
	updated.MerchantName = p.MerchantName
	updated.Pending = p.Pending
	updated.ProviderCategory = providerCategoryHint(p.PersonalFinanceCategory)
	updated.LastUpdatedAt = now
	return updated, nil
}
