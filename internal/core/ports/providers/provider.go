package providers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one transaction record as the provider reports it.
// Amount follows the provider's sign convention (positive = expense);
// the record builders invert it before persistence. Dates arrive as
// strings ("2006-01-02" for dates, RFC3339 for datetimes) and are parsed
// by the builders.
type Transaction struct {
	TransactionID           string           `json:"transaction_id"`
	AccountID               string           `json:"account_id"`
	Amount                  decimal.Decimal  `json:"amount"`
	ISOCurrencyCode         string           `json:"iso_currency_code"`
	Date                    string           `json:"date"`
	AuthorizedDate          *string          `json:"authorized_date"`
	DateTime                *string          `json:"datetime"`
	Name                    string           `json:"name"`
	MerchantName            *string          `json:"merchant_name"`
	Pending                 bool             `json:"pending"`
	PersonalFinanceCategory *FinanceCategory `json:"personal_finance_category"`
}

// FinanceCategory is the provider's own category guess for a transaction.
type FinanceCategory struct {
	Primary  string `json:"primary"`
	Detailed string `json:"detailed"`
}

// RemovedTransaction identifies a transaction the provider has retracted.
type RemovedTransaction struct {
	TransactionID string `json:"transaction_id"`
}

// Account is one account record as the provider reports it.
type Account struct {
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName string   `json:"official_name"`
	Mask         string   `json:"mask"`
	Type         string   `json:"type"`
	Subtype      string   `json:"subtype"`
	Balances     Balances `json:"balances"`
}

// Balances carries an account's balance figures; all nullable.
type Balances struct {
	Current         *decimal.Decimal `json:"current"`
	Available       *decimal.Decimal `json:"available"`
	Limit           *decimal.Decimal `json:"limit"`
	ISOCurrencyCode string           `json:"iso_currency_code"`
}

// TransactionsPage is one page of the offset-paginated date-range fetch.
type TransactionsPage struct {
	Transactions      []Transaction `json:"transactions"`
	TotalTransactions int           `json:"total_transactions"`
	Accounts          []Account     `json:"accounts"`
}

// SyncPage is one page of the cursor-based incremental change feed.
type SyncPage struct {
	Added      []Transaction        `json:"added"`
	Modified   []Transaction        `json:"modified"`
	Removed    []RemovedTransaction `json:"removed"`
	Accounts   []Account            `json:"accounts"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
}

// Security is one security record as the provider reports it.
type Security struct {
	SecurityID      string           `json:"security_id"`
	Name            string           `json:"name"`
	TickerSymbol    string           `json:"ticker_symbol"`
	Type            string           `json:"type"`
	ClosePrice      *decimal.Decimal `json:"close_price"`
	ClosePriceAsOf  *string          `json:"close_price_as_of"`
	ISOCurrencyCode string           `json:"iso_currency_code"`
}

// HoldingRecord is one holding in the provider's holdings snapshot.
type HoldingRecord struct {
	AccountID            string           `json:"account_id"`
	SecurityID           string           `json:"security_id"`
	Quantity             decimal.Decimal  `json:"quantity"`
	CostBasis            *decimal.Decimal `json:"cost_basis"`
	InstitutionPrice     *decimal.Decimal `json:"institution_price"`
	InstitutionPriceAsOf *string          `json:"institution_price_as_of"`
	InstitutionValue     *decimal.Decimal `json:"institution_value"`
	ISOCurrencyCode      string           `json:"iso_currency_code"`
}

// HoldingsSnapshot is the provider's full current view of an item's
// investment positions. Holdings are reconciled against it wholesale;
// there is no incremental feed for them.
type HoldingsSnapshot struct {
	Accounts   []Account       `json:"accounts"`
	Securities []Security      `json:"securities"`
	Holdings   []HoldingRecord `json:"holdings"`
}

// InvestmentTransaction is one investment ledger record from the provider.
type InvestmentTransaction struct {
	InvestmentTransactionID string          `json:"investment_transaction_id"`
	AccountID               string          `json:"account_id"`
	SecurityID              *string         `json:"security_id"`
	Name                    string          `json:"name"`
	Amount                  decimal.Decimal `json:"amount"`
	Quantity                decimal.Decimal `json:"quantity"`
	Price                   decimal.Decimal `json:"price"`
	Fees                    decimal.Decimal `json:"fees"`
	Type                    string          `json:"type"`
	Subtype                 string          `json:"subtype"`
	Date                    string          `json:"date"`
	ISOCurrencyCode         string          `json:"iso_currency_code"`
}

// InvestmentTransactionsPage is one page of the offset-paginated
// investment-transactions fetch.
type InvestmentTransactionsPage struct {
	InvestmentTransactions      []InvestmentTransaction `json:"investment_transactions"`
	TotalInvestmentTransactions int                     `json:"total_investment_transactions"`
	Securities                  []Security              `json:"securities"`
}

// FinancialDataProvider is the narrow contract the sync engines consume.
// Implementations must surface the provider's "item login required"
// condition as apperrors.ErrItemLoginRequired (wrapped is fine).
type FinancialDataProvider interface {
	// GetTransactions fetches one offset page of the date-range transaction endpoint.
	GetTransactions(ctx context.Context, accessToken string, startDate, endDate time.Time, count, offset int) (*TransactionsPage, error)

	// SyncTransactions fetches one page of the cursor-based change feed.
	// A nil cursor starts the feed from the beginning.
	SyncTransactions(ctx context.Context, accessToken string, cursor *string, count int) (*SyncPage, error)

	// GetHoldings fetches the full current holdings snapshot.
	GetHoldings(ctx context.Context, accessToken string) (*HoldingsSnapshot, error)

	// GetInvestmentTransactions fetches one offset page of investment transactions.
	GetInvestmentTransactions(ctx context.Context, accessToken string, startDate, endDate time.Time, count, offset int) (*InvestmentTransactionsPage, error)
}
