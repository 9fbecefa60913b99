package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Security represents a financial instrument (stock, ETF, bond, ...)
// known to the provider. Not mutated by users.
type Security struct {
	SecurityID     string              `json:"securityID"` // Primary Key (UUID)
	ExternalID     string              `json:"externalID"` // Provider security id
	Name           string              `json:"name"`
	TickerSymbol   string              `json:"tickerSymbol"`
	SecurityType   string              `json:"securityType"`
	ClosePrice     decimal.NullDecimal `json:"closePrice"`
	ClosePriceAsOf *time.Time          `json:"closePriceAsOf"`
	CurrencyCode   string              `json:"currencyCode"`
	AuditFields
}

// Holding is a snapshot of quantity/price for one security in one account,
// keyed by the (account, security) pair. Price/PriceAsOf follow the
// preservation rule: a provider snapshot reporting a zero or absent price
// never overwrites a previously stored non-zero price.
type Holding struct {
	HoldingID    string          `json:"holdingID"` // Primary Key (UUID)
	AccountID    string          `json:"accountID"` // FK -> Account.accountID
	SecurityID   string          `json:"securityID"` // FK -> Security.securityID
	Quantity     decimal.Decimal `json:"quantity"`
	CostBasis    decimal.Decimal `json:"costBasis"`
	Price        decimal.Decimal `json:"price"`
	PriceAsOf    *time.Time      `json:"priceAsOf"`
	Value        decimal.Decimal `json:"value"`
	CurrencyCode string          `json:"currencyCode"`
	AuditFields
}

// InvestmentTransaction is one investment ledger entry (buy, sell,
// dividend, cash movement, ...). SecurityID is nil for cash transactions.
type InvestmentTransaction struct {
	InvestmentTransactionID string          `json:"investmentTransactionID"` // Primary Key (UUID)
	ExternalID              string          `json:"externalID"`              // Provider investment-transaction id
	AccountID               string          `json:"accountID"`               // FK -> Account.accountID
	SecurityID              *string         `json:"securityID"`              // FK -> Security.securityID, nullable
	Name                    string          `json:"name"`
	Amount                  decimal.Decimal `json:"amount"`
	Quantity                decimal.Decimal `json:"quantity"`
	Price                   decimal.Decimal `json:"price"`
	Fees                    decimal.Decimal `json:"fees"`
	Type                    string          `json:"type"`
	Subtype                 string          `json:"subtype"`
	Date                    time.Time       `json:"date"`
	CurrencyCode            string          `json:"currencyCode"`
	AuditFields
}
