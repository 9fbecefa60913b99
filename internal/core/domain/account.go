package domain

import "github.com/shopspring/decimal"

// Account represents one bank or brokerage account under a LinkedItem.
// Name is user-editable and is set once at creation; sync passes never
// overwrite it.
type Account struct {
	AccountID        string              `json:"accountID"`  // Primary Key (UUID)
	ItemID           string              `json:"itemID"`     // FK -> LinkedItem.itemID
	ExternalID       string              `json:"externalID"` // Provider account id, stable join key
	Name             string              `json:"name"`
	OfficialName     string              `json:"officialName"`
	Mask             string              `json:"mask"`
	AccountType      string              `json:"accountType"`
	AccountSubtype   string              `json:"accountSubtype"`
	CurrentBalance   decimal.Decimal     `json:"currentBalance"`
	AvailableBalance decimal.NullDecimal `json:"availableBalance"`
	CreditLimit      decimal.NullDecimal `json:"creditLimit"`
	CurrencyCode     string              `json:"currencyCode"`
	AuditFields
}
