package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single ledger entry.
//
// Amount sign convention: negative = expense, positive = income. The
// provider reports the opposite; the inversion happens exactly once, in
// the record builders (utils/mapping).
//
// Split markers: a user can break one provider transaction into multiple
// child transactions. The parent keeps its provider id in
// OriginalExternalID (ExternalID becomes nil once consumed by children),
// sets IsSplit, and children point back via ParentTransactionID. Rows on
// either side of a split must never be overwritten or deleted by sync.
type Transaction struct {
	TransactionID       string          `json:"transactionID"` // Primary Key (UUID)
	AccountID           string          `json:"accountID"`     // FK -> Account.accountID
	ExternalID          *string         `json:"externalID"`    // Provider transaction id; nil once split
	OriginalExternalID  *string         `json:"originalExternalID"`
	ParentTransactionID *string         `json:"parentTransactionID"` // FK -> Transaction.transactionID; non-nil for split children
	IsSplit             bool            `json:"isSplit"`
	Amount              decimal.Decimal `json:"amount"`
	CurrencyCode        string          `json:"currencyCode"`
	Date                time.Time       `json:"date"`           // Posted date
	AuthorizedDate      *time.Time      `json:"authorizedDate"` // Nullable
	DateTime            *time.Time      `json:"dateTime"`       // Display datetime, nullable
	Name                string          `json:"name"`
	MerchantName        *string         `json:"merchantName"`
	Pending             bool            `json:"pending"`
	CategoryID          *string         `json:"categoryID"`    // FK -> Category.categoryID, nullable
	SubcategoryID       *string         `json:"subcategoryID"` // FK -> Subcategory.subcategoryID, nullable
	ProviderCategory    *string         `json:"providerCategory"` // Provider's own guess, hint only
	Notes               string          `json:"notes"`            // User text, never overwritten by sync
	ReceiptURLs         []string        `json:"receiptURLs"`
	AuditFields
}

// SplitProtected reports whether sync passes must leave this row alone:
// either it has been split into children or it is itself a split child.
func (t Transaction) SplitProtected() bool {
	return t.IsSplit || t.ParentTransactionID != nil
}

// Categorized reports whether the transaction already has a category assigned.
func (t Transaction) Categorized() bool {
	return t.CategoryID != nil
}
