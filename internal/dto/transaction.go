package dto

import (
	"time"

	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionResponse is the outward shape of one transaction.
type TransactionResponse struct {
	TransactionID    string          `json:"transactionID"`
	AccountID        string          `json:"accountID"`
	Amount           decimal.Decimal `json:"amount"`
	CurrencyCode     string          `json:"currencyCode"`
	Date             time.Time       `json:"date"`
	Name             string          `json:"name"`
	MerchantName     *string         `json:"merchantName"`
	Pending          bool            `json:"pending"`
	IsSplit          bool            `json:"isSplit"`
	CategoryID       *string         `json:"categoryID"`
	SubcategoryID    *string         `json:"subcategoryID"`
	ProviderCategory *string         `json:"providerCategory"`
	Notes            string          `json:"notes"`
	ReceiptURLs      []string        `json:"receiptURLs"`
}

// ToTransactionResponse converts a domain transaction to its response shape.
func ToTransactionResponse(txn domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:    txn.TransactionID,
		AccountID:        txn.AccountID,
		Amount:           txn.Amount,
		CurrencyCode:     txn.CurrencyCode,
		Date:             txn.Date,
		Name:             txn.Name,
		MerchantName:     txn.MerchantName,
		Pending:          txn.Pending,
		IsSplit:          txn.IsSplit,
		CategoryID:       txn.CategoryID,
		SubcategoryID:    txn.SubcategoryID,
		ProviderCategory: txn.ProviderCategory,
		Notes:            txn.Notes,
		ReceiptURLs:      txn.ReceiptURLs,
	}
}

// ToTransactionResponseSlice converts a slice of domain transactions.
func ToTransactionResponseSlice(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, ToTransactionResponse(txn))
	}
	return out
}

// CategorizeRequest tunes a manual categorization call.
type CategorizeRequest struct {
	Force         bool `json:"force"`
	SkipReviewTag bool `json:"skipReviewTag"`
}

// CategorizeResponse wraps a categorization outcome; Result is null when
// the model declined or was gated.
type CategorizeResponse struct {
	Applied bool                         `json:"applied"`
	Result  *domain.CategorizationResult `json:"result"`
}
