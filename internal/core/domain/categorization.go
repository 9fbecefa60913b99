package domain

import "github.com/shopspring/decimal"

// CategorizationResult is the model's suggested category for one
// transaction, already validated against the taxonomy. Confidence is
// 0-100; results at or below the confidence gate are discarded before
// they reach callers.
type CategorizationResult struct {
	CategoryID    *string `json:"categoryID"`
	SubcategoryID *string `json:"subcategoryID"`
	Confidence    int     `json:"confidence"`
	Reasoning     string  `json:"reasoning"`
}

// ReceiptAction is the outcome of a receipt smart analysis.
type ReceiptAction string

const (
	ReceiptActionSplit        ReceiptAction = "split"
	ReceiptActionRecategorize ReceiptAction = "recategorize"
	ReceiptActionConfirm      ReceiptAction = "confirm"
)

// ReceiptSplit is one proposed child line of a split.
type ReceiptSplit struct {
	CategoryID    string          `json:"categoryID"`
	SubcategoryID *string         `json:"subcategoryID"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

// ReceiptAnalysis classifies a transaction into exactly one of three
// outcomes based on its attached receipt. Split is only ever emitted when
// a receipt image was available; a split whose amounts miss the
// transaction total by more than two cents carries a warning but is still
// returned.
type ReceiptAnalysis struct {
	Action        ReceiptAction  `json:"action"`
	Splits        []ReceiptSplit `json:"splits,omitempty"`
	CategoryID    *string        `json:"categoryID,omitempty"`
	SubcategoryID *string        `json:"subcategoryID,omitempty"`
	Confidence    int            `json:"confidence"`
	Reasoning     string         `json:"reasoning"`
	Warnings      []string       `json:"warnings,omitempty"`
}
