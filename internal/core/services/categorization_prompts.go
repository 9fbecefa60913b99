package services

import (
	"fmt"
	"strings"

	"github.com/cpenarrieta/finsight/internal/core/domain"
)

// buildTaxonomyBlock renders the full category taxonomy as an enumerable
// id -> name mapping the model must choose from.
func buildTaxonomyBlock(categories []domain.Category) string {
	var b strings.Builder
	b.WriteString("Available categories (id: name):\n")
	for _, cat := range categories {
		fmt.Fprintf(&b, "- %s: %s\n", cat.CategoryID, cat.Name)
		for _, sub := range cat.Subcategories {
			fmt.Fprintf(&b, "    - %s: %s\n", sub.SubcategoryID, sub.Name)
		}
	}
	b.WriteString("\nCATEGORY RULES:\n")
	b.WriteString("1. categoryId must be EXACTLY one of the category ids above, or null.\n")
	b.WriteString("2. subcategoryId must be one of the listed subcategory ids of the chosen category, or null.\n")
	b.WriteString("3. If you are not reasonably sure, return null for both ids with a low confidence.\n")
	return b.String()
}

// buildTransactionBlock renders one transaction the way the model sees it.
func buildTransactionBlock(txn domain.Transaction) string {
	var b strings.Builder
	b.WriteString("Transaction to categorize:\n")
	fmt.Fprintf(&b, "- name: %s\n", txn.Name)
	if txn.MerchantName != nil {
		fmt.Fprintf(&b, "- merchant: %s\n", *txn.MerchantName)
	}
	direction := "expense"
	if txn.Amount.IsPositive() {
		direction = "income"
	}
	fmt.Fprintf(&b, "- amount: %s %s (%s)\n", txn.Amount.Abs().StringFixed(2), txn.CurrencyCode, direction)
	fmt.Fprintf(&b, "- date: %s\n", txn.Date.Format("2006-01-02"))
	if txn.ProviderCategory != nil {
		fmt.Fprintf(&b, "- provider category guess: %s\n", *txn.ProviderCategory)
	}
	if txn.Notes != "" {
		fmt.Fprintf(&b, "- user notes: %s\n", txn.Notes)
	}
	return b.String()
}

// buildHistoryBlock renders previously categorized transactions as
// behavioral context.
func buildHistoryBlock(title string, txns []domain.Transaction) string {
	if len(txns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(title + "\n")
	for _, t := range txns {
		merchant := ""
		if t.MerchantName != nil {
			merchant = " / " + *t.MerchantName
		}
		categoryID := ""
		if t.CategoryID != nil {
			categoryID = *t.CategoryID
		}
		subcategoryID := "null"
		if t.SubcategoryID != nil {
			subcategoryID = *t.SubcategoryID
		}
		fmt.Fprintf(&b, "- %s%s | %s %s | categoryId=%s subcategoryId=%s\n",
			t.Name, merchant, t.Amount.StringFixed(2), t.CurrencyCode, categoryID, subcategoryID)
	}
	b.WriteString("\n")
	return b.String()
}

// buildCategorizationPrompt assembles the full categorization prompt:
// taxonomy, similar transactions, recent history, the target transaction
// and the strict-JSON output contract.
func buildCategorizationPrompt(categories []domain.Category, txn domain.Transaction, similar, recent []domain.Transaction) string {
	var b strings.Builder
	b.WriteString("You are a personal finance assistant that categorizes bank transactions.\n\n")
	b.WriteString(buildTransactionBlock(txn))
	b.WriteString("\n")
	b.WriteString(buildTaxonomyBlock(categories))
	b.WriteString("\n")
	b.WriteString(buildHistoryBlock("Similar transactions the user already categorized (strongest signal):", similar))
	b.WriteString(buildHistoryBlock("Recent categorized transactions (general behavior):", recent))
	b.WriteString("Guidance:\n")
	b.WriteString("- The user's notes and the similar-transaction patterns outrank the provider's category guess.\n")
	b.WriteString("- Prefer the category the user has consistently chosen for this merchant.\n")
	b.WriteString("- When uncertain, return null ids rather than guessing.\n\n")
	b.WriteString("Return ONLY valid raw JSON, no markdown fences, with exactly these fields:\n")
	b.WriteString(`{"categoryId": string or null, "subcategoryId": string or null, "confidence": number 0-100, "reasoning": short string}` + "\n")
	return b.String()
}

// buildReceiptAnalysisPrompt assembles the receipt smart-analysis prompt.
// The split outcome is only offered when a receipt image accompanies the
// request; line-item detail cannot be inferred otherwise.
func buildReceiptAnalysisPrompt(categories []domain.Category, txn domain.Transaction, currentCategory string, hasReceipt bool) string {
	var b strings.Builder
	b.WriteString("You are reviewing one bank transaction against its receipt.\n\n")
	b.WriteString(buildTransactionBlock(txn))
	fmt.Fprintf(&b, "- current category: %s\n\n", currentCategory)
	b.WriteString(buildTaxonomyBlock(categories))
	b.WriteString("\nClassify the transaction into exactly one action:\n")
	if hasReceipt {
		b.WriteString("- \"split\": the receipt's line items clearly belong to 2 or more category groups. Provide one split per group; amounts must sum to the transaction total.\n")
	}
	b.WriteString("- \"recategorize\": a single better category exists than the current one.\n")
	b.WriteString("- \"confirm\": the current category is correct.\n\n")
	if !hasReceipt {
		b.WriteString("No receipt image is attached, so \"split\" is not available.\n\n")
	}
	b.WriteString("Return ONLY valid raw JSON, no markdown fences, with exactly these fields:\n")
	b.WriteString(`{"action": "split"|"recategorize"|"confirm", "splits": [{"categoryId": string, "subcategoryId": string or null, "amount": positive number, "description": string}] or [], "categoryId": string or null, "subcategoryId": string or null, "confidence": number 0-100, "reasoning": short string}` + "\n")
	return b.String()
}
