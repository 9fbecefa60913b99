package domain

// ItemStatus indicates whether a linked item's credentials are still valid.
type ItemStatus string

const (
	ItemStatusOK            ItemStatus = "OK"
	ItemStatusLoginRequired ItemStatus = "LOGIN_REQUIRED"
)

// LinkedItem represents one authenticated connection to a financial
// institution (one login at one institution). The two cursors track
// position in the provider's incremental feeds independently and are
// mutated only by the sync engines.
type LinkedItem struct {
	ItemID             string     `json:"itemID"`          // Primary Key (UUID)
	ProviderItemID     string     `json:"providerItemID"`  // Provider-side item id
	AccessToken        string     `json:"-"`               // Sealed at rest, see utils.TokenCipher
	InstitutionName    string     `json:"institutionName"`
	Status             ItemStatus `json:"status"`
	TransactionsCursor *string    `json:"transactionsCursor"` // Nullable; nil means backfill not yet done
	InvestmentsCursor  *string    `json:"investmentsCursor"`  // Nullable
	AuditFields
}
