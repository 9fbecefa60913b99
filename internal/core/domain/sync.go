package domain

// TransactionSyncStats reports what one transaction sync pass actually
// mutated. Counts are exact tallies of rows touched, not of
// provider-reported candidates (removals excluded by split protection do
// not count).
type TransactionSyncStats struct {
	Added             int      `json:"added"`
	Modified          int      `json:"modified"`
	Removed           int      `json:"removed"`
	AccountsUpdated   int      `json:"accountsUpdated"`
	NewTransactionIDs []string `json:"newTransactionIDs"` // Local ids of rows inserted this pass
	NewCursor         *string  `json:"-"`                 // Persisted by the orchestrator on success
}

// Merge folds another pass's stats into this one.
func (s *TransactionSyncStats) Merge(other TransactionSyncStats) {
	s.Added += other.Added
	s.Modified += other.Modified
	s.Removed += other.Removed
	s.AccountsUpdated += other.AccountsUpdated
	s.NewTransactionIDs = append(s.NewTransactionIDs, other.NewTransactionIDs...)
}

// InvestmentSyncStats reports what one investment sync pass mutated.
type InvestmentSyncStats struct {
	SecuritiesAdded               int `json:"securitiesAdded"`
	SecuritiesUpdated             int `json:"securitiesUpdated"`
	HoldingsAdded                 int `json:"holdingsAdded"`
	HoldingsUpdated               int `json:"holdingsUpdated"`
	HoldingsRemoved               int `json:"holdingsRemoved"`
	InvestmentTransactionsAdded   int `json:"investmentTransactionsAdded"`
	InvestmentTransactionsUpdated int `json:"investmentTransactionsUpdated"`
}

// Merge folds another pass's stats into this one.
func (s *InvestmentSyncStats) Merge(other InvestmentSyncStats) {
	s.SecuritiesAdded += other.SecuritiesAdded
	s.SecuritiesUpdated += other.SecuritiesUpdated
	s.HoldingsAdded += other.HoldingsAdded
	s.HoldingsUpdated += other.HoldingsUpdated
	s.HoldingsRemoved += other.HoldingsRemoved
	s.InvestmentTransactionsAdded += other.InvestmentTransactionsAdded
	s.InvestmentTransactionsUpdated += other.InvestmentTransactionsUpdated
}

// SyncOptions selects which engines an orchestrator pass runs.
type SyncOptions struct {
	SyncTransactions    bool `json:"syncTransactions"`
	SyncInvestments     bool `json:"syncInvestments"`
	RunAICategorization bool `json:"runAICategorization"`
}

// ItemSyncError records one item's failure without aborting the pass.
type ItemSyncError struct {
	ItemID string `json:"itemID"`
	Error  string `json:"error"`
}

// SyncSummary aggregates one orchestrator pass across all linked items.
type SyncSummary struct {
	ItemsSynced  int                  `json:"itemsSynced"`
	Transactions TransactionSyncStats `json:"transactions"`
	Investments  InvestmentSyncStats  `json:"investments"`
	Categorized  int                  `json:"categorized"`
	ItemErrors   []ItemSyncError      `json:"itemErrors,omitempty"`
}
