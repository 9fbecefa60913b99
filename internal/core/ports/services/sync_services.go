package services

import (
	"context"

	"github.com/cpenarrieta/finsight/internal/core/domain"
)

// TransactionSyncSvc reconciles one item's transaction feed.
type TransactionSyncSvc interface {
	// SyncItemTransactions runs historical backfill (first sync) and the
	// incremental cursor loop for one linked item. The returned stats carry
	// the new cursor; the caller persists it after a successful pass.
	SyncItemTransactions(ctx context.Context, item domain.LinkedItem, accessToken string) (*domain.TransactionSyncStats, error)
}

// InvestmentSyncSvc reconciles one item's securities, holdings and
// investment transactions against the provider's latest snapshot.
type InvestmentSyncSvc interface {
	SyncItemInvestments(ctx context.Context, item domain.LinkedItem, accessToken string) (*domain.InvestmentSyncStats, error)
}

// SyncOrchestratorSvc fans the engines out across all linked items.
type SyncOrchestratorSvc interface {
	// SyncItems runs the selected engines for every linked item, aggregates
	// stats, triggers AI categorization over newly added transactions and
	// invalidates read caches.
	SyncItems(ctx context.Context, opts domain.SyncOptions) (*domain.SyncSummary, error)

	// SyncSingleItem runs the selected engines for one item, identified by
	// the provider-side item id (webhook path).
	SyncSingleItem(ctx context.Context, providerItemID string, opts domain.SyncOptions) (*domain.SyncSummary, error)
}

// CategorizeOptions tunes a single categorization call.
type CategorizeOptions struct {
	// Force categorizes even when a category is already assigned.
	Force bool
	// SkipReviewTag suppresses the "AI Review" tag for bulk/trusted paths.
	SkipReviewTag bool
}

// CategorizationSvc suggests and applies categories using the LLM.
// All per-transaction failures surface as a nil result, never an error
// that could abort a surrounding sync pass.
type CategorizationSvc interface {
	CategorizeTransaction(ctx context.Context, transactionID string, opts CategorizeOptions) (*domain.CategorizationResult, error)

	// CategorizeTransactions shares fetched context across ids and runs
	// with a bounded concurrency window. Returns how many were applied.
	CategorizeTransactions(ctx context.Context, transactionIDs []string) (int, error)

	// AnalyzeReceipt classifies a transaction into split, recategorize or
	// confirm based on its attached receipt files.
	AnalyzeReceipt(ctx context.Context, transactionID string) (*domain.ReceiptAnalysis, error)
}
