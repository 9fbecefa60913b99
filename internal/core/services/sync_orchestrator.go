package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cpenarrieta/finsight/internal/apperrors"
	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	portsrepo "github.com/cpenarrieta/finsight/internal/core/ports/repositories"
	portssvc "github.com/cpenarrieta/finsight/internal/core/ports/services"
	"github.com/cpenarrieta/finsight/internal/middleware"
	"github.com/cpenarrieta/finsight/internal/utils"
	"golang.org/x/sync/singleflight"
)

// SyncOrchestrator fans the sync engines out across every linked item,
// aggregates stats, hands newly added transactions to the categorization
// engine and invalidates read caches for whatever was synced.
//
// One item's failure is contained: it is recorded in the summary and the
// pass continues with the next item. Concurrent syncs of the same item
// (manual trigger racing the scheduler) collapse into a single flight.
type SyncOrchestrator struct {
	itemRepo    portsrepo.ItemRepository
	txnSync     portssvc.TransactionSyncSvc
	invSync     portssvc.InvestmentSyncSvc
	categorizer portssvc.CategorizationSvc
	cache       providers.CacheInvalidator
	tokens      *utils.TokenCipher
	analytics   *utils.PosthogClientWrapper
	flights     singleflight.Group
}

// NewSyncOrchestrator creates the orchestrator.
func NewSyncOrchestrator(
	itemRepo portsrepo.ItemRepository,
	txnSync portssvc.TransactionSyncSvc,
	invSync portssvc.InvestmentSyncSvc,
	categorizer portssvc.CategorizationSvc,
	cache providers.CacheInvalidator,
	tokens *utils.TokenCipher,
	analytics *utils.PosthogClientWrapper,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		itemRepo:    itemRepo,
		txnSync:     txnSync,
		invSync:     invSync,
		categorizer: categorizer,
		cache:       cache,
		tokens:      tokens,
		analytics:   analytics,
	}
}

// itemOutcome carries one item's engine results through the singleflight.
type itemOutcome struct {
	txnStats *domain.TransactionSyncStats
	invStats *domain.InvestmentSyncStats
}

// SyncItems runs the selected engines for every linked item sequentially.
func (o *SyncOrchestrator) SyncItems(ctx context.Context, opts domain.SyncOptions) (*domain.SyncSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	items, err := o.itemRepo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked items: %w", err)
	}

	summary := &domain.SyncSummary{}
	for _, item := range items {
		o.syncItemInto(ctx, item, opts, summary, logger)
	}

	o.finishPass(ctx, opts, summary, logger)
	return summary, nil
}

// SyncSingleItem runs the selected engines for one item identified by the
// provider-side item id. Used by the webhook path.
func (o *SyncOrchestrator) SyncSingleItem(ctx context.Context, providerItemID string, opts domain.SyncOptions) (*domain.SyncSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	item, err := o.itemRepo.FindItemByProviderItemID(ctx, providerItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to find item %s: %w", providerItemID, err)
	}

	summary := &domain.SyncSummary{}
	o.syncItemInto(ctx, *item, opts, summary, logger)
	o.finishPass(ctx, opts, summary, logger)
	return summary, nil
}

// syncItemInto runs one item's engines and folds the outcome into the
// summary; failures are recorded, not propagated.
func (o *SyncOrchestrator) syncItemInto(ctx context.Context, item domain.LinkedItem, opts domain.SyncOptions, summary *domain.SyncSummary, logger *slog.Logger) {
	if item.Status == domain.ItemStatusLoginRequired {
		logger.Warn("Skipping item pending re-authentication", slog.String("item_id", item.ItemID))
		summary.ItemErrors = append(summary.ItemErrors, domain.ItemSyncError{
			ItemID: item.ItemID,
			Error:  apperrors.ErrItemLoginRequired.Error(),
		})
		return
	}

	outcome, err := o.syncOne(ctx, item, opts)
	if err != nil {
		logger.Error("Item sync failed", slog.String("item_id", item.ItemID), slog.String("error", err.Error()))
		summary.ItemErrors = append(summary.ItemErrors, domain.ItemSyncError{ItemID: item.ItemID, Error: err.Error()})
		return
	}

	summary.ItemsSynced++
	if outcome.txnStats != nil {
		summary.Transactions.Merge(*outcome.txnStats)
	}
	if outcome.invStats != nil {
		summary.Investments.Merge(*outcome.invStats)
	}

	o.analytics.Enqueue(item.ItemID, "item_synced", map[string]any{
		"transactions": opts.SyncTransactions,
		"investments":  opts.SyncInvestments,
	})
}

// syncOne executes the engines for one item inside a per-item singleflight,
// so a manual trigger racing the scheduler shares one execution.
func (o *SyncOrchestrator) syncOne(ctx context.Context, item domain.LinkedItem, opts domain.SyncOptions) (itemOutcome, error) {
	v, err, _ := o.flights.Do(item.ItemID, func() (interface{}, error) {
		accessToken, err := o.tokens.Open(item.AccessToken)
		if err != nil {
			return itemOutcome{}, fmt.Errorf("failed to unseal access token for item %s: %w", item.ItemID, err)
		}

		outcome := itemOutcome{}
		if opts.SyncTransactions {
			stats, err := o.txnSync.SyncItemTransactions(ctx, item, accessToken)
			if err != nil {
				return itemOutcome{}, err
			}
			// The cursor only advances after the pass completed.
			if stats.NewCursor != nil {
				if err := o.itemRepo.UpdateTransactionsCursor(ctx, item.ItemID, *stats.NewCursor, time.Now()); err != nil {
					return itemOutcome{}, fmt.Errorf("failed to persist transactions cursor for item %s: %w", item.ItemID, err)
				}
			}
			outcome.txnStats = stats
		}

		if opts.SyncInvestments {
			stats, err := o.invSync.SyncItemInvestments(ctx, item, accessToken)
			if err != nil {
				return itemOutcome{}, err
			}
			outcome.invStats = stats
		}
		return outcome, nil
	})
	if err != nil {
		return itemOutcome{}, err
	}
	return v.(itemOutcome), nil
}

// finishPass runs post-aggregation work: AI categorization over every new
// transaction id and cache invalidation proportional to what was synced.
func (o *SyncOrchestrator) finishPass(ctx context.Context, opts domain.SyncOptions, summary *domain.SyncSummary, logger *slog.Logger) {
	if opts.RunAICategorization && len(summary.Transactions.NewTransactionIDs) > 0 {
		count, err := o.categorizer.CategorizeTransactions(ctx, summary.Transactions.NewTransactionIDs)
		if err != nil {
			// Categorization is best-effort; a batch-level failure must not
			// fail the sync pass.
			logger.Error("Bulk categorization failed", slog.String("error", err.Error()))
		} else {
			summary.Categorized = count
		}
	}

	tags := []string{}
	if opts.SyncTransactions {
		tags = append(tags, providers.TagTransactions, providers.TagAccounts, providers.TagItems)
	}
	if opts.SyncInvestments {
		tags = append(tags, providers.TagHoldings, providers.TagInvestments)
	}
	if len(tags) > 0 {
		tags = append(tags, providers.TagDashboard)
		o.cache.InvalidateTags(tags...)
	}

	logger.Info("Sync pass finished",
		slog.Int("items_synced", summary.ItemsSynced),
		slog.Int("transactions_added", summary.Transactions.Added),
		slog.Int("transactions_modified", summary.Transactions.Modified),
		slog.Int("transactions_removed", summary.Transactions.Removed),
		slog.Int("holdings_removed", summary.Investments.HoldingsRemoved),
		slog.Int("categorized", summary.Categorized),
		slog.Int("item_errors", len(summary.ItemErrors)),
	)
}
