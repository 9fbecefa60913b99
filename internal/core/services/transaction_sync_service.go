package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cpenarrieta/finsight/internal/apperrors"
	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	portsrepo "github.com/cpenarrieta/finsight/internal/core/ports/repositories"
	"github.com/cpenarrieta/finsight/internal/middleware"
	"github.com/cpenarrieta/finsight/internal/utils/mapping"
	"github.com/google/uuid"
)

// TransactionSyncService reconciles the provider's transaction feeds
// against local state for one linked item: a one-time historical backfill
// followed by the cursor-based incremental loop. Rows touched by a user
// split are never overwritten or deleted, whatever the provider reports.
type TransactionSyncService struct {
	provider     providers.FinancialDataProvider
	itemRepo     portsrepo.ItemRepository
	accountRepo  portsrepo.AccountRepository
	txnRepo      portsrepo.TransactionRepository
	cache        providers.CacheInvalidator
	historyStart time.Time
	pageSize     int
}

// NewTransactionSyncService creates a transaction sync engine.
func NewTransactionSyncService(
	provider providers.FinancialDataProvider,
	itemRepo portsrepo.ItemRepository,
	accountRepo portsrepo.AccountRepository,
	txnRepo portsrepo.TransactionRepository,
	cache providers.CacheInvalidator,
	historyStart time.Time,
	pageSize int,
) *TransactionSyncService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &TransactionSyncService{
		provider:     provider,
		itemRepo:     itemRepo,
		accountRepo:  accountRepo,
		txnRepo:      txnRepo,
		cache:        cache,
		historyStart: historyStart,
		pageSize:     pageSize,
	}
}

// SyncItemTransactions runs the full transaction pass for one item.
// The returned stats carry exact tallies of rows actually mutated plus
// the local ids of every row inserted during this call; NewCursor is only
// set when the whole pass completed, so a failure never advances the
// stored cursor.
func (s *TransactionSyncService) SyncItemTransactions(ctx context.Context, item domain.LinkedItem, accessToken string) (*domain.TransactionSyncStats, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("item_id", item.ItemID))
	stats := &domain.TransactionSyncStats{NewTransactionIDs: []string{}}

	// Historical backfill runs once, before the item has ever produced a cursor.
	if item.TransactionsCursor == nil {
		logger.Info("No transactions cursor stored, running historical backfill")
		if err := s.backfillHistory(ctx, item, accessToken, stats); err != nil {
			return nil, err
		}
	}

	cursor := item.TransactionsCursor
	accountIDsByExternal := map[string]string{}
	for {
		page, err := s.provider.SyncTransactions(ctx, accessToken, cursor, s.pageSize)
		if err != nil {
			if errors.Is(err, apperrors.ErrItemLoginRequired) {
				logger.Warn("Provider reported login required, flagging item")
				if markErr := s.itemRepo.MarkItemLoginRequired(ctx, item.ItemID, time.Now()); markErr != nil {
					logger.Error("Failed to mark item login required", slog.String("error", markErr.Error()))
				}
				s.cache.InvalidateTags(providers.TagItems)
			}
			return nil, fmt.Errorf("incremental transaction sync failed for item %s: %w", item.ItemID, err)
		}

		for _, acc := range page.Accounts {
			if err := s.upsertAccount(ctx, item.ItemID, acc, accountIDsByExternal); err != nil {
				return nil, err
			}
			stats.AccountsUpdated++
		}

		for _, p := range page.Added {
			if err := s.applyAdded(ctx, item.ItemID, p, accountIDsByExternal, stats, logger); err != nil {
				return nil, err
			}
		}

		for _, p := range page.Modified {
			if err := s.applyModified(ctx, item.ItemID, p, accountIDsByExternal, stats, logger); err != nil {
				return nil, err
			}
		}

		if len(page.Removed) > 0 {
			ids := make([]string, len(page.Removed))
			for i, r := range page.Removed {
				ids[i] = r.TransactionID
			}
			// The repository skips split-protected rows; count what was
			// actually deleted, not what the provider asked for.
			deleted, err := s.txnRepo.DeleteByExternalIDs(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("failed to delete removed transactions for item %s: %w", item.ItemID, err)
			}
			stats.Removed += int(deleted)
		}

		next := page.NextCursor
		cursor = &next
		if !page.HasMore {
			break
		}
	}

	stats.NewCursor = cursor
	logger.Info("Transaction sync completed",
		slog.Int("added", stats.Added),
		slog.Int("modified", stats.Modified),
		slog.Int("removed", stats.Removed),
		slog.Int("accounts_updated", stats.AccountsUpdated),
	)
	return stats, nil
}

// backfillHistory pages the date-range endpoint from the configured start
// date to today, accumulating until the provider-reported total is reached.
func (s *TransactionSyncService) backfillHistory(ctx context.Context, item domain.LinkedItem, accessToken string, stats *domain.TransactionSyncStats) error {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("item_id", item.ItemID))
	accountIDsByExternal := map[string]string{}
	endDate := time.Now()

	fetched := 0
	for {
		page, err := s.provider.GetTransactions(ctx, accessToken, s.historyStart, endDate, s.pageSize, fetched)
		if err != nil {
			return fmt.Errorf("historical fetch failed for item %s at offset %d: %w", item.ItemID, fetched, err)
		}

		for _, acc := range page.Accounts {
			if err := s.upsertAccount(ctx, item.ItemID, acc, accountIDsByExternal); err != nil {
				return err
			}
		}

		for _, p := range page.Transactions {
			if err := s.upsertHistorical(ctx, item.ItemID, p, accountIDsByExternal, stats, logger); err != nil {
				return err
			}
		}

		fetched += len(page.Transactions)
		if fetched >= page.TotalTransactions || len(page.Transactions) == 0 {
			break
		}
	}

	logger.Info("Historical backfill completed", slog.Int("fetched", fetched))
	return nil
}

// upsertHistorical applies one historical record: split parents are left
// alone, known rows are refreshed, unknown rows are inserted.
func (s *TransactionSyncService) upsertHistorical(ctx context.Context, itemID string, p providers.Transaction, accountIDs map[string]string, stats *domain.TransactionSyncStats, logger *slog.Logger) error {
	existing, err := s.lookupLocal(ctx, p.TransactionID)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.SplitProtected() {
			logger.Debug("Skipping split-protected transaction during backfill", slog.String("external_id", p.TransactionID))
			return nil
		}
		updated, err := mapping.ApplyProviderUpdate(*existing, p, time.Now())
		if err != nil {
			return fmt.Errorf("failed to build update for transaction %s: %w", p.TransactionID, err)
		}
		if err := s.txnRepo.UpdateFromFeed(ctx, updated); err != nil {
			return fmt.Errorf("failed to update transaction %s: %w", p.TransactionID, err)
		}
		stats.Modified++
		return nil
	}
	return s.insertNew(ctx, itemID, p, accountIDs, stats, logger)
}

// applyAdded inserts one record from the feed's added set, unless a split
// parent already claims its provider id.
func (s *TransactionSyncService) applyAdded(ctx context.Context, itemID string, p providers.Transaction, accountIDs map[string]string, stats *domain.TransactionSyncStats, logger *slog.Logger) error {
	parent, err := s.findSplitParent(ctx, p.TransactionID)
	if err != nil {
		return err
	}
	if parent != nil {
		logger.Debug("Skipping added transaction claimed by a split parent", slog.String("external_id", p.TransactionID))
		return nil
	}

	existing, err := s.findByExternalID(ctx, p.TransactionID)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.SplitProtected() {
			return nil
		}
		updated, err := mapping.ApplyProviderUpdate(*existing, p, time.Now())
		if err != nil {
			return fmt.Errorf("failed to build update for transaction %s: %w", p.TransactionID, err)
		}
		if err := s.txnRepo.UpdateFromFeed(ctx, updated); err != nil {
			return fmt.Errorf("failed to update transaction %s: %w", p.TransactionID, err)
		}
		stats.Modified++
		return nil
	}

	return s.insertNew(ctx, itemID, p, accountIDs, stats, logger)
}

// applyModified updates one record from the feed's modified set in place,
// unless the local row is split-protected. A modified record we have never
// seen is treated as an add.
func (s *TransactionSyncService) applyModified(ctx context.Context, itemID string, p providers.Transaction, accountIDs map[string]string, stats *domain.TransactionSyncStats, logger *slog.Logger) error {
	existing, err := s.lookupLocal(ctx, p.TransactionID)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.insertNew(ctx, itemID, p, accountIDs, stats, logger)
	}
	if existing.SplitProtected() {
		logger.Debug("Skipping modified transaction that is split-protected", slog.String("external_id", p.TransactionID))
		return nil
	}

	updated, err := mapping.ApplyProviderUpdate(*existing, p, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build update for transaction %s: %w", p.TransactionID, err)
	}
	if err := s.txnRepo.UpdateFromFeed(ctx, updated); err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", p.TransactionID, err)
	}
	stats.Modified++
	return nil
}

// insertNew persists a freshly mapped transaction and records its local id.
func (s *TransactionSyncService) insertNew(ctx context.Context, itemID string, p providers.Transaction, accountIDs map[string]string, stats *domain.TransactionSyncStats, logger *slog.Logger) error {
	accountID, err := s.resolveAccountID(ctx, p.AccountID, accountIDs)
	if err != nil {
		return err
	}
	if accountID == "" {
		logger.Warn("Skipping transaction with no matching local account", slog.String("external_id", p.TransactionID), slog.String("account_external_id", p.AccountID))
		return nil
	}

	txn, err := mapping.TransactionFromProvider(p, accountID, uuid.NewString(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to build transaction %s: %w", p.TransactionID, err)
	}
	if err := s.txnRepo.SaveTransaction(ctx, txn); err != nil {
		return fmt.Errorf("failed to save transaction %s: %w", p.TransactionID, err)
	}
	stats.Added++
	stats.NewTransactionIDs = append(stats.NewTransactionIDs, txn.TransactionID)
	return nil
}

// lookupLocal finds the local row for a provider id, whether it still
// carries the id directly or holds it as a split parent's original id.
func (s *TransactionSyncService) lookupLocal(ctx context.Context, externalID string) (*domain.Transaction, error) {
	existing, err := s.findByExternalID(ctx, externalID)
	if err != nil || existing != nil {
		return existing, err
	}
	return s.findSplitParent(ctx, externalID)
}

func (s *TransactionSyncService) findByExternalID(ctx context.Context, externalID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up transaction %s: %w", externalID, err)
	}
	return txn, nil
}

func (s *TransactionSyncService) findSplitParent(ctx context.Context, externalID string) (*domain.Transaction, error) {
	parent, err := s.txnRepo.FindSplitParentByOriginalExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up split parent for %s: %w", externalID, err)
	}
	return parent, nil
}

// upsertAccount writes a provider account record through the repository,
// which preserves the user-edited display name on update.
func (s *TransactionSyncService) upsertAccount(ctx context.Context, itemID string, acc providers.Account, accountIDs map[string]string) error {
	account := mapping.AccountFromProvider(acc, itemID, uuid.NewString(), time.Now())
	if _, err := s.accountRepo.UpsertAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to upsert account %s: %w", acc.AccountID, err)
	}
	delete(accountIDs, acc.AccountID) // force a re-resolve after the write
	return nil
}

// resolveAccountID maps a provider account id to the local account id,
// memoizing lookups for the duration of one sync pass.
func (s *TransactionSyncService) resolveAccountID(ctx context.Context, externalID string, cache map[string]string) (string, error) {
	if id, ok := cache[externalID]; ok {
		return id, nil
	}
	account, err := s.accountRepo.FindAccountByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve account %s: %w", externalID, err)
	}
	cache[externalID] = account.AccountID
	return account.AccountID, nil
}
