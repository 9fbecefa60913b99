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

// InvestmentSyncService reconciles one item's securities, holdings and
// investment transactions against the provider's latest snapshot.
// Holdings have no incremental feed: each pass diffs the full snapshot,
// deleting local holdings whose (account, security) pair has disappeared
// and preserving previously stored prices when the provider transiently
// reports none.
type InvestmentSyncService struct {
	provider     providers.FinancialDataProvider
	itemRepo     portsrepo.ItemRepository
	accountRepo  portsrepo.AccountRepository
	invRepo      portsrepo.InvestmentRepository
	cache        providers.CacheInvalidator
	historyStart time.Time
	pageSize     int
}

// NewInvestmentSyncService creates an investment sync engine.
func NewInvestmentSyncService(
	provider providers.FinancialDataProvider,
	itemRepo portsrepo.ItemRepository,
	accountRepo portsrepo.AccountRepository,
	invRepo portsrepo.InvestmentRepository,
	cache providers.CacheInvalidator,
	historyStart time.Time,
	pageSize int,
) *InvestmentSyncService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &InvestmentSyncService{
		provider:     provider,
		itemRepo:     itemRepo,
		accountRepo:  accountRepo,
		invRepo:      invRepo,
		cache:        cache,
		historyStart: historyStart,
		pageSize:     pageSize,
	}
}

// SyncItemInvestments runs the full investment pass for one item. Any
// provider or persistence error propagates unmodified; the caller retries
// the whole item on the next scheduled run.
func (s *InvestmentSyncService) SyncItemInvestments(ctx context.Context, item domain.LinkedItem, accessToken string) (*domain.InvestmentSyncStats, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("item_id", item.ItemID))
	stats := &domain.InvestmentSyncStats{}

	snapshot, err := s.provider.GetHoldings(ctx, accessToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrItemLoginRequired) {
			logger.Warn("Provider reported login required during holdings fetch, flagging item")
			if markErr := s.itemRepo.MarkItemLoginRequired(ctx, item.ItemID, time.Now()); markErr != nil {
				logger.Error("Failed to mark item login required", slog.String("error", markErr.Error()))
			}
			s.cache.InvalidateTags(providers.TagItems)
		}
		return nil, fmt.Errorf("holdings fetch failed for item %s: %w", item.ItemID, err)
	}

	accountIDsByExternal := map[string]string{}
	for _, acc := range snapshot.Accounts {
		account := mapping.AccountFromProvider(acc, item.ItemID, uuid.NewString(), time.Now())
		if _, err := s.accountRepo.UpsertAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to upsert account %s: %w", acc.AccountID, err)
		}
	}

	securityIDsByExternal := map[string]string{}
	if err := s.upsertSecurities(ctx, snapshot.Securities, securityIDsByExternal, stats); err != nil {
		return nil, err
	}

	if err := s.reconcileHoldings(ctx, item, snapshot.Holdings, accountIDsByExternal, securityIDsByExternal, stats, logger); err != nil {
		return nil, err
	}

	if err := s.syncInvestmentTransactions(ctx, item, accessToken, accountIDsByExternal, securityIDsByExternal, stats, logger); err != nil {
		return nil, err
	}

	logger.Info("Investment sync completed",
		slog.Int("securities_added", stats.SecuritiesAdded),
		slog.Int("holdings_added", stats.HoldingsAdded),
		slog.Int("holdings_updated", stats.HoldingsUpdated),
		slog.Int("holdings_removed", stats.HoldingsRemoved),
		slog.Int("investment_transactions_added", stats.InvestmentTransactionsAdded),
	)
	return stats, nil
}

// upsertSecurities writes every returned security, counting a security as
// added only when no prior row existed.
func (s *InvestmentSyncService) upsertSecurities(ctx context.Context, secs []providers.Security, securityIDs map[string]string, stats *domain.InvestmentSyncStats) error {
	for _, p := range secs {
		if _, done := securityIDs[p.SecurityID]; done {
			continue
		}
		sec, err := mapping.SecurityFromProvider(p, uuid.NewString(), time.Now())
		if err != nil {
			return fmt.Errorf("failed to build security %s: %w", p.SecurityID, err)
		}
		created, err := s.invRepo.UpsertSecurity(ctx, sec)
		if err != nil {
			return fmt.Errorf("failed to upsert security %s: %w", p.SecurityID, err)
		}
		if created {
			stats.SecuritiesAdded++
			securityIDs[p.SecurityID] = sec.SecurityID
		} else {
			stats.SecuritiesUpdated++
			stored, err := s.invRepo.FindSecurityByExternalID(ctx, p.SecurityID)
			if err != nil {
				return fmt.Errorf("failed to resolve security %s: %w", p.SecurityID, err)
			}
			securityIDs[p.SecurityID] = stored.SecurityID
		}
	}
	return nil
}

// reconcileHoldings diffs the snapshot against local holdings: pairs
// absent from the snapshot are deleted, pairs present are upserted with
// the price preservation rule applied.
func (s *InvestmentSyncService) reconcileHoldings(ctx context.Context, item domain.LinkedItem, records []providers.HoldingRecord, accountIDs, securityIDs map[string]string, stats *domain.InvestmentSyncStats, logger *slog.Logger) error {
	type pair struct{ accountID, securityID string }
	snapshotPairs := map[pair]bool{}

	resolved := make([]struct {
		record     providers.HoldingRecord
		accountID  string
		securityID string
	}, 0, len(records))

	for _, rec := range records {
		accountID, err := s.resolveAccountID(ctx, rec.AccountID, accountIDs)
		if err != nil {
			return err
		}
		securityID := securityIDs[rec.SecurityID]
		if accountID == "" || securityID == "" {
			logger.Warn("Skipping holding with unresolved account or security",
				slog.String("account_external_id", rec.AccountID),
				slog.String("security_external_id", rec.SecurityID))
			continue
		}
		snapshotPairs[pair{accountID, securityID}] = true
		resolved = append(resolved, struct {
			record     providers.HoldingRecord
			accountID  string
			securityID string
		}{rec, accountID, securityID})
	}

	// Removal first: anything under this item whose pair vanished from the
	// latest complete snapshot is gone at the institution.
	existing, err := s.invRepo.ListHoldingsByItemID(ctx, item.ItemID)
	if err != nil {
		return fmt.Errorf("failed to list holdings for item %s: %w", item.ItemID, err)
	}
	for _, h := range existing {
		if !snapshotPairs[pair{h.AccountID, h.SecurityID}] {
			if err := s.invRepo.DeleteHolding(ctx, h.HoldingID); err != nil {
				return fmt.Errorf("failed to delete holding %s: %w", h.HoldingID, err)
			}
			stats.HoldingsRemoved++
		}
	}

	for _, r := range resolved {
		holding, err := mapping.HoldingFromProvider(r.record, r.accountID, r.securityID, uuid.NewString(), time.Now())
		if err != nil {
			return fmt.Errorf("failed to build holding for security %s: %w", r.record.SecurityID, err)
		}

		prior, err := s.findHolding(ctx, r.accountID, r.securityID)
		if err != nil {
			return err
		}
		// Price preservation: a zero or absent provider price never
		// clobbers a previously stored non-zero valuation (manually
		// tracked or illiquid securities drop out of the provider's
		// pricing transiently).
		if holding.Price.IsZero() && prior != nil && !prior.Price.IsZero() {
			holding.Price = prior.Price
			holding.PriceAsOf = prior.PriceAsOf
		}

		created, err := s.invRepo.UpsertHolding(ctx, holding)
		if err != nil {
			return fmt.Errorf("failed to upsert holding for security %s: %w", r.record.SecurityID, err)
		}
		if created {
			stats.HoldingsAdded++
		} else {
			stats.HoldingsUpdated++
		}
	}
	return nil
}

// syncInvestmentTransactions pages the date-range investment-transactions
// endpoint and upserts by external id.
func (s *InvestmentSyncService) syncInvestmentTransactions(ctx context.Context, item domain.LinkedItem, accessToken string, accountIDs, securityIDs map[string]string, stats *domain.InvestmentSyncStats, logger *slog.Logger) error {
	endDate := time.Now()
	fetched := 0
	for {
		page, err := s.provider.GetInvestmentTransactions(ctx, accessToken, s.historyStart, endDate, s.pageSize, fetched)
		if err != nil {
			return fmt.Errorf("investment transactions fetch failed for item %s at offset %d: %w", item.ItemID, fetched, err)
		}

		// Pages can surface securities the holdings snapshot did not.
		if err := s.upsertSecurities(ctx, page.Securities, securityIDs, stats); err != nil {
			return err
		}

		for _, p := range page.InvestmentTransactions {
			accountID, err := s.resolveAccountID(ctx, p.AccountID, accountIDs)
			if err != nil {
				return err
			}
			if accountID == "" {
				logger.Warn("Skipping investment transaction with no matching local account", slog.String("external_id", p.InvestmentTransactionID))
				continue
			}

			var securityID *string
			if p.SecurityID != nil {
				if localID, ok := securityIDs[*p.SecurityID]; ok {
					securityID = &localID
				}
			}

			txn, err := mapping.InvestmentTransactionFromProvider(p, accountID, securityID, uuid.NewString(), time.Now())
			if err != nil {
				return fmt.Errorf("failed to build investment transaction %s: %w", p.InvestmentTransactionID, err)
			}
			created, err := s.invRepo.UpsertInvestmentTransaction(ctx, txn)
			if err != nil {
				return fmt.Errorf("failed to upsert investment transaction %s: %w", p.InvestmentTransactionID, err)
			}
			if created {
				stats.InvestmentTransactionsAdded++
			} else {
				stats.InvestmentTransactionsUpdated++
			}
		}

		fetched += len(page.InvestmentTransactions)
		if fetched >= page.TotalInvestmentTransactions || len(page.InvestmentTransactions) == 0 {
			break
		}
	}
	return nil
}

func (s *InvestmentSyncService) findHolding(ctx context.Context, accountID, securityID string) (*domain.Holding, error) {
	h, err := s.invRepo.FindHoldingByAccountAndSecurity(ctx, accountID, securityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up holding: %w", err)
	}
	return h, nil
}

func (s *InvestmentSyncService) resolveAccountID(ctx context.Context, externalID string, cache map[string]string) (string, error) {
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
