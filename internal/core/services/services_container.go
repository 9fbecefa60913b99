package services

import (
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	portsrepo "github.com/cpenarrieta/finsight/internal/core/ports/repositories"
	portssvc "github.com/cpenarrieta/finsight/internal/core/ports/services"
	"github.com/cpenarrieta/finsight/internal/platform/config"
	"github.com/cpenarrieta/finsight/internal/utils"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	provider providers.FinancialDataProvider,
	llm providers.StructuredLLM,
	cache providers.CacheInvalidator,
	tokens *utils.TokenCipher,
	analytics *utils.PosthogClientWrapper,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The sync engines are initialized first since the orchestrator depends on them
	container.TransactionSync = NewTransactionSyncService(
		provider,
		repos.ItemRepo,
		repos.AccountRepo,
		repos.TransactionRepo,
		cache,
		cfg.HistoryStartDate,
		cfg.SyncPageSize,
	)
	container.InvestmentSync = NewInvestmentSyncService(
		provider,
		repos.ItemRepo,
		repos.AccountRepo,
		repos.InvestmentRepo,
		cache,
		cfg.HistoryStartDate,
		cfg.SyncPageSize,
	)

	container.Categorization = NewCategorizationService(
		llm,
		repos.TransactionRepo,
		repos.CategoryRepo,
		repos.TagRepo,
		cfg.ConfidenceThreshold,
		cfg.ReceiptImageTransformURL,
	)

	container.Sync = NewSyncOrchestrator(
		repos.ItemRepo,
		container.TransactionSync,
		container.InvestmentSync,
		container.Categorization,
		cache,
		tokens,
		analytics,
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.TransactionSyncSvc  = (*TransactionSyncService)(nil)
	_ portssvc.InvestmentSyncSvc   = (*InvestmentSyncService)(nil)
	_ portssvc.SyncOrchestratorSvc = (*SyncOrchestrator)(nil)
	_ portssvc.CategorizationSvc   = (*CategorizationService)(nil)
)
