package services_test

import (
	"context"
	"time"

	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	portssvc "github.com/cpenarrieta/finsight/internal/core/ports/services"
	"github.com/stretchr/testify/mock"
)

// MockFinancialDataProvider is a mock for providers.FinancialDataProvider.
type MockFinancialDataProvider struct {
	mock.Mock
}

func (m *MockFinancialDataProvider) GetTransactions(ctx context.Context, accessToken string, startDate, endDate time.Time, count, offset int) (*providers.TransactionsPage, error) {
	args := m.Called(ctx, accessToken, startDate, endDate, count, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.TransactionsPage), args.Error(1)
}

func (m *MockFinancialDataProvider) SyncTransactions(ctx context.Context, accessToken string, cursor *string, count int) (*providers.SyncPage, error) {
	args := m.Called(ctx, accessToken, cursor, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.SyncPage), args.Error(1)
}

func (m *MockFinancialDataProvider) GetHoldings(ctx context.Context, accessToken string) (*providers.HoldingsSnapshot, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.HoldingsSnapshot), args.Error(1)
}

func (m *MockFinancialDataProvider) GetInvestmentTransactions(ctx context.Context, accessToken string, startDate, endDate time.Time, count, offset int) (*providers.InvestmentTransactionsPage, error) {
	args := m.Called(ctx, accessToken, startDate, endDate, count, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.InvestmentTransactionsPage), args.Error(1)
}

// MockItemRepository is a mock for portsrepo.ItemRepository.
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindItemByID(ctx context.Context, itemID string) (*domain.LinkedItem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkedItem), args.Error(1)
}

func (m *MockItemRepository) FindItemByProviderItemID(ctx context.Context, providerItemID string) (*domain.LinkedItem, error) {
	args := m.Called(ctx, providerItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkedItem), args.Error(1)
}

func (m *MockItemRepository) ListItems(ctx context.Context) ([]domain.LinkedItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LinkedItem), args.Error(1)
}

func (m *MockItemRepository) SaveItem(ctx context.Context, item domain.LinkedItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) UpdateTransactionsCursor(ctx context.Context, itemID string, cursor string, now time.Time) error {
	args := m.Called(ctx, itemID, cursor, now)
	return args.Error(0)
}

func (m *MockItemRepository) MarkItemLoginRequired(ctx context.Context, itemID string, now time.Time) error {
	args := m.Called(ctx, itemID, now)
	return args.Error(0)
}

// MockAccountRepository is a mock for portsrepo.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByExternalID(ctx context.Context, externalID string) (*domain.Account, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountsByItemID(ctx context.Context, itemID string) ([]domain.Account, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpsertAccount(ctx context.Context, account domain.Account) (bool, error) {
	args := m.Called(ctx, account)
	return args.Bool(0), args.Error(1)
}

// MockTransactionRepository is a mock for portsrepo.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindTransactionByExternalID(ctx context.Context, externalID string) (*domain.Transaction, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindSplitParentByOriginalExternalID(ctx context.Context, externalID string) (*domain.Transaction, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListRecentCategorized(ctx context.Context, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListSimilarCategorized(ctx context.Context, name string, merchantName *string, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, name, merchantName, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactions(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) UpdateFromFeed(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) DeleteByExternalIDs(ctx context.Context, externalIDs []string) (int64, error) {
	args := m.Called(ctx, externalIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) ApplyCategorization(ctx context.Context, transactionID string, categoryID string, subcategoryID *string, now time.Time) error {
	args := m.Called(ctx, transactionID, categoryID, subcategoryID, now)
	return args.Error(0)
}

// MockInvestmentRepository is a mock for portsrepo.InvestmentRepository.
type MockInvestmentRepository struct {
	mock.Mock
}

func (m *MockInvestmentRepository) FindSecurityByExternalID(ctx context.Context, externalID string) (*domain.Security, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Security), args.Error(1)
}

func (m *MockInvestmentRepository) FindHoldingByAccountAndSecurity(ctx context.Context, accountID, securityID string) (*domain.Holding, error) {
	args := m.Called(ctx, accountID, securityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Holding), args.Error(1)
}

func (m *MockInvestmentRepository) ListHoldingsByItemID(ctx context.Context, itemID string) ([]domain.Holding, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Holding), args.Error(1)
}

func (m *MockInvestmentRepository) ListHoldings(ctx context.Context) ([]domain.Holding, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Holding), args.Error(1)
}

func (m *MockInvestmentRepository) UpsertSecurity(ctx context.Context, sec domain.Security) (bool, error) {
	args := m.Called(ctx, sec)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvestmentRepository) UpsertHolding(ctx context.Context, holding domain.Holding) (bool, error) {
	args := m.Called(ctx, holding)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvestmentRepository) DeleteHolding(ctx context.Context, holdingID string) error {
	args := m.Called(ctx, holdingID)
	return args.Error(0)
}

func (m *MockInvestmentRepository) UpsertInvestmentTransaction(ctx context.Context, txn domain.InvestmentTransaction) (bool, error) {
	args := m.Called(ctx, txn)
	return args.Bool(0), args.Error(1)
}

// MockCategoryReader is a mock for portsrepo.CategoryReader.
type MockCategoryReader struct {
	mock.Mock
}

func (m *MockCategoryReader) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

// MockTagRepository is a mock for portsrepo.TagRepository.
type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) FindOrCreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tag), args.Error(1)
}

func (m *MockTagRepository) AttachTagToTransaction(ctx context.Context, tagID, transactionID string) error {
	args := m.Called(ctx, tagID, transactionID)
	return args.Error(0)
}

// MockStructuredLLM is a mock for providers.StructuredLLM.
type MockStructuredLLM struct {
	mock.Mock
}

func (m *MockStructuredLLM) Categorize(ctx context.Context, prompt string, attachments []providers.Attachment) (*domain.CategorizationResult, error) {
	args := m.Called(ctx, prompt, attachments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CategorizationResult), args.Error(1)
}

func (m *MockStructuredLLM) AnalyzeReceipt(ctx context.Context, prompt string, attachments []providers.Attachment) (*domain.ReceiptAnalysis, error) {
	args := m.Called(ctx, prompt, attachments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReceiptAnalysis), args.Error(1)
}

// MockCacheInvalidator is a mock for providers.CacheInvalidator.
type MockCacheInvalidator struct {
	mock.Mock
}

func (m *MockCacheInvalidator) InvalidateTags(tags ...string) {
	m.Called(tags)
}

// MockTransactionSyncSvc is a mock for portssvc.TransactionSyncSvc.
type MockTransactionSyncSvc struct {
	mock.Mock
}

func (m *MockTransactionSyncSvc) SyncItemTransactions(ctx context.Context, item domain.LinkedItem, accessToken string) (*domain.TransactionSyncStats, error) {
	args := m.Called(ctx, item, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionSyncStats), args.Error(1)
}

// MockInvestmentSyncSvc is a mock for portssvc.InvestmentSyncSvc.
type MockInvestmentSyncSvc struct {
	mock.Mock
}

func (m *MockInvestmentSyncSvc) SyncItemInvestments(ctx context.Context, item domain.LinkedItem, accessToken string) (*domain.InvestmentSyncStats, error) {
	args := m.Called(ctx, item, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvestmentSyncStats), args.Error(1)
}

// MockCategorizationSvc is a mock for portssvc.CategorizationSvc.
type MockCategorizationSvc struct {
	mock.Mock
}

func (m *MockCategorizationSvc) CategorizeTransaction(ctx context.Context, transactionID string, opts portssvc.CategorizeOptions) (*domain.CategorizationResult, error) {
	args := m.Called(ctx, transactionID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CategorizationResult), args.Error(1)
}

func (m *MockCategorizationSvc) CategorizeTransactions(ctx context.Context, transactionIDs []string) (int, error) {
	args := m.Called(ctx, transactionIDs)
	return args.Int(0), args.Error(1)
}

func (m *MockCategorizationSvc) AnalyzeReceipt(ctx context.Context, transactionID string) (*domain.ReceiptAnalysis, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReceiptAnalysis), args.Error(1)
}
