package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cpenarrieta/finsight/internal/apperrors"
	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	"github.com/cpenarrieta/finsight/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type InvestmentSyncServiceTestSuite struct {
	suite.Suite
	mockProvider    *MockFinancialDataProvider
	mockItemRepo    *MockItemRepository
	mockAccountRepo *MockAccountRepository
	mockInvRepo     *MockInvestmentRepository
	mockCache       *MockCacheInvalidator
	service         *services.InvestmentSyncService
	ctx             context.Context
	item            domain.LinkedItem
}

func (suite *InvestmentSyncServiceTestSuite) SetupTest() {
	suite.mockProvider = new(MockFinancialDataProvider)
	suite.mockItemRepo = new(MockItemRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockInvRepo = new(MockInvestmentRepository)
	suite.mockCache = new(MockCacheInvalidator)
	suite.service = services.NewInvestmentSyncService(
		suite.mockProvider,
		suite.mockItemRepo,
		suite.mockAccountRepo,
		suite.mockInvRepo,
		suite.mockCache,
		time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		testPageSize,
	)
	suite.ctx = context.Background()
	suite.item = domain.LinkedItem{
		ItemID:         "item-1",
		ProviderItemID: "provider-item-1",
		Status:         domain.ItemStatusOK,
	}
}

func (suite *InvestmentSyncServiceTestSuite) expectEmptyInvestmentTransactions() {
	suite.mockProvider.On("GetInvestmentTransactions", mock.Anything, testAccessToken, mock.Anything, mock.Anything, testPageSize, 0).
		Return(&providers.InvestmentTransactionsPage{}, nil).Once()
}

func (suite *InvestmentSyncServiceTestSuite) TestZeroProviderPricePreservesStoredPrice() {
	priceAsOf := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	storedPrice := decimal.NewFromFloat(152.30)

	snapshot := &providers.HoldingsSnapshot{
		Accounts: []providers.Account{{AccountID: "acc-ext-1", Name: "Brokerage"}},
		Securities: []providers.Security{
			{SecurityID: "sec-ext-1", Name: "Vanguard Total Market", TickerSymbol: "VTI"},
		},
		Holdings: []providers.HoldingRecord{
			{
				AccountID:  "acc-ext-1",
				SecurityID: "sec-ext-1",
				Quantity:   decimal.NewFromInt(10),
				// No institution price reported this snapshot.
			},
		},
	}

	account := &domain.Account{AccountID: "acc-local-1", ItemID: suite.item.ItemID, ExternalID: "acc-ext-1"}
	storedSecurity := &domain.Security{SecurityID: "sec-local-1", ExternalID: "sec-ext-1"}
	prior := &domain.Holding{
		HoldingID:  "hold-local-1",
		AccountID:  "acc-local-1",
		SecurityID: "sec-local-1",
		Quantity:   decimal.NewFromInt(10),
		Price:      storedPrice,
		PriceAsOf:  &priceAsOf,
	}

	suite.mockProvider.On("GetHoldings", mock.Anything, testAccessToken).Return(snapshot, nil).Once()
	suite.mockAccountRepo.On("UpsertAccount", mock.Anything, mock.AnythingOfType("domain.Account")).Return(false, nil).Once()
	suite.mockInvRepo.On("UpsertSecurity", mock.Anything, mock.AnythingOfType("domain.Security")).Return(false, nil).Once()
	suite.mockInvRepo.On("FindSecurityByExternalID", mock.Anything, "sec-ext-1").Return(storedSecurity, nil).Once()
	suite.mockAccountRepo.On("FindAccountByExternalID", mock.Anything, "acc-ext-1").Return(account, nil).Once()
	suite.mockInvRepo.On("ListHoldingsByItemID", mock.Anything, suite.item.ItemID).Return([]domain.Holding{*prior}, nil).Once()
	suite.mockInvRepo.On("FindHoldingByAccountAndSecurity", mock.Anything, "acc-local-1", "sec-local-1").Return(prior, nil).Once()
	suite.mockInvRepo.On("UpsertHolding", mock.Anything, mock.MatchedBy(func(h domain.Holding) bool {
		return h.Price.Equal(storedPrice) && h.PriceAsOf != nil && h.PriceAsOf.Equal(priceAsOf)
	})).Return(false, nil).Once()
	suite.expectEmptyInvestmentTransactions()

	stats, err := suite.service.SyncItemInvestments(suite.ctx, suite.item, testAccessToken)

	suite.Require().NoError(err)
	suite.Equal(1, stats.SecuritiesUpdated)
	suite.Equal(1, stats.HoldingsUpdated)
	suite.Equal(0, stats.HoldingsRemoved)
	suite.mockInvRepo.AssertNotCalled(suite.T(), "DeleteHolding", mock.Anything, mock.Anything)
	suite.mockInvRepo.AssertExpectations(suite.T())
}

func (suite *InvestmentSyncServiceTestSuite) TestNonZeroProviderPriceOverwritesStoredPrice() {
	freshPrice := decimal.NewFromFloat(160.10)

	snapshot := &providers.HoldingsSnapshot{
		Accounts: []providers.Account{{AccountID: "acc-ext-1", Name: "Brokerage"}},
		Securities: []providers.Security{
			{SecurityID: "sec-ext-1", TickerSymbol: "VTI"},
		},
		Holdings: []providers.HoldingRecord{
			{
				AccountID:        "acc-ext-1",
				SecurityID:       "sec-ext-1",
				Quantity:         decimal.NewFromInt(10),
				InstitutionPrice: &freshPrice,
			},
		},
	}

	account := &domain.Account{AccountID: "acc-local-1", ExternalID: "acc-ext-1"}
	storedSecurity := &domain.Security{SecurityID: "sec-local-1", ExternalID: "sec-ext-1"}
	prior := &domain.Holding{
		HoldingID:  "hold-local-1",
		AccountID:  "acc-local-1",
		SecurityID: "sec-local-1",
		Price:      decimal.NewFromFloat(152.30),
	}

	suite.mockProvider.On("GetHoldings", mock.Anything, testAccessToken).Return(snapshot, nil).Once()
	suite.mockAccountRepo.On("UpsertAccount", mock.Anything, mock.AnythingOfType("domain.Account")).Return(false, nil).Once()
	suite.mockInvRepo.On("UpsertSecurity", mock.Anything, mock.AnythingOfType("domain.Security")).Return(false, nil).Once()
	suite.mockInvRepo.On("FindSecurityByExternalID", mock.Anything, "sec-ext-1").Return(storedSecurity, nil).Once()
	suite.mockAccountRepo.On("FindAccountByExternalID", mock.Anything, "acc-ext-1").Return(account, nil).Once()
	suite.mockInvRepo.On("ListHoldingsByItemID", mock.Anything, suite.item.ItemID).Return([]domain.Holding{*prior}, nil).Once()
	suite.mockInvRepo.On("FindHoldingByAccountAndSecurity", mock.Anything, "acc-local-1", "sec-local-1").Return(prior, nil).Once()
	suite.mockInvRepo.On("UpsertHolding", mock.Anything, mock.MatchedBy(func(h domain.Holding) bool {
		return h.Price.Equal(freshPrice)
	})).Return(false, nil).Once()
	suite.expectEmptyInvestmentTransactions()

	stats, err := suite.service.SyncItemInvestments(suite.ctx, suite.item, testAccessToken)

	suite.Require().NoError(err)
	suite.Equal(1, stats.HoldingsUpdated)
	suite.mockInvRepo.AssertExpectations(suite.T())
}

func (suite *InvestmentSyncServiceTestSuite) TestHoldingAbsentFromSnapshotIsDeleted() {
	snapshot := &providers.HoldingsSnapshot{
		Accounts: []providers.Account{{AccountID: "acc-ext-1", Name: "Brokerage"}},
	}

	stale := domain.Holding{
		HoldingID:  "hold-local-9",
		AccountID:  "acc-local-1",
		SecurityID: "sec-local-9",
	}

	suite.mockProvider.On("GetHoldings", mock.Anything, testAccessToken).Return(snapshot, nil).Once()
	suite.mockAccountRepo.On("UpsertAccount", mock.Anything, mock.AnythingOfType("domain.Account")).Return(false, nil).Once()
	suite.mockInvRepo.On("ListHoldingsByItemID", mock.Anything, suite.item.ItemID).Return([]domain.Holding{stale}, nil).Once()
	suite.mockInvRepo.On("DeleteHolding", mock.Anything, "hold-local-9").Return(nil).Once()
	suite.expectEmptyInvestmentTransactions()

	stats, err := suite.service.SyncItemInvestments(suite.ctx, suite.item, testAccessToken)

	suite.Require().NoError(err)
	suite.Equal(1, stats.HoldingsRemoved)
	suite.mockInvRepo.AssertExpectations(suite.T())
}

func (suite *InvestmentSyncServiceTestSuite) TestInvestmentTransactionsAreUpsertedByExternalID() {
	snapshot := &providers.HoldingsSnapshot{
		Accounts: []providers.Account{{AccountID: "acc-ext-1", Name: "Brokerage"}},
	}
	account := &domain.Account{AccountID: "acc-local-1", ExternalID: "acc-ext-1"}

	page := &providers.InvestmentTransactionsPage{
		InvestmentTransactions: []providers.InvestmentTransaction{
			{
				InvestmentTransactionID: "inv-ext-1",
				AccountID:               "acc-ext-1",
				Name:                    "BUY VTI",
				Amount:                  decimal.NewFromFloat(1523.00),
				Date:                    "2026-08-20",
			},
			{
				InvestmentTransactionID: "inv-ext-2",
				AccountID:               "acc-ext-1",
				Name:                    "DIVIDEND VTI",
				Amount:                  decimal.NewFromFloat(-12.40),
				Date:                    "2026-08-21",
			},
		},
		TotalInvestmentTransactions: 2,
	}

	suite.mockProvider.On("GetHoldings", mock.Anything, testAccessToken).Return(snapshot, nil).Once()
	suite.mockAccountRepo.On("UpsertAccount", mock.Anything, mock.AnythingOfType("domain.Account")).Return(false, nil).Once()
	suite.mockInvRepo.On("ListHoldingsByItemID", mock.Anything, suite.item.ItemID).Return([]domain.Holding{}, nil).Once()
	suite.mockProvider.On("GetInvestmentTransactions", mock.Anything, testAccessToken, mock.Anything, mock.Anything, testPageSize, 0).
		Return(page, nil).Once()
	suite.mockAccountRepo.On("FindAccountByExternalID", mock.Anything, "acc-ext-1").Return(account, nil).Once()
	suite.mockInvRepo.On("UpsertInvestmentTransaction", mock.Anything, mock.MatchedBy(func(txn domain.InvestmentTransaction) bool {
		return txn.ExternalID == "inv-ext-1"
	})).Return(true, nil).Once()
	suite.mockInvRepo.On("UpsertInvestmentTransaction", mock.Anything, mock.MatchedBy(func(txn domain.InvestmentTransaction) bool {
		return txn.ExternalID == "inv-ext-2"
	})).Return(false, nil).Once()

	stats, err := suite.service.SyncItemInvestments(suite.ctx, suite.item, testAccessToken)

	suite.Require().NoError(err)
	suite.Equal(1, stats.InvestmentTransactionsAdded)
	suite.Equal(1, stats.InvestmentTransactionsUpdated)
	suite.mockInvRepo.AssertExpectations(suite.T())
}

func (suite *InvestmentSyncServiceTestSuite) TestLoginRequiredFlagsItemAndInvalidatesCache() {
	holdingsErr := fmt.Errorf("provider rejected request: %w", apperrors.ErrItemLoginRequired)

	suite.mockProvider.On("GetHoldings", mock.Anything, testAccessToken).Return(nil, holdingsErr).Once()
	suite.mockItemRepo.On("MarkItemLoginRequired", mock.Anything, suite.item.ItemID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockCache.On("InvalidateTags", []string{providers.TagItems}).Once()

	stats, err := suite.service.SyncItemInvestments(suite.ctx, suite.item, testAccessToken)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrItemLoginRequired)
	suite.Nil(stats)
	suite.mockItemRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestInvestmentSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvestmentSyncServiceTestSuite))
}
