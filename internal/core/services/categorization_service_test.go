package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cpenarrieta/finsight/internal/apperrors"
	"github.com/cpenarrieta/finsight/internal/core/domain"
	portssvc "github.com/cpenarrieta/finsight/internal/core/ports/services"
	"github.com/cpenarrieta/finsight/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type CategorizationServiceTestSuite struct {
	suite.Suite
	mockLLM          *MockStructuredLLM
	mockTxnRepo      *MockTransactionRepository
	mockCategoryRepo *MockCategoryReader
	mockTagRepo      *MockTagRepository
	service          *services.CategorizationService
	ctx              context.Context
	taxonomy         []domain.Category
}

func (suite *CategorizationServiceTestSuite) SetupTest() {
	suite.mockLLM = new(MockStructuredLLM)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockCategoryRepo = new(MockCategoryReader)
	suite.mockTagRepo = new(MockTagRepository)
	suite.service = services.NewCategorizationService(
		suite.mockLLM,
		suite.mockTxnRepo,
		suite.mockCategoryRepo,
		suite.mockTagRepo,
		60,
		"",
	)
	suite.ctx = context.Background()
	suite.taxonomy = []domain.Category{
		{
			CategoryID: "cat-food",
			Name:       "Food & Drink",
			Subcategories: []domain.Subcategory{
				{SubcategoryID: "sub-restaurants", CategoryID: "cat-food", Name: "Restaurants"},
			},
		},
		{
			CategoryID: "cat-shopping",
			Name:       "Shopping",
			Subcategories: []domain.Subcategory{
				{SubcategoryID: "sub-clothing", CategoryID: "cat-shopping", Name: "Clothing"},
			},
		},
	}
}

func (suite *CategorizationServiceTestSuite) uncategorizedTxn(id string) *domain.Transaction {
	return &domain.Transaction{
		TransactionID: id,
		AccountID:     "acc-local-1",
		Amount:        decimal.NewFromFloat(-24.50),
		Name:          "CHIPOTLE 1234",
	}
}

func (suite *CategorizationServiceTestSuite) expectContextLoad() {
	suite.mockCategoryRepo.On("ListCategories", mock.Anything).Return(suite.taxonomy, nil).Once()
	suite.mockTxnRepo.On("ListRecentCategorized", mock.Anything, 100).Return([]domain.Transaction{}, nil).Once()
}

func (suite *CategorizationServiceTestSuite) expectSimilarLookup(txn *domain.Transaction) {
	suite.mockTxnRepo.On("ListSimilarCategorized", mock.Anything, txn.Name, txn.MerchantName, 50).
		Return([]domain.Transaction{}, nil).Once()
}

func (suite *CategorizationServiceTestSuite) TestHighConfidenceSuggestionIsApplied() {
	txn := suite.uncategorizedTxn("txn-1")
	suite.expectContextLoad()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(txn, nil).Once()
	suite.expectSimilarLookup(txn)
	suite.mockLLM.On("Categorize", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&domain.CategorizationResult{
			CategoryID:    strPtr("cat-food"),
			SubcategoryID: strPtr("sub-restaurants"),
			Confidence:    92,
			Reasoning:     "restaurant chain name",
		}, nil).Once()
	suite.mockTxnRepo.On("ApplyCategorization", mock.Anything, "txn-1", "cat-food", strPtr("sub-restaurants"), mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockTagRepo.On("FindOrCreateTag", mock.Anything, domain.ReviewTagName).Return(&domain.Tag{TagID: "tag-1", Name: domain.ReviewTagName}, nil).Once()
	suite.mockTagRepo.On("AttachTagToTransaction", mock.Anything, "tag-1", "txn-1").Return(nil).Once()

	result, err := suite.service.CategorizeTransaction(suite.ctx, "txn-1", portssvc.CategorizeOptions{})

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.Equal("cat-food", *result.CategoryID)
	suite.Equal("sub-restaurants", *result.SubcategoryID)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockTagRepo.AssertExpectations(suite.T())
}

func (suite *CategorizationServiceTestSuite) TestConfidenceAtGateIsDiscarded() {
	txn := suite.uncategorizedTxn("txn-1")
	suite.expectContextLoad()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(txn, nil).Once()
	suite.expectSimilarLookup(txn)
	suite.mockLLM.On("Categorize", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&domain.CategorizationResult{CategoryID: strPtr("cat-food"), Confidence: 60}, nil).Once()

	result, err := suite.service.CategorizeTransaction(suite.ctx, "txn-1", portssvc.CategorizeOptions{})

	suite.Require().NoError(err)
	suite.Nil(result)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ApplyCategorization", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CategorizationServiceTestSuite) TestConfidenceJustAboveGateIsApplied() {
	txn := suite.uncategorizedTxn("txn-1")
	suite.expectContextLoad()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(txn, nil).Once()
	suite.expectSimilarLookup(txn)
	suite.mockLLM.On("Categorize", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&domain.CategorizationResult{CategoryID: strPtr("cat-food"), Confidence: 61}, nil).Once()
	suite.mockTxnRepo.On("ApplyCategorization", mock.Anything, "txn-1", "cat-food", (*string)(nil), mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockTagRepo.On("FindOrCreateTag", mock.Anything, domain.ReviewTagName).Return(&domain.Tag{TagID: "tag-1"}, nil).Once()
	suite.mockTagRepo.On("AttachTagToTransaction", mock.Anything, "tag-1", "txn-1").Return(nil).Once()

	result, err := suite.service.CategorizeTransaction(suite.ctx, "txn-1", portssvc.CategorizeOptions{})

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *CategorizationServiceTestSuite) TestUnknownCategoryIDIsDiscarded() {
	txn := suite.uncategorizedTxn("txn-1")
	suite.expectContextLoad()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(txn, nil).Once()
	suite.expectSimilarLookup(txn)
	suite.mockLLM.On("Categorize", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&domain.CategorizationResult{CategoryID: strPtr("cat-hallucinated"), Confidence: 95}, nil).Once()

	result, err := suite.service.CategorizeTransaction(suite.ctx, "txn-1", portssvc.CategorizeOptions{})

	suite.Require().NoError(err)
	suite.Nil(result)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ApplyCategorization", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CategorizationServiceTestSuite) TestForeignSubcategoryIsDroppedButCategoryApplies() {
	txn := suite.uncategorizedTxn("txn-1")
	suite.expectContextLoad()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(txn, nil).Once()
	suite.expectSimilarLookup(txn)
	// Subcategory belongs to Shopping, not to the suggested Food category.
	suite.mockLLM.On("Categorize", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&domain.CategorizationResult{
			CategoryID:    strPtr("cat-food"),
			SubcategoryID: strPtr("sub-clothing"),
			Confidence:    90,
		}, nil).Once()
	suite.mockTxnRepo.On("ApplyCategorization", mock.Anything, "txn-1", "cat-food", (*string)(nil), mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockTagRepo.On("FindOrCreateTag", mock.Anything, domain.ReviewTagName).Return(&domain.Tag{TagID: "tag-1"}, nil).Once()
	suite.mockTagRepo.On("AttachTagToTransaction", mock.Anything, "tag-1", "txn-1").Return(nil).Once()

	result, err := suite.service.CategorizeTransaction(suite.ctx, "txn-1", portssvc.CategorizeOptions{})

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.Nil(result.SubcategoryID)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *CategorizationServiceTestSuite) TestModelFailureYieldsNilResultNotError() {
	txn := suite.uncategorizedTxn("txn-1")
	suite.expectContextLoad()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(txn, nil).Once()
	suite.expectSimilarLookup(txn)
	suite.mockLLM.On("Categorize", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("model quota exhausted")).Once()

	result, err := suite.service.CategorizeTransaction(suite.ctx, "txn-1", portssvc.CategorizeOptions{})

	suite.Require().NoError(err)
	suite.Nil(result)
}

func (suite *CategorizationServiceTestSuite) TestAlreadyCategorizedIsSkippedUnlessForced() {
	txn := suite.uncategorizedTxn("txn-1")
	txn.CategoryID = strPtr("cat-shopping")
	suite.expectContextLoad()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(txn, nil).Once()

	result, err := suite.service.CategorizeTransaction(suite.ctx, "txn-1", portssvc.CategorizeOptions{})

	suite.Require().NoError(err)
	suite.Nil(result)
	suite.mockLLM.AssertNotCalled(suite.T(), "Categorize", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CategorizationServiceTestSuite) TestForceRecategorizesAnAlreadyCategorizedRow() {
	txn := suite.uncategorizedTxn("txn-1")
	txn.CategoryID = strPtr("cat-shopping")
	suite.expectContextLoad()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(txn, nil).Once()
	suite.expectSimilarLookup(txn)
	suite.mockLLM.On("Categorize", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&domain.CategorizationResult{CategoryID: strPtr("cat-food"), Confidence: 88}, nil).Once()
	suite.mockTxnRepo.On("ApplyCategorization", mock.Anything, "txn-1", "cat-food", (*string)(nil), mock.AnythingOfType("time.Time")).Return(nil).Once()

	opts := portssvc.CategorizeOptions{Force: true, SkipReviewTag: true}
	result, err := suite.service.CategorizeTransaction(suite.ctx, "txn-1", opts)

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.mockTagRepo.AssertNotCalled(suite.T(), "FindOrCreateTag", mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *CategorizationServiceTestSuite) TestReviewTagFailureDoesNotVoidAppliedResult() {
	txn := suite.uncategorizedTxn("txn-1")
	suite.expectContextLoad()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(txn, nil).Once()
	suite.expectSimilarLookup(txn)
	suite.mockLLM.On("Categorize", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&domain.CategorizationResult{CategoryID: strPtr("cat-food"), Confidence: 88}, nil).Once()
	suite.mockTxnRepo.On("ApplyCategorization", mock.Anything, "txn-1", "cat-food", (*string)(nil), mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockTagRepo.On("FindOrCreateTag", mock.Anything, domain.ReviewTagName).
		Return(nil, errors.New("tags table unavailable")).Once()

	result, err := suite.service.CategorizeTransaction(suite.ctx, "txn-1", portssvc.CategorizeOptions{})

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.mockTagRepo.AssertExpectations(suite.T())
}

func (suite *CategorizationServiceTestSuite) TestContextLoadFailurePropagates() {
	suite.mockCategoryRepo.On("ListCategories", mock.Anything).Return(nil, errors.New("db down")).Once()

	result, err := suite.service.CategorizeTransaction(suite.ctx, "txn-1", portssvc.CategorizeOptions{})

	suite.Require().Error(err)
	suite.Nil(result)
}

func (suite *CategorizationServiceTestSuite) TestBulkCountsOnlyAppliedSuggestions() {
	suite.expectContextLoad()

	good1 := suite.uncategorizedTxn("txn-1")
	good2 := suite.uncategorizedTxn("txn-2")

	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-1").Return(good1, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-2").Return(good2, nil).Once()
	// The third id no longer loads; it is skipped, not fatal.
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, "txn-gone").Return(nil, apperrors.ErrNotFound).Once()

	suite.mockTxnRepo.On("ListSimilarCategorized", mock.Anything, mock.Anything, mock.Anything, 50).
		Return([]domain.Transaction{}, nil).Twice()
	suite.mockLLM.On("Categorize", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&domain.CategorizationResult{CategoryID: strPtr("cat-food"), Confidence: 85}, nil).Twice()
	suite.mockTxnRepo.On("ApplyCategorization", mock.Anything, mock.AnythingOfType("string"), "cat-food", (*string)(nil), mock.AnythingOfType("time.Time")).Return(nil).Twice()
	suite.mockTagRepo.On("FindOrCreateTag", mock.Anything, domain.ReviewTagName).Return(&domain.Tag{TagID: "tag-1"}, nil).Twice()
	suite.mockTagRepo.On("AttachTagToTransaction", mock.Anything, "tag-1", mock.AnythingOfType("string")).Return(nil).Twice()

	applied, err := suite.service.CategorizeTransactions(suite.ctx, []string{"txn-1", "txn-2", "txn-gone"})

	suite.Require().NoError(err)
	suite.Equal(2, applied)
	suite.mockCategoryRepo.AssertNumberOfCalls(suite.T(), "ListCategories", 1)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *CategorizationServiceTestSuite) TestBulkWithNoIDsDoesNothing() {
	applied, err := suite.service.CategorizeTransactions(suite.ctx, nil)

	suite.Require().NoError(err)
	suite.Equal(0, applied)
	suite.mockCategoryRepo.AssertNotCalled(suite.T(), "ListCategories", mock.Anything)
}

func TestCategorizationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CategorizationServiceTestSuite))
}
