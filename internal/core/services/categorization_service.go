package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cpenarrieta/finsight/internal/apperrors"
	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	portsrepo "github.com/cpenarrieta/finsight/internal/core/ports/repositories"
	portssvc "github.com/cpenarrieta/finsight/internal/core/ports/services"
	"github.com/cpenarrieta/finsight/internal/middleware"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	similarTransactionsLimit = 50
	recentTransactionsLimit  = 100
	bulkCategorizeWindow     = 5
)

// splitSumTolerance is how far the sum of proposed split amounts may miss
// the transaction total before the analysis carries a warning.
var splitSumTolerance = decimal.NewFromFloat(0.02)

// CategorizationService assigns categories to transactions using the LLM.
// Model outputs are claims, not facts: every suggestion is validated
// against the taxonomy and gated on confidence before anything is written.
// A per-transaction failure of any kind becomes a nil result so that a
// surrounding sync pass is never aborted by the model.
type CategorizationService struct {
	llm          providers.StructuredLLM
	txnRepo      portsrepo.TransactionRepository
	categoryRepo portsrepo.CategoryReader
	tagRepo      portsrepo.TagRepository

	// confidenceGate discards results at or below this confidence (0-100).
	confidenceGate int
	// receiptTransformURL is a format string producing a rendered-image URL
	// for a PDF receipt. Empty disables PDF receipts.
	receiptTransformURL string
}

// NewCategorizationService creates the categorization engine.
func NewCategorizationService(
	llm providers.StructuredLLM,
	txnRepo portsrepo.TransactionRepository,
	categoryRepo portsrepo.CategoryReader,
	tagRepo portsrepo.TagRepository,
	confidenceGate int,
	receiptTransformURL string,
) *CategorizationService {
	if confidenceGate <= 0 {
		confidenceGate = 60
	}
	return &CategorizationService{
		llm:                 llm,
		txnRepo:             txnRepo,
		categoryRepo:        categoryRepo,
		tagRepo:             tagRepo,
		confidenceGate:      confidenceGate,
		receiptTransformURL: receiptTransformURL,
	}
}

// taxonomyIndex resolves model-claimed ids against the real taxonomy.
type taxonomyIndex struct {
	categoriesByID   map[string]domain.Category
	subcategoryOwner map[string]string // subcategory id -> owning category id
}

func buildTaxonomyIndex(categories []domain.Category) taxonomyIndex {
	idx := taxonomyIndex{
		categoriesByID:   make(map[string]domain.Category, len(categories)),
		subcategoryOwner: map[string]string{},
	}
	for _, cat := range categories {
		idx.categoriesByID[cat.CategoryID] = cat
		for _, sub := range cat.Subcategories {
			idx.subcategoryOwner[sub.SubcategoryID] = cat.CategoryID
		}
	}
	return idx
}

// categorizationContext is the context shared across a bulk run: the
// taxonomy and the recent-history block are fetched once, only the
// similar-transactions lookup stays per transaction.
type categorizationContext struct {
	categories []domain.Category
	index      taxonomyIndex
	recent     []domain.Transaction
}

func (s *CategorizationService) loadContext(ctx context.Context) (*categorizationContext, error) {
	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load category taxonomy: %w", err)
	}
	recent, err := s.txnRepo.ListRecentCategorized(ctx, recentTransactionsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent categorized transactions: %w", err)
	}
	return &categorizationContext{
		categories: categories,
		index:      buildTaxonomyIndex(categories),
		recent:     recent,
	}, nil
}

// CategorizeTransaction suggests and applies a category for one
// transaction. A nil result means the model declined, failed or was gated;
// errors are reserved for context-loading failures.
func (s *CategorizationService) CategorizeTransaction(ctx context.Context, transactionID string, opts portssvc.CategorizeOptions) (*domain.CategorizationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	cctx, err := s.loadContext(ctx)
	if err != nil {
		return nil, err
	}
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction %s: %w", transactionID, err)
	}
	return s.categorizeOne(ctx, cctx, *txn, opts, logger), nil
}

// CategorizeTransactions categorizes a batch of transactions sharing one
// fetched context, with at most bulkCategorizeWindow in flight. Returns
// how many suggestions were actually applied; individual failures only
// lower that count.
func (s *CategorizationService) CategorizeTransactions(ctx context.Context, transactionIDs []string) (int, error) {
	if len(transactionIDs) == 0 {
		return 0, nil
	}
	logger := middleware.GetLoggerFromCtx(ctx)

	cctx, err := s.loadContext(ctx)
	if err != nil {
		return 0, err
	}

	var mu sync.Mutex
	applied := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkCategorizeWindow)
	for _, id := range transactionIDs {
		g.Go(func() error {
			txn, err := s.txnRepo.FindTransactionByID(gctx, id)
			if err != nil {
				logger.Warn("Skipping categorization for unloadable transaction",
					slog.String("transaction_id", id), slog.String("error", err.Error()))
				return nil
			}
			if res := s.categorizeOne(gctx, cctx, *txn, portssvc.CategorizeOptions{}, logger); res != nil {
				mu.Lock()
				applied++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return applied, err
	}

	logger.Info("Bulk categorization finished",
		slog.Int("requested", len(transactionIDs)),
		slog.Int("applied", applied))
	return applied, nil
}

// categorizeOne runs the full pipeline for one transaction: context
// assembly, model call, validation gate, apply, review tag. Every failure
// path returns nil.
func (s *CategorizationService) categorizeOne(ctx context.Context, cctx *categorizationContext, txn domain.Transaction, opts portssvc.CategorizeOptions, logger *slog.Logger) *domain.CategorizationResult {
	if txn.Categorized() && !opts.Force {
		return nil
	}

	similar, err := s.txnRepo.ListSimilarCategorized(ctx, txn.Name, txn.MerchantName, similarTransactionsLimit)
	if err != nil {
		logger.Warn("Failed to load similar transactions, skipping categorization",
			slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
		return nil
	}

	prompt := buildCategorizationPrompt(cctx.categories, txn, similar, cctx.recent)
	attachments := s.receiptAttachments(txn.ReceiptURLs)

	raw, err := s.llm.Categorize(ctx, prompt, attachments)
	if err != nil {
		logger.Warn("Model categorization call failed",
			slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
		return nil
	}

	res := s.validateSuggestion(raw, cctx.index, txn.TransactionID, logger)
	if res == nil {
		return nil
	}

	if err := s.txnRepo.ApplyCategorization(ctx, txn.TransactionID, *res.CategoryID, res.SubcategoryID, time.Now()); err != nil {
		logger.Error("Failed to apply categorization",
			slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
		return nil
	}

	if !opts.SkipReviewTag {
		s.attachReviewTag(ctx, txn.TransactionID, logger)
	}
	return res
}

// validateSuggestion is the gate between model claims and the database:
// low confidence or an unknown category id voids the whole result, a
// subcategory that does not belong to the chosen category is dropped.
func (s *CategorizationService) validateSuggestion(raw *domain.CategorizationResult, idx taxonomyIndex, transactionID string, logger *slog.Logger) *domain.CategorizationResult {
	if raw == nil || raw.CategoryID == nil {
		return nil
	}
	if raw.Confidence <= s.confidenceGate {
		logger.Info("Discarding low-confidence categorization",
			slog.String("transaction_id", transactionID),
			slog.Int("confidence", raw.Confidence))
		return nil
	}
	if _, ok := idx.categoriesByID[*raw.CategoryID]; !ok {
		logger.Warn("Model returned a category id not in the taxonomy",
			slog.String("transaction_id", transactionID),
			slog.String("category_id", *raw.CategoryID))
		return nil
	}
	if raw.SubcategoryID != nil {
		if owner, ok := idx.subcategoryOwner[*raw.SubcategoryID]; !ok || owner != *raw.CategoryID {
			raw.SubcategoryID = nil
		}
	}
	return raw
}

func (s *CategorizationService) attachReviewTag(ctx context.Context, transactionID string, logger *slog.Logger) {
	// Tagging is auditing metadata; its failure must not void an applied
	// categorization.
	tag, err := s.tagRepo.FindOrCreateTag(ctx, domain.ReviewTagName)
	if err != nil {
		logger.Warn("Failed to resolve review tag", slog.String("error", err.Error()))
		return
	}
	if err := s.tagRepo.AttachTagToTransaction(ctx, tag.TagID, transactionID); err != nil {
		logger.Warn("Failed to attach review tag",
			slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
	}
}

// AnalyzeReceipt classifies one transaction into split, recategorize or
// confirm based on its attached receipt files. Unlike categorization this
// is an interactive call, so infrastructure errors surface to the caller.
func (s *CategorizationService) AnalyzeReceipt(ctx context.Context, transactionID string) (*domain.ReceiptAnalysis, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction %s: %w", transactionID, err)
	}

	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load category taxonomy: %w", err)
	}
	idx := buildTaxonomyIndex(categories)

	attachments := s.receiptAttachments(txn.ReceiptURLs)
	hasReceipt := len(attachments) > 0

	currentCategory := "uncategorized"
	if txn.CategoryID != nil {
		if cat, ok := idx.categoriesByID[*txn.CategoryID]; ok {
			currentCategory = cat.Name
		}
	}

	prompt := buildReceiptAnalysisPrompt(categories, *txn, currentCategory, hasReceipt)
	analysis, err := s.llm.AnalyzeReceipt(ctx, prompt, attachments)
	if err != nil {
		return nil, fmt.Errorf("receipt analysis failed for transaction %s: %w", transactionID, err)
	}

	switch analysis.Action {
	case domain.ReceiptActionSplit:
		// A split claims line-item knowledge; without a receipt image that
		// knowledge cannot exist.
		if !hasReceipt {
			return nil, fmt.Errorf("split proposed without a receipt image: %w", apperrors.ErrValidation)
		}
		s.validateSplits(analysis, idx, *txn, logger)
	case domain.ReceiptActionRecategorize:
		s.validateRecategorize(analysis, idx, logger)
	case domain.ReceiptActionConfirm:
		// Nothing to validate.
	default:
		return nil, fmt.Errorf("model returned unknown receipt action %q: %w", analysis.Action, apperrors.ErrValidation)
	}
	return analysis, nil
}

// validateSplits checks the proposed split lines against the taxonomy and
// the transaction total. Problems are annotated as warnings; the analysis
// is still returned for the user to review.
func (s *CategorizationService) validateSplits(analysis *domain.ReceiptAnalysis, idx taxonomyIndex, txn domain.Transaction, logger *slog.Logger) {
	if len(analysis.Splits) < 2 {
		analysis.Warnings = append(analysis.Warnings, "split proposed fewer than two lines")
	}

	sum := decimal.Zero
	for i := range analysis.Splits {
		split := &analysis.Splits[i]
		sum = sum.Add(split.Amount.Abs())
		if _, ok := idx.categoriesByID[split.CategoryID]; !ok {
			analysis.Warnings = append(analysis.Warnings,
				fmt.Sprintf("split line %d uses an unknown category id", i+1))
			continue
		}
		if split.SubcategoryID != nil {
			if owner, ok := idx.subcategoryOwner[*split.SubcategoryID]; !ok || owner != split.CategoryID {
				split.SubcategoryID = nil
			}
		}
	}

	total := txn.Amount.Abs()
	if diff := sum.Sub(total).Abs(); diff.GreaterThan(splitSumTolerance) {
		logger.Warn("Split amounts do not reconcile with transaction total",
			slog.String("transaction_id", txn.TransactionID),
			slog.String("split_sum", sum.StringFixed(2)),
			slog.String("total", total.StringFixed(2)))
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("split amounts sum to %s but the transaction total is %s", sum.StringFixed(2), total.StringFixed(2)))
	}
}

// validateRecategorize downgrades an out-of-taxonomy suggestion to a
// confirm with a warning instead of writing a hallucinated id through.
func (s *CategorizationService) validateRecategorize(analysis *domain.ReceiptAnalysis, idx taxonomyIndex, logger *slog.Logger) {
	if analysis.CategoryID == nil {
		analysis.Action = domain.ReceiptActionConfirm
		analysis.Warnings = append(analysis.Warnings, "recategorize proposed without a category id")
		return
	}
	if _, ok := idx.categoriesByID[*analysis.CategoryID]; !ok {
		logger.Warn("Receipt analysis returned a category id not in the taxonomy",
			slog.String("category_id", *analysis.CategoryID))
		analysis.Action = domain.ReceiptActionConfirm
		analysis.CategoryID = nil
		analysis.SubcategoryID = nil
		analysis.Warnings = append(analysis.Warnings, "proposed category is not in the taxonomy")
		return
	}
	if analysis.SubcategoryID != nil {
		if owner, ok := idx.subcategoryOwner[*analysis.SubcategoryID]; !ok || owner != *analysis.CategoryID {
			analysis.SubcategoryID = nil
		}
	}
}

// receiptAttachments converts stored receipt URLs into vision attachments.
// PDFs are routed through the rendered-image transform; without a
// configured transform they are dropped.
func (s *CategorizationService) receiptAttachments(urls []string) []providers.Attachment {
	attachments := make([]providers.Attachment, 0, len(urls))
	for _, u := range urls {
		lower := strings.ToLower(u)
		switch {
		case strings.HasSuffix(lower, ".pdf"):
			if s.receiptTransformURL == "" {
				continue
			}
			attachments = append(attachments, providers.Attachment{
				URL:      fmt.Sprintf(s.receiptTransformURL, url.QueryEscape(u)),
				MIMEType: "image/png",
			})
		case strings.HasSuffix(lower, ".png"):
			attachments = append(attachments, providers.Attachment{URL: u, MIMEType: "image/png"})
		case strings.HasSuffix(lower, ".webp"):
			attachments = append(attachments, providers.Attachment{URL: u, MIMEType: "image/webp"})
		default:
			attachments = append(attachments, providers.Attachment{URL: u, MIMEType: "image/jpeg"})
		}
	}
	return attachments
}
