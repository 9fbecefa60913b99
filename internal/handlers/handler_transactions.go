package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cpenarrieta/finsight/internal/apperrors"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	portsrepo "github.com/cpenarrieta/finsight/internal/core/ports/repositories"
	portssvc "github.com/cpenarrieta/finsight/internal/core/ports/services"
	"github.com/cpenarrieta/finsight/internal/dto"
	"github.com/cpenarrieta/finsight/internal/middleware"
	"github.com/gin-gonic/gin"
)

// transactionHandler handles HTTP requests related to transactions.
type transactionHandler struct {
	txnRepo        portsrepo.TransactionReader
	categorization portssvc.CategorizationSvc
	cache          providers.ReadCache
}

// newTransactionHandler creates a new transactionHandler.
func newTransactionHandler(tr portsrepo.TransactionReader, cs portssvc.CategorizationSvc, cache providers.ReadCache) *transactionHandler {
	return &transactionHandler{
		txnRepo:        tr,
		categorization: cs,
		cache:          cache,
	}
}

// registerTransactionRoutes registers routes related to transactions.
func registerTransactionRoutes(rg *gin.RouterGroup, txnRepo portsrepo.TransactionReader, categorization portssvc.CategorizationSvc, cache providers.ReadCache) {
	h := newTransactionHandler(txnRepo, categorization, cache)

	transactions := rg.Group("/transactions")
	{
		transactions.GET("", h.listTransactions)
		transactions.POST("/:transactionID/categorize", h.categorizeTransaction)
		transactions.POST("/:transactionID/receipt-analysis", h.analyzeReceipt)
	}
}

// listTransactions godoc
// @Summary List transactions
// @Description Retrieves a paginated list of transactions, newest first.
// @Tags transactions
// @Produce json
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Offset (default 0)"
// @Success 200 {array} dto.TransactionResponse
// @Failure 500 {object} map[string]string "Failed to list transactions"
// @Router /transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	cacheKey := fmt.Sprintf("transactions:%d:%d", limit, offset)
	if cached, ok := h.cache.Get(cacheKey); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	txns, err := h.txnRepo.ListTransactions(c.Request.Context(), limit, offset)
	if err != nil {
		logger.Error("Failed to list transactions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}

	resp := dto.ToTransactionResponseSlice(txns)
	h.cache.Set(cacheKey, resp, providers.TagTransactions)
	c.JSON(http.StatusOK, resp)
}

// categorizeTransaction godoc
// @Summary Categorize one transaction with AI
// @Description Runs the AI categorization pipeline for a single transaction. A null result means the model declined or its suggestion failed validation.
// @Tags transactions
// @Accept json
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Param options body dto.CategorizeRequest false "Categorization options"
// @Success 200 {object} dto.CategorizeResponse
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Categorization failed"
// @Router /transactions/{transactionID}/categorize [post]
func (h *transactionHandler) categorizeTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	req := dto.CategorizeRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for Categorize", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	result, err := h.categorization.CategorizeTransaction(c.Request.Context(), transactionID, portssvc.CategorizeOptions{
		Force:         req.Force,
		SkipReviewTag: req.SkipReviewTag,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
			return
		}
		logger.Error("Categorization failed", slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to categorize transaction"})
		return
	}

	if result != nil {
		h.cache.InvalidateTags(providers.TagTransactions)
	}

	c.JSON(http.StatusOK, dto.CategorizeResponse{
		Applied: result != nil,
		Result:  result,
	})
}

// analyzeReceipt godoc
// @Summary Analyze a transaction's receipt
// @Description Classifies the transaction into split, recategorize or confirm based on its attached receipt files. Split is only available when a receipt image is attached.
// @Tags transactions
// @Produce json
// @Param transactionID path string true "Transaction ID"
// @Success 200 {object} domain.ReceiptAnalysis
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 422 {object} map[string]string "Split requires a receipt image"
// @Failure 500 {object} map[string]string "Analysis failed"
// @Router /transactions/{transactionID}/receipt-analysis [post]
func (h *transactionHandler) analyzeReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	analysis, err := h.categorization.AnalyzeReceipt(c.Request.Context(), transactionID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Receipt analysis rejected", slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			logger.Error("Receipt analysis failed", slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze receipt"})
		}
		return
	}
	c.JSON(http.StatusOK, analysis)
}
