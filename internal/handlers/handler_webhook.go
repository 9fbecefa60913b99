package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cpenarrieta/finsight/internal/adapters/plaid"
	"github.com/cpenarrieta/finsight/internal/core/domain"
	portssvc "github.com/cpenarrieta/finsight/internal/core/ports/services"
	"github.com/cpenarrieta/finsight/internal/dto"
	"github.com/cpenarrieta/finsight/internal/middleware"
	"github.com/gin-gonic/gin"
)

// webhookHandler receives provider webhooks and turns them into targeted
// sync passes.
type webhookHandler struct {
	verifier    *plaid.WebhookVerifier
	syncService portssvc.SyncOrchestratorSvc
	logger      *slog.Logger
}

// newWebhookHandler creates a new webhookHandler.
func newWebhookHandler(verifier *plaid.WebhookVerifier, ss portssvc.SyncOrchestratorSvc, logger *slog.Logger) *webhookHandler {
	return &webhookHandler{
		verifier:    verifier,
		syncService: ss,
		logger:      logger,
	}
}

// registerWebhookRoutes registers the provider webhook endpoint. Webhooks
// are authenticated by signature, not by session, so they live outside
// the API group.
func registerWebhookRoutes(r *gin.Engine, verifier *plaid.WebhookVerifier, syncService portssvc.SyncOrchestratorSvc, logger *slog.Logger) {
	h := newWebhookHandler(verifier, syncService, logger)
	r.POST("/webhooks/plaid", h.handlePlaidWebhook)
}

// handlePlaidWebhook godoc
// @Summary Receive a Plaid webhook
// @Description Verifies the delivery signature and schedules a targeted sync for the referenced item. The sync itself runs asynchronously.
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Malformed payload"
// @Failure 401 {object} map[string]string "Signature verification failed"
// @Router /webhooks/plaid [post]
func (h *webhookHandler) handlePlaidWebhook(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	body, err := c.GetRawData()
	if err != nil {
		logger.Warn("Failed to read webhook body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	if h.verifier != nil {
		signedJWT := c.GetHeader("Plaid-Verification")
		if err := h.verifier.VerifyWebhook(c.Request.Context(), body, signedJWT); err != nil {
			logger.Warn("Webhook verification failed", slog.String("error", err.Error()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Verification failed"})
			return
		}
	}

	var req dto.PlaidWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		logger.Warn("Failed to parse webhook payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	opts, relevant := optionsForWebhook(req)
	if !relevant {
		logger.Info("Ignoring webhook",
			slog.String("webhook_type", req.WebhookType),
			slog.String("webhook_code", req.WebhookCode))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	logger.Info("Webhook accepted, scheduling item sync",
		slog.String("webhook_type", req.WebhookType),
		slog.String("webhook_code", req.WebhookCode),
		slog.String("provider_item_id", req.ItemID))

	// The provider expects a fast acknowledgement; the sync runs detached
	// from the request context.
	go func(providerItemID string, opts domain.SyncOptions) {
		ctx := middleware.ContextWithLogger(context.Background(), h.logger)
		if _, err := h.syncService.SyncSingleItem(ctx, providerItemID, opts); err != nil {
			h.logger.Error("Webhook-triggered sync failed",
				slog.String("provider_item_id", providerItemID),
				slog.String("error", err.Error()))
		}
	}(req.ItemID, opts)

	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// optionsForWebhook maps a webhook to the engines it should run; the
// second return is false for webhook types sync does not act on.
func optionsForWebhook(req dto.PlaidWebhookRequest) (domain.SyncOptions, bool) {
	switch req.WebhookType {
	case "TRANSACTIONS":
		return domain.SyncOptions{
			SyncTransactions:    true,
			RunAICategorization: true,
		}, true
	case "HOLDINGS", "INVESTMENTS_TRANSACTIONS":
		return domain.SyncOptions{
			SyncInvestments: true,
		}, true
	default:
		return domain.SyncOptions{}, false
	}
}
