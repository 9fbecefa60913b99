package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cpenarrieta/finsight/internal/apperrors"
	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	portsrepo "github.com/cpenarrieta/finsight/internal/core/ports/repositories"
	"github.com/cpenarrieta/finsight/internal/dto"
	"github.com/cpenarrieta/finsight/internal/middleware"
	"github.com/cpenarrieta/finsight/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const itemListCacheKey = "items"

// itemHandler handles HTTP requests related to linked items.
type itemHandler struct {
	itemRepo portsrepo.ItemRepository
	tokens   *utils.TokenCipher
	cache    providers.ReadCache
}

// newItemHandler creates a new itemHandler.
func newItemHandler(ir portsrepo.ItemRepository, tokens *utils.TokenCipher, cache providers.ReadCache) *itemHandler {
	return &itemHandler{
		itemRepo: ir,
		tokens:   tokens,
		cache:    cache,
	}
}

// registerItemRoutes registers routes related to linked items.
func registerItemRoutes(rg *gin.RouterGroup, itemRepo portsrepo.ItemRepository, tokens *utils.TokenCipher, cache providers.ReadCache) {
	h := newItemHandler(itemRepo, tokens, cache)

	items := rg.Group("/items")
	{
		items.GET("", h.listItems)
		items.POST("", h.createItem)
	}
}

// listItems godoc
// @Summary List linked items
// @Description Retrieves every linked institution connection with its sync status.
// @Tags items
// @Produce json
// @Success 200 {array} dto.ItemResponse
// @Failure 500 {object} map[string]string "Failed to list items"
// @Router /items [get]
func (h *itemHandler) listItems(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if cached, ok := h.cache.Get(itemListCacheKey); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	items, err := h.itemRepo.ListItems(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list items", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list items"})
		return
	}

	resp := dto.ToItemResponseSlice(items)
	h.cache.Set(itemListCacheKey, resp, providers.TagItems)
	c.JSON(http.StatusOK, resp)
}

// createItem godoc
// @Summary Link an institution connection
// @Description Registers a new provider item. The access token is sealed before it is stored; it never leaves the service again.
// @Tags items
// @Accept json
// @Produce json
// @Param item body dto.CreateItemRequest true "Item to link"
// @Success 201 {object} dto.ItemResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Item already linked"
// @Failure 500 {object} map[string]string "Failed to link item"
// @Router /items [post]
func (h *itemHandler) createItem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateItem", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	sealed, err := h.tokens.Seal(req.AccessToken)
	if err != nil {
		logger.Error("Failed to seal access token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link item"})
		return
	}

	now := time.Now().UTC()
	item := domain.LinkedItem{
		ItemID:          uuid.NewString(),
		ProviderItemID:  req.ProviderItemID,
		InstitutionName: req.InstitutionName,
		AccessToken:     sealed,
		Status:          domain.ItemStatusOK,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	if err := h.itemRepo.SaveItem(c.Request.Context(), item); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Item already linked"})
			return
		}
		logger.Error("Failed to save item", slog.String("provider_item_id", req.ProviderItemID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link item"})
		return
	}

	h.cache.InvalidateTags(providers.TagItems)

	logger.Info("Item linked",
		slog.String("item_id", item.ItemID),
		slog.String("provider_item_id", item.ProviderItemID))
	c.JSON(http.StatusCreated, dto.ToItemResponse(item))
}
