package dto

import (
	"time"

	"github.com/cpenarrieta/finsight/internal/core/domain"
)

// CreateItemRequest links a new institution connection. The access token
// arrives in plaintext from the link exchange and is sealed before it is
// stored.
type CreateItemRequest struct {
	ProviderItemID  string `json:"providerItemID" binding:"required"`
	InstitutionName string `json:"institutionName" binding:"required"`
	AccessToken     string `json:"accessToken" binding:"required"`
}

// ItemResponse is the outward shape of a linked item. The access token
// and sync cursors never leave the service.
type ItemResponse struct {
	ItemID          string    `json:"itemID"`
	ProviderItemID  string    `json:"providerItemID"`
	InstitutionName string    `json:"institutionName"`
	Status          string    `json:"status"`
	InitialSyncDone bool      `json:"initialSyncDone"`
	LastUpdatedAt   time.Time `json:"lastUpdatedAt"`
}

// ToItemResponse converts a domain item to its response shape.
func ToItemResponse(item domain.LinkedItem) ItemResponse {
	return ItemResponse{
		ItemID:          item.ItemID,
		ProviderItemID:  item.ProviderItemID,
		InstitutionName: item.InstitutionName,
		Status:          string(item.Status),
		InitialSyncDone: item.TransactionsCursor != nil,
		LastUpdatedAt:   item.LastUpdatedAt,
	}
}

// ToItemResponseSlice converts a slice of domain items.
func ToItemResponseSlice(items []domain.LinkedItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ToItemResponse(item))
	}
	return out
}

// PlaidWebhookRequest is the subset of Plaid's webhook payload the sync
// layer acts on.
type PlaidWebhookRequest struct {
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
	ItemID      string `json:"item_id"`
}
