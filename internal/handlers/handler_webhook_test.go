package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/cpenarrieta/finsight/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSyncService records the single-item sync call the webhook
// handler schedules in the background.
type recordingSyncService struct {
	called chan struct {
		providerItemID string
		opts           domain.SyncOptions
	}
}

func newRecordingSyncService() *recordingSyncService {
	return &recordingSyncService{
		called: make(chan struct {
			providerItemID string
			opts           domain.SyncOptions
		}, 1),
	}
}

func (s *recordingSyncService) SyncItems(ctx context.Context, opts domain.SyncOptions) (*domain.SyncSummary, error) {
	return &domain.SyncSummary{}, nil
}

func (s *recordingSyncService) SyncSingleItem(ctx context.Context, providerItemID string, opts domain.SyncOptions) (*domain.SyncSummary, error) {
	s.called <- struct {
		providerItemID string
		opts           domain.SyncOptions
	}{providerItemID, opts}
	return &domain.SyncSummary{}, nil
}

func webhookTestRouter(sync *recordingSyncService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// nil verifier disables signature checking for these tests.
	registerWebhookRoutes(r, nil, sync, slog.Default())
	return r
}

func postWebhook(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/plaid", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTransactionsWebhookSchedulesTransactionSync(t *testing.T) {
	sync := newRecordingSyncService()
	r := webhookTestRouter(sync)

	w := postWebhook(r, `{"webhook_type": "TRANSACTIONS", "webhook_code": "SYNC_UPDATES_AVAILABLE", "item_id": "provider-item-1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "accepted")

	select {
	case call := <-sync.called:
		assert.Equal(t, "provider-item-1", call.providerItemID)
		assert.True(t, call.opts.SyncTransactions)
		assert.True(t, call.opts.RunAICategorization)
		assert.False(t, call.opts.SyncInvestments)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a background sync to be scheduled")
	}
}

func TestHoldingsWebhookSchedulesInvestmentSync(t *testing.T) {
	sync := newRecordingSyncService()
	r := webhookTestRouter(sync)

	w := postWebhook(r, `{"webhook_type": "HOLDINGS", "webhook_code": "DEFAULT_UPDATE", "item_id": "provider-item-1"}`)

	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case call := <-sync.called:
		assert.True(t, call.opts.SyncInvestments)
		assert.False(t, call.opts.SyncTransactions)
		assert.False(t, call.opts.RunAICategorization)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a background sync to be scheduled")
	}
}

func TestIrrelevantWebhookIsAcknowledgedButIgnored(t *testing.T) {
	sync := newRecordingSyncService()
	r := webhookTestRouter(sync)

	w := postWebhook(r, `{"webhook_type": "ITEM", "webhook_code": "ERROR", "item_id": "provider-item-1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")

	select {
	case <-sync.called:
		t.Fatal("no sync should be scheduled for an irrelevant webhook")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMalformedWebhookPayloadIsRejected(t *testing.T) {
	sync := newRecordingSyncService()
	r := webhookTestRouter(sync)

	w := postWebhook(r, `{"webhook_type": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptionsForWebhook(t *testing.T) {
	tests := []struct {
		webhookType string
		wantOpts    domain.SyncOptions
		relevant    bool
	}{
		{"TRANSACTIONS", domain.SyncOptions{SyncTransactions: true, RunAICategorization: true}, true},
		{"HOLDINGS", domain.SyncOptions{SyncInvestments: true}, true},
		{"INVESTMENTS_TRANSACTIONS", domain.SyncOptions{SyncInvestments: true}, true},
		{"ITEM", domain.SyncOptions{}, false},
		{"", domain.SyncOptions{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.webhookType, func(t *testing.T) {
			opts, relevant := optionsForWebhook(dto.PlaidWebhookRequest{WebhookType: tt.webhookType})
			require.Equal(t, tt.relevant, relevant)
			assert.Equal(t, tt.wantOpts, opts)
		})
	}
}
