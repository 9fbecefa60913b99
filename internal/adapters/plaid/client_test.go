package plaid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cpenarrieta/finsight/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("client-id", "secret", "sandbox")
	require.NoError(t, err)
	client.baseURL = server.URL
	return client, server
}

func TestNewClientRejectsUnknownEnvironment(t *testing.T) {
	_, err := NewClient("client-id", "secret", "staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging")
}

func TestSyncTransactionsInjectsCredentialsAndOmitsNilCursor(t *testing.T) {
	var captured map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, transactionsSyncPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"added": [], "next_cursor": "cursor-1", "has_more": false}`))
	})

	page, err := client.SyncTransactions(context.Background(), "access-token", nil, 100)

	require.NoError(t, err)
	assert.Equal(t, "cursor-1", page.NextCursor)
	assert.False(t, page.HasMore)
	assert.Equal(t, "client-id", captured["client_id"])
	assert.Equal(t, "secret", captured["secret"])
	assert.Equal(t, "access-token", captured["access_token"])
	_, hasCursor := captured["cursor"]
	assert.False(t, hasCursor, "a nil cursor must not be sent")
}

func TestSyncTransactionsSendsStoredCursor(t *testing.T) {
	var captured map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"next_cursor": "cursor-2", "has_more": false}`))
	})

	cursor := "cursor-1"
	_, err := client.SyncTransactions(context.Background(), "access-token", &cursor, 100)

	require.NoError(t, err)
	assert.Equal(t, "cursor-1", captured["cursor"])
}

func TestGetTransactionsFormatsDateRange(t *testing.T) {
	var captured map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, transactionsGetPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"transactions": [], "total_transactions": 0, "accounts": []}`))
	})

	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)
	_, err := client.GetTransactions(context.Background(), "access-token", start, end, 100, 200)

	require.NoError(t, err)
	assert.Equal(t, "2018-01-01", captured["start_date"])
	assert.Equal(t, "2026-08-30", captured["end_date"])
	options := captured["options"].(map[string]any)
	assert.Equal(t, float64(100), options["count"])
	assert.Equal(t, float64(200), options["offset"])
}

func TestItemLoginRequiredIsMappedToSentinel(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{
			"error_type": "ITEM_ERROR",
			"error_code": "ITEM_LOGIN_REQUIRED",
			"error_message": "the login details of this item have changed",
			"request_id": "req-123"
		}`))
	})

	_, err := client.GetHoldings(context.Background(), "access-token")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrItemLoginRequired)
}

func TestErrorEnvelopeIsSurfaced(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{
			"error_type": "RATE_LIMIT_EXCEEDED",
			"error_code": "TRANSACTIONS_LIMIT",
			"error_message": "rate limit exceeded",
			"request_id": "req-456"
		}`))
	})

	cursor := "cursor-1"
	_, err := client.SyncTransactions(context.Background(), "access-token", &cursor, 100)

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrItemLoginRequired)
	assert.Contains(t, err.Error(), "TRANSACTIONS_LIMIT")
	assert.Contains(t, err.Error(), "req-456")
}

func TestNonJSONErrorBodyIsStillAnError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream timeout"))
	})

	_, err := client.GetHoldings(context.Background(), "access-token")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
