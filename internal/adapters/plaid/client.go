package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cpenarrieta/finsight/internal/apperrors"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
)

const (
	defaultTimeout = 30 * time.Second

	transactionsGetPath  = "/transactions/get"
	transactionsSyncPath = "/transactions/sync"
	holdingsGetPath      = "/investments/holdings/get"
	investmentsTxnsPath  = "/investments/transactions/get"
)

// environment base URLs
var envBaseURLs = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

// Client handles communication with the Plaid API. Every endpoint is a
// JSON POST carrying the client credentials and an item access token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

// NewClient creates a Plaid API client for the given environment
// (sandbox, development or production).
func NewClient(clientID, secret, env string) (*Client, error) {
	baseURL, ok := envBaseURLs[env]
	if !ok {
		return nil, fmt.Errorf("unknown plaid environment %q", env)
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		clientID:   clientID,
		secret:     secret,
	}, nil
}

// errorResponse is Plaid's error envelope.
type errorResponse struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
}

// post executes one Plaid call and decodes the response into out.
func (c *Client) post(ctx context.Context, path string, payload map[string]any, out any) error {
	payload["client_id"] = c.clientID
	payload["secret"] = c.secret

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil {
			return fmt.Errorf("plaid request to %s failed with status %d: %s", path, resp.StatusCode, string(respBody))
		}
		if errResp.ErrorCode == "ITEM_LOGIN_REQUIRED" {
			return fmt.Errorf("plaid item needs re-authentication (request %s): %w", errResp.RequestID, apperrors.ErrItemLoginRequired)
		}
		return fmt.Errorf("plaid error %s/%s (status %d, request %s): %s",
			errResp.ErrorType, errResp.ErrorCode, resp.StatusCode, errResp.RequestID, errResp.ErrorMessage)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response from %s: %w", path, err)
	}
	return nil
}

// GetTransactions fetches one offset page of the date-range transaction endpoint.
func (c *Client) GetTransactions(ctx context.Context, accessToken string, startDate, endDate time.Time, count, offset int) (*providers.TransactionsPage, error) {
	payload := map[string]any{
		"access_token": accessToken,
		"start_date":   startDate.Format("2006-01-02"),
		"end_date":     endDate.Format("2006-01-02"),
		"options": map[string]any{
			"count":  count,
			"offset": offset,
		},
	}
	var page providers.TransactionsPage
	if err := c.post(ctx, transactionsGetPath, payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SyncTransactions fetches one page of the cursor-based change feed.
func (c *Client) SyncTransactions(ctx context.Context, accessToken string, cursor *string, count int) (*providers.SyncPage, error) {
	payload := map[string]any{
		"access_token": accessToken,
		"count":        count,
	}
	if cursor != nil {
		payload["cursor"] = *cursor
	}
	var page providers.SyncPage
	if err := c.post(ctx, transactionsSyncPath, payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetHoldings fetches the full current holdings snapshot.
func (c *Client) GetHoldings(ctx context.Context, accessToken string) (*providers.HoldingsSnapshot, error) {
	payload := map[string]any{
		"access_token": accessToken,
	}
	var snapshot providers.HoldingsSnapshot
	if err := c.post(ctx, holdingsGetPath, payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// GetInvestmentTransactions fetches one offset page of investment transactions.
func (c *Client) GetInvestmentTransactions(ctx context.Context, accessToken string, startDate, endDate time.Time, count, offset int) (*providers.InvestmentTransactionsPage, error) {
	payload := map[string]any{
		"access_token": accessToken,
		"start_date":   startDate.Format("2006-01-02"),
		"end_date":     endDate.Format("2006-01-02"),
		"options": map[string]any{
			"count":  count,
			"offset": offset,
		},
	}
	var page providers.InvestmentTransactionsPage
	if err := c.post(ctx, investmentsTxnsPath, payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

var _ providers.FinancialDataProvider = (*Client)(nil)
