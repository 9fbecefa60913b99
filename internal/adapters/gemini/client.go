package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cpenarrieta/finsight/internal/core/domain"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

const attachmentFetchTimeout = 20 * time.Second

// Client calls Gemini for structured categorization. Prompts demand raw
// JSON; responses are fence-stripped and unmarshalled into typed results,
// so a chatty model surfaces as a parse error rather than bad data.
type Client struct {
	client     *genai.Client
	model      string
	httpClient *http.Client
}

// NewClient creates a Gemini client for the given model.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Client{
		client:     client,
		model:      model,
		httpClient: &http.Client{Timeout: attachmentFetchTimeout},
	}, nil
}

// categorizationResponse is the JSON shape the categorization prompt demands.
type categorizationResponse struct {
	CategoryID    *string `json:"categoryId"`
	SubcategoryID *string `json:"subcategoryId"`
	Confidence    float64 `json:"confidence"`
	Reasoning     string  `json:"reasoning"`
}

// receiptSplitResponse is one proposed split line in the receipt response.
type receiptSplitResponse struct {
	CategoryID    string          `json:"categoryId"`
	SubcategoryID *string         `json:"subcategoryId"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

// receiptResponse is the JSON shape the receipt-analysis prompt demands.
type receiptResponse struct {
	Action        string                 `json:"action"`
	Splits        []receiptSplitResponse `json:"splits"`
	CategoryID    *string                `json:"categoryId"`
	SubcategoryID *string                `json:"subcategoryId"`
	Confidence    float64                `json:"confidence"`
	Reasoning     string                 `json:"reasoning"`
}

// Categorize runs the categorization prompt and returns the model's raw
// (unvalidated) suggestion.
func (c *Client) Categorize(ctx context.Context, prompt string, attachments []providers.Attachment) (*domain.CategorizationResult, error) {
	var out categorizationResponse
	if err := c.generate(ctx, prompt, attachments, &out); err != nil {
		return nil, err
	}
	return &domain.CategorizationResult{
		CategoryID:    out.CategoryID,
		SubcategoryID: out.SubcategoryID,
		Confidence:    int(math.Round(out.Confidence)),
		Reasoning:     out.Reasoning,
	}, nil
}

// AnalyzeReceipt runs the receipt-analysis prompt and returns the model's
// raw classification.
func (c *Client) AnalyzeReceipt(ctx context.Context, prompt string, attachments []providers.Attachment) (*domain.ReceiptAnalysis, error) {
	var out receiptResponse
	if err := c.generate(ctx, prompt, attachments, &out); err != nil {
		return nil, err
	}

	analysis := &domain.ReceiptAnalysis{
		Action:        domain.ReceiptAction(out.Action),
		CategoryID:    out.CategoryID,
		SubcategoryID: out.SubcategoryID,
		Confidence:    int(math.Round(out.Confidence)),
		Reasoning:     out.Reasoning,
	}
	for _, split := range out.Splits {
		analysis.Splits = append(analysis.Splits, domain.ReceiptSplit{
			CategoryID:    split.CategoryID,
			SubcategoryID: split.SubcategoryID,
			Amount:        split.Amount,
			Description:   split.Description,
		})
	}
	return analysis, nil
}

// generate runs one model call, attaching receipt images as inline data,
// and unmarshals the cleaned response into out.
func (c *Client) generate(ctx context.Context, prompt string, attachments []providers.Attachment, out any) error {
	parts := []*genai.Part{{Text: prompt}}
	for _, att := range attachments {
		data, err := c.fetchAttachment(ctx, att.URL)
		if err != nil {
			return fmt.Errorf("failed to fetch attachment %s: %w", att.URL, err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: att.MIMEType,
				Data:     data,
			},
		})
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return fmt.Errorf("empty response from model")
	}

	clean := cleanModelJSON(rawText)
	if err := json.Unmarshal([]byte(clean), out); err != nil {
		return fmt.Errorf("unmarshal model JSON: %w\nraw response: %s", err, rawText)
	}
	return nil
}

func (c *Client) fetchAttachment(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// cleanModelJSON strips Markdown fences and surrounding junk when the
// model ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Extra safety: keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

var _ providers.StructuredLLM = (*Client)(nil)
