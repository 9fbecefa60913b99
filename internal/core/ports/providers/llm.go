package providers

import (
	"context"

	"github.com/cpenarrieta/finsight/internal/core/domain"
)

// Attachment is one receipt file to include in a vision prompt. PDFs are
// expected to have been rewritten to a rendered-image URL before reaching
// the LLM client.
type Attachment struct {
	URL      string
	MIMEType string
}

// StructuredLLM is the categorization model boundary: a
// structured-generation call returning a schema-constrained result.
// Outputs are raw model claims; the categorization engine validates them
// against the taxonomy before applying anything.
type StructuredLLM interface {
	// Categorize returns the model's category suggestion for the prompt.
	// Attachments switch the call to a multi-part vision request.
	Categorize(ctx context.Context, prompt string, attachments []Attachment) (*domain.CategorizationResult, error)

	// AnalyzeReceipt returns a split/recategorize/confirm classification.
	AnalyzeReceipt(ctx context.Context, prompt string, attachments []Attachment) (*domain.ReceiptAnalysis, error)
}
