package llm

import (
	"context"

	"billextract/internal/engine"
)

// PageImage is one rasterized page handed to the vision extractor.
type PageImage struct {
	PageNo   string
	Data     []byte // encoded image bytes
	MIMEType string // image/png or image/jpeg
}

// TokenUsage aggregates vision-model token consumption for one document.
type TokenUsage struct {
	TotalTokens  int `json:"total_tokens"`
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (u *TokenUsage) Add(other TokenUsage) {
	u.TotalTokens += other.TotalTokens
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// ExtractResult is the raw, not-yet-reconciled output for a whole document.
type ExtractResult struct {
	Pages []engine.RawPage
	Usage TokenUsage
}

// PageExtractor is the interface the request handler depends on.
type PageExtractor interface {
	ExtractPages(ctx context.Context, pages []PageImage) (ExtractResult, error)
}
