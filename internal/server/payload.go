package server

import (
	"encoding/json"
	"time"

	"billextract/internal/engine"
	"billextract/internal/llm"
	"billextract/internal/store"
)

// ExtractRequest is the body of POST /extract-bill-data.
type ExtractRequest struct {
	Document string `json:"document"`
}

// LineEntry is one retained line item on the wire. Amounts are rounded to two
// fractional digits before conversion.
type LineEntry struct {
	ItemName     string  `json:"item_name"`
	ItemAmount   float64 `json:"item_amount"`
	ItemRate     float64 `json:"item_rate"`
	ItemQuantity float64 `json:"item_quantity"`
}

// PageContent is one page's retained items.
type PageContent struct {
	PageNo    string      `json:"page_no"`
	PageType  string      `json:"page_type"`
	BillItems []LineEntry `json:"bill_items"`
}

// ProcessedResult is the reconciled document payload. Amounts serialize as
// JSON numbers with two fractional digits; json.Number keeps the exact
// decimal digits without a float round trip.
type ProcessedResult struct {
	PagewiseLineItems []PageContent `json:"pagewise_line_items"`
	TotalItemCount    int           `json:"total_item_count"`
	ReconciledAmount  json.Number   `json:"reconciled_amount"`
	DeclaredTotal     *json.Number  `json:"declared_total,omitempty"`
	MatchConfidence   string        `json:"match_confidence"`
}

// ServiceOutput is the full extraction response.
type ServiceOutput struct {
	IsSuccess  bool            `json:"is_success"`
	TokenUsage llm.TokenUsage  `json:"token_usage"`
	Data       ProcessedResult `json:"data"`
}

// ExtractionSummary is one row of GET /extractions.
type ExtractionSummary struct {
	ID               int64       `json:"id"`
	DocumentURL      string      `json:"document_url"`
	RequestedAt      time.Time   `json:"requested_at"`
	IsSuccess        bool        `json:"is_success"`
	ItemCount        int         `json:"item_count"`
	ReconciledAmount json.Number `json:"reconciled_amount"`
}

// BuildOutput converts an engine result to the wire shape. The CLI shares it
// with the HTTP handler so both emit identical responses.
func BuildOutput(res engine.DocumentResult, usage llm.TokenUsage) ServiceOutput {
	pages := make([]PageContent, 0, len(res.Pages))
	for _, page := range res.Pages {
		items := make([]LineEntry, 0, len(page.Items))
		for _, item := range page.Items {
			items = append(items, LineEntry{
				ItemName:     item.Name,
				ItemAmount:   item.Amount.Round(2).InexactFloat64(),
				ItemRate:     item.Rate.Round(2).InexactFloat64(),
				ItemQuantity: item.Quantity.Round(2).InexactFloat64(),
			})
		}
		pages = append(pages, PageContent{
			PageNo:    page.PageNo,
			PageType:  string(page.PageType),
			BillItems: items,
		})
	}

	data := ProcessedResult{
		PagewiseLineItems: pages,
		TotalItemCount:    res.Reconciliation.TotalItemCount,
		ReconciledAmount:  json.Number(res.Reconciliation.ReconciledAmount.StringFixed(2)),
		MatchConfidence:   string(res.Reconciliation.MatchConfidence),
	}
	if res.Reconciliation.DeclaredTotal != nil {
		n := json.Number(res.Reconciliation.DeclaredTotal.StringFixed(2))
		data.DeclaredTotal = &n
	}
	return ServiceOutput{IsSuccess: true, TokenUsage: usage, Data: data}
}

func summaryFromRecord(rec store.ExtractionRecord) ExtractionSummary {
	return ExtractionSummary{
		ID:               rec.ID,
		DocumentURL:      rec.DocumentURL,
		RequestedAt:      rec.RequestedAt,
		IsSuccess:        rec.Success,
		ItemCount:        rec.ItemCount,
		ReconciledAmount: json.Number(rec.ReconciledAmount),
	}
}
