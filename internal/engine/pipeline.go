package engine

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"billextract/constants"
)

// Pipeline stages, in order. No stage is skipped; each consumes only the
// previous stage's output.
type stage string

const (
	stagePending      stage = "pending"
	stagePageFiltered stage = "per_page_normalized_and_filtered"
	stageDeduplicated stage = "cross_page_deduplicated"
	stageReconciled   stage = "reconciled"
	stageDone         stage = "done"
)

// RawPage is the untrusted per-page input from the upstream extractor.
type RawPage struct {
	PageNo        string
	PageType      string
	DeclaredTotal any // page-level total the extractor reported, if any
	Items         []RawItemCandidate
}

// DocumentResult is the engine's final output for one document.
type DocumentResult struct {
	Pages          []PageResult
	Reconciliation ReconciliationResult
}

// Pipeline sequences normalize → filter per page, then deduplicates across
// pages and reconciles the survivors. It preserves the page ordering it
// receives.
type Pipeline struct {
	logger *slog.Logger
	norm   Normalizer
	filter *SummaryFilter
	dedupe *Deduplicator
}

func NewPipeline(logger *slog.Logger, filter *SummaryFilter, dedupe *Deduplicator) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if filter == nil {
		filter = NewSummaryFilter()
	}
	if dedupe == nil {
		dedupe = NewDeduplicator(logger, DefaultNameSimilarityThreshold)
	}
	return &Pipeline{logger: logger, filter: filter, dedupe: dedupe}
}

// Process runs the full per-request pipeline. It always produces a result:
// candidate rejections and empty pages are valid outcomes, not faults.
func (p *Pipeline) Process(pages []RawPage) DocumentResult {
	p.logger.Debug("engine.pipeline.stage", "stage", stagePending, "pages", len(pages))

	// Per-page normalization and filtering are independent across pages;
	// results land in index-addressed slots so no state is shared.
	results := make([]PageResult, len(pages))
	var wg sync.WaitGroup
	for i := range pages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.processPage(i, pages[i])
		}(i)
	}
	wg.Wait()
	p.logger.Debug("engine.pipeline.stage", "stage", stagePageFiltered)

	deduped := p.dedupe.Deduplicate(results)
	p.logger.Debug("engine.pipeline.stage", "stage", stageDeduplicated)

	rec := Reconcile(deduped, documentDeclaredTotal(pages))
	p.logger.Debug("engine.pipeline.stage", "stage", stageReconciled)

	p.logger.Info("engine.pipeline.done",
		"stage", stageDone,
		"pages", len(deduped),
		"item_count", rec.TotalItemCount,
		"reconciled_amount", rec.ReconciledAmount.String(),
		"match_confidence", rec.MatchConfidence,
	)
	return DocumentResult{Pages: deduped, Reconciliation: rec}
}

func (p *Pipeline) processPage(idx int, page RawPage) PageResult {
	pageNo := page.PageNo
	if pageNo == "" {
		pageNo = strconv.Itoa(idx + 1)
	}
	out := PageResult{
		PageNo:   pageNo,
		PageType: constants.NormalizePageType(page.PageType),
		Items:    []LineItem{},
	}
	if t, ok := coerceDecimal(page.DeclaredTotal); ok {
		out.DeclaredTotal = &t
	}

	running := decimal.Zero
	for _, c := range page.Items {
		item, err := p.norm.Normalize(c)
		if err != nil {
			p.logger.Debug("engine.normalize.rejected",
				"page_no", pageNo, "reason", err, "name", coerceString(c.Name))
			continue
		}
		if !p.filter.IsLineItem(item, running) {
			p.logger.Debug("engine.filter.summary_row",
				"page_no", pageNo, "name", item.Name, "amount", item.Amount.String())
			continue
		}
		out.Items = append(out.Items, item)
		running = running.Add(item.Amount)
	}
	return out
}

// documentDeclaredTotal picks the document-level declared total from the
// per-page hints. The last page carrying one wins: final-bill pages restate
// the grand total, earlier ones carry page subtotals.
func documentDeclaredTotal(pages []RawPage) *decimal.Decimal {
	var declared *decimal.Decimal
	for _, page := range pages {
		if t, ok := coerceDecimal(page.DeclaredTotal); ok {
			d := t
			declared = &d
		}
	}
	return declared
}
