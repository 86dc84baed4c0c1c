package engine

import "log/slog"

// DefaultNameSimilarityThreshold is the near-identical name score required
// before two amount-close items are considered the same charge.
const DefaultNameSimilarityThreshold = 0.8

// Deduplicator removes charges that the extractor reported more than once
// across pages (re-listed rows on running vs. final bill pages). Name
// similarity AND amount closeness are both required: repeated purchases of
// the same product at different totals are legitimate distinct charges.
type Deduplicator struct {
	logger        *slog.Logger
	nameThreshold float64
}

func NewDeduplicator(logger *slog.Logger, nameThreshold float64) *Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	if nameThreshold <= 0 || nameThreshold > 1 {
		nameThreshold = DefaultNameSimilarityThreshold
	}
	return &Deduplicator{logger: logger, nameThreshold: nameThreshold}
}

type flatRef struct {
	page, pos int
	item      LineItem
}

// Deduplicate drops duplicate items in place of their page, preserving page
// order and per-page item order. Duplicate relations are closed transitively;
// each group keeps only its earliest member by (page index, position). The
// operation is deterministic and idempotent.
func (d *Deduplicator) Deduplicate(pages []PageResult) []PageResult {
	var flat []flatRef
	for pi, page := range pages {
		for ii, item := range page.Items {
			flat = append(flat, flatRef{page: pi, pos: ii, item: item})
		}
	}

	parent := make([]int, len(flat))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			// Keep the smaller index as root so "earliest" falls out of
			// the flattening order.
			if ri > rj {
				ri, rj = rj, ri
			}
			parent[rj] = ri
		}
	}

	for i := 0; i < len(flat); i++ {
		for j := i + 1; j < len(flat); j++ {
			if d.isDuplicate(flat[i].item, flat[j].item) {
				union(i, j)
			}
		}
	}

	drop := make(map[int]bool)
	for i := range flat {
		if r := find(i); r != i {
			drop[i] = true
			d.logger.Info("engine.dedupe.duplicate",
				"name", flat[i].item.Name,
				"page_no", pages[flat[i].page].PageNo,
				"kept_name", flat[r].item.Name,
				"kept_page_no", pages[flat[r].page].PageNo,
			)
		}
	}

	out := make([]PageResult, len(pages))
	for pi, page := range pages {
		out[pi] = PageResult{
			PageNo:        page.PageNo,
			PageType:      page.PageType,
			Items:         []LineItem{},
			DeclaredTotal: page.DeclaredTotal,
		}
	}
	for i, ref := range flat {
		if !drop[i] {
			out[ref.page].Items = append(out[ref.page].Items, ref.item)
		}
	}
	return out
}

func (d *Deduplicator) isDuplicate(a, b LineItem) bool {
	if !amountsClose(a.Amount, b.Amount) {
		return false
	}
	threshold := d.nameThreshold
	// Matching rate and quantity on both sides strengthens a borderline
	// name score; a reprint omitting them is still eligible on name alone.
	if !a.Rate.IsZero() && !a.Quantity.IsZero() &&
		a.Rate.Equal(b.Rate) && a.Quantity.Equal(b.Quantity) {
		threshold -= 0.1
	}
	return NameSimilarity(a.Name, b.Name) >= threshold
}
