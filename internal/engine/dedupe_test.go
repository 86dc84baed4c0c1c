package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(no string, items ...LineItem) PageResult {
	return PageResult{PageNo: no, PageType: "Bill Detail", Items: items}
}

func flattenNames(pages []PageResult) []string {
	var names []string
	for _, p := range pages {
		for _, it := range p.Items {
			names = append(names, it.Name)
		}
	}
	return names
}

func TestDeduplicateMergesRelistedCharge(t *testing.T) {
	d := NewDeduplicator(nil, DefaultNameSimilarityThreshold)
	// Same charge reported again on a later page with a truncated name and a
	// rounding difference: one survivor, the first occurrence.
	pages := d.Deduplicate([]PageResult{
		page("1", item("Metnuro", 124.03)),
		page("2", item("Metnuro Tab", 124.00)),
	})
	require.Equal(t, []string{"Metnuro"}, flattenNames(pages))
	assert.Empty(t, pages[1].Items)
	assert.Equal(t, "2", pages[1].PageNo)
}

func TestDeduplicateKeepsRepeatPurchases(t *testing.T) {
	d := NewDeduplicator(nil, DefaultNameSimilarityThreshold)
	// Identical name, amounts beyond tolerance: two legitimate charges.
	pages := d.Deduplicate([]PageResult{
		page("1", item("Livi 300mg Tab", 448)),
		page("2", item("Livi 300mg Tab", 896)),
	})
	assert.Equal(t, []string{"Livi 300mg Tab", "Livi 300mg Tab"}, flattenNames(pages))
}

func TestDeduplicateKeepsDissimilarNames(t *testing.T) {
	d := NewDeduplicator(nil, DefaultNameSimilarityThreshold)
	pages := d.Deduplicate([]PageResult{
		page("1", item("Room Rent", 1500)),
		page("2", item("Nursing Charges", 1500)),
	})
	assert.Len(t, flattenNames(pages), 2)
}

func TestDeduplicateTransitiveGroups(t *testing.T) {
	d := NewDeduplicator(nil, DefaultNameSimilarityThreshold)
	// Three renditions of the same row across three pages collapse into the
	// earliest one.
	pages := d.Deduplicate([]PageResult{
		page("1", item("Metnuro", 124.03)),
		page("2", item("Metnuro Tab", 124.00)),
		page("3", item("Metnuro Tab 500", 124.05)),
	})
	assert.Equal(t, []string{"Metnuro"}, flattenNames(pages))
}

func TestDeduplicatePreservesOrderWithinPage(t *testing.T) {
	d := NewDeduplicator(nil, DefaultNameSimilarityThreshold)
	pages := d.Deduplicate([]PageResult{
		page("1",
			item("Room Rent", 1500),
			item("Metnuro", 124.03),
			item("Nursing Charges", 300),
		),
		page("2", item("Metnuro Tab", 124.00)),
	})
	assert.Equal(t, []string{"Room Rent", "Metnuro", "Nursing Charges"}, flattenNames(pages))
}

func TestDeduplicateIdempotent(t *testing.T) {
	d := NewDeduplicator(nil, DefaultNameSimilarityThreshold)
	input := []PageResult{
		page("1", item("Metnuro", 124.03), item("Room Rent", 1500)),
		page("2", item("Metnuro Tab", 124.00)),
	}
	once := d.Deduplicate(input)
	twice := d.Deduplicate(once)
	assert.Equal(t, once, twice)
}

func TestDeduplicateDeterministic(t *testing.T) {
	d := NewDeduplicator(nil, DefaultNameSimilarityThreshold)
	input := []PageResult{
		page("1", item("Metnuro", 124.03), item("Livi 300mg Tab", 448)),
		page("2", item("Metnuro Tab", 124.00), item("Livi 300mg Tab", 896)),
	}
	first := d.Deduplicate(input)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.Deduplicate(input))
	}
}

func TestDeduplicateRateQuantityStrengthensBorderline(t *testing.T) {
	d := NewDeduplicator(nil, DefaultNameSimilarityThreshold)
	// Name similarity for this pair sits just under the threshold, so the
	// names alone are not enough to merge.
	a := item("Metnuro DS 10", 124.03)
	b := item("Metnuro XR 20", 124.03)
	pages := d.Deduplicate([]PageResult{page("1", a), page("2", b)})
	assert.Len(t, flattenNames(pages), 2)

	// Matching rate and quantity on both rows tips the decision.
	rate := decimal.NewFromFloat(17.72)
	qty := decimal.NewFromInt(7)
	a.Rate, a.Quantity = rate, qty
	b.Rate, b.Quantity = rate, qty
	pages = d.Deduplicate([]PageResult{page("1", a), page("2", b)})
	assert.Equal(t, []string{"Metnuro DS 10"}, flattenNames(pages))
}

func TestNameSimilarityBounds(t *testing.T) {
	assert.Equal(t, 1.0, NameSimilarity("Metnuro Tab", "metnuro tab"))
	assert.Equal(t, 0.0, NameSimilarity("", "Metnuro"))
	sim := NameSimilarity("Metnuro", "Metnuro Tab")
	assert.GreaterOrEqual(t, sim, 0.8)
	assert.LessOrEqual(t, sim, 1.0)
	assert.Less(t, NameSimilarity("Room Rent", "Nursing Charges"), 0.5)
}
