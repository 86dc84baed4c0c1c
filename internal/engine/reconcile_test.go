package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestReconcileSumsRetainedItems(t *testing.T) {
	pages := []PageResult{
		page("1", item("Livi 300mg Tab", 448)),
		page("2", item("Metnuro", 124.03)),
	}
	res := Reconcile(pages, nil)
	assert.Equal(t, 2, res.TotalItemCount)
	assert.Equal(t, "572.03", res.ReconciledAmount.String())
	assert.Equal(t, MatchUnverified, res.MatchConfidence)
}

func TestReconcileNoFloatDrift(t *testing.T) {
	// 0.1 added a hundred times is exactly 10 in decimal arithmetic.
	var items []LineItem
	for i := 0; i < 100; i++ {
		items = append(items, item("Ward Visit", 0.1))
	}
	res := Reconcile([]PageResult{page("1", items...)}, nil)
	assert.Equal(t, 100, res.TotalItemCount)
	assert.Equal(t, "10", res.ReconciledAmount.String())
}

func TestReconcileAgainstDeclaredTotal(t *testing.T) {
	pages := []PageResult{
		page("1", item("Livi 300mg Tab", 448), item("Metnuro", 124.03)),
	}

	declared := decimal.NewFromFloat(572.03)
	res := Reconcile(pages, &declared)
	assert.Equal(t, MatchMatched, res.MatchConfidence)

	// Within one minor unit still counts as matched.
	declared = decimal.NewFromFloat(572.04)
	res = Reconcile(pages, &declared)
	assert.Equal(t, MatchMatched, res.MatchConfidence)

	declared = decimal.NewFromFloat(600.00)
	res = Reconcile(pages, &declared)
	assert.Equal(t, MatchMismatched, res.MatchConfidence)
}

func TestReconcileEmptyPages(t *testing.T) {
	res := Reconcile([]PageResult{page("1"), page("2")}, nil)
	assert.Equal(t, 0, res.TotalItemCount)
	assert.True(t, res.ReconciledAmount.IsZero())
}
