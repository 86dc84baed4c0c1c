package engine

import "github.com/shopspring/decimal"

// MatchConfidence indicates how the reconciled sum compares to a
// document-level declared total. Informational only; it never blocks a
// response.
type MatchConfidence string

const (
	MatchUnverified MatchConfidence = "unverified" // no declared total available
	MatchMatched    MatchConfidence = "matched"
	MatchMismatched MatchConfidence = "mismatched"
)

// ReconciliationResult is the document-level accounting of retained items.
type ReconciliationResult struct {
	TotalItemCount   int
	ReconciledAmount decimal.Decimal
	DeclaredTotal    *decimal.Decimal
	MatchConfidence  MatchConfidence
}

// Reconcile sums the retained items across all pages with exact decimal
// arithmetic and, when a declared total is available, grades the match.
func Reconcile(pages []PageResult, declared *decimal.Decimal) ReconciliationResult {
	sum := decimal.Zero
	count := 0
	for _, page := range pages {
		for _, item := range page.Items {
			sum = sum.Add(item.Amount)
			count++
		}
	}
	res := ReconciliationResult{
		TotalItemCount:   count,
		ReconciledAmount: sum.Round(2),
		DeclaredTotal:    declared,
		MatchConfidence:  MatchUnverified,
	}
	if declared != nil {
		if amountsClose(res.ReconciledAmount, *declared) {
			res.MatchConfidence = MatchMatched
		} else {
			res.MatchConfidence = MatchMismatched
		}
	}
	return res
}
