package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Built-in aggregate/summary phrases. Invoice vocabulary varies by region, so
// locale-specific phrases are supplied as configuration on top of this list.
var defaultSummaryPhrases = []string{
	"total",
	"sub total",
	"subtotal",
	"grand total",
	"final total",
	"total amount",
	"final amount",
	"net amount",
	"amount due",
	"amount payable",
	"balance",
	"balance due",
	"tax",
	"gst",
	"discount",
	"sum",
}

// SummaryFilter classifies normalized items as genuine line items vs.
// summary/aggregate rows (subtotal, tax, grand total).
type SummaryFilter struct {
	phrases [][]string
}

// NewSummaryFilter builds a filter over the built-in phrase list plus any
// extra locale-specific phrases.
func NewSummaryFilter(extra ...string) *SummaryFilter {
	f := &SummaryFilter{}
	for _, p := range defaultSummaryPhrases {
		f.phrases = append(f.phrases, nameTokens(p))
	}
	for _, p := range extra {
		if toks := nameTokens(p); len(toks) > 0 {
			f.phrases = append(f.phrases, toks)
		}
	}
	return f
}

// IsLineItem reports whether item is a genuine charge row. runningSum is the
// sum of items already accepted on the same page: a name that only partially
// overlaps the keyword set but restates that sum is almost certainly a
// subtotal line, so it is excluded too.
func (f *SummaryFilter) IsLineItem(item LineItem, runningSum decimal.Decimal) bool {
	toks := nameTokens(item.Name)
	if len(toks) == 0 {
		return false
	}
	if f.matchesPhrase(toks) {
		return false
	}
	if f.overlapsKeyword(toks) && runningSum.Sign() > 0 && amountsClose(item.Amount, runningSum) {
		return false
	}
	return true
}

// matchesPhrase reports whether the name's token sequence equals, or is fully
// contained as a contiguous standalone token run within, one of the keyword
// phrases. Token-level containment, not substring search: "Totaline Gel" must
// not match "total".
func (f *SummaryFilter) matchesPhrase(toks []string) bool {
	for _, phrase := range f.phrases {
		if containsTokenRun(phrase, toks) {
			return true
		}
	}
	return false
}

// overlapsKeyword reports a partial overlap: at least one name token appears
// somewhere in the keyword vocabulary. Used only as the ambiguity signal for
// the running-sum tie-break.
func (f *SummaryFilter) overlapsKeyword(toks []string) bool {
	for _, phrase := range f.phrases {
		for _, pt := range phrase {
			for _, t := range toks {
				if t == pt {
					return true
				}
			}
		}
	}
	return false
}

// containsTokenRun reports whether needle occurs as a contiguous subsequence
// of haystack.
func containsTokenRun(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// nameTokens lowercases a name and splits it on whitespace and punctuation,
// so "Sub-Total:" and "sub total" tokenize identically.
func nameTokens(s string) []string {
	s = strings.ToLower(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127
}
