// Package engine validates, cleans, and reconciles the noisy per-page line
// items produced by the upstream vision extractor. It performs no I/O and
// holds no state beyond one request's working data.
package engine

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"billextract/constants"
)

// RawItemCandidate is one untrusted row as reported by the upstream extractor.
// Numeric fields may arrive as JSON numbers, decorated strings ("₹1,234.50"),
// or garbage. Nothing here is validated.
type RawItemCandidate struct {
	Name     any `json:"item_name"`
	Amount   any `json:"item_amount"`
	Rate     any `json:"item_rate"`
	Quantity any `json:"item_quantity"`
}

// LineItem is a validated bill row. Rate and Quantity are optional hints from
// the extractor and are zero when not reported.
type LineItem struct {
	Name     string
	Amount   decimal.Decimal
	Rate     decimal.Decimal
	Quantity decimal.Decimal
}

// RateAmountConsistent reports whether Amount agrees with Rate*Quantity within
// tolerance. Soft signal only: inconsistency never rejects an item, but
// agreement strengthens duplicate decisions.
func (it LineItem) RateAmountConsistent() bool {
	if it.Rate.IsZero() || it.Quantity.IsZero() {
		return false
	}
	return amountsClose(it.Amount, it.Rate.Mul(it.Quantity))
}

// PageResult is the ordered, validated item list for one page.
type PageResult struct {
	PageNo        string
	PageType      constants.PageType
	Items         []LineItem
	DeclaredTotal *decimal.Decimal // page-level total reported upstream, if any
}

// Amount comparison tolerances: two amounts are "close" when they differ by at
// most one minor currency unit, or by at most 1% of the larger magnitude.
var (
	absAmountTolerance = decimal.New(1, -2) // 0.01
	relAmountTolerance = decimal.New(1, -2) // 1%
)

func amountsClose(a, b decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	if diff.LessThanOrEqual(absAmountTolerance) {
		return true
	}
	larger := decimal.Max(a.Abs(), b.Abs())
	if larger.IsZero() {
		return true
	}
	return diff.Div(larger).LessThanOrEqual(relAmountTolerance)
}

// numericToken matches the first number inside a decorated string, tolerating
// thousands separators ("Rs. 1,234.50", "$ 448").
var numericToken = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// coerceDecimal converts whatever the extractor reported into a decimal.
// Returns false when the value carries no parseable number.
func coerceDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case decimal.Decimal:
		return t, true
	case string:
		tok := numericToken.FindString(t)
		if tok == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(tok, ",", ""))
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
