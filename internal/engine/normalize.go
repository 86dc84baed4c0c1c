package engine

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Rejection reasons. A rejected candidate is dropped from its page, never
// surfaced as a fault.
var (
	ErrEmptyName      = errors.New("empty item name")
	ErrAmountMissing  = errors.New("item amount missing or unparsable")
	ErrAmountNegative = errors.New("negative item amount")
)

// Normalizer canonicalizes raw candidates into validated LineItems. Pure; no
// side effects.
type Normalizer struct{}

// Normalize coerces a candidate's fields and validates them. Amount is
// mandatory and must be non-negative; rate and quantity are optional hints and
// simply come back zero when unparsable.
func (Normalizer) Normalize(c RawItemCandidate) (LineItem, error) {
	name := strings.Join(strings.Fields(coerceString(c.Name)), " ")
	if name == "" {
		return LineItem{}, ErrEmptyName
	}

	amount, ok := coerceDecimal(c.Amount)
	if !ok {
		return LineItem{}, ErrAmountMissing
	}
	if amount.IsNegative() {
		// Negative adjustment rows read like summary rows; they are not
		// charges in this domain.
		return LineItem{}, ErrAmountNegative
	}

	rate, ok := coerceDecimal(c.Rate)
	if !ok || rate.IsNegative() {
		rate = decimal.Zero
	}
	qty, ok := coerceDecimal(c.Quantity)
	if !ok || qty.Sign() <= 0 {
		qty = decimal.Zero
	}

	return LineItem{
		Name:     name,
		Amount:   amount,
		Rate:     rate,
		Quantity: qty,
	}, nil
}
