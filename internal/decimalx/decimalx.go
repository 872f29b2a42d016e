// Package decimalx holds small decimal helpers shared by the matching
// engine. Nothing here does monetary math with binary floating point —
// amounts and quantities are fixed-point throughout.
package decimalx

import (
	"fmt"
	"math/big"

	"github.com/pinggolf/redblue-matcher/internal/matcherrors"
	"github.com/shopspring/decimal"
)

// Min returns the smaller of a and b. Used by the filler to compute
// use = min(candidate.remaining_amount, remaining).
func Min(a, b decimal.Decimal) decimal.Decimal {
	return decimal.Min(a, b)
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.Sign() > 0
}

// CheckScale verifies that d fits within the declared fixed-point
// precision/scale, returning matcherrors.ErrNumericOverflow (wrapped via
// matcherrors.NumericOverflow) when it would not: total significant
// digits (integer part + scale) must not exceed precision, and the
// value's own fractional digits must not exceed scale.
func CheckScale(billID string, d decimal.Decimal, precision, scale int32) error {
	exp := d.Exponent()
	if -exp > scale {
		return matcherrors.NumericOverflow(billID, fmt.Errorf("value %s exceeds scale %d", d.String(), scale))
	}

	coeff := new(big.Int).Abs(d.Coefficient())
	digits := int32(len(coeff.String()))
	if coeff.Sign() == 0 {
		digits = 1
	}
	intDigits := digits + exp
	if intDigits+scale > precision {
		return matcherrors.NumericOverflow(billID, fmt.Errorf("value %s exceeds precision %d", d.String(), precision))
	}
	return nil
}
