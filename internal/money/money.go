// Package money implements the fixed-point currency type used by the ledger
// and the tip engine. All amounts are counts of minor units (centavos) held
// in an int64 — no floating point ever enters a balance or split calculation.
// Decimal values appear only at the API boundary (see FromDecimal/Decimal).
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units. Signed: ledger deltas and variances may
// be negative; individual entry amounts are validated non-negative upstream.
type Money int64

// Zero is the additive identity.
const Zero Money = 0

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }
func (m Money) Neg() Money        { return -m }

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsNegative() bool { return m < 0 }

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	switch {
	case m < o:
		return -1
	case m > o:
		return 1
	default:
		return 0
	}
}

// MulRatio multiplies by num/den and rounds half-up to the nearest minor
// unit. den must be positive. Used for tip suggestions and weighted splits,
// where exact integer reconciliation matters.
func (m Money) MulRatio(num, den int64) Money {
	if den <= 0 {
		panic(fmt.Sprintf("money: MulRatio with non-positive denominator %d", den))
	}
	n := int64(m) * num
	if n >= 0 {
		return Money((n + den/2) / den)
	}
	// Round half away from zero for negative products so -0.5 → -1,
	// symmetric with the positive case.
	return Money(-((-n + den/2) / den))
}

// DivMod splits by an integer count: quotient rounded toward zero plus the
// remainder in minor units. count must be positive.
func (m Money) DivMod(count int64) (share, remainder Money) {
	if count <= 0 {
		panic(fmt.Sprintf("money: DivMod with non-positive count %d", count))
	}
	return Money(int64(m) / count), Money(int64(m) % count)
}

// Decimal renders the amount in major units for DTOs ("1234" → 12.34).
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string { return m.Decimal().StringFixed(2) }

// FromDecimal converts a major-unit decimal coming from a request body into
// minor units. Amounts with sub-centavo precision are rejected rather than
// silently rounded: a client sending 10.005 is a bug, not a rounding case.
func FromDecimal(d decimal.Decimal) (Money, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("money: %s has sub-centavo precision", d.String())
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("money: %s overflows int64 minor units", d.String())
	}
	return Money(shifted.IntPart()), nil
}

// MustFromDecimal is FromDecimal for trusted literals (tests, seeds).
func MustFromDecimal(d decimal.Decimal) Money {
	m, err := FromDecimal(d)
	if err != nil {
		panic(err)
	}
	return m
}
