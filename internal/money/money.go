// Package money centralizes the decimal semantics used across the core:
// fixed-precision arithmetic with explicit rounding direction, never a
// binary float, for anything that touches price or size.
package money

import (
	"github.com/shopspring/decimal"
)

// RoundDownToStep floors value to the nearest multiple of step (step > 0).
// Used for entry sizing: never round an entry up, never increase exposure.
func RoundDownToStep(value, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return value
	}
	return value.Div(step).Truncate(0).Mul(step)
}

// RoundUpToStep ceils value to the nearest multiple of step (step > 0).
// Used for reduce-only exits, where undershooting could leave dust behind.
func RoundUpToStep(value, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return value
	}
	floor := RoundDownToStep(value, step)
	if floor.Equal(value) {
		return floor
	}
	return floor.Add(step)
}

// PctDistance returns |a-b| / a as a decimal fraction. Returns zero if a is zero.
func PctDistance(a, b decimal.Decimal) decimal.Decimal {
	if a.IsZero() {
		return decimal.Zero
	}
	return a.Sub(b).Abs().Div(a)
}

// Clamp bounds value to [lo, hi].
func Clamp(value, lo, hi decimal.Decimal) decimal.Decimal {
	if value.LessThan(lo) {
		return lo
	}
	if value.GreaterThan(hi) {
		return hi
	}
	return value
}
