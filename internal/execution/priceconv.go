package execution

import "github.com/shopspring/decimal"

// ConvertStopToFutures preserves the percent distance between a spot entry
// and spot stop/TP, then anchors it at the current futures mark price
// (spec.md §4.5.3). bullish selects the sign of the offset.
func ConvertStopToFutures(entrySpot, levelSpot, mark decimal.Decimal, bullish bool) decimal.Decimal {
	if entrySpot.IsZero() {
		return mark
	}
	pct := entrySpot.Sub(levelSpot).Abs().Div(entrySpot)
	if bullish {
		if levelSpot.LessThan(entrySpot) {
			return mark.Mul(decimal.NewFromInt(1).Sub(pct))
		}
		return mark.Mul(decimal.NewFromInt(1).Add(pct))
	}
	if levelSpot.GreaterThan(entrySpot) {
		return mark.Mul(decimal.NewFromInt(1).Add(pct))
	}
	return mark.Mul(decimal.NewFromInt(1).Sub(pct))
}
