package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// filterResult is the outcome of step 3 (confirmation filters). RSI is
// informational only: it never blocks a signal, it only contributes to the
// reasoning trail.
type filterResult struct {
	Pass      bool
	Reasoning string
}

// applyFilters checks the 1h confirmation filters: ADX(14) must be at or
// above the configured threshold, and ATR(14) must be available and
// positive (a zero ATR means stops/targets cannot be computed). RSI levels
// (>= 70 overbought, <= 30 oversold) are noted but never gate the signal;
// RSI divergence is not computed (spec.md §4.2 step 3).
func applyFilters(adx, atr, rsi decimal.Decimal, cfg Config) filterResult {
	if atr.IsZero() || atr.IsNegative() {
		return filterResult{Pass: false, Reasoning: "ATR(14) unavailable or non-positive on 1h"}
	}
	if adx.LessThan(cfg.ADXThreshold) {
		return filterResult{
			Pass:      false,
			Reasoning: fmt.Sprintf("ADX(14) %s below threshold %s", adx.StringFixed(2), cfg.ADXThreshold.StringFixed(2)),
		}
	}
	reasoning := fmt.Sprintf("ADX(14) %s >= threshold %s, ATR(14) %s positive", adx.StringFixed(2), cfg.ADXThreshold.StringFixed(2), atr.StringFixed(6))
	if rsi.GreaterThanOrEqual(decimal.NewFromInt(70)) {
		reasoning += "; RSI(14) overbought (informational)"
	} else if rsi.LessThanOrEqual(decimal.NewFromInt(30)) {
		reasoning += "; RSI(14) oversold (informational)"
	}
	return filterResult{Pass: true, Reasoning: reasoning}
}
