package strategy

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// Levels is the output of step 4 (level computation).
type Levels struct {
	Entry        decimal.Decimal
	Stop         decimal.Decimal
	TakeProfit   decimal.Decimal
	TPCandidates []decimal.Decimal
}

// computeLevels derives entry/stop/TP ladder from the selected setup,
// regime, and ATR, per spec.md §4.2 step 4.
func computeLevels(setup Setup, regime domain.Regime, atr decimal.Decimal, swingHighs, swingLows []decimal.Decimal, cfg Config) Levels {
	var entry, stop decimal.Decimal

	k := cfg.StopATRMultiplierTight
	if regime == domain.RegimeWideStructure {
		k = cfg.StopATRMultiplierWide
	}

	if setup.Bullish {
		entry = setup.ZoneHi
		stop = setup.ZoneLo.Sub(atr.Mul(k))
	} else {
		entry = setup.ZoneLo
		stop = setup.ZoneHi.Add(atr.Mul(k))
	}

	risk := entry.Sub(stop).Abs()
	candidates := structuralTPCandidates(entry, setup.Bullish, swingHighs, swingLows, cfg.MaxTPCandidates)
	candidates = append(candidates, rMultipleFallbacks(entry, risk, setup.Bullish)...)
	candidates = dedupeAndBound(candidates, setup.Bullish, entry, cfg.MaxTPCandidates)

	tp := decimal.Zero
	if len(candidates) > 0 {
		tp = candidates[0]
	}

	return Levels{Entry: entry, Stop: stop, TakeProfit: tp, TPCandidates: candidates}
}

func structuralTPCandidates(entry decimal.Decimal, bullish bool, swingHighs, swingLows []decimal.Decimal, maxCount int) []decimal.Decimal {
	var pool []decimal.Decimal
	if bullish {
		pool = swingHighs
	} else {
		pool = swingLows
	}
	var out []decimal.Decimal
	for _, lvl := range pool {
		if bullish && lvl.GreaterThan(entry) {
			out = append(out, lvl)
		}
		if !bullish && lvl.LessThan(entry) {
			out = append(out, lvl)
		}
	}
	if bullish {
		sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].GreaterThan(out[j]) })
	}
	if len(out) > maxCount {
		out = out[:maxCount]
	}
	return out
}

func rMultipleFallbacks(entry, risk decimal.Decimal, bullish bool) []decimal.Decimal {
	multiples := []int64{1, 2, 3}
	out := make([]decimal.Decimal, 0, len(multiples))
	for _, m := range multiples {
		dist := risk.Mul(decimal.NewFromInt(m))
		if bullish {
			out = append(out, entry.Add(dist))
		} else {
			out = append(out, entry.Sub(dist))
		}
	}
	return out
}

func dedupeAndBound(candidates []decimal.Decimal, bullish bool, entry decimal.Decimal, maxCount int) []decimal.Decimal {
	seen := make(map[string]bool)
	var out []decimal.Decimal
	for _, c := range candidates {
		key := c.StringFixed(8)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	if bullish {
		sort.Slice(out, func(i, j int) bool { return out[i].LessThan(out[j]) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].GreaterThan(out[j]) })
	}
	if len(out) > maxCount {
		out = out[:maxCount]
	}
	return out
}

// swingPoints returns the local swing highs and lows of a candle slice using
// a 3-candle fractal (middle candle is a local extreme among its neighbors).
func swingPoints(candles []domain.Candle) (highs, lows []decimal.Decimal) {
	for i := 1; i < len(candles)-1; i++ {
		if candles[i].High.GreaterThan(candles[i-1].High) && candles[i].High.GreaterThan(candles[i+1].High) {
			highs = append(highs, candles[i].High)
		}
		if candles[i].Low.LessThan(candles[i-1].Low) && candles[i].Low.LessThan(candles[i+1].Low) {
			lows = append(lows, candles[i].Low)
		}
	}
	return highs, lows
}
