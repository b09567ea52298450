package strategy

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// Setup is the most recent valid, unmitigated structural pattern found on
// the decision timeframe.
type Setup struct {
	Type   domain.SetupType
	ZoneLo decimal.Decimal
	ZoneHi decimal.Decimal
	Bullish bool
	Found  bool
}

func median(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	cp := append([]decimal.Decimal(nil), values...)
	sort.Slice(cp, func(i, j int) bool { return cp[i].LessThan(cp[j]) })
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return cp[mid-1].Add(cp[mid]).Div(decimal.NewFromInt(2))
}

func candleRange(c domain.Candle) decimal.Decimal {
	return c.High.Sub(c.Low)
}

// detectOrderBlock finds the last bearish (for a bullish impulse) or bullish
// (for a bearish impulse) candle immediately preceding a displacement whose
// range is >= multiplier * median range of the last `lookback` candles.
func detectOrderBlock(candles []domain.Candle, multiplier decimal.Decimal, lookback int) Setup {
	if len(candles) < lookback+2 {
		return Setup{}
	}
	window := candles[len(candles)-lookback-1 : len(candles)-1]
	ranges := make([]decimal.Decimal, 0, len(window))
	for _, c := range window {
		ranges = append(ranges, candleRange(c))
	}
	medRange := median(ranges)
	threshold := medRange.Mul(multiplier)

	// Scan backward for the most recent displacement impulse.
	for i := len(candles) - 1; i >= 1; i-- {
		impulse := candles[i]
		if candleRange(impulse).LessThan(threshold) || threshold.IsZero() {
			continue
		}
		prior := candles[i-1]
		bullishImpulse := impulse.Close.GreaterThan(impulse.Open)
		// OB candle must be the opposite color of the impulse.
		priorIsBearish := prior.Close.LessThan(prior.Open)
		priorIsBullish := prior.Close.GreaterThan(prior.Open)
		if bullishImpulse && priorIsBearish {
			return Setup{Type: domain.SetupOB, ZoneLo: prior.Low, ZoneHi: prior.High, Bullish: true, Found: true}
		}
		if !bullishImpulse && priorIsBullish {
			return Setup{Type: domain.SetupOB, ZoneLo: prior.Low, ZoneHi: prior.High, Bullish: false, Found: true}
		}
	}
	return Setup{}
}

// detectFVG finds the most recent unmitigated three-candle fair value gap.
// Unmitigated means no candle after the gap has a wick that enters the zone.
func detectFVG(candles []domain.Candle) Setup {
	for i := len(candles) - 1; i >= 2; i-- {
		c1 := candles[i-2]
		c3 := candles[i]
		var lo, hi decimal.Decimal
		bullish := false
		switch {
		case c3.Low.GreaterThan(c1.High):
			lo, hi, bullish = c1.High, c3.Low, true
		case c1.Low.GreaterThan(c3.High):
			lo, hi, bullish = c3.High, c1.Low, false
		default:
			continue
		}
		mitigated := false
		for j := i + 1; j < len(candles); j++ {
			if candles[j].Low.LessThan(hi) && candles[j].High.GreaterThan(lo) {
				mitigated = true
				break
			}
		}
		if mitigated {
			continue
		}
		return Setup{Type: domain.SetupFVG, ZoneLo: lo, ZoneHi: hi, Bullish: bullish, Found: true}
	}
	return Setup{}
}

// detectBOS reports whether the last `lookback` candles broke the prior
// swing high (bullish continuation) or swing low (bearish continuation).
func detectBOS(candles []domain.Candle, lookback int) Setup {
	if len(candles) < lookback*2+1 {
		return Setup{}
	}
	recent := candles[len(candles)-lookback:]
	prior := candles[: len(candles)-lookback]

	priorHigh := prior[0].High
	priorLow := prior[0].Low
	for _, c := range prior {
		if c.High.GreaterThan(priorHigh) {
			priorHigh = c.High
		}
		if c.Low.LessThan(priorLow) {
			priorLow = c.Low
		}
	}

	recentHigh := recent[0].High
	recentLow := recent[0].Low
	for _, c := range recent {
		if c.High.GreaterThan(recentHigh) {
			recentHigh = c.High
		}
		if c.Low.LessThan(recentLow) {
			recentLow = c.Low
		}
	}

	if recentHigh.GreaterThan(priorHigh) {
		return Setup{Type: domain.SetupBOS, ZoneLo: priorHigh, ZoneHi: recentHigh, Bullish: true, Found: true}
	}
	if recentLow.LessThan(priorLow) {
		return Setup{Type: domain.SetupBOS, ZoneLo: recentLow, ZoneHi: priorLow, Bullish: false, Found: true}
	}
	return Setup{}
}

// selectSetup picks the most recent valid instance across OB, FVG, BOS, in
// that priority order when more than one is present. It does not classify
// the regime; RegimeOf does that (spec.md §4.2 step 2).
func selectSetup(cfg Config, candles []domain.Candle) Setup {
	if ob := detectOrderBlock(candles, cfg.DisplacementMultiplier, cfg.MedianRangeLookback); ob.Found {
		return ob
	}
	if fvg := detectFVG(candles); fvg.Found {
		return fvg
	}
	if bos := detectBOS(candles, cfg.BOSLookback); bos.Found {
		return bos
	}
	return Setup{}
}

// RegimeOf maps a setup type to its regime bucket.
func RegimeOf(t domain.SetupType) domain.Regime {
	switch t {
	case domain.SetupOB, domain.SetupFVG:
		return domain.RegimeTightSMC
	default:
		return domain.RegimeWideStructure
	}
}
