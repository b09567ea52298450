// Package indicators implements EMA, ATR, ADX, and RSI as pure functions of
// a candle sequence, per spec.md §1 ("indicator mathematics beyond the
// interface" is explicitly a Non-goal — these are the minimal interface
// implementations the signal pipeline depends on). No clock reads, no I/O.
package indicators

import (
	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// EMA computes the exponential moving average series over closes, period n.
// Returns one value per input candle, seeded with the first close; no
// warm-up values are dropped.
func EMA(candles []domain.Candle, period int) []decimal.Decimal {
	if len(candles) == 0 || period <= 0 {
		return nil
	}
	k := decimal.NewFromInt(2).Div(decimal.NewFromInt(int64(period + 1)))
	oneMinusK := decimal.NewFromInt(1).Sub(k)

	out := make([]decimal.Decimal, 0, len(candles))
	var prev decimal.Decimal
	for i, c := range candles {
		if i == 0 {
			prev = c.Close
		} else {
			prev = c.Close.Mul(k).Add(prev.Mul(oneMinusK))
		}
		out = append(out, prev)
	}
	return out
}

// EMASlope classifies the direction of the last N EMA values using a ±0.1%
// flat band, per spec.md §4.2 step 1.
func EMASlope(ema []decimal.Decimal, lookback int) string {
	if len(ema) < lookback+1 || lookback < 1 {
		return "flat"
	}
	start := ema[len(ema)-1-lookback]
	end := ema[len(ema)-1]
	if start.IsZero() {
		return "flat"
	}
	pctChange := end.Sub(start).Div(start)
	band := decimal.NewFromFloat(0.001)
	switch {
	case pctChange.GreaterThan(band):
		return "up"
	case pctChange.LessThan(band.Neg()):
		return "down"
	default:
		return "flat"
	}
}

// TrueRange is the classic true-range of a single candle against the prior close.
func TrueRange(curr domain.Candle, prevClose decimal.Decimal) decimal.Decimal {
	hl := curr.High.Sub(curr.Low)
	hc := curr.High.Sub(prevClose).Abs()
	lc := curr.Low.Sub(prevClose).Abs()
	return decimal.Max(hl, decimal.Max(hc, lc))
}

// ATR computes Wilder's average true range over the given period. Returns
// zero if there isn't enough history.
func ATR(candles []domain.Candle, period int) decimal.Decimal {
	if len(candles) < period+1 {
		return decimal.Zero
	}
	trs := make([]decimal.Decimal, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		trs = append(trs, TrueRange(candles[i], candles[i-1].Close))
	}
	// Seed with a simple average of the first `period` true ranges, then
	// apply Wilder smoothing for the rest.
	sum := decimal.Zero
	for i := 0; i < period; i++ {
		sum = sum.Add(trs[i])
	}
	atr := sum.Div(decimal.NewFromInt(int64(period)))
	periodD := decimal.NewFromInt(int64(period))
	for i := period; i < len(trs); i++ {
		atr = atr.Mul(periodD.Sub(decimal.NewFromInt(1))).Add(trs[i]).Div(periodD)
	}
	return atr
}

// ADX computes the average directional index over the given period using
// Wilder smoothing of +DM/-DM and true range.
func ADX(candles []domain.Candle, period int) decimal.Decimal {
	if len(candles) < period*2+1 {
		return decimal.Zero
	}

	plusDM := make([]decimal.Decimal, 0, len(candles)-1)
	minusDM := make([]decimal.Decimal, 0, len(candles)-1)
	trs := make([]decimal.Decimal, 0, len(candles)-1)

	for i := 1; i < len(candles); i++ {
		upMove := candles[i].High.Sub(candles[i-1].High)
		downMove := candles[i-1].Low.Sub(candles[i].Low)

		pdm := decimal.Zero
		if upMove.GreaterThan(downMove) && upMove.IsPositive() {
			pdm = upMove
		}
		mdm := decimal.Zero
		if downMove.GreaterThan(upMove) && downMove.IsPositive() {
			mdm = downMove
		}
		plusDM = append(plusDM, pdm)
		minusDM = append(minusDM, mdm)
		trs = append(trs, TrueRange(candles[i], candles[i-1].Close))
	}

	smooth := func(vals []decimal.Decimal, period int) []decimal.Decimal {
		if len(vals) < period {
			return nil
		}
		out := make([]decimal.Decimal, 0, len(vals)-period+1)
		sum := decimal.Zero
		for i := 0; i < period; i++ {
			sum = sum.Add(vals[i])
		}
		out = append(out, sum)
		periodD := decimal.NewFromInt(int64(period))
		for i := period; i < len(vals); i++ {
			sum = sum.Sub(sum.Div(periodD)).Add(vals[i])
			out = append(out, sum)
		}
		return out
	}

	smPlus := smooth(plusDM, period)
	smMinus := smooth(minusDM, period)
	smTR := smooth(trs, period)
	if len(smTR) == 0 {
		return decimal.Zero
	}

	dxs := make([]decimal.Decimal, 0, len(smTR))
	hundred := decimal.NewFromInt(100)
	for i := range smTR {
		if smTR[i].IsZero() {
			dxs = append(dxs, decimal.Zero)
			continue
		}
		plusDI := smPlus[i].Div(smTR[i]).Mul(hundred)
		minusDI := smMinus[i].Div(smTR[i]).Mul(hundred)
		sum := plusDI.Add(minusDI)
		if sum.IsZero() {
			dxs = append(dxs, decimal.Zero)
			continue
		}
		dx := plusDI.Sub(minusDI).Abs().Div(sum).Mul(hundred)
		dxs = append(dxs, dx)
	}

	if len(dxs) < period {
		return decimal.Zero
	}
	sum := decimal.Zero
	for i := 0; i < period; i++ {
		sum = sum.Add(dxs[i])
	}
	adx := sum.Div(decimal.NewFromInt(int64(period)))
	periodD := decimal.NewFromInt(int64(period))
	for i := period; i < len(dxs); i++ {
		adx = adx.Mul(periodD.Sub(decimal.NewFromInt(1))).Add(dxs[i]).Div(periodD)
	}
	return adx
}

// RSI computes the relative strength index over the given period.
func RSI(candles []domain.Candle, period int) decimal.Decimal {
	if len(candles) < period+1 {
		return decimal.Zero
	}
	gains := decimal.Zero
	losses := decimal.Zero
	for i := 1; i <= period; i++ {
		delta := candles[i].Close.Sub(candles[i-1].Close)
		if delta.IsPositive() {
			gains = gains.Add(delta)
		} else {
			losses = losses.Add(delta.Abs())
		}
	}
	periodD := decimal.NewFromInt(int64(period))
	avgGain := gains.Div(periodD)
	avgLoss := losses.Div(periodD)

	for i := period + 1; i < len(candles); i++ {
		delta := candles[i].Close.Sub(candles[i-1].Close)
		gain := decimal.Zero
		loss := decimal.Zero
		if delta.IsPositive() {
			gain = delta
		} else {
			loss = delta.Abs()
		}
		avgGain = avgGain.Mul(periodD.Sub(decimal.NewFromInt(1))).Add(gain).Div(periodD)
		avgLoss = avgLoss.Mul(periodD.Sub(decimal.NewFromInt(1))).Add(loss).Div(periodD)
	}

	if avgLoss.IsZero() {
		return decimal.NewFromInt(100)
	}
	rs := avgGain.Div(avgLoss)
	hundred := decimal.NewFromInt(100)
	return hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs)))
}
