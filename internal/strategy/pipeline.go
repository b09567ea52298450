// Package strategy implements the deterministic, replayable signal pipeline:
// a pure function from OHLCV candle history to a Signal (or NO_SIGNAL), with
// no clock reads, no randomness, and no network access (spec.md §4). The
// pipeline runs five sequential steps — bias, structure, filters, levels,
// score — and short-circuits to NO_SIGNAL with an accumulated reasoning
// trail the first time a step fails.
package strategy

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/indicators"
)

// Inputs bundles the candle histories the pipeline reads. Each slice must be
// sorted ascending by timestamp and belong to a single symbol; the pipeline
// never merges data across symbols (spec.md §8 property 2).
type Inputs struct {
	Symbol      string
	Daily       []domain.Candle // >= 200 candles for EMA200
	Hourly      []domain.Candle // 1h decision timeframe
	CostEstimateBps decimal.Decimal // estimated round-trip cost for this symbol right now
}

// Analyze runs the full pipeline against one symbol's candle history and
// returns either a LONG/SHORT Signal or a NO_SIGNAL Signal carrying the
// reasoning for why no trade was proposed. It is a pure function: given the
// same Inputs and Config it always returns a bit-identical Signal, including
// the Reasoning string.
func Analyze(in Inputs, cfg Config) domain.Signal {
	now := latestTimestamp(in.Hourly)
	var reasons []string

	bias, biasReason := computeBias(in.Daily, cfg)
	reasons = append(reasons, biasReason)
	if len(in.Daily) < 200 {
		return noSignal(in.Symbol, now, reasons)
	}

	setup := selectSetup(cfg, in.Hourly)
	if !setup.Found {
		reasons = append(reasons, "no OB/FVG/BOS structure found on decision timeframe")
		return noSignal(in.Symbol, now, reasons)
	}
	reasons = append(reasons, "structure found: "+string(setup.Type))

	adx := indicators.ADX(in.Hourly, 14)
	atr := indicators.ATR(in.Hourly, 14)
	rsi := indicators.RSI(in.Hourly, 14)

	fr := applyFilters(adx, atr, rsi, cfg)
	reasons = append(reasons, fr.Reasoning)
	if !fr.Pass {
		return noSignal(in.Symbol, now, reasons)
	}

	regime := RegimeOf(setup.Type)
	swingHighs, swingLows := swingPoints(in.Hourly)
	levels := computeLevels(setup, regime, atr, swingHighs, swingLows, cfg)

	if levels.TakeProfit.IsZero() || len(levels.TPCandidates) == 0 {
		reasons = append(reasons, "no viable take-profit candidate")
		return noSignal(in.Symbol, now, reasons)
	}

	signalBullish := setup.Bullish
	ema := indicators.EMA(in.Daily, 200)
	var slope decimal.Decimal
	if len(ema) > 0 {
		slope = emaSlopeValue(ema, cfg.EMASlopeLookback)
	}

	breakdown := domain.ScoreBreakdown{
		SMC:  computeSMCScore(setup.Type),
		Fib:  computeFibScore(levels.Entry, setup.ZoneLo, setup.ZoneHi, signalBullish, cfg.FibToleranceBps),
		HTF:  computeHTFScore(signalBullish, bias),
		ADX:  computeADXScore(adx),
		Cost: computeCostScore(in.CostEstimateBps),
	}
	total := breakdown.Total()
	gate := scoreGate(regime, bias, signalBullish, cfg)

	if total.LessThan(gate) {
		reasons = append(reasons, "score "+total.StringFixed(2)+" below gate "+gate.StringFixed(2)+" for regime "+string(regime))
		return noSignal(in.Symbol, now, reasons)
	}
	reasons = append(reasons, "score "+total.StringFixed(2)+" meets gate "+gate.StringFixed(2)+" for regime "+string(regime))

	signalType := domain.Long
	if !signalBullish {
		signalType = domain.Short
	}

	return domain.Signal{
		Timestamp:      now,
		Symbol:         in.Symbol,
		Type:           signalType,
		EntryPrice:     levels.Entry,
		StopLoss:       levels.Stop,
		TakeProfit:     levels.TakeProfit,
		SetupType:      setup.Type,
		Regime:         regime,
		HigherTFBias:   bias,
		ADX:            adx,
		ATR:            atr,
		EMA200Slope:    slope,
		TPCandidates:   levels.TPCandidates,
		Score:          total,
		ScoreBreakdown: breakdown,
		Reasoning:      strings.Join(reasons, "; "),
	}
}

func noSignal(symbol string, now time.Time, reasons []string) domain.Signal {
	return domain.Signal{
		Timestamp: now,
		Symbol:    symbol,
		Type:      domain.NoSignal,
		Reasoning: strings.Join(reasons, "; "),
	}
}

func latestTimestamp(candles []domain.Candle) time.Time {
	if len(candles) == 0 {
		return time.Time{}
	}
	return candles[len(candles)-1].Timestamp
}

// emaSlopeValue returns the raw pct-change of EMA over the lookback window,
// for inclusion in the Signal (EMASlope returns only the up/down/flat label).
func emaSlopeValue(ema []decimal.Decimal, lookback int) decimal.Decimal {
	if len(ema) < lookback+1 || lookback < 1 {
		return decimal.Zero
	}
	start := ema[len(ema)-1-lookback]
	end := ema[len(ema)-1]
	if start.IsZero() {
		return decimal.Zero
	}
	return end.Sub(start).Div(start)
}
