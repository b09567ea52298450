package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalType is the direction (or absence) of a proposed trade.
type SignalType string

const (
	Long      SignalType = "LONG"
	Short     SignalType = "SHORT"
	NoSignal  SignalType = "NO_SIGNAL"
)

// SetupType is the structural pattern that produced the signal.
type SetupType string

const (
	SetupOB    SetupType = "OB"
	SetupFVG   SetupType = "FVG"
	SetupBOS   SetupType = "BOS"
	SetupTrend SetupType = "TREND"
)

// Regime drives stop sizing, cost limits, and cooldown buckets.
type Regime string

const (
	RegimeTightSMC      Regime = "tight_smc"
	RegimeWideStructure Regime = "wide_structure"
)

// Bias is the higher-timeframe directional read.
type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// ScoreBreakdown is the per-component contribution to Signal.Score.
// Fields are capped independently per spec.md §4.2 step 5.
type ScoreBreakdown struct {
	SMC  decimal.Decimal
	Fib  decimal.Decimal
	HTF  decimal.Decimal
	ADX  decimal.Decimal
	Cost decimal.Decimal
}

// Total sums the breakdown. Kept as a method (not a stored field) so the
// breakdown and the total can never drift apart.
func (b ScoreBreakdown) Total() decimal.Decimal {
	return b.SMC.Add(b.Fib).Add(b.HTF).Add(b.ADX).Add(b.Cost)
}

// Signal is a pure value describing a structured trade proposal, or the
// absence of one (Type == NoSignal). No hidden references to candle slices
// or other mutable state.
type Signal struct {
	Timestamp     time.Time
	Symbol        string
	Type          SignalType
	EntryPrice    decimal.Decimal
	StopLoss      decimal.Decimal
	TakeProfit    decimal.Decimal // primary target, zero if unset
	SetupType     SetupType
	Regime        Regime
	HigherTFBias  Bias
	ADX           decimal.Decimal
	ATR           decimal.Decimal
	EMA200Slope   decimal.Decimal
	TPCandidates  []decimal.Decimal
	Score         decimal.Decimal
	ScoreBreakdown ScoreBreakdown
	Reasoning     string
}
