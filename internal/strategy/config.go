package strategy

import "github.com/shopspring/decimal"

// Config holds every threshold and tolerance the pipeline consults. All
// fields are supplied by internal/config; nothing here is a clock read or a
// network call (spec.md §4.2 determinism requirements).
type Config struct {
	ADXThreshold           decimal.Decimal
	EMASlopeLookback       int
	DisplacementMultiplier decimal.Decimal // OB impulse range vs median-of-20 multiplier
	MedianRangeLookback    int
	BOSLookback            int

	StopATRMultiplierTight decimal.Decimal
	StopATRMultiplierWide  decimal.Decimal
	MaxTPCandidates        int

	FibToleranceBps decimal.Decimal

	ScoreGateTightAligned decimal.Decimal
	ScoreGateWideNeutral  decimal.Decimal
	ScoreGateDefault      decimal.Decimal
}

// DefaultConfig returns the thresholds named explicitly in spec.md §4.2–4.3.
func DefaultConfig() Config {
	return Config{
		ADXThreshold:           decimal.NewFromInt(20),
		EMASlopeLookback:       10,
		DisplacementMultiplier: decimal.NewFromFloat(1.5),
		MedianRangeLookback:    20,
		BOSLookback:            5,
		StopATRMultiplierTight: decimal.NewFromFloat(0.5),
		StopATRMultiplierWide:  decimal.NewFromFloat(1.5),
		MaxTPCandidates:        5,
		FibToleranceBps:        decimal.NewFromInt(15),
		ScoreGateTightAligned:  decimal.NewFromInt(75),
		ScoreGateWideNeutral:   decimal.NewFromInt(75),
		ScoreGateDefault:       decimal.NewFromInt(60),
	}
}
