package risk

import "github.com/shopspring/decimal"

// SizingMode selects how position_notional is derived from equity and the
// signal's stop distance (spec.md §4.3).
type SizingMode string

const (
	SizingLeverageBased    SizingMode = "leverage_based"
	SizingFixed            SizingMode = "fixed"
	SizingKelly            SizingMode = "kelly"
	SizingKellyVolatility  SizingMode = "kelly_volatility"
)

// Config holds every threshold the gate and sizer consult. Populated by
// internal/config at startup; never mutated afterward.
type Config struct {
	SizingMode SizingMode

	RiskPerTradePct   decimal.Decimal
	DefaultLeverage   decimal.Decimal
	KellyFraction     decimal.Decimal
	KellyCap          decimal.Decimal

	UtilisationBoostMaxFactor decimal.Decimal
	UtilisationTargetPct      decimal.Decimal

	MaxPositionSizeUSD decimal.Decimal
	TierMaxSizeUSD     decimal.Decimal // zero means "not configured"
	SinglePositionCapPct decimal.Decimal // of equity, notional
	AvailableMarginCapPct decimal.Decimal
	MinNotionalUSD     decimal.Decimal

	MaxLeverage decimal.Decimal
	TierMaxLeverage decimal.Decimal // zero means "not configured"

	BasisMaxPct              decimal.Decimal
	EffectiveLeverageMaxPct  decimal.Decimal // fraction of configured max, when liq distance unknown
	FreeMarginBufferPct      decimal.Decimal
	MaxConcurrentPositions   int
	AuctionModeEnabled       bool

	TakerFeeBps              decimal.Decimal
	FundingRateBpsPerHour    decimal.Decimal
	TightSMCAvgHoldHours     decimal.Decimal
	TightSMCCostCapBps       decimal.Decimal
	TightSMCMinRRMultiple    decimal.Decimal
	WideStructureMaxDistortionPct decimal.Decimal
	WideStructureAvgHoldHours decimal.Decimal

	LossStreakMinLossBps decimal.Decimal
	TightSMCCooldownN       int
	TightSMCCooldownMinutes int
	WideStructureCooldownN       int
	WideStructureCooldownMinutes int
}

// DefaultConfig mirrors the conservative defaults named in spec.md §4.3.
func DefaultConfig() Config {
	return Config{
		SizingMode: SizingLeverageBased,

		RiskPerTradePct: decimal.NewFromFloat(0.01),
		DefaultLeverage: decimal.NewFromInt(5),
		KellyFraction:   decimal.NewFromFloat(0.25),
		KellyCap:        decimal.NewFromFloat(0.5),

		UtilisationBoostMaxFactor: decimal.NewFromFloat(1.5),
		UtilisationTargetPct:      decimal.NewFromFloat(0.6),

		MaxPositionSizeUSD:    decimal.NewFromInt(50000),
		TierMaxSizeUSD:        decimal.Zero,
		SinglePositionCapPct:  decimal.NewFromFloat(0.25),
		AvailableMarginCapPct: decimal.NewFromFloat(0.95),
		MinNotionalUSD:        decimal.NewFromInt(10),

		MaxLeverage:     decimal.NewFromInt(20),
		TierMaxLeverage: decimal.Zero,

		BasisMaxPct:             decimal.NewFromFloat(0.01),
		EffectiveLeverageMaxPct: decimal.NewFromFloat(0.9),
		FreeMarginBufferPct:     decimal.NewFromFloat(0.15),
		MaxConcurrentPositions:  10,
		AuctionModeEnabled:      true,

		TakerFeeBps:           decimal.NewFromFloat(5),
		FundingRateBpsPerHour: decimal.NewFromFloat(0.4),
		TightSMCAvgHoldHours:  decimal.NewFromFloat(4),
		TightSMCCostCapBps:    decimal.NewFromInt(20),
		TightSMCMinRRMultiple: decimal.NewFromFloat(1.5),
		WideStructureMaxDistortionPct: decimal.NewFromFloat(0.3),
		WideStructureAvgHoldHours:     decimal.NewFromFloat(18),

		LossStreakMinLossBps: decimal.NewFromInt(25),
		TightSMCCooldownN:          3,
		TightSMCCooldownMinutes:    120,
		WideStructureCooldownN:     4,
		WideStructureCooldownMinutes: 90,
	}
}
