package auction

import "github.com/shopspring/decimal"

// Config holds the thresholds the allocator consults, per spec.md §4.4.
type Config struct {
	MaxPositions              int
	MaxMarginUtilPct          decimal.Decimal
	PerSymbolMarginCapUSD     decimal.Decimal
	PerClusterMarginCapUSD    decimal.Decimal
	MaxPerSymbol              int // position count cap, one slot per matching normalized symbol
	MaxPerCluster             int // position count cap per Regime_SetupType cluster
	NetLongMarginCapUSD       decimal.Decimal // zero means not configured
	NetShortMarginCapUSD      decimal.Decimal
	DirectionConcentrationPenalty decimal.Decimal

	MinHoldSeconds int64
	SwapThreshold  decimal.Decimal

	MaxClosesPerCycle   int
	MaxNewOpensPerCycle int

	RebalancerEnabled                    bool
	RebalancerTriggerPctEquity           decimal.Decimal
	RebalancerClearPctEquity             decimal.Decimal
	RebalancerPerSymbolTrimCooldownCycles int64
	RebalancerMaxReductionsPerCycle      int
	RebalancerMaxTotalMarginReducedPctEquity decimal.Decimal

	NoSignalClosePersistenceCycles int64
	NoSignalPersistenceEnabled     bool

	PartialCloseCooldownSeconds int64
}

func DefaultConfig() Config {
	return Config{
		MaxPositions:           10,
		MaxMarginUtilPct:       decimal.NewFromFloat(0.8),
		PerSymbolMarginCapUSD:  decimal.NewFromInt(20000),
		PerClusterMarginCapUSD: decimal.NewFromInt(40000),
		MaxPerSymbol:           1,
		MaxPerCluster:          12,
		DirectionConcentrationPenalty: decimal.NewFromFloat(10),

		MinHoldSeconds: 300,
		SwapThreshold:  decimal.NewFromFloat(5),

		MaxClosesPerCycle:   3,
		MaxNewOpensPerCycle: 3,

		RebalancerEnabled:           true,
		RebalancerTriggerPctEquity:  decimal.NewFromFloat(0.3),
		RebalancerClearPctEquity:    decimal.NewFromFloat(0.2),
		RebalancerPerSymbolTrimCooldownCycles: 10,
		RebalancerMaxReductionsPerCycle:       2,
		RebalancerMaxTotalMarginReducedPctEquity: decimal.NewFromFloat(0.1),

		NoSignalClosePersistenceCycles: 5,
		NoSignalPersistenceEnabled:     true,

		PartialCloseCooldownSeconds: 600,
	}
}
