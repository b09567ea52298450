package risk

import (
	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// estimateRoundTripCostBps estimates taker-fee plus probabilistic funding
// cost for a position held for the regime's average hold time, expressed in
// basis points of notional (spec.md §4.3 regime gates).
func estimateRoundTripCostBps(regime domain.Regime, cfg Config) decimal.Decimal {
	holdHours := cfg.TightSMCAvgHoldHours
	if regime == domain.RegimeWideStructure {
		holdHours = cfg.WideStructureAvgHoldHours
	}
	fees := cfg.TakerFeeBps.Mul(decimal.NewFromInt(2))
	funding := cfg.FundingRateBpsPerHour.Mul(holdHours)
	return fees.Add(funding)
}
