package auction

import "github.com/shopspring/decimal"

// OpenPositionSnapshot is the slice of an open position's state the
// rebalancer needs; it does not touch anything else about the position.
type OpenPositionSnapshot struct {
	Symbol         string
	SizeNotional   decimal.Decimal
	Locked         bool
	RecoveryGateClosed bool // true when new entries are disabled
}

// PlanTrims computes reduce-only rebalancer reductions for oversized
// positions, respecting per-symbol and per-cycle caps (spec.md §4.4).
// Locked positions are skipped, except when their recovery gate is closed
// (new entries disabled): then trims fire even on locked positions.
func PlanTrims(positions []OpenPositionSnapshot, equity decimal.Decimal, portfolio PortfolioState, cfg Config) []Reduction {
	if !cfg.RebalancerEnabled || equity.IsZero() {
		return nil
	}

	var out []Reduction
	marginReduced := decimal.Zero
	maxMarginReduced := cfg.RebalancerMaxTotalMarginReducedPctEquity.Mul(equity)

	for _, p := range positions {
		if len(out) >= cfg.RebalancerMaxReductionsPerCycle {
			break
		}
		if marginReduced.GreaterThanOrEqual(maxMarginReduced) {
			break
		}

		sizePct := p.SizeNotional.Div(equity)
		if sizePct.LessThanOrEqual(cfg.RebalancerTriggerPctEquity) {
			continue
		}

		if p.Locked && !p.RecoveryGateClosed {
			continue
		}

		lastTrim, ok := portfolio.LastTrimCycleBySymbol[p.Symbol]
		if ok && portfolio.CurrentCycle-lastTrim < cfg.RebalancerPerSymbolTrimCooldownCycles {
			continue
		}

		target := cfg.RebalancerClearPctEquity.Mul(equity)
		delta := p.SizeNotional.Sub(target)
		if delta.LessThanOrEqual(decimal.Zero) {
			continue
		}
		if marginReduced.Add(delta).GreaterThan(maxMarginReduced) {
			delta = maxMarginReduced.Sub(marginReduced)
		}
		if delta.LessThanOrEqual(decimal.Zero) {
			continue
		}

		out = append(out, Reduction{Symbol: p.Symbol, NotionalDelta: delta})
		marginReduced = marginReduced.Add(delta)
	}

	return out
}
