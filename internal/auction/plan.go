// Package auction implements the per-cycle portfolio allocator: it ranks
// open positions and candidate signals on a common value scale and decides
// which to keep, close, reduce, or open (spec.md §4.4).
package auction

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/symbols"
)

// Reduction is a planned partial close (rebalancer trim) on an existing
// position.
type Reduction struct {
	Symbol        string
	NotionalDelta decimal.Decimal
}

// AllocationPlan is the allocator's output for one cycle.
type AllocationPlan struct {
	Opens      []Contender
	Closes     []Contender
	Reductions []Reduction
	Reasons    map[string]string
}

// PortfolioState carries the account-level figures the allocator needs.
type PortfolioState struct {
	AccountEquity         decimal.Decimal
	AvailableMargin       decimal.Decimal
	CurrentCycle          int64
	LastTrimCycleBySymbol map[string]int64
	CyclesSinceLastSignal int64
	LastPartialCloseAgeSeconds int64
}

// Allocate runs the full selection loop: sort, walk, apply caps and the
// directional penalty, pair swaps via hysteresis, then rate-limit.
// contenders must already carry Value/RequiredMargin/AgeSeconds. Allocate
// does not run the rebalancer: the returned plan's Reductions is always
// empty; trims are computed separately by PlanTrims.
func Allocate(contenders []Contender, portfolio PortfolioState, cfg Config) AllocationPlan {
	plan := AllocationPlan{Reasons: make(map[string]string)}

	sorted := append([]Contender(nil), contenders...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Value.Equal(b.Value) {
			return a.Value.GreaterThan(b.Value)
		}
		if kindRank(a.Kind) != kindRank(b.Kind) {
			return kindRank(a.Kind) < kindRank(b.Kind)
		}
		if a.AgeSeconds != b.AgeSeconds {
			return a.AgeSeconds > b.AgeSeconds
		}
		return a.RequiredMargin.LessThan(b.RequiredMargin)
	})

	var winners []Contender
	marginUsed := decimal.Zero
	perSymbolMargin := make(map[string]decimal.Decimal)
	perClusterMargin := make(map[string]decimal.Decimal)
	perSymbolCount := make(map[string]int)
	perClusterCount := make(map[string]int)
	longMargin, shortMargin := decimal.Zero, decimal.Zero
	longCount, shortCount := 0, 0

	marginBudget := cfg.MaxMarginUtilPct.Mul(portfolio.AvailableMargin)

	for _, c := range sorted {
		if len(winners) >= cfg.MaxPositions {
			plan.Reasons[contenderKey(c)] = "max_positions reached"
			continue
		}
		if marginUsed.Add(c.RequiredMargin).GreaterThan(marginBudget) {
			plan.Reasons[contenderKey(c)] = "margin_util cap reached"
			continue
		}
		base := symbols.Normalize(c.Symbol)
		if perSymbolMargin[base].Add(c.RequiredMargin).GreaterThan(cfg.PerSymbolMarginCapUSD) {
			plan.Reasons[contenderKey(c)] = "per_symbol margin cap reached"
			continue
		}
		if cfg.MaxPerSymbol > 0 && perSymbolCount[base] >= cfg.MaxPerSymbol {
			plan.Reasons[contenderKey(c)] = "max_per_symbol reached"
			continue
		}
		cluster := c.Cluster()
		if perClusterMargin[cluster].Add(c.RequiredMargin).GreaterThan(cfg.PerClusterMarginCapUSD) {
			plan.Reasons[contenderKey(c)] = "per_cluster margin cap reached"
			continue
		}
		if cfg.MaxPerCluster > 0 && perClusterCount[cluster] >= cfg.MaxPerCluster {
			plan.Reasons[contenderKey(c)] = "max_per_cluster reached"
			continue
		}

		// Directional concentration penalty, weighted by position count (not
		// margin): zero at a 50/50 long/short split, scaling linearly to
		// DirectionConcentrationPenalty at a fully one-sided book
		// (original_source/src/portfolio/auction_allocator.py:560-574).
		totalDirectional := longCount + shortCount
		penalty := decimal.Zero
		if !c.Locked && totalDirectional > 0 {
			sameSide := longCount
			if !c.Bullish {
				sameSide = shortCount
			}
			imbalanceRatio := decimal.NewFromInt(int64(sameSide)).Div(decimal.NewFromInt(int64(totalDirectional)))
			balanced := decimal.NewFromFloat(0.5)
			if imbalanceRatio.GreaterThan(balanced) {
				frac := imbalanceRatio.Sub(balanced).Mul(decimal.NewFromInt(2)) // 0 at 50/50, 1 at 100%
				penalty = frac.Mul(cfg.DirectionConcentrationPenalty)
			}
		}
		if !c.Locked && c.Value.Sub(penalty).LessThan(decimal.Zero) {
			plan.Reasons[contenderKey(c)] = "directional concentration penalty rejects"
			continue
		}

		if cfg.NetLongMarginCapUSD.IsPositive() && c.Bullish && longMargin.Add(c.RequiredMargin).GreaterThan(cfg.NetLongMarginCapUSD) {
			plan.Reasons[contenderKey(c)] = "net_long margin cap reached"
			continue
		}
		if cfg.NetShortMarginCapUSD.IsPositive() && !c.Bullish && shortMargin.Add(c.RequiredMargin).GreaterThan(cfg.NetShortMarginCapUSD) {
			plan.Reasons[contenderKey(c)] = "net_short margin cap reached"
			continue
		}

		winners = append(winners, c)
		marginUsed = marginUsed.Add(c.RequiredMargin)
		perSymbolMargin[base] = perSymbolMargin[base].Add(c.RequiredMargin)
		perClusterMargin[cluster] = perClusterMargin[cluster].Add(c.RequiredMargin)
		perSymbolCount[base]++
		perClusterCount[cluster]++
		if c.Bullish {
			longMargin = longMargin.Add(c.RequiredMargin)
			longCount++
		} else {
			shortMargin = shortMargin.Add(c.RequiredMargin)
			shortCount++
		}
	}

	winnerSet := make(map[string]bool, len(winners))
	for _, w := range winners {
		winnerSet[contenderKey(w)] = true
	}

	var nonWinnerOpens, newWinners []Contender
	for _, c := range sorted {
		if c.Kind == KindOpen && !winnerSet[contenderKey(c)] && !c.Locked {
			nonWinnerOpens = append(nonWinnerOpens, c)
		}
	}
	for _, w := range winners {
		if w.Kind == KindNew {
			newWinners = append(newWinners, w)
		}
	}

	swappedNew := make(map[string]bool)
	var swapCloses, swapOpens []Contender
	for _, open := range nonWinnerOpens {
		var best *Contender
		for i := range newWinners {
			nw := newWinners[i]
			if swappedNew[contenderKey(nw)] || nw.Cluster() != open.Cluster() {
				continue
			}
			if best == nil || nw.Value.GreaterThan(best.Value) {
				cp := nw
				best = &cp
			}
		}
		if best == nil {
			continue
		}
		if best.Value.GreaterThanOrEqual(open.Value.Add(cfg.SwapThreshold)) {
			swapCloses = append(swapCloses, open)
			swapOpens = append(swapOpens, *best)
			swappedNew[contenderKey(*best)] = true
			plan.Reasons[contenderKey(open)] = "swapped for higher-value same-cluster candidate"
		}
	}

	remainingCloses := make([]Contender, 0, len(nonWinnerOpens))
	for _, open := range nonWinnerOpens {
		alreadySwapped := false
		for _, sc := range swapCloses {
			if contenderKey(sc) == contenderKey(open) {
				alreadySwapped = true
				break
			}
		}
		if !alreadySwapped {
			remainingCloses = append(remainingCloses, open)
		}
	}

	if portfolio.CyclesSinceLastSignal >= cfg.NoSignalClosePersistenceCycles && cfg.NoSignalPersistenceEnabled {
		remainingCloses = nil
	}

	allCloses := append(append([]Contender(nil), swapCloses...), remainingCloses...)
	if len(allCloses) > cfg.MaxClosesPerCycle {
		allCloses = allCloses[:cfg.MaxClosesPerCycle]
	}

	remainingOpens := make([]Contender, 0, len(newWinners))
	for _, nw := range newWinners {
		inSwap := false
		for _, so := range swapOpens {
			if contenderKey(so) == contenderKey(nw) {
				inSwap = true
				break
			}
		}
		if !inSwap {
			remainingOpens = append(remainingOpens, nw)
		}
	}
	allOpens := append(append([]Contender(nil), swapOpens...), remainingOpens...)
	if len(allOpens) > cfg.MaxNewOpensPerCycle {
		allOpens = allOpens[:cfg.MaxNewOpensPerCycle]
	}

	freeSlots := cfg.MaxPositions - (len(winners) - len(newWinners))
	maxNetOpens := len(allCloses) + freeSlots
	if len(allOpens) > maxNetOpens && maxNetOpens >= 0 {
		allOpens = allOpens[:maxNetOpens]
	}

	// Zero means no partial close has been recorded yet (the zero value of
	// an unset PortfolioState), which must not be treated as "just happened"
	// — only a genuinely recent trim (age > 0) pauses new opens.
	if portfolio.LastPartialCloseAgeSeconds > 0 && portfolio.LastPartialCloseAgeSeconds < cfg.PartialCloseCooldownSeconds {
		allOpens = nil
	}

	plan.Opens = allOpens
	plan.Closes = allCloses
	return plan
}

func contenderKey(c Contender) string {
	if c.Kind == KindOpen {
		return "open:" + c.PositionSymbol
	}
	return "new:" + c.Symbol
}
