package auction

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

func de(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func newContender(symbol string, value, margin float64, bullish bool) Contender {
	return Contender{
		Kind:           KindNew,
		Symbol:         symbol,
		Regime:         domain.RegimeTightSMC,
		SetupType:      domain.SetupOB,
		Value:          de(value),
		RequiredMargin: de(margin),
		Bullish:        bullish,
	}
}

func TestAllocate_SortsByValueDescending(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPositions = 10
	contenders := []Contender{
		newContender("A-USD", 10, 100, true),
		newContender("B-USD", 50, 100, true),
		newContender("C-USD", 30, 100, true),
	}
	portfolio := PortfolioState{AccountEquity: de(100000), AvailableMargin: de(100000)}

	plan := Allocate(contenders, portfolio, cfg)
	if len(plan.Opens) != 3 {
		t.Fatalf("expected all 3 candidates to win with ample margin, got %d: %+v", len(plan.Opens), plan)
	}
	if plan.Opens[0].Symbol != "B-USD" || plan.Opens[1].Symbol != "C-USD" || plan.Opens[2].Symbol != "A-USD" {
		t.Fatalf("expected descending value order B,C,A, got %v", symbolsOf(plan.Opens))
	}
}

func symbolsOf(cs []Contender) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Symbol
	}
	return out
}

func TestAllocate_RespectsPerSymbolMarginCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PerSymbolMarginCapUSD = de(150)
	contenders := []Contender{
		newContender("A-USD", 50, 100, true),
		newContender("A-USD", 40, 100, true), // same base, would push past the 150 cap
	}
	portfolio := PortfolioState{AccountEquity: de(100000), AvailableMargin: de(100000)}

	plan := Allocate(contenders, portfolio, cfg)
	if len(plan.Opens) != 1 {
		t.Fatalf("expected only one A-USD contender to win under the per-symbol cap, got %d", len(plan.Opens))
	}
}

func TestAllocate_RespectsMaxMarginUtil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMarginUtilPct = de(0.5)
	cfg.PerSymbolMarginCapUSD = de(100000)
	cfg.PerClusterMarginCapUSD = de(100000)
	contenders := []Contender{
		newContender("A-USD", 50, 400, true),
		newContender("B-USD", 40, 400, true),
	}
	portfolio := PortfolioState{AccountEquity: de(1000), AvailableMargin: de(1000)} // budget = 500

	plan := Allocate(contenders, portfolio, cfg)
	if len(plan.Opens) != 1 {
		t.Fatalf("expected margin-util cap to admit only one contender, got %d", len(plan.Opens))
	}
}

func TestAllocate_MaxNewOpensPerCycleCaps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxNewOpensPerCycle = 1
	cfg.PerSymbolMarginCapUSD = de(100000)
	cfg.PerClusterMarginCapUSD = de(100000)
	contenders := []Contender{
		newContender("A-USD", 50, 100, true),
		newContender("B-USD", 40, 100, true),
	}
	portfolio := PortfolioState{AccountEquity: de(100000), AvailableMargin: de(100000)}

	plan := Allocate(contenders, portfolio, cfg)
	if len(plan.Opens) != 1 {
		t.Fatalf("expected max_new_opens_per_cycle to cap opens at 1, got %d", len(plan.Opens))
	}
}

// TestAllocate_PerSymbolCountCapDeadlock reproduces spec.md's E2E-4 scenario:
// two AXS/USD candidates (different clusters, so the margin-based cluster cap
// alone wouldn't stop the second one) under max_per_symbol=1 must not both
// win, and BTC/ETH must still get in behind them
// (original_source/src/portfolio/auction_allocator.py:610-621).
func TestAllocate_PerSymbolCountCapDeadlock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPerSymbol = 1
	cfg.PerSymbolMarginCapUSD = de(1000000)
	cfg.PerClusterMarginCapUSD = de(1000000)
	cfg.MaxPositions = 10

	axs1 := newContender("AXS/USD", 90, 100, true)
	axs2 := Contender{
		Kind: KindNew, Symbol: "AXS/USD",
		Regime: domain.RegimeWideStructure, SetupType: domain.SetupFVG,
		Value: de(89), RequiredMargin: de(100), Bullish: true,
	}
	btc := newContender("BTC/USD", 85, 100, true)
	eth := newContender("ETH/USD", 80, 100, false)
	sol := newContender("SOL/USD", 75, 100, false)

	contenders := []Contender{axs1, axs2, btc, eth, sol}
	portfolio := PortfolioState{AccountEquity: de(100000), AvailableMargin: de(100000)}

	plan := Allocate(contenders, portfolio, cfg)

	axsWins := 0
	haveBTC, haveETH := false, false
	for _, c := range plan.Opens {
		if c.Symbol == "AXS/USD" {
			axsWins++
		}
		if c.Symbol == "BTC/USD" {
			haveBTC = true
		}
		if c.Symbol == "ETH/USD" {
			haveETH = true
		}
	}
	if axsWins > 1 {
		t.Fatalf("expected at most 1 AXS/USD winner under max_per_symbol=1, got %d", axsWins)
	}
	if !haveBTC || !haveETH {
		t.Fatalf("expected BTC/USD and ETH/USD to win once the second AXS slot is freed, opens=%v", symbolsOf(plan.Opens))
	}
}

func TestAllocate_LockedOpenPositionCannotBeDisplacedByPenalty(t *testing.T) {
	cfg := DefaultConfig()
	locked := Contender{
		Kind: KindOpen, PositionSymbol: "A-USD", Symbol: "A-USD",
		Regime: domain.RegimeTightSMC, SetupType: domain.SetupOB,
		Value: de(5), RequiredMargin: de(100), Bullish: true, Locked: true,
	}
	contenders := []Contender{locked}
	portfolio := PortfolioState{AccountEquity: de(100000), AvailableMargin: de(100000)}

	plan := Allocate(contenders, portfolio, cfg)
	foundWinner := false
	for k := range plan.Reasons {
		if k == "open:A-USD" {
			t.Fatalf("locked position must not be rejected by the directional penalty")
		}
	}
	_ = foundWinner
}
