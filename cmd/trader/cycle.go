package main

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/auction"
	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/execution"
	"github.com/ridgecove/futurescore/internal/risk"
	"github.com/ridgecove/futurescore/internal/strategy"
)

const cooldownKey = "global"

// runCycleLoop runs the signal -> risk -> auction -> execution cycle on a
// fixed interval until ctx is cancelled.
func (a *app) runCycleLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var cycleNum int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cycleNum++
			if err := a.runCycle(ctx, cycleNum); err != nil {
				log.Printf("cycle %d: %v", cycleNum, err)
			}
		}
	}
}

func (a *app) runCycle(ctx context.Context, cycleNum int64) error {
	now := time.Now()

	marks, err := a.exch.GetFuturesTickersBulk(ctx)
	if err != nil {
		return err
	}
	if a.shock.Evaluate(marks, marks, now) {
		log.Printf("cycle %d: shock guard tripped, new entries paused", cycleNum)
	}

	balance, err := a.exch.GetFuturesBalance(ctx)
	if err != nil {
		return err
	}
	equity := balance["equity"]
	availableMargin := balance["available_margin"]
	if err := a.store.SaveAccountState(ctx, equity, availableMargin); err != nil {
		log.Printf("cycle %d: save account state failed: %v", cycleNum, err)
	}

	cooldown, err := a.cache.LoadCooldown(ctx, cooldownKey)
	if err != nil {
		log.Printf("cycle %d: load cooldown failed, treating as clear: %v", cycleNum, err)
	}

	a.mu.RLock()
	openPositions := make([]domain.ManagedPosition, 0, len(a.positions))
	openSymbols := make(map[string]bool, len(a.positions))
	for sym, p := range a.positions {
		openPositions = append(openPositions, p)
		openSymbols[sym] = true
	}
	symbols := append([]string(nil), a.symbols...)
	a.mu.RUnlock()

	var contenders []auction.Contender
	for _, p := range openPositions {
		mark := marks[p.Symbol]
		contenders = append(contenders, openContender(p, mark, cycleNum))
	}

	entriesAllowed := a.killsw.AllowNewEntry() && a.cfg.NewEntriesEnabled && !a.shock.ShouldPauseEntries(now)
	if entriesAllowed {
		for _, symbol := range symbols {
			if openSymbols[symbol] {
				continue
			}
			sig, ok := a.analyzeSymbol(ctx, symbol, now)
			if !ok || sig.Type == domain.NoSignal {
				continue
			}

			acct := risk.AccountState{
				Equity:           equity,
				FuturesMarkPrice: marks[symbol],
				AvailableMargin:  availableMargin,
				OpenPositions:    len(openPositions),
			}
			decision := risk.Evaluate(sig, acct, cooldown, a.cfg.Risk, decimal.NewFromInt(1), now)
			if !decision.Approved {
				a.traces.SignalRejected(ctx, symbol, map[string]any{"reasons": decision.RejectionReasons.Error()}, "")
				continue
			}
			a.traces.SignalGenerated(ctx, symbol, map[string]any{"score": sig.Score.String(), "type": string(sig.Type)}, "")
			contenders = append(contenders, newContender(sig, decision))
		}
	}

	plan := auction.Allocate(contenders, auction.PortfolioState{
		AccountEquity:   equity,
		AvailableMargin: availableMargin,
		CurrentCycle:    cycleNum,
	}, a.cfg.Auction)

	for _, c := range plan.Opens {
		if c.Kind != auction.KindNew {
			continue
		}
		a.openEntry(ctx, c, now)
	}
	for _, c := range plan.Closes {
		a.closePosition(ctx, c.Symbol, plan.Reasons[c.Symbol])
	}
	for _, r := range plan.Reductions {
		log.Printf("cycle %d: rebalance reduction planned for %s delta=%s", cycleNum, r.Symbol, r.NotionalDelta)
	}

	return nil
}

// analyzeSymbol fetches the daily and hourly candle history the pipeline
// needs and runs it through strategy.Analyze. It is the only place the
// cycle reads candle history; it never caches candles across cycles since
// the pipeline must see the latest confirmed bar every time (spec.md §4.2).
func (a *app) analyzeSymbol(ctx context.Context, symbol string, now time.Time) (domain.Signal, bool) {
	daily, err := a.exch.GetOHLCV(ctx, symbol, "1d", nil, 220)
	if err != nil {
		log.Printf("analyze %s: fetch daily candles: %v", symbol, err)
		return domain.Signal{}, false
	}
	hourly, err := a.exch.GetOHLCV(ctx, symbol, "1h", nil, 250)
	if err != nil {
		log.Printf("analyze %s: fetch hourly candles: %v", symbol, err)
		return domain.Signal{}, false
	}
	if len(daily) < 200 || len(hourly) < 50 {
		return domain.Signal{}, false
	}

	sig := strategy.Analyze(strategy.Inputs{
		Symbol:          symbol,
		Daily:           daily,
		Hourly:          hourly,
		CostEstimateBps: a.cfg.Risk.TakerFeeBps.Mul(decimal.NewFromInt(2)),
	}, a.cfg.Strategy)
	return sig, true
}

func openContender(p domain.ManagedPosition, mark decimal.Decimal, cycleNum int64) auction.Contender {
	pnlR := decimal.Zero
	if !p.InitialStopPrice.Equal(p.InitialEntryPrice) {
		riskDist := p.InitialEntryPrice.Sub(p.InitialStopPrice).Abs()
		if riskDist.IsPositive() {
			moved := mark.Sub(p.InitialEntryPrice)
			if p.Side == domain.SideSell {
				moved = moved.Neg()
			}
			pnlR = moved.Div(riskDist)
		}
	}
	return auction.Contender{
		Kind:           auction.KindOpen,
		Symbol:         p.Symbol,
		Regime:         p.Regime,
		SetupType:      p.SetupType,
		Value:          auction.ValueOpen(p.EntryScore, pnlR, decimal.Zero),
		RequiredMargin: p.InitialEntryPrice.Mul(p.RemainingSize()),
		AgeSeconds:     int64(time.Since(p.OpenedAt).Seconds()),
		Bullish:        p.Side == domain.SideBuy,
		PositionSymbol: p.Symbol,
	}
}

func newContender(sig domain.Signal, decision risk.RiskDecision) auction.Contender {
	return auction.Contender{
		Kind:           auction.KindNew,
		Symbol:         sig.Symbol,
		Regime:         sig.Regime,
		SetupType:      sig.SetupType,
		Value:          auction.ValueNew(sig.Score, decimal.Zero),
		RequiredMargin: decision.MarginRequired,
		Bullish:        sig.Type == domain.Long,
		Signal:         sig,
	}
}

func (a *app) openEntry(ctx context.Context, c auction.Contender, now time.Time) {
	if !a.killsw.AllowNewEntry() {
		log.Printf("open entry %s: kill switch active, not submitting", c.Symbol)
		return
	}
	side := domain.SideBuy
	if c.Signal.Type == domain.Short {
		side = domain.SideSell
	}

	order, err := execution.PlaceOrder(ctx, a.exch, a.specs, a.intents, a.blocklist, a.pending, a.openPositionsSnapshot(), nil, execution.PlaceOrderRequest{
		Symbol:       c.Symbol,
		Side:         side,
		SizeNotional: c.RequiredMargin,
		Type:         domain.OrderMarket,
		MarkPrice:    c.Signal.EntryPrice,
		SignalType:   c.Signal.Type,
		Timestamp:    now,
	}, now)
	if err != nil {
		log.Printf("open entry %s: %v", c.Symbol, err)
		a.traces.Error(ctx, c.Symbol, map[string]any{"stage": "open_entry", "error": err.Error()}, "")
		return
	}

	pos := domain.ManagedPosition{
		Symbol:            c.Symbol,
		Side:              side,
		InitialSize:       order.Size,
		InitialEntryPrice: c.Signal.EntryPrice,
		InitialStopPrice:  c.Signal.StopLoss,
		InitialTP1Price:   c.Signal.TakeProfit,
		FinalTargetPrice:  c.Signal.TakeProfit,
		State:             domain.StatePending,
		Regime:            c.Signal.Regime,
		SetupType:         c.Signal.SetupType,
		EntryScore:        c.Signal.Score,
		OpenedAt:          now,
	}
	a.mu.Lock()
	a.positions[c.Symbol] = pos
	a.mu.Unlock()
	a.pending.add(c.Symbol, side)

	if err := a.store.SavePosition(ctx, pos); err != nil {
		log.Printf("open entry %s: persist: %v", c.Symbol, err)
	}
	a.traces.OrderEvent(ctx, c.Symbol, map[string]any{"order_id": order.OrderID, "side": string(side)}, "")
}

func (a *app) closePosition(ctx context.Context, symbol, reason string) {
	if err := a.exch.ClosePosition(ctx, symbol); err != nil {
		log.Printf("close position %s: %v", symbol, err)
		return
	}
	a.mu.Lock()
	delete(a.positions, symbol)
	a.mu.Unlock()
	if err := a.store.DeletePosition(ctx, symbol); err != nil {
		log.Printf("close position %s: delete persisted record: %v", symbol, err)
	}
	a.traces.AuctionResult(ctx, symbol, map[string]any{"action": "close", "reason": reason}, "")
}

func (a *app) openPositionsSnapshot() []domain.ManagedPosition {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]domain.ManagedPosition, 0, len(a.positions))
	for _, p := range a.positions {
		out = append(out, p)
	}
	return out
}
