package main

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/execution"
	"github.com/ridgecove/futurescore/internal/execution/statemachine"
	"github.com/ridgecove/futurescore/internal/indicators"
)

// runPositionManagementLoop drives the position state machine: it detects
// entry fills (submitting the protective order ladder), then feeds every
// open position a mark-price tick so trailing/break-even/absolute-stop
// logic can fire (spec.md §4.5.6).
func (a *app) runPositionManagementLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.managePositions(ctx)
		}
	}
}

func (a *app) managePositions(ctx context.Context) {
	now := time.Now()

	rawPositions, err := a.exch.GetAllFuturesPositions(ctx)
	if err != nil {
		log.Printf("manage positions: fetch exchange positions: %v", err)
		return
	}
	onExchange := make(map[string]bool, len(rawPositions))
	for _, raw := range rawPositions {
		if sym, ok := raw["symbol"].(string); ok {
			onExchange[sym] = true
		}
	}

	marks, err := a.exch.GetFuturesTickersBulk(ctx)
	if err != nil {
		log.Printf("manage positions: fetch marks: %v", err)
		return
	}

	for _, symbol := range a.openPositionSymbols() {
		a.mu.RLock()
		pos := a.positions[symbol]
		a.mu.RUnlock()

		mark, haveMark := marks[symbol]
		if !haveMark {
			continue
		}

		if pos.State == domain.StatePending {
			if onExchange[symbol] {
				a.handleEntryFilled(ctx, symbol, mark, now)
			}
			continue
		}

		a.handleMarkTick(ctx, symbol, mark, now)
	}
}

func (a *app) openPositionSymbols() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.positions))
	for s := range a.positions {
		out = append(out, s)
	}
	return out
}

func (a *app) handleEntryFilled(ctx context.Context, symbol string, mark decimal.Decimal, now time.Time) {
	a.mu.Lock()
	pos := a.positions[symbol]
	a.mu.Unlock()

	// ProcessOrderUpdate advances the position's own bookkeeping (fills,
	// snapshot freeze, state); its PLACE_STOP/PLACE_TP1/PLACE_TP2 actions are
	// executed here directly via BuildProtectiveOrderPlan instead of a
	// generic action dispatcher, since placing the ladder needs the
	// instrument spec for size-step alignment.
	statemachine.ProcessOrderUpdate(&pos, statemachine.Event{
		Kind: statemachine.EventEntryFilled,
		Fill: domain.FillRecord{Size: pos.InitialSize, Price: mark, Timestamp: now},
	}, decimal.Zero, a.cfg.MultiTP)

	spec, err := a.specs.Get(symbol)
	if err != nil {
		log.Printf("entry fill %s: spec lookup: %v", symbol, err)
	} else {
		plan := execution.BuildProtectiveOrderPlan(pos, spec, pos.InitialTP1Price, pos.InitialTP2Price, nil, a.cfg.MultiTP)
		for _, actionErr := range execution.SubmitProtectiveOrders(ctx, a.exch, &pos, plan, pos.InitialStopPrice) {
			log.Printf("entry fill %s: %v", symbol, actionErr)
			a.traces.Error(ctx, symbol, map[string]any{"stage": "protective_orders", "error": actionErr.Error()}, "")
		}
	}

	a.pending.clear(symbol)
	a.mu.Lock()
	a.positions[symbol] = pos
	a.mu.Unlock()
	if err := a.store.SavePosition(ctx, pos); err != nil {
		log.Printf("entry fill %s: persist: %v", symbol, err)
	}
}

func (a *app) handleMarkTick(ctx context.Context, symbol string, mark decimal.Decimal, now time.Time) {
	a.mu.Lock()
	pos := a.positions[symbol]
	a.mu.Unlock()

	atr := a.recentATR(ctx, symbol)
	actions := statemachine.ProcessOrderUpdate(&pos, statemachine.Event{
		Kind:      statemachine.EventMarkPriceTick,
		MarkPrice: mark,
	}, atr, a.cfg.MultiTP)

	for _, act := range actions {
		a.applyManagementAction(ctx, &pos, act)
	}

	a.mu.Lock()
	if pos.State == domain.StateClosed {
		delete(a.positions, symbol)
	} else {
		a.positions[symbol] = pos
	}
	a.mu.Unlock()

	if pos.State == domain.StateClosed {
		if err := a.store.DeletePosition(ctx, symbol); err != nil {
			log.Printf("mark tick %s: delete closed position: %v", symbol, err)
		}
		return
	}
	if err := a.store.SavePosition(ctx, pos); err != nil {
		log.Printf("mark tick %s: persist: %v", symbol, err)
	}
}

func (a *app) applyManagementAction(ctx context.Context, pos *domain.ManagedPosition, act statemachine.ManagementAction) {
	switch act.Kind {
	case statemachine.ActionUpdateStop:
		if err := a.exch.EditFuturesOrder(ctx, pos.StopOrderID, pos.Symbol, &act.Price, nil); err != nil {
			log.Printf("update stop %s: %v", pos.Symbol, err)
			return
		}
		pos.InitialStopPrice = act.Price
	case statemachine.ActionClosePosition:
		if err := a.exch.ClosePosition(ctx, pos.Symbol); err != nil {
			log.Printf("close position %s (%s): %v", pos.Symbol, act.Reason, err)
			return
		}
		pos.State = domain.StateClosed
	case statemachine.ActionActivateTrailing:
		pos.TrailingActive = true
	}
	a.traces.OrderEvent(ctx, pos.Symbol, map[string]any{"action": string(act.Kind), "reason": act.Reason}, "")
}

// recentATR fetches a short hourly window purely to keep the trailing-stop
// activation/step logic fed; it is not cached across ticks since ATR must
// reflect the latest confirmed bar.
func (a *app) recentATR(ctx context.Context, symbol string) decimal.Decimal {
	candles, err := a.exch.GetOHLCV(ctx, symbol, "1h", nil, 20)
	if err != nil || len(candles) < 15 {
		return decimal.Zero
	}
	return indicators.ATR(candles, 14)
}
