package main

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/execution"
)

// runReconciliationLoop periodically reconciles local position state
// against exchange truth (spec.md §4.5.7).
func (a *app) runReconciliationLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.reconcile(ctx)
		}
	}
}

func (a *app) reconcile(ctx context.Context) {
	localMap := a.localPositionsCopy()

	result, err := execution.ReconcilePositions(ctx, a.exch, a.specs, localMap, a.cfg.Reconciliation)
	if err != nil {
		log.Printf("reconcile: %v", err)
		return
	}

	a.mu.Lock()
	for _, p := range result.Adopted {
		a.positions[p.Symbol] = p
		if err := a.store.SavePosition(ctx, p); err != nil {
			log.Printf("reconcile: persist adopted %s: %v", p.Symbol, err)
		}
	}
	for _, sym := range result.Zombies {
		delete(a.positions, sym)
		if err := a.store.DeletePosition(ctx, sym); err != nil {
			log.Printf("reconcile: delete zombie %s: %v", sym, err)
		}
	}
	a.mu.Unlock()

	for _, sym := range result.ForceClosed {
		a.traces.Reconciliation(ctx, sym, map[string]any{"action": "force_closed"}, "")
	}
	for _, sym := range result.Unprotected {
		log.Printf("reconcile: %s adopted without a stop, marked UNPROTECTED", sym)
		a.traces.Reconciliation(ctx, sym, map[string]any{"action": "unprotected"}, "")
	}
}

func (a *app) localPositionsCopy() map[string]domain.ManagedPosition {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]domain.ManagedPosition, len(a.positions))
	for k, v := range a.positions {
		out[k] = v
	}
	return out
}

// runOrderMonitorLoop cancels orders that have timed out or whose limit
// price has drifted too far from the current mark (spec.md §4.5.8).
func (a *app) runOrderMonitorLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.monitorOrders(ctx)
		}
	}
}

func (a *app) monitorOrders(ctx context.Context) {
	rawOrders, err := a.exch.GetFuturesOpenOrders(ctx)
	if err != nil {
		log.Printf("order monitor: fetch open orders: %v", err)
		return
	}
	marks, err := a.exch.GetFuturesTickersBulk(ctx)
	if err != nil {
		log.Printf("order monitor: fetch marks: %v", err)
		return
	}

	tracked := make([]execution.TrackedOrder, 0, len(rawOrders))
	for _, raw := range rawOrders {
		id, _ := raw["id"].(string)
		symbol, _ := raw["symbol"].(string)
		tracked = append(tracked, execution.TrackedOrder{
			ID:          id,
			Symbol:      symbol,
			LimitPrice:  rawOrderDecimal(raw, "limitPrice"),
			SubmittedAt: rawOrderTime(raw, "receivedTime"),
		})
	}

	cancelled, err := execution.CancelExpiredOrders(ctx, a.exch, tracked, marks, a.cfg.Execution.OrderMonitor, time.Now())
	if err != nil {
		log.Printf("order monitor: cancel expired: %v", err)
	}
	for _, id := range cancelled {
		log.Printf("order monitor: cancelled stale order %s", id)
	}
}

func rawOrderDecimal(raw map[string]any, key string) decimal.Decimal {
	switch v := raw[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return decimal.Zero
}

func rawOrderTime(raw map[string]any, key string) time.Time {
	v, ok := raw[key].(float64)
	if !ok {
		return time.Time{}
	}
	return time.Unix(int64(v), 0)
}
