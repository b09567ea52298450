package execution

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/ports"
)

// MonitorConfig governs per-order timeouts and mark-price invalidation
// (spec.md §4.5.8).
type MonitorConfig struct {
	OrderTimeout             time.Duration
	PriceInvalidationPct     decimal.Decimal
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		OrderTimeout:         30 * time.Second,
		PriceInvalidationPct: decimal.NewFromFloat(0.01),
	}
}

// TrackedOrder is the subset of local order state the monitor needs; it
// does not own the order record.
type TrackedOrder struct {
	ID          string
	Symbol      string
	LimitPrice  decimal.Decimal
	SubmittedAt time.Time
}

// EvaluateOrders returns the ids of orders that must be cancelled: either
// they've outlived OrderTimeout, or the mark price has moved
// PriceInvalidationPct away from the order's limit. Placeholder ids
// beginning with "unknown_" never reached the venue and are never
// cancelled.
func EvaluateOrders(orders []TrackedOrder, marks map[string]decimal.Decimal, cfg MonitorConfig, now time.Time) []string {
	var toCancel []string
	for _, o := range orders {
		if isUnknownPlaceholder(o.ID) {
			continue
		}
		if now.Sub(o.SubmittedAt) >= cfg.OrderTimeout {
			toCancel = append(toCancel, o.ID)
			continue
		}
		mark, ok := marks[o.Symbol]
		if !ok || o.LimitPrice.IsZero() {
			continue
		}
		moved := mark.Sub(o.LimitPrice).Abs().Div(o.LimitPrice)
		if moved.GreaterThanOrEqual(cfg.PriceInvalidationPct) {
			toCancel = append(toCancel, o.ID)
		}
	}
	return toCancel
}

// CancelExpiredOrders evaluates and cancels in one step, returning the ids
// it attempted to cancel and the first error encountered (if any); it does
// not stop at the first failure so a single stuck cancel doesn't block the
// rest of the sweep.
func CancelExpiredOrders(ctx context.Context, exch ports.Exchange, orders []TrackedOrder, marks map[string]decimal.Decimal, cfg MonitorConfig, now time.Time) ([]string, error) {
	ids := EvaluateOrders(orders, marks, cfg, now)
	bySymbol := make(map[string]string, len(orders))
	for _, o := range orders {
		bySymbol[o.ID] = o.Symbol
	}

	var firstErr error
	for _, id := range ids {
		symbol := bySymbol[id]
		if err := exch.CancelFuturesOrder(ctx, id, symbol); err != nil {
			log.Printf("ordermonitor: cancel %s (%s) failed: %v", id, symbol, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("ordermonitor: cancel %s: %w", id, err)
			}
		}
	}
	return ids, firstErr
}
