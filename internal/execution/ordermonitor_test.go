package execution

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/ports"
)

func TestEvaluateOrders_TimesOutAfterConfiguredWindow(t *testing.T) {
	now := time.Now()
	orders := []TrackedOrder{
		{ID: "o1", Symbol: "BTC", LimitPrice: decimal.NewFromInt(100), SubmittedAt: now.Add(-40 * time.Second)},
	}
	cfg := DefaultMonitorConfig()

	toCancel := EvaluateOrders(orders, nil, cfg, now)
	if len(toCancel) != 1 || toCancel[0] != "o1" {
		t.Fatalf("expected o1 cancelled on timeout, got %v", toCancel)
	}
}

func TestEvaluateOrders_NeverCancelsUnknownPlaceholder(t *testing.T) {
	now := time.Now()
	orders := []TrackedOrder{
		{ID: "unknown_abc", Symbol: "BTC", LimitPrice: decimal.NewFromInt(100), SubmittedAt: now.Add(-time.Hour)},
	}
	cfg := DefaultMonitorConfig()

	toCancel := EvaluateOrders(orders, nil, cfg, now)
	if len(toCancel) != 0 {
		t.Fatalf("expected placeholder order id never cancelled, got %v", toCancel)
	}
}

func TestEvaluateOrders_CancelsOnMarkPriceInvalidation(t *testing.T) {
	now := time.Now()
	orders := []TrackedOrder{
		{ID: "o1", Symbol: "BTC", LimitPrice: decimal.NewFromInt(100), SubmittedAt: now},
	}
	marks := map[string]decimal.Decimal{"BTC": decimal.NewFromInt(102)}
	cfg := DefaultMonitorConfig() // 1% invalidation

	toCancel := EvaluateOrders(orders, marks, cfg, now)
	if len(toCancel) != 1 {
		t.Fatalf("expected a 2%% mark move past a 1%% threshold to cancel, got %v", toCancel)
	}
}

func TestEvaluateOrders_WithinThresholdIsLeftAlone(t *testing.T) {
	now := time.Now()
	orders := []TrackedOrder{
		{ID: "o1", Symbol: "BTC", LimitPrice: decimal.NewFromInt(100), SubmittedAt: now},
	}
	marks := map[string]decimal.Decimal{"BTC": decimal.NewFromFloat(100.5)}
	cfg := DefaultMonitorConfig()

	toCancel := EvaluateOrders(orders, marks, cfg, now)
	if len(toCancel) != 0 {
		t.Fatalf("expected no cancellation within the invalidation threshold, got %v", toCancel)
	}
}

type cancelOnlyExchange struct {
	fakeExchange
	cancelled []string
	cancelErr error
}

func (c *cancelOnlyExchange) CancelFuturesOrder(ctx context.Context, id, symbol string) error {
	if c.cancelErr != nil {
		return c.cancelErr
	}
	c.cancelled = append(c.cancelled, id)
	return nil
}

func TestCancelExpiredOrders_ContinuesPastAFailedCancel(t *testing.T) {
	now := time.Now()
	orders := []TrackedOrder{
		{ID: "o1", Symbol: "BTC", SubmittedAt: now.Add(-time.Hour)},
		{ID: "o2", Symbol: "ETH", SubmittedAt: now.Add(-time.Hour)},
	}
	exch := &cancelOnlyExchange{cancelErr: errPlacementFailed}
	cfg := DefaultMonitorConfig()

	ids, err := CancelExpiredOrders(context.Background(), exch, orders, nil, cfg, now)
	if len(ids) != 2 {
		t.Fatalf("expected both orders evaluated as expired, got %v", ids)
	}
	if err == nil {
		t.Fatalf("expected the first cancel failure surfaced as an error")
	}
	if len(exch.cancelled) != 0 {
		t.Fatalf("expected no successful cancels recorded when CancelFuturesOrder always errors")
	}
}

var _ ports.Exchange = (*cancelOnlyExchange)(nil)
