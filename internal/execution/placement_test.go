package execution

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/execution/statemachine"
)

func testSpec() domain.InstrumentSpec {
	return domain.InstrumentSpec{
		SymbolRaw:    "PF_XBTUSD",
		ContractSize: decimal.NewFromInt(1),
		MinSize:      decimal.NewFromFloat(0.001),
		SizeStep:     decimal.NewFromFloat(0.001),
		MaxLeverage:  decimal.NewFromInt(20),
		LeverageMode: domain.LeverageFlexible,
	}
}

func registryWith(spec domain.InstrumentSpec) *SpecRegistry {
	r := NewSpecRegistry("")
	r.ReplaceAll([]domain.InstrumentSpec{spec}, time.Now())
	return r
}

type noPending struct{}

func (noPending) HasPendingEntry(symbol string, side domain.Side) bool { return false }

func TestPlaceOrder_HappyPathSubmitsAndReturnsOrder(t *testing.T) {
	exch := &fakeExchange{}
	registry := registryWith(testSpec())
	intents := NewIntentStore()
	now := time.Now()

	req := PlaceOrderRequest{
		Symbol:            "PF_XBTUSD",
		Side:              domain.SideBuy,
		SizeNotional:      decimal.NewFromInt(1000),
		RequestedLeverage: decimal.NewFromInt(5),
		Type:              domain.OrderMarket,
		MarkPrice:         decimal.NewFromInt(50000),
		SignalType:        domain.Long,
		Timestamp:         now,
	}

	order, err := PlaceOrder(context.Background(), exch, registry, intents, Blocklist{}, noPending{}, nil, nil, req, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.OrderID == "" {
		t.Fatalf("expected an order id from the exchange response")
	}
	if len(exch.placed) != 1 {
		t.Fatalf("expected exactly one submission, got %d", len(exch.placed))
	}
}

func TestPlaceOrder_DuplicateIntentWithinWindowIsRejected(t *testing.T) {
	exch := &fakeExchange{}
	registry := registryWith(testSpec())
	intents := NewIntentStore()
	now := time.Now()

	req := PlaceOrderRequest{
		Symbol:            "PF_XBTUSD",
		Side:              domain.SideBuy,
		SizeNotional:      decimal.NewFromInt(1000),
		RequestedLeverage: decimal.NewFromInt(5),
		Type:              domain.OrderMarket,
		MarkPrice:         decimal.NewFromInt(50000),
		SignalType:        domain.Long,
		Timestamp:         now,
	}

	if _, err := PlaceOrder(context.Background(), exch, registry, intents, Blocklist{}, noPending{}, nil, nil, req, now); err != nil {
		t.Fatalf("unexpected error on first placement: %v", err)
	}
	_, err := PlaceOrder(context.Background(), exch, registry, intents, Blocklist{}, noPending{}, nil, nil, req, now)
	if err != domain.ErrDuplicateIntent {
		t.Fatalf("expected ErrDuplicateIntent on the second identical placement, got %v", err)
	}
	if len(exch.placed) != 1 {
		t.Fatalf("expected only one submission reached the exchange, got %d", len(exch.placed))
	}
}

func TestPlaceOrder_BlockedBaseIsRejectedBeforeSubmission(t *testing.T) {
	exch := &fakeExchange{}
	spec := testSpec()
	spec.SymbolRaw = "PF_USDTUSD"
	registry := registryWith(spec)
	intents := NewIntentStore()
	now := time.Now()

	req := PlaceOrderRequest{
		Symbol:       "PF_USDTUSD",
		Side:         domain.SideBuy,
		SizeNotional: decimal.NewFromInt(1000),
		Type:         domain.OrderMarket,
		MarkPrice:    decimal.NewFromInt(1),
		SignalType:   domain.Long,
		Timestamp:    now,
	}

	_, err := PlaceOrder(context.Background(), exch, registry, intents, Blocklist{}, noPending{}, nil, nil, req, now)
	if err != domain.ErrSymbolBlocked {
		t.Fatalf("expected the global stablecoin exclusion to reject this symbol, got %v", err)
	}
	if len(exch.placed) != 0 {
		t.Fatalf("expected no submission for a blocked base")
	}
}

func TestPlaceOrder_PyramidingGuardRejectsSameSymbolSide(t *testing.T) {
	exch := &fakeExchange{}
	registry := registryWith(testSpec())
	intents := NewIntentStore()
	now := time.Now()

	open := []domain.ManagedPosition{{Symbol: "PF_XBTUSD", Side: domain.SideBuy, State: domain.StateOpen}}

	req := PlaceOrderRequest{
		Symbol:       "PF_XBTUSD",
		Side:         domain.SideBuy,
		SizeNotional: decimal.NewFromInt(1000),
		Type:         domain.OrderMarket,
		MarkPrice:    decimal.NewFromInt(50000),
		SignalType:   domain.Long,
		Timestamp:    now,
	}

	_, err := PlaceOrder(context.Background(), exch, registry, intents, Blocklist{}, noPending{}, open, nil, req, now)
	if err != domain.ErrPyramiding {
		t.Fatalf("expected ErrPyramiding, got %v", err)
	}
}

func TestPlaceOrder_ReduceOnlySkipsPyramidingAndBlocklistGuards(t *testing.T) {
	exch := &fakeExchange{}
	spec := testSpec()
	spec.SymbolRaw = "PF_USDTUSD"
	registry := registryWith(spec)
	intents := NewIntentStore()
	now := time.Now()

	open := []domain.ManagedPosition{{Symbol: "PF_USDTUSD", Side: domain.SideBuy, State: domain.StateOpen}}

	req := PlaceOrderRequest{
		Symbol:                "PF_USDTUSD",
		Side:                  domain.SideSell,
		SizeContractsOverride: decimalPtr(decimal.NewFromInt(10)),
		Type:                  domain.OrderStopLoss,
		ReduceOnly:            true,
		MarkPrice:             decimal.NewFromInt(1),
		SignalType:            domain.Long,
		Timestamp:             now,
	}

	_, err := PlaceOrder(context.Background(), exch, registry, intents, Blocklist{}, noPending{}, open, nil, req, now)
	if err != nil {
		t.Fatalf("reduce-only close must bypass the blocklist/pyramiding guards, got %v", err)
	}
}

func TestBuildProtectiveOrderPlan_DropsTPsBelowMinSizeAndKeepsRest(t *testing.T) {
	spec := testSpec()
	spec.MinSize = decimal.NewFromFloat(0.05)
	spec.SizeStep = decimal.NewFromFloat(0.001)

	pos := domain.ManagedPosition{Symbol: "PF_XBTUSD", EntrySizeInitial: decimal.NewFromFloat(0.1)}
	cfg := statemachine.DefaultConfig()
	cfg.TP1SplitPct = decimal.NewFromFloat(0.1) // 0.01 contracts: below the 0.05 min, dropped
	cfg.TP2SplitPct = decimal.NewFromFloat(0.9) // 0.09 contracts: survives

	plan := BuildProtectiveOrderPlan(pos, spec, decimal.NewFromInt(105), decimal.NewFromInt(110), nil, cfg)

	if len(plan.TPs) != 1 {
		t.Fatalf("expected exactly one surviving TP, got %d: %v", len(plan.TPs), plan.TPs)
	}
	if !plan.TPs[0].Price.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("expected the surviving TP to be the TP2 leg, got price %s", plan.TPs[0].Price)
	}
}

func TestSubmitProtectiveOrders_StopFailureMarksUnprotectedButStillTriesTPs(t *testing.T) {
	exch := &fakeExchange{placeErr: errPlacementFailed}
	pos := &domain.ManagedPosition{Symbol: "PF_XBTUSD", Side: domain.SideBuy}
	plan := ProtectiveOrderPlan{
		StopContracts: decimal.NewFromInt(1),
		TPs:           []ProtectiveTP{{Price: decimal.NewFromInt(105), Contracts: decimal.NewFromFloat(0.5)}},
	}

	errs := SubmitProtectiveOrders(context.Background(), exch, pos, plan, decimal.NewFromInt(95))
	if len(errs) != 2 {
		t.Fatalf("expected both the stop and the TP attempt to fail and report, got %d: %v", len(errs), errs)
	}
	if !pos.Unprotected {
		t.Fatalf("expected the position marked UNPROTECTED after a failed stop placement")
	}
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
