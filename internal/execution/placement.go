package execution

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/execution/statemachine"
	"github.com/ridgecove/futurescore/internal/ports"
)

// PlaceOrderRequest is the top-level order placement contract (spec.md
// §4.5.4). Exactly one of SizeNotional or SizeContractsOverride drives
// sizing.
type PlaceOrderRequest struct {
	Symbol               string
	Side                 domain.Side
	SizeNotional         decimal.Decimal
	SizeContractsOverride *decimal.Decimal
	RequestedLeverage    decimal.Decimal
	Type                 domain.OrderType
	Price                *decimal.Decimal
	StopPrice            *decimal.Decimal
	ReduceOnly           bool
	MarkPrice            decimal.Decimal
	SignalType           domain.SignalType
	Timestamp            time.Time
}

// PlaceOrder resolves the instrument spec, sizes and aligns the order,
// enforces idempotency, the pyramiding guard, and the entry blocklist, then
// submits to the exchange (spec.md §4.5.4). All three guards, including the
// intent-hash check, are skipped for reduce-only submissions, and no intent
// hash is recorded for them — they exist to stop duplicate or pyramided
// *entries*, not protective/closing orders.
func PlaceOrder(
	ctx context.Context,
	exch ports.Exchange,
	registry *SpecRegistry,
	intents *IntentStore,
	blocklist Blocklist,
	pending PendingOrderLookup,
	openPositions []domain.ManagedPosition,
	staleCleanup func(),
	req PlaceOrderRequest,
	now time.Time,
) (domain.Order, error) {
	spec, err := registry.Get(req.Symbol)
	if err != nil {
		return domain.Order{}, fmt.Errorf("place order: %w", err)
	}

	var contracts decimal.Decimal
	if req.SizeContractsOverride != nil {
		contracts = *req.SizeContractsOverride
	} else {
		contracts, err = ComputeSizeContracts(spec, req.SizeNotional, req.MarkPrice)
		if err != nil {
			return domain.Order{}, fmt.Errorf("place order: %w", err)
		}
	}

	contracts, err = EnsureSizeStepAligned(spec, contracts, req.ReduceOnly)
	if err != nil {
		return domain.Order{}, fmt.Errorf("place order: %w", err)
	}

	if !req.ReduceOnly {
		if blocklist.IsBlocked(req.Symbol) {
			return domain.Order{}, domain.ErrSymbolBlocked
		}
		if err := CheckPyramiding(req.Symbol, req.Side, openPositions, pending, staleCleanup); err != nil {
			return domain.Order{}, err
		}

		hash := IntentHash(req.Symbol, req.Timestamp, string(req.SignalType), req.SizeNotional)
		if intents.Seen(hash, now) {
			return domain.Order{}, domain.ErrDuplicateIntent
		}
		// Recorded before submission: a failed submission must still count
		// against the 24h idempotency window so a transient error doesn't
		// cause a tight retry loop.
		intents.Record(hash, now)
	}

	leverage := ResolveLeverage(spec, req.RequestedLeverage)
	clientOrderID := uuid.NewString()

	raw, err := exch.PlaceFuturesOrder(ctx, ports.PlaceOrderParams{
		Symbol:        req.Symbol,
		Side:          portSide(req.Side),
		Type:          portOrderType(req.Type),
		SizeContracts: contracts,
		Price:         req.Price,
		StopPrice:     req.StopPrice,
		ReduceOnly:    req.ReduceOnly,
		Leverage:      leverage,
		ClientOrderID: clientOrderID,
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("place order: submit: %w", err)
	}

	return rawOrderToOrder(raw, req, contracts, clientOrderID), nil
}

func portSide(s domain.Side) ports.OrderSide {
	if s == domain.SideSell {
		return ports.Sell
	}
	return ports.Buy
}

func portOrderType(t domain.OrderType) ports.OrderType {
	switch t {
	case domain.OrderLimit:
		return ports.OrderLimit
	case domain.OrderStopLoss:
		return ports.OrderStop
	case domain.OrderTakeProfit:
		return ports.OrderTakeProfit
	default:
		return ports.OrderMarket
	}
}

func rawOrderToOrder(raw ports.RawOrder, req PlaceOrderRequest, contracts decimal.Decimal, clientOrderID string) domain.Order {
	id := rawString(raw, "id")
	status := domain.OrderSubmitted
	switch rawString(raw, "status") {
	case "closed", "filled":
		status = domain.OrderFilled
	case "canceled", "cancelled":
		status = domain.OrderCancelled
	case "rejected":
		status = domain.OrderRejected
	}
	return domain.Order{
		OrderID:       id,
		ClientOrderID: clientOrderID,
		Timestamp:     req.Timestamp,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Size:          contracts,
		Price:         req.Price,
		Status:        status,
		ReduceOnly:    req.ReduceOnly,
	}
}

// ProtectiveOrderPlan is the set of protective orders to submit for a
// freshly filled entry, derived from the snapshot targets (spec.md §4.5.5).
type ProtectiveOrderPlan struct {
	StopContracts decimal.Decimal
	TPs           []ProtectiveTP
}

type ProtectiveTP struct {
	Price     decimal.Decimal
	Contracts decimal.Decimal
}

// BuildProtectiveOrderPlan sizes the stop and TP ladder from the position's
// frozen snapshot targets. TPs below min_size are dropped (logged, not
// fatal); if every TP is dropped, the plan carries the stop only.
func BuildProtectiveOrderPlan(pos domain.ManagedPosition, spec domain.InstrumentSpec, tp1Price, tp2Price decimal.Decimal, tp3Price *decimal.Decimal, cfg statemachine.Config) ProtectiveOrderPlan {
	plan := ProtectiveOrderPlan{StopContracts: pos.EntrySizeInitial}

	splits := []struct {
		pct   decimal.Decimal
		price decimal.Decimal
	}{
		{cfg.TP1SplitPct, tp1Price},
		{cfg.TP2SplitPct, tp2Price},
	}
	if cfg.TPMode == statemachine.TPModeFixedTP3 && tp3Price != nil {
		splits = append(splits, struct {
			pct   decimal.Decimal
			price decimal.Decimal
		}{cfg.TP3SplitPct, *tp3Price})
	}

	for _, s := range splits {
		raw := pos.EntrySizeInitial.Mul(s.pct)
		rounded, err := EnsureSizeStepAligned(spec, raw, true)
		if err != nil {
			log.Printf("execution: %s TP at %s below min_size, skipping (%v)", pos.Symbol, s.price, err)
			continue
		}
		plan.TPs = append(plan.TPs, ProtectiveTP{Price: s.price, Contracts: rounded})
	}

	return plan
}

// SubmitProtectiveOrders places the stop first, then each TP in the plan, in
// order (spec.md §4.5.5). A stop placement failure marks the position
// UNPROTECTED rather than aborting — it still attempts the TP ladder so the
// position isn't left with neither. A successfully placed stop moves an OPEN
// position to PROTECTED.
func SubmitProtectiveOrders(ctx context.Context, exch ports.Exchange, pos *domain.ManagedPosition, plan ProtectiveOrderPlan, stopPrice decimal.Decimal) []error {
	var errs []error
	closeSide := pos.Side.Opposite()

	raw, err := exch.PlaceFuturesOrder(ctx, ports.PlaceOrderParams{
		Symbol:        pos.Symbol,
		Side:          portSide(closeSide),
		Type:          ports.OrderStop,
		SizeContracts: plan.StopContracts,
		StopPrice:     &stopPrice,
		ReduceOnly:    true,
		ClientOrderID: "sl_" + uuid.NewString(),
	})
	if err != nil {
		pos.Unprotected = true
		pos.ProtectionReason = "stop_placement_failed"
		errs = append(errs, fmt.Errorf("execution: stop placement failed for %s, position UNPROTECTED: %w", pos.Symbol, err))
	} else {
		pos.IsProtected = true
		pos.StopOrderID = rawString(raw, "id")
		if pos.State == domain.StateOpen {
			pos.State = domain.StateProtected
		}
	}

	for i, tp := range plan.TPs {
		price := tp.Price
		raw, err := exch.PlaceFuturesOrder(ctx, ports.PlaceOrderParams{
			Symbol:        pos.Symbol,
			Side:          portSide(closeSide),
			Type:          ports.OrderTakeProfit,
			SizeContracts: tp.Contracts,
			StopPrice:     &price,
			ReduceOnly:    true,
			ClientOrderID: "tp_" + uuid.NewString(),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("execution: TP at %s failed for %s: %w", price, pos.Symbol, err))
			continue
		}
		switch i {
		case 0:
			pos.TP1OrderID = rawString(raw, "id")
		case 1:
			pos.TP2OrderID = rawString(raw, "id")
		default:
			pos.TP3OrderID = rawString(raw, "id")
		}
	}

	return errs
}
