package execution

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/ports"
	"github.com/ridgecove/futurescore/internal/symbols"
)

// ReconciliationConfig governs the adopt-vs-force_close policy and the
// emergency stop synthesized when an adopted position has none (spec.md
// §4.5.7, invariant I8).
type ReconciliationConfig struct {
	AutoAdoptUntracked       bool
	RiskPerTradePct          decimal.Decimal
	MinLiquidationBufferPct  decimal.Decimal // emergency stop never placed closer than this to liquidation
	OrderSubmissionWindow    time.Duration   // how long a local order may go unconfirmed before it's a ghost
}

func DefaultReconciliationConfig() ReconciliationConfig {
	return ReconciliationConfig{
		AutoAdoptUntracked:      true,
		RiskPerTradePct:         decimal.NewFromFloat(0.01),
		MinLiquidationBufferPct: decimal.NewFromFloat(0.35),
		OrderSubmissionWindow:   30 * time.Second,
	}
}

// ReconcileResult summarizes the outcome of one reconciliation pass.
type ReconcileResult struct {
	Adopted      []domain.ManagedPosition
	ForceClosed  []string
	Zombies      []string // local positions deleted because the exchange no longer has them
	Ghosts       []string // local order ids removed because the exchange never confirmed them
	Ingested     []ports.RawOrder
	Unprotected  []string // adopted positions that could not be given a stop
}

// ReconcilePositions fetches exchange truth and reconciles it against the
// local position registry (spec.md §4.5.7). It never mutates local directly;
// the caller applies the returned result to the registry and persistence.
func ReconcilePositions(ctx context.Context, exch ports.Exchange, registry *SpecRegistry, local map[string]domain.ManagedPosition, cfg ReconciliationConfig) (ReconcileResult, error) {
	var result ReconcileResult

	rawPositions, err := exch.GetAllFuturesPositions(ctx)
	if err != nil {
		return result, fmt.Errorf("reconcile: fetch exchange positions: %w", err)
	}

	seen := make(map[string]bool, len(rawPositions))
	for _, raw := range rawPositions {
		rawSym := rawString(raw, "symbol")
		sym := symbols.Normalize(rawSym)
		if sym == "" {
			continue
		}
		seen[sym] = true

		if _, tracked := local[sym]; tracked {
			continue
		}

		if !cfg.AutoAdoptUntracked {
			if err := exch.ClosePosition(ctx, rawSym); err != nil {
				log.Printf("reconcile: force_close %s failed: %v", sym, err)
				continue
			}
			result.ForceClosed = append(result.ForceClosed, sym)
			continue
		}

		pos, protected := adoptPosition(ctx, exch, registry, raw, sym, rawSym, cfg)
		result.Adopted = append(result.Adopted, pos)
		if !protected {
			result.Unprotected = append(result.Unprotected, sym)
		}
	}

	for sym := range local {
		if !seen[sym] {
			result.Zombies = append(result.Zombies, sym)
		}
	}

	return result, nil
}

// adoptPosition reconstructs a ManagedPosition from exchange truth. It first
// looks for a matching reduce-only stop order; if none exists it synthesizes
// one from risk_per_trade_pct around entry, clamped to stay at least
// MinLiquidationBufferPct away from the exchange liquidation price, and
// places it atomically. If that placement fails the position is marked
// UNPROTECTED (invariant I8) rather than silently left without a stop.
func adoptPosition(ctx context.Context, exch ports.Exchange, registry *SpecRegistry, raw ports.RawPosition, symbol, rawSymbol string, cfg ReconciliationConfig) (domain.ManagedPosition, bool) {
	side := domain.SideBuy
	if rawString(raw, "side") == "sell" || rawString(raw, "side") == "short" {
		side = domain.SideSell
	}

	entry := rawDecimal(raw, "entryPrice")
	liquidation := rawDecimal(raw, "liquidationPrice")
	size := rawDecimal(raw, "size")
	if size.IsZero() {
		size = rawDecimal(raw, "amount")
	}

	pos := domain.ManagedPosition{
		Symbol:             symbol,
		Side:               side,
		InitialSize:        size,
		InitialEntryPrice:  entry,
		EntrySizeInitial:   size,
		State:              domain.StateOpen,
		EntryAcknowledged:  true,
		OpenedAt:           time.Now().UTC(),
		ProtectionReason:   "adopted_by_reconciliation",
	}

	openOrders, err := exch.GetFuturesOpenOrders(ctx)
	if err == nil {
		if stopPrice, ok := findReduceOnlyStop(openOrders, symbol, side); ok {
			pos.InitialStopPrice = stopPrice
			pos.IsProtected = true
			return pos, true
		}
	}

	emergencyStop := synthesizeEmergencyStop(entry, liquidation, side, cfg)
	if emergencyStop.IsZero() {
		pos.Unprotected = true
		log.Printf("reconcile: adopted %s with no recoverable stop and no liquidation price, marking UNPROTECTED", symbol)
		return pos, false
	}

	sizeContracts, err := resolveAdoptedSize(registry, rawSymbol, size, entry)
	if err != nil {
		pos.Unprotected = true
		log.Printf("reconcile: adopted %s but could not resolve spec for emergency stop sizing: %v", symbol, err)
		return pos, false
	}

	orderSide := ports.Sell
	if side == domain.SideSell {
		orderSide = ports.Buy
	}
	_, err = exch.PlaceFuturesOrder(ctx, ports.PlaceOrderParams{
		Symbol:        rawSymbol,
		Side:          orderSide,
		Type:          ports.OrderStop,
		SizeContracts: sizeContracts,
		StopPrice:     &emergencyStop,
		ReduceOnly:    true,
		ClientOrderID: "reconcile_" + symbol,
	})
	if err != nil {
		pos.Unprotected = true
		log.Printf("reconcile: emergency stop placement failed for %s: %v", symbol, err)
		return pos, false
	}

	pos.InitialStopPrice = emergencyStop
	pos.IsProtected = true
	return pos, true
}

func resolveAdoptedSize(registry *SpecRegistry, symbol string, size, entry decimal.Decimal) (decimal.Decimal, error) {
	if registry == nil {
		return size, nil
	}
	spec, err := registry.Get(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return ComputeSizeContracts(spec, size.Mul(entry), entry)
}

// synthesizeEmergencyStop places the stop risk_per_trade_pct away from
// entry, clamped so it never sits closer than MinLiquidationBufferPct to the
// exchange's own liquidation price.
func synthesizeEmergencyStop(entry, liquidation decimal.Decimal, side domain.Side, cfg ReconciliationConfig) decimal.Decimal {
	if entry.IsZero() {
		return decimal.Zero
	}
	riskDistance := entry.Mul(cfg.RiskPerTradePct)

	var candidate decimal.Decimal
	if side == domain.SideBuy {
		candidate = entry.Sub(riskDistance)
	} else {
		candidate = entry.Add(riskDistance)
	}

	if liquidation.IsZero() {
		return candidate
	}

	minBufferDistance := entry.Sub(liquidation).Abs().Mul(cfg.MinLiquidationBufferPct)
	if side == domain.SideBuy {
		floor := liquidation.Add(minBufferDistance)
		if candidate.LessThan(floor) {
			candidate = floor
		}
	} else {
		ceiling := liquidation.Sub(minBufferDistance)
		if candidate.GreaterThan(ceiling) {
			candidate = ceiling
		}
	}
	return candidate
}

func findReduceOnlyStop(orders []ports.RawOrder, symbol string, side domain.Side) (decimal.Decimal, bool) {
	for _, o := range orders {
		if symbols.Normalize(rawString(o, "symbol")) != symbol {
			continue
		}
		if reduceOnly, _ := o["reduceOnly"].(bool); !reduceOnly {
			continue
		}
		orderType := rawString(o, "type")
		if orderType != "stp" && orderType != "stop" && orderType != "STOP_LOSS" {
			continue
		}
		// A stop protecting a long sits below entry (a sell order); a stop
		// protecting a short sits above entry (a buy order).
		wantSide := "sell"
		if side == domain.SideSell {
			wantSide = "buy"
		}
		if rawString(o, "side") != wantSide {
			continue
		}
		stop := rawDecimal(o, "stopPrice")
		if stop.IsZero() {
			continue
		}
		return stop, true
	}
	return decimal.Zero, false
}

// ReconcileOrders detects ghost local orders (never confirmed by the
// exchange past their submission window) and exchange orders the local
// tracker never saw, which are ingested as SUBMITTED.
func ReconcileOrders(ctx context.Context, exch ports.Exchange, localOrderIDs map[string]time.Time, cfg ReconciliationConfig, now time.Time) (ghosts []string, ingested []ports.RawOrder, err error) {
	exchangeOrders, err := exch.GetFuturesOpenOrders(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reconcile orders: fetch open orders: %w", err)
	}

	exchangeIDs := make(map[string]bool, len(exchangeOrders))
	for _, o := range exchangeOrders {
		id := rawString(o, "id")
		exchangeIDs[id] = true
		if _, tracked := localOrderIDs[id]; !tracked {
			ingested = append(ingested, o)
		}
	}

	for id, submittedAt := range localOrderIDs {
		if isUnknownPlaceholder(id) {
			continue // never made it to the venue; nothing to reconcile
		}
		if exchangeIDs[id] {
			continue
		}
		if now.Sub(submittedAt) < cfg.OrderSubmissionWindow {
			continue
		}
		ghosts = append(ghosts, id)
	}

	return ghosts, ingested, nil
}

func isUnknownPlaceholder(id string) bool {
	return len(id) >= 8 && id[:8] == "unknown_"
}

func rawString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func rawDecimal(m map[string]any, key string) decimal.Decimal {
	v, ok := m[key]
	if !ok {
		return decimal.Zero
	}
	switch t := v.(type) {
	case decimal.Decimal:
		return t
	case float64:
		return decimal.NewFromFloat(t)
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
