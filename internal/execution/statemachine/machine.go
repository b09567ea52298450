package statemachine

import (
	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// ProcessOrderUpdate advances pos according to the event and returns the
// follow-up ManagementActions the caller must execute, in order, before the
// next event (spec.md §4.5.6). pos is mutated in place.
func ProcessOrderUpdate(pos *domain.ManagedPosition, ev Event, atr decimal.Decimal, cfg Config) []ManagementAction {
	// Absolute-priority rule: if price has crossed the original stop, close
	// immediately regardless of what state we're in — this protects against
	// stop-order ghosting.
	if ev.Kind == EventMarkPriceTick && crossedInitialStop(pos, ev.MarkPrice) {
		return []ManagementAction{{Kind: ActionClosePosition, Symbol: pos.Symbol, Reason: "mark price crossed initial stop"}}
	}

	switch ev.Kind {
	case EventEntryFilled:
		return onEntryFilled(pos, ev, cfg)
	case EventTP1Filled:
		return onTP1Filled(pos, ev, atr, cfg)
	case EventTP2Filled:
		return onTP2Filled(pos, ev)
	case EventSLFilled:
		pos.ExitFills = append(pos.ExitFills, ev.Fill)
		pos.State = domain.StateClosed
		return nil
	case EventMarkPriceTick:
		return onMarkPriceTick(pos, ev, atr, cfg)
	case EventPremiseInvalidated:
		return []ManagementAction{{Kind: ActionClosePosition, Symbol: pos.Symbol, Reason: "premise invalidated"}}
	default:
		return nil
	}
}

func crossedInitialStop(pos *domain.ManagedPosition, mark decimal.Decimal) bool {
	if pos.InitialStopPrice.IsZero() || pos.State == domain.StateClosed || pos.State == domain.StateCancelled {
		return false
	}
	if pos.Side == domain.SideBuy {
		return mark.LessThanOrEqual(pos.InitialStopPrice)
	}
	return mark.GreaterThanOrEqual(pos.InitialStopPrice)
}

func onEntryFilled(pos *domain.ManagedPosition, ev Event, cfg Config) []ManagementAction {
	pos.EntryFills = append(pos.EntryFills, ev.Fill)
	pos.EntryAcknowledged = true
	pos.FreezeSnapshotIfNeeded(cfg.TP1SplitPct, cfg.TP1SplitPct.Add(cfg.TP2SplitPct))
	pos.State = domain.StateOpen

	actions := []ManagementAction{
		{Kind: ActionPlaceStop, Symbol: pos.Symbol, Price: pos.InitialStopPrice, Reason: "invariant K: entry fill requires a stop"},
		{Kind: ActionPlaceTP1, Symbol: pos.Symbol, Price: pos.InitialTP1Price},
		{Kind: ActionPlaceTP2, Symbol: pos.Symbol, Price: pos.InitialTP2Price},
	}
	if cfg.TPMode == TPModeFixedTP3 {
		actions = append(actions, ManagementAction{Kind: ActionPlaceTP3, Symbol: pos.Symbol, Price: pos.FinalTargetPrice})
	}
	return actions
}

func onTP1Filled(pos *domain.ManagedPosition, ev Event, atr decimal.Decimal, cfg Config) []ManagementAction {
	pos.ExitFills = append(pos.ExitFills, ev.Fill)
	pos.TP1Filled = true
	pos.State = domain.StatePartial

	var actions []ManagementAction

	breakEven := breakEvenPrice(pos, cfg)
	if isTighteningMove(pos, breakEven) {
		actions = append(actions, ManagementAction{Kind: ActionUpdateStop, Symbol: pos.Symbol, Price: breakEven, Reason: "break-even after TP1"})
		pos.InitialStopPrice = breakEven
		pos.BreakEvenActive = true
	}

	if !pos.TrailingActive && atr.GreaterThanOrEqual(cfg.TrailingActivationATRMin) {
		actions = append(actions, ManagementAction{Kind: ActionActivateTrailing, Symbol: pos.Symbol})
		pos.TrailingActive = true
	}
	return actions
}

func onTP2Filled(pos *domain.ManagedPosition, ev Event) []ManagementAction {
	pos.ExitFills = append(pos.ExitFills, ev.Fill)
	pos.TP2Filled = true
	if pos.RemainingSize().LessThanOrEqual(decimal.Zero) {
		pos.State = domain.StateClosed
	} else {
		pos.State = domain.StatePartial
	}
	return nil
}

// breakEvenPrice is entry +/- a small tick offset, in the position's favor.
func breakEvenPrice(pos *domain.ManagedPosition, cfg Config) decimal.Decimal {
	offset := cfg.BreakEvenOffsetTicks
	if pos.Side == domain.SideBuy {
		return pos.InitialEntryPrice.Add(offset)
	}
	return pos.InitialEntryPrice.Sub(offset)
}

// isTighteningMove enforces invariant I4: a stop update is only ever
// applied if it moves the stop closer to the current market in the
// position's favor, never loosens it.
func isTighteningMove(pos *domain.ManagedPosition, candidate decimal.Decimal) bool {
	if pos.Side == domain.SideBuy {
		return candidate.GreaterThan(pos.InitialStopPrice)
	}
	return candidate.LessThan(pos.InitialStopPrice)
}

func onMarkPriceTick(pos *domain.ManagedPosition, ev Event, atr decimal.Decimal, cfg Config) []ManagementAction {
	if !pos.TrailingActive || atr.IsZero() {
		return nil
	}
	if atr.LessThan(cfg.TrailingActivationATRMin) {
		return nil
	}

	var candidate decimal.Decimal
	distance := atr.Mul(cfg.TrailingATRMultiplier)
	if pos.Side == domain.SideBuy {
		candidate = ev.MarkPrice.Sub(distance)
	} else {
		candidate = ev.MarkPrice.Add(distance)
	}

	if !isTighteningMove(pos, candidate) {
		return nil
	}
	moveSize := candidate.Sub(pos.InitialStopPrice).Abs().Div(pos.InitialEntryPrice)
	if moveSize.LessThan(cfg.TrailingMinTickThreshold) {
		return nil // too small a move to bother updating, avoid spam
	}

	pos.InitialStopPrice = candidate
	return []ManagementAction{{Kind: ActionUpdateStop, Symbol: pos.Symbol, Price: candidate, Reason: "trailing stop"}}
}
