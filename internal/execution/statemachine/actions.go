// Package statemachine implements the position lifecycle of spec.md §4.5.6:
// PENDING -> OPEN -> PROTECTED -> PARTIAL -> CLOSED/CANCELLED, plus the
// follow-up ManagementAction emission contract processed by the caller in
// the same cycle, in order. The OPEN -> PROTECTED step is made by
// execution.SubmitProtectiveOrders once the stop is placed; no event handled
// here moves a position to CANCELLED.
package statemachine

import (
	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// ActionKind enumerates the follow-up actions process_order_update can emit.
type ActionKind string

const (
	ActionPlaceStop       ActionKind = "PLACE_STOP"
	ActionPlaceTP1        ActionKind = "PLACE_TP1"
	ActionPlaceTP2        ActionKind = "PLACE_TP2"
	ActionPlaceTP3        ActionKind = "PLACE_TP3"
	ActionUpdateStop      ActionKind = "UPDATE_STOP"
	ActionActivateTrailing ActionKind = "ACTIVATE_TRAILING"
	ActionClosePosition   ActionKind = "CLOSE_POSITION"
)

// ManagementAction is one follow-up step the caller must execute, in
// emission order, before the next order event is processed.
type ManagementAction struct {
	Kind   ActionKind
	Symbol string
	Price  decimal.Decimal // target/stop price, when applicable
	Reason string
}

// EventKind enumerates the order/price events the state machine reacts to.
type EventKind string

const (
	EventEntryFilled        EventKind = "ENTRY_FILLED"
	EventTP1Filled          EventKind = "TP1_FILLED"
	EventTP2Filled          EventKind = "TP2_FILLED"
	EventSLFilled           EventKind = "SL_FILLED"
	EventMarkPriceTick      EventKind = "MARK_PRICE_TICK"
	EventPremiseInvalidated EventKind = "PREMISE_INVALIDATED"
)

// Event is one input to ProcessOrderUpdate.
type Event struct {
	Kind      EventKind
	Fill      domain.FillRecord // set for *_FILLED events
	MarkPrice decimal.Decimal   // set for MARK_PRICE_TICK
}
