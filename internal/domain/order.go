package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order or position.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the reduce-only closing side for a position side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType is the exchange order type.
type OrderType string

const (
	OrderMarket     OrderType = "MARKET"
	OrderLimit      OrderType = "LIMIT"
	OrderStopLoss   OrderType = "STOP_LOSS"
	OrderTakeProfit OrderType = "TAKE_PROFIT"
)

// OrderStatus is the lifecycle status of a submitted order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderSubmitted OrderStatus = "SUBMITTED"
	OrderFilled    OrderStatus = "FILLED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRejected  OrderStatus = "REJECTED"
)

// OrderIntent is a pre-conversion trade proposal produced by the risk gate /
// price converter, still expressed in spot terms where applicable.
type OrderIntent struct {
	Signal        Signal
	Side          Side
	SizeNotional  decimal.Decimal
	Leverage      decimal.Decimal
	SpotEntry     decimal.Decimal
	SpotStop      decimal.Decimal
	SpotTP        decimal.Decimal
	FuturesEntry  *decimal.Decimal
	FuturesStop   *decimal.Decimal
	FuturesTP     *decimal.Decimal
}

// Order is the authoritative record of a submitted exchange order.
type Order struct {
	OrderID        string
	ClientOrderID  string
	Timestamp      time.Time
	Symbol         string
	Side           Side
	Type           OrderType
	Size           decimal.Decimal // contracts
	Price          *decimal.Decimal
	Status         OrderStatus
	FilledSize     decimal.Decimal
	FilledPrice    *decimal.Decimal
	FilledAt       *time.Time
	ParentOrderID  string
	ReduceOnly     bool
}

// IsTerminal reports whether the order can no longer transition.
func (o Order) IsTerminal() bool {
	return o.Status == OrderFilled || o.Status == OrderCancelled || o.Status == OrderRejected
}
