// Package ports declares the external interfaces the core consumes: the
// exchange client and the persistence layer. Both are interface-only here;
// concrete implementations live under internal/adapters (spec.md §6).
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// OrderSide is buy or sell at the exchange-client boundary.
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// OrderType is the exchange-client order type vocabulary.
type OrderType string

const (
	OrderMarket     OrderType = "mkt"
	OrderLimit      OrderType = "lmt"
	OrderStop       OrderType = "stp"
	OrderTakeProfit OrderType = "take_profit"
)

// RawOrder and RawPosition are dynamic key/value bags: the adapter contract
// specifies only the field names the core reads (spec.md §6), not a fixed
// schema, since every venue names things slightly differently.
type RawOrder map[string]any
type RawPosition map[string]any
type RawSpec map[string]any

// PlaceOrderParams bundles everything place_futures_order needs.
type PlaceOrderParams struct {
	Symbol         string
	Side           OrderSide
	Type           OrderType
	SizeContracts  decimal.Decimal
	Price          *decimal.Decimal
	StopPrice      *decimal.Decimal
	ReduceOnly     bool
	Leverage       *decimal.Decimal
	ClientOrderID  string
}

// Exchange is the adapter contract the core expects, per spec.md §6.
type Exchange interface {
	GetOHLCV(ctx context.Context, symbol, timeframe string, since *time.Time, limit int) ([]domain.Candle, error)
	GetFuturesTickersBulk(ctx context.Context) (map[string]decimal.Decimal, error)
	GetFuturesInstruments(ctx context.Context) ([]RawSpec, error)
	GetAllFuturesPositions(ctx context.Context) ([]RawPosition, error)
	GetFuturesOpenOrders(ctx context.Context) ([]RawOrder, error)
	GetFuturesBalance(ctx context.Context) (map[string]decimal.Decimal, error)

	PlaceFuturesOrder(ctx context.Context, params PlaceOrderParams) (RawOrder, error)
	CancelFuturesOrder(ctx context.Context, id, symbol string) error
	EditFuturesOrder(ctx context.Context, id, symbol string, stopPrice, price *decimal.Decimal) error
	ClosePosition(ctx context.Context, symbol string) error
}
