package domain

import "github.com/shopspring/decimal"

// LeverageMode describes how a venue lets a position's leverage be set.
type LeverageMode string

const (
	LeverageFlexible LeverageMode = "flexible"
	LeverageFixed    LeverageMode = "fixed"
	LeverageUnknown  LeverageMode = "unknown"
)

// InstrumentSpec is the per-contract trading rule set, loaded from the
// exchange at startup and cached to disk (spec.md §4.5.1).
type InstrumentSpec struct {
	SymbolRaw         string
	SymbolCCXT        string
	Base              string
	Quote             string
	ContractSize      decimal.Decimal
	MinSize           decimal.Decimal
	SizeStep          decimal.Decimal
	SizeStepSource    string
	PriceTick         *decimal.Decimal
	MaxLeverage       decimal.Decimal
	LeverageMode      LeverageMode
	AllowedLeverages  []decimal.Decimal
	SupportsReduceOnly bool
}
