package execution

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/money"
)

// ComputeSizeContracts converts a USD notional to a contract count rounded
// down to the instrument's size step (spec.md §4.5.2).
func ComputeSizeContracts(spec domain.InstrumentSpec, notional, price decimal.Decimal) (decimal.Decimal, error) {
	if price.IsZero() || spec.ContractSize.IsZero() {
		return decimal.Zero, domain.ErrSizeStepRoundToZero
	}
	raw := notional.Div(price.Mul(spec.ContractSize))
	rounded := money.RoundDownToStep(raw, spec.SizeStep)
	if rounded.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrSizeStepRoundToZero
	}
	if rounded.LessThan(spec.MinSize) {
		return decimal.Zero, domain.ErrSizeBelowMin
	}
	return rounded, nil
}

// ResolveLeverage picks the effective leverage per the instrument's
// leverage mode (spec.md §4.5.2). A nil return means "do not send
// leverage" — let the venue use its account default.
func ResolveLeverage(spec domain.InstrumentSpec, requested decimal.Decimal) *decimal.Decimal {
	switch spec.LeverageMode {
	case domain.LeverageFlexible:
		clamped := money.Clamp(requested, decimal.NewFromInt(1), spec.MaxLeverage)
		return &clamped
	case domain.LeverageFixed:
		if len(spec.AllowedLeverages) == 0 {
			return &spec.MaxLeverage
		}
		sorted := append([]decimal.Decimal(nil), spec.AllowedLeverages...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
		for _, lev := range sorted {
			if lev.GreaterThanOrEqual(requested) {
				return &lev
			}
		}
		max := sorted[len(sorted)-1]
		return &max
	default:
		return nil
	}
}

// EnsureSizeStepAligned re-validates a contract count against the size step
// immediately before placement (spec.md §4.5.2): entries round down (never
// increase exposure), reduce-only orders round up (may need to fully
// close).
func EnsureSizeStepAligned(spec domain.InstrumentSpec, contracts decimal.Decimal, reduceOnly bool) (decimal.Decimal, error) {
	var rounded decimal.Decimal
	if reduceOnly {
		rounded = money.RoundUpToStep(contracts, spec.SizeStep)
	} else {
		rounded = money.RoundDownToStep(contracts, spec.SizeStep)
	}
	if rounded.LessThan(spec.MinSize) {
		return decimal.Zero, domain.ErrSizeStepMisaligned
	}
	return rounded, nil
}
