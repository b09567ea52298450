package execution

import (
	"strings"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/symbols"
)

// stablecoinAndFiatBases is the global exclusion list applied on top of any
// configured symbol blocklist (spec.md §4.5.4).
var stablecoinAndFiatBases = map[string]bool{
	"USDT": true, "USDC": true, "DAI": true, "BUSD": true, "TUSD": true,
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
}

// Blocklist decides whether a normalized base is excluded from new entries.
type Blocklist struct {
	ConfiguredBases map[string]bool
}

func (b Blocklist) IsBlocked(symbol string) bool {
	base := symbols.Normalize(symbol)
	if stablecoinAndFiatBases[base] {
		return true
	}
	return b.ConfiguredBases[base]
}

// PendingOrderLookup lets the pyramiding guard see in-flight entry orders
// without the execution package depending on the state machine package.
type PendingOrderLookup interface {
	HasPendingEntry(normalizedSymbol string, side domain.Side) bool
}

// CheckPyramiding refuses a new entry if any open position or pending entry
// order already exists for the same normalized symbol and side (spec.md
// §4.5.4). staleCleanup is invoked first so local-only pending orders the
// exchange no longer has don't cause a false refusal.
func CheckPyramiding(symbol string, side domain.Side, openPositions []domain.ManagedPosition, pending PendingOrderLookup, staleCleanup func()) error {
	if staleCleanup != nil {
		staleCleanup()
	}
	base := symbols.Normalize(symbol)
	for _, p := range openPositions {
		if symbols.Normalize(p.Symbol) == base && p.Side == side {
			return domain.ErrPyramiding
		}
	}
	if pending != nil && pending.HasPendingEntry(base, side) {
		return domain.ErrPyramiding
	}
	return nil
}

func normalizedEquals(a, b string) bool {
	return strings.EqualFold(symbols.Normalize(a), symbols.Normalize(b))
}
