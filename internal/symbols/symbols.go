// Package symbols normalizes the many venue-specific symbol spellings to a
// single base-token form so per-symbol caps and lookups work across spot
// and futures venues (spec.md §4.4, §6).
package symbols

import "strings"

// btcBase is the spot base token for bitcoin and xbtBase its futures-venue
// spelling where the venue uses the legacy XBT ticker.
const (
	btcBase = "BTC"
	xbtBase = "XBT"
)

// Normalize collapses PF_/PI_/FI_ prefixes and the CCXT unified
// "BASE/USD:USD" form down to a bare base token, and aliases XBT to BTC so
// both spellings collapse to the same cap bucket.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))

	for _, prefix := range []string{"PF_", "PI_", "FI_"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			s = strings.TrimSuffix(s, "USD")
			return canonicalBase(s)
		}
	}

	if idx := strings.Index(s, "/"); idx >= 0 {
		base := s[:idx]
		return canonicalBase(base)
	}

	s = strings.TrimSuffix(s, "-USD")
	s = strings.TrimSuffix(s, "USD")
	return canonicalBase(s)
}

func canonicalBase(base string) string {
	if base == xbtBase {
		return btcBase
	}
	return base
}

// PreferredSymbol chooses the order to try spot<->futures mapping in: a
// discovery override if present in tickers, else CCXT unified form, else
// the PF_/PI_/FI_ prefixed spellings in that order (spec.md §6).
func PreferredSymbol(base string, tickers map[string]struct{}, discoveryOverride string) string {
	if discoveryOverride != "" {
		if _, ok := tickers[discoveryOverride]; ok {
			return discoveryOverride
		}
	}
	futuresBase := base
	if base == btcBase {
		futuresBase = xbtBase
	}

	unified := base + "/USD:USD"
	if _, ok := tickers[unified]; ok {
		return unified
	}
	for _, prefix := range []string{"PF_", "PI_", "FI_"} {
		candidate := prefix + futuresBase + "USD"
		if _, ok := tickers[candidate]; ok {
			return candidate
		}
	}
	return "PF_" + futuresBase + "USD"
}
