package symbols

import "testing"

func TestNormalize_CollapsesVenuePrefixes(t *testing.T) {
	cases := map[string]string{
		"PF_ETHUSD":   "ETH",
		"PI_ETHUSD":   "ETH",
		"FI_ETHUSD":   "ETH",
		"ETH/USD:USD": "ETH",
		"ETH-USD":     "ETH",
		"ETHUSD":      "ETH",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_AliasesXBTToBTC(t *testing.T) {
	cases := []string{"PF_XBTUSD", "XBT/USD:USD", "XBT-USD"}
	for _, in := range cases {
		if got := Normalize(in); got != "BTC" {
			t.Errorf("Normalize(%q) = %q, want BTC", in, got)
		}
	}
}

func TestPreferredSymbol_PrefersDiscoveryOverrideWhenPresentInTickers(t *testing.T) {
	tickers := map[string]struct{}{"WEIRD-SYMBOL": {}}
	got := PreferredSymbol("ETH", tickers, "WEIRD-SYMBOL")
	if got != "WEIRD-SYMBOL" {
		t.Fatalf("expected discovery override to win, got %q", got)
	}
}

func TestPreferredSymbol_FallsBackToCCXTUnifiedThenPrefixes(t *testing.T) {
	tickers := map[string]struct{}{"ETH/USD:USD": {}}
	if got := PreferredSymbol("ETH", tickers, ""); got != "ETH/USD:USD" {
		t.Fatalf("expected CCXT unified form, got %q", got)
	}

	tickers = map[string]struct{}{"PI_ETHUSD": {}}
	if got := PreferredSymbol("ETH", tickers, ""); got != "PI_ETHUSD" {
		t.Fatalf("expected PI_ prefix fallback, got %q", got)
	}
}

func TestPreferredSymbol_BTCUsesXBTOnFutures(t *testing.T) {
	tickers := map[string]struct{}{"PF_XBTUSD": {}}
	if got := PreferredSymbol("BTC", tickers, ""); got != "PF_XBTUSD" {
		t.Fatalf("expected BTC to resolve to the XBT futures spelling, got %q", got)
	}
}
