package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

func TestComputeLevels_BullishUsesTightMultiplierForSMCRegime(t *testing.T) {
	cfg := DefaultConfig()
	setup := Setup{Type: domain.SetupOB, ZoneLo: d(99), ZoneHi: d(100), Bullish: true, Found: true}
	atr := d(2)

	levels := computeLevels(setup, domain.RegimeTightSMC, atr, nil, nil, cfg)

	wantStop := setup.ZoneLo.Sub(atr.Mul(cfg.StopATRMultiplierTight))
	if !levels.Stop.Equal(wantStop) {
		t.Fatalf("expected stop %s, got %s", wantStop, levels.Stop)
	}
	if !levels.Entry.Equal(setup.ZoneHi) {
		t.Fatalf("expected entry at zone high %s, got %s", setup.ZoneHi, levels.Entry)
	}
	if levels.TakeProfit.LessThanOrEqual(levels.Entry) {
		t.Fatalf("expected a bullish take-profit above entry, got tp=%s entry=%s", levels.TakeProfit, levels.Entry)
	}
}

func TestComputeLevels_WideRegimeUsesWiderMultiplier(t *testing.T) {
	cfg := DefaultConfig()
	setup := Setup{Type: domain.SetupBOS, ZoneLo: d(99), ZoneHi: d(100), Bullish: true, Found: true}
	atr := d(2)

	tight := computeLevels(setup, domain.RegimeTightSMC, atr, nil, nil, cfg)
	wide := computeLevels(setup, domain.RegimeWideStructure, atr, nil, nil, cfg)

	tightRisk := tight.Entry.Sub(tight.Stop).Abs()
	wideRisk := wide.Entry.Sub(wide.Stop).Abs()
	if !wideRisk.GreaterThan(tightRisk) {
		t.Fatalf("expected wide_structure stop distance to exceed tight_smc, got wide=%s tight=%s", wideRisk, tightRisk)
	}
}

func TestStructuralTPCandidates_FiltersAndSortsInDirection(t *testing.T) {
	entry := d(100)
	highs := []decimal.Decimal{d(105), d(95), d(110), d(102)}
	out := structuralTPCandidates(entry, true, highs, nil, 10)
	// Only levels > entry survive, ascending.
	want := []decimal.Decimal{d(102), d(105), d(110)}
	if len(out) != len(want) {
		t.Fatalf("expected %d candidates, got %d (%v)", len(want), len(out), out)
	}
	for i := range want {
		if !out[i].Equal(want[i]) {
			t.Fatalf("candidate[%d] = %s, want %s", i, out[i], want[i])
		}
	}
}

func TestDedupeAndBound_RemovesDuplicatesAndRespectsCap(t *testing.T) {
	in := []decimal.Decimal{d(101), d(101), d(102), d(103), d(104), d(105)}
	out := dedupeAndBound(in, true, d(100), 3)
	if len(out) != 3 {
		t.Fatalf("expected cap of 3, got %d: %v", len(out), out)
	}
	if !out[0].Equal(d(101)) {
		t.Fatalf("expected ascending order starting at 101, got %v", out)
	}
}

func TestSwingPoints_DetectsThreeCandleFractals(t *testing.T) {
	candles := []domain.Candle{
		candle(fixedTime(0), 100, 101, 99, 100),
		candle(fixedTime(1), 100, 105, 99.5, 104), // local high
		candle(fixedTime(2), 104, 104.5, 100, 101),
		candle(fixedTime(3), 101, 102, 96, 97), // local low
		candle(fixedTime(4), 97, 99, 96.5, 98),
	}
	highs, lows := swingPoints(candles)
	if len(highs) != 1 || !highs[0].Equal(d(105)) {
		t.Fatalf("expected one swing high at 105, got %v", highs)
	}
	if len(lows) != 1 || !lows[0].Equal(d(96)) {
		t.Fatalf("expected one swing low at 96, got %v", lows)
	}
}
