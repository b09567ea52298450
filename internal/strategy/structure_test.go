package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

func candle(ts time.Time, open, high, low, close float64) domain.Candle {
	return domain.Candle{
		Timestamp: ts,
		Symbol:    "TEST-USD",
		Timeframe: domain.TF1h,
		Open:      d(open),
		High:      d(high),
		Low:       d(low),
		Close:     d(close),
		Volume:    d(100),
	}
}

func TestDetectOrderBlock_FindsBearishOBBeforeBullishImpulse(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var candles []domain.Candle
	// 20 quiet candles with a ~1-wide range to establish the median.
	for i := 0; i < 20; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		candles = append(candles, candle(ts, 100, 100.5, 99.5, 100))
	}
	// The OB candle: bearish (close < open).
	obTS := start.Add(20 * time.Hour)
	candles = append(candles, candle(obTS, 100, 100.2, 99, 99.2))
	// The displacement impulse: large bullish range, >= 1.5x median(~1).
	impulseTS := start.Add(21 * time.Hour)
	candles = append(candles, candle(impulseTS, 99.2, 105, 99, 105))

	setup := detectOrderBlock(candles, decimal.NewFromFloat(1.5), 20)
	if !setup.Found {
		t.Fatalf("expected an order block to be found")
	}
	if setup.Type != domain.SetupOB {
		t.Fatalf("expected SetupOB, got %v", setup.Type)
	}
	if !setup.Bullish {
		t.Fatalf("expected bullish order block ahead of a bullish impulse")
	}
	if !setup.ZoneLo.Equal(d(99)) || !setup.ZoneHi.Equal(d(100.2)) {
		t.Fatalf("expected zone [99, 100.2], got [%s, %s]", setup.ZoneLo, setup.ZoneHi)
	}
}

func TestDetectOrderBlock_NoImpulseMeansNotFound(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var candles []domain.Candle
	for i := 0; i < 25; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		candles = append(candles, candle(ts, 100, 100.5, 99.5, 100))
	}
	setup := detectOrderBlock(candles, decimal.NewFromFloat(1.5), 20)
	if setup.Found {
		t.Fatalf("expected no order block in a flat series, got %+v", setup)
	}
}

func TestDetectFVG_FindsUnmitigatedBullishGap(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c1 := candle(start, 100, 101, 99, 100.5)
	c2 := candle(start.Add(time.Hour), 100.5, 105, 100.4, 104)
	// c3's low (102) is above c1's high (101): a bullish gap [101, 102].
	c3 := candle(start.Add(2*time.Hour), 104, 106, 102, 105)
	candles := []domain.Candle{c1, c2, c3}

	setup := detectFVG(candles)
	if !setup.Found {
		t.Fatalf("expected a fair value gap to be found")
	}
	if !setup.Bullish {
		t.Fatalf("expected bullish gap")
	}
	if !setup.ZoneLo.Equal(d(101)) || !setup.ZoneHi.Equal(d(102)) {
		t.Fatalf("expected zone [101, 102], got [%s, %s]", setup.ZoneLo, setup.ZoneHi)
	}
}

func TestDetectFVG_MitigatedGapIsSkipped(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c1 := candle(start, 100, 101, 99, 100.5)
	c2 := candle(start.Add(time.Hour), 100.5, 105, 100.4, 104)
	c3 := candle(start.Add(2*time.Hour), 104, 106, 102, 105)
	// c4 wicks back down into the gap zone [101,102], mitigating it.
	c4 := candle(start.Add(3*time.Hour), 105, 105.5, 100.5, 103)
	candles := []domain.Candle{c1, c2, c3, c4}

	setup := detectFVG(candles)
	if setup.Found {
		t.Fatalf("expected the mitigated gap not to be reported, got %+v", setup)
	}
}

func TestDetectBOS_BullishBreakOfPriorHigh(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var candles []domain.Candle
	for i := 0; i < 10; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		candles = append(candles, candle(ts, 100, 101, 99, 100))
	}
	for i := 10; i < 15; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		candles = append(candles, candle(ts, 100, 110, 99, 105))
	}
	setup := detectBOS(candles, 5)
	if !setup.Found || !setup.Bullish {
		t.Fatalf("expected a bullish BOS, got %+v", setup)
	}
}

func TestSelectSetup_PrefersOrderBlockOverOthers(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var candles []domain.Candle
	for i := 0; i < 20; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		candles = append(candles, candle(ts, 100, 100.5, 99.5, 100))
	}
	candles = append(candles, candle(start.Add(20*time.Hour), 100, 100.2, 99, 99.2))
	candles = append(candles, candle(start.Add(21*time.Hour), 99.2, 105, 99, 105))

	cfg := DefaultConfig()
	setup := selectSetup(cfg, candles)
	if setup.Type != domain.SetupOB {
		t.Fatalf("expected OB to win priority, got %v", setup.Type)
	}
}

func TestRegimeOf(t *testing.T) {
	if RegimeOf(domain.SetupOB) != domain.RegimeTightSMC {
		t.Fatalf("expected OB to map to tight_smc")
	}
	if RegimeOf(domain.SetupFVG) != domain.RegimeTightSMC {
		t.Fatalf("expected FVG to map to tight_smc")
	}
	if RegimeOf(domain.SetupBOS) != domain.RegimeWideStructure {
		t.Fatalf("expected BOS to map to wide_structure")
	}
}
