package candlestore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

func c(ts time.Time, symbol string, tf domain.Timeframe, price float64) domain.Candle {
	p := decimal.NewFromFloat(price)
	return domain.Candle{
		Timestamp: ts,
		Symbol:    symbol,
		Timeframe: tf,
		Open:      p,
		High:      p.Add(decimal.NewFromInt(1)),
		Low:       p.Sub(decimal.NewFromInt(1)),
		Close:     p,
		Volume:    decimal.NewFromInt(10),
	}
}

func TestStore_MergeReplacesDuplicateTimestamp(t *testing.T) {
	s := New()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := s.Merge("BTC-USD", domain.TF1h, []domain.Candle{c(start, "BTC-USD", domain.TF1h, 100)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Merge("BTC-USD", domain.TF1h, []domain.Candle{c(start, "BTC-USD", domain.TF1h, 150)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := s.Get("BTC-USD", domain.TF1h, 10)
	if len(out) != 1 {
		t.Fatalf("expected one candle after replacing duplicate timestamp, got %d", len(out))
	}
	if !out[0].Close.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected replaced close of 150, got %s", out[0].Close)
	}
}

func TestStore_OutOfOrderOlderCandleIgnored(t *testing.T) {
	s := New()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := start.Add(time.Hour)
	older := start.Add(-time.Hour)

	if err := s.Merge("BTC-USD", domain.TF1h, []domain.Candle{c(newer, "BTC-USD", domain.TF1h, 100)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Merge("BTC-USD", domain.TF1h, []domain.Candle{c(older, "BTC-USD", domain.TF1h, 50)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := s.Get("BTC-USD", domain.TF1h, 10)
	if len(out) != 1 {
		t.Fatalf("expected the out-of-order older candle to be ignored, got %d entries", len(out))
	}
}

func TestStore_BoundedToMaxEntries(t *testing.T) {
	s := New()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var batch []domain.Candle
	for i := 0; i < maxEntries+50; i++ {
		batch = append(batch, c(start.Add(time.Duration(i)*time.Hour), "BTC-USD", domain.TF1h, float64(100+i)))
	}
	if err := s.Merge("BTC-USD", domain.TF1h, batch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := s.Get("BTC-USD", domain.TF1h, 10000)
	if len(out) != maxEntries {
		t.Fatalf("expected ring bounded to %d entries, got %d", maxEntries, len(out))
	}
	// The retained window should be the most recent maxEntries candles.
	if !out[len(out)-1].Close.Equal(decimal.NewFromInt(int64(100 + len(batch) - 1))) {
		t.Fatalf("expected the newest candle to survive truncation")
	}
}

func TestStore_InvalidCandleRejected(t *testing.T) {
	s := New()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bad := c(start, "BTC-USD", domain.TF1h, 100)
	bad.High = decimal.NewFromInt(50) // high below low: invalid

	if err := s.Merge("BTC-USD", domain.TF1h, []domain.Candle{bad}); err == nil {
		t.Fatalf("expected an error for an invalid candle")
	}
}

func TestStore_FreshnessContract(t *testing.T) {
	s := New()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Merge("BTC-USD", domain.TF15m, []domain.Candle{c(now.Add(-10 * time.Minute), "BTC-USD", domain.TF15m, 100)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Fresh("BTC-USD", domain.TF15m, now) {
		t.Fatalf("expected 15m candle 10 minutes old to be fresh")
	}

	if err := s.Merge("ETH-USD", domain.TF15m, []domain.Candle{c(now.Add(-45 * time.Minute), "ETH-USD", domain.TF15m, 100)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Fresh("ETH-USD", domain.TF15m, now) {
		t.Fatalf("expected 15m candle 45 minutes old to be stale")
	}

	if s.Fresh("NOPE-USD", domain.TF15m, now) {
		t.Fatalf("expected a symbol with no data to be reported as not fresh")
	}
}
