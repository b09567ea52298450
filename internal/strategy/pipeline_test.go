package strategy

import (
	"testing"
	"time"

	"github.com/ridgecove/futurescore/internal/domain"
)

func TestAnalyze_DeterministicOnIdenticalInputs(t *testing.T) {
	cfg := DefaultConfig()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	daily := risingDailyCandles("BTC-USD", 220, start)
	hourly := flatCandles("BTC-USD", domain.TF1h, 60, start, time.Hour, 200)

	in := Inputs{Symbol: "BTC-USD", Daily: daily, Hourly: hourly, CostEstimateBps: d(4)}

	first := Analyze(Inputs{
		Symbol:          in.Symbol,
		Daily:           cloneCandles(in.Daily),
		Hourly:          cloneCandles(in.Hourly),
		CostEstimateBps: in.CostEstimateBps,
	}, cfg)

	second := Analyze(Inputs{
		Symbol:          in.Symbol,
		Daily:           cloneCandles(in.Daily),
		Hourly:          cloneCandles(in.Hourly),
		CostEstimateBps: in.CostEstimateBps,
	}, cfg)

	if first.Type != second.Type {
		t.Fatalf("non-deterministic Type: %v vs %v", first.Type, second.Type)
	}
	if first.Reasoning != second.Reasoning {
		t.Fatalf("non-deterministic Reasoning:\n%q\nvs\n%q", first.Reasoning, second.Reasoning)
	}
	if !first.Score.Equal(second.Score) {
		t.Fatalf("non-deterministic Score: %s vs %s", first.Score, second.Score)
	}
	if !first.EntryPrice.Equal(second.EntryPrice) {
		t.Fatalf("non-deterministic EntryPrice: %s vs %s", first.EntryPrice, second.EntryPrice)
	}
}

func TestAnalyze_NoCrossSymbolLeak(t *testing.T) {
	cfg := DefaultConfig()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	btcDaily := risingDailyCandles("BTC-USD", 220, start)
	btcHourly := flatCandles("BTC-USD", domain.TF1h, 60, start, time.Hour, 200)
	ethDaily := risingDailyCandles("ETH-USD", 220, start)
	ethHourly := flatCandles("ETH-USD", domain.TF1h, 60, start, time.Hour, 50)

	btcIn := Inputs{Symbol: "BTC-USD", Daily: btcDaily, Hourly: btcHourly, CostEstimateBps: d(4)}
	ethIn := Inputs{Symbol: "ETH-USD", Daily: ethDaily, Hourly: ethHourly, CostEstimateBps: d(4)}

	alone := Analyze(btcIn, cfg)

	// Interleave a call for a different symbol in between and confirm the
	// BTC result is unaffected.
	_ = Analyze(ethIn, cfg)
	afterInterleave := Analyze(btcIn, cfg)

	if alone.Type != afterInterleave.Type || alone.Reasoning != afterInterleave.Reasoning {
		t.Fatalf("signal for one symbol changed after analyzing another symbol in between: %+v vs %+v", alone, afterInterleave)
	}
	if afterInterleave.Symbol != "BTC-USD" {
		t.Fatalf("result carries wrong symbol: %s", afterInterleave.Symbol)
	}
}

func TestAnalyze_InsufficientDailyHistoryYieldsNoSignal(t *testing.T) {
	cfg := DefaultConfig()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	daily := risingDailyCandles("BTC-USD", 50, start) // < 200
	hourly := flatCandles("BTC-USD", domain.TF1h, 60, start, time.Hour, 200)

	out := Analyze(Inputs{Symbol: "BTC-USD", Daily: daily, Hourly: hourly, CostEstimateBps: d(4)}, cfg)

	if out.Type != domain.NoSignal {
		t.Fatalf("expected NO_SIGNAL with insufficient daily history, got %v", out.Type)
	}
}

func TestAnalyze_FlatMarketYieldsNoSignal(t *testing.T) {
	// A perfectly flat hourly series has no displacement, no FVG, and no
	// new high/low, so no structural setup is ever found.
	cfg := DefaultConfig()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	daily := risingDailyCandles("BTC-USD", 220, start)
	hourly := flatCandles("BTC-USD", domain.TF1h, 60, start, time.Hour, 200)

	out := Analyze(Inputs{Symbol: "BTC-USD", Daily: daily, Hourly: hourly, CostEstimateBps: d(4)}, cfg)

	if out.Type != domain.NoSignal {
		t.Fatalf("expected NO_SIGNAL on flat market, got %v with reasoning %q", out.Type, out.Reasoning)
	}
}
