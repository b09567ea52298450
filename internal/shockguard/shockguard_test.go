package shockguard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dd(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestEvaluate_DisabledGuardNeverTriggers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	g := New(cfg)
	now := time.Now()

	g.Evaluate(map[string]decimal.Decimal{"BTC": dd(100)}, nil, now)
	if g.Evaluate(map[string]decimal.Decimal{"BTC": dd(200)}, nil, now.Add(50*time.Second)) {
		t.Fatalf("expected a disabled guard to never trigger")
	}
}

func TestEvaluate_1MinuteMoveBeyondThresholdTriggersShockMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	g := New(cfg)
	now := time.Now()

	g.Evaluate(map[string]decimal.Decimal{"BTC": dd(100)}, nil, now)
	triggered := g.Evaluate(map[string]decimal.Decimal{"BTC": dd(104)}, nil, now.Add(50*time.Second))
	if !triggered {
		t.Fatalf("expected a 4%% move past the 2.5%% threshold to trigger shock mode")
	}
	if !g.Active() {
		t.Fatalf("expected shock mode active after trigger")
	}
}

func TestEvaluate_MoveBelowMinSnapshotAgeIsIgnored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	g := New(cfg)
	now := time.Now()

	g.Evaluate(map[string]decimal.Decimal{"BTC": dd(100)}, nil, now)
	// only 10s old: below the 45s minimum snapshot age, so no prior snapshot
	// candidate exists yet and the move cannot be measured.
	triggered := g.Evaluate(map[string]decimal.Decimal{"BTC": dd(110)}, nil, now.Add(10*time.Second))
	if triggered {
		t.Fatalf("expected no trigger from a snapshot younger than MinSnapshotAge")
	}
}

func TestEvaluate_BasisDivergenceTriggers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	g := New(cfg)
	now := time.Now()

	triggered := g.Evaluate(
		map[string]decimal.Decimal{"BTC": dd(102)},
		map[string]decimal.Decimal{"BTC": dd(100)},
		now,
	)
	if !triggered {
		t.Fatalf("expected a 2%% basis divergence past the 1.5%% threshold to trigger")
	}
}

func TestShouldPauseEntries_ClearsAfterCooldownElapses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.CooldownMinutes = 5
	g := New(cfg)
	now := time.Now()

	g.Evaluate(map[string]decimal.Decimal{"BTC": dd(100)}, nil, now)
	g.Evaluate(map[string]decimal.Decimal{"BTC": dd(104)}, nil, now.Add(50*time.Second))

	if !g.ShouldPauseEntries(now.Add(time.Minute)) {
		t.Fatalf("expected entries still paused within the cooldown window")
	}
	if g.ShouldPauseEntries(now.Add(10 * time.Minute)) {
		t.Fatalf("expected entries resumed once the cooldown elapsed")
	}
	if g.Active() {
		t.Fatalf("expected shock mode cleared after cooldown expiry")
	}
}

func TestExposureAdvice_BuffersBelowThresholdsEscalate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	g := New(cfg)
	now := time.Now()
	g.Evaluate(map[string]decimal.Decimal{"BTC": dd(100)}, nil, now)
	g.Evaluate(map[string]decimal.Decimal{"BTC": dd(104)}, nil, now.Add(50*time.Second))

	closeCase := PositionExposure{Symbol: "BTC", Side: "buy", MarkPrice: dd(100), LiquidationPrice: dd(95)}
	if action := g.ExposureAdvice(closeCase); action != ActionClose {
		t.Fatalf("expected CLOSE for a 5%% buffer, got %s", action)
	}

	trimCase := PositionExposure{Symbol: "BTC", Side: "buy", MarkPrice: dd(100), LiquidationPrice: dd(85)}
	if action := g.ExposureAdvice(trimCase); action != ActionTrim {
		t.Fatalf("expected TRIM for a 15%% buffer, got %s", action)
	}

	holdCase := PositionExposure{Symbol: "BTC", Side: "buy", MarkPrice: dd(100), LiquidationPrice: dd(70)}
	if action := g.ExposureAdvice(holdCase); action != ActionHold {
		t.Fatalf("expected HOLD for a 30%% buffer, got %s", action)
	}
}

func TestExposureAdvice_HoldWhenShockModeNotActive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	g := New(cfg)

	closeCase := PositionExposure{Symbol: "BTC", Side: "buy", MarkPrice: dd(100), LiquidationPrice: dd(95)}
	if action := g.ExposureAdvice(closeCase); action != ActionHold {
		t.Fatalf("expected HOLD when shock mode has never triggered, got %s", action)
	}
}

func TestExposureAdvice_ShortSideBufferIsMirrored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	g := New(cfg)
	now := time.Now()
	g.Evaluate(map[string]decimal.Decimal{"BTC": dd(100)}, nil, now)
	g.Evaluate(map[string]decimal.Decimal{"BTC": dd(104)}, nil, now.Add(50*time.Second))

	shortCase := PositionExposure{Symbol: "BTC", Side: "sell", MarkPrice: dd(100), LiquidationPrice: dd(105)}
	if action := g.ExposureAdvice(shortCase); action != ActionClose {
		t.Fatalf("expected CLOSE for a short 5%% buffer, got %s", action)
	}
}
