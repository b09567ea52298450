// Package shockguard implements the optional market-shock protection named
// in spec.md §4.5.8: detect extreme 1-minute moves or basis divergence,
// enter a cooldown that suppresses new entries, and advise CLOSE/TRIM on
// positions whose liquidation buffer has fallen below threshold. Grounded on
// the teacher's libs/guardrails health-monitor pattern (same "detect, then
// gate new activity until a cooldown clears" shape) and mirrors the source
// shock guard's detection thresholds.
package shockguard

import (
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/symbols"
)

// ExposureAction is the advisory action for a position during shock mode.
type ExposureAction string

const (
	ActionHold  ExposureAction = "HOLD"
	ActionTrim  ExposureAction = "TRIM"
	ActionClose ExposureAction = "CLOSE"
)

// Config holds the detection and response thresholds (spec.md §4.5.8:
// CLOSE < 10% buffer, TRIM < 18% buffer).
type Config struct {
	MoveThresholdPct       decimal.Decimal `json:"move_threshold_pct"`
	BasisThresholdPct      decimal.Decimal `json:"basis_threshold_pct"`
	CooldownMinutes        int             `json:"cooldown_minutes"`
	EmergencyBufferPct     decimal.Decimal `json:"emergency_buffer_pct"`
	TrimBufferPct          decimal.Decimal `json:"trim_buffer_pct"`
	MarketWideCount        int             `json:"market_wide_count"`
	MarketWideWindow       time.Duration   `json:"market_wide_window"`
	MinSnapshotAge         time.Duration   `json:"min_snapshot_age"`
	Enabled                bool            `json:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		MoveThresholdPct:   decimal.NewFromFloat(0.025),
		BasisThresholdPct:  decimal.NewFromFloat(0.015),
		CooldownMinutes:    30,
		EmergencyBufferPct: decimal.NewFromFloat(0.10),
		TrimBufferPct:      decimal.NewFromFloat(0.18),
		MarketWideCount:    3,
		MarketWideWindow:   60 * time.Second,
		MinSnapshotAge:     45 * time.Second,
		Enabled:            false,
	}
}

type snapshot struct {
	price decimal.Decimal
	at    time.Time
}

type trigger struct {
	base string
	at   time.Time
}

// Guard tracks rolling mark-price history per symbol and the current
// shock-mode cooldown. All evaluation takes `now` as an explicit parameter;
// the guard never reads the wall clock itself.
type Guard struct {
	cfg Config

	mu       sync.Mutex
	history  map[string][]snapshot
	triggers []trigger

	active    bool
	until     time.Time
	reasons   []string
}

func New(cfg Config) *Guard {
	return &Guard{cfg: cfg, history: make(map[string][]snapshot)}
}

// Evaluate updates price history and checks every symbol for a shock
// trigger, activating the cooldown if any fire. Returns true if a shock was
// newly detected on this call.
func (g *Guard) Evaluate(markPrices map[string]decimal.Decimal, spotPrices map[string]decimal.Decimal, now time.Time) bool {
	if !g.cfg.Enabled {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.recordSnapshots(markPrices, now)

	triggeredSymbols := make(map[string]bool)
	var reasons []string

	for sym, mark := range markPrices {
		prev, age := g.priorSnapshot(sym, now)
		if prev != nil && !prev.price.IsZero() {
			move := mark.Div(prev.price).Sub(decimal.NewFromInt(1)).Abs()
			if move.GreaterThan(g.cfg.MoveThresholdPct) {
				triggeredSymbols[sym] = true
				reasons = append(reasons, sym+": 1m move exceeded threshold")
				_ = age
			}
		}
		if spotPrices != nil {
			if spot, ok := spotPrices[sym]; ok && !spot.IsZero() {
				basis := mark.Div(spot).Sub(decimal.NewFromInt(1)).Abs()
				if basis.GreaterThan(g.cfg.BasisThresholdPct) {
					triggeredSymbols[sym] = true
					reasons = append(reasons, sym+": basis divergence exceeded threshold")
				}
			}
		}
	}

	triggeredBases := make(map[string]bool)
	for sym := range triggeredSymbols {
		triggeredBases[symbols.Normalize(sym)] = true
	}
	for base := range triggeredBases {
		g.triggers = append(g.triggers, trigger{base: base, at: now})
	}
	windowStart := now.Add(-g.cfg.MarketWideWindow)
	kept := g.triggers[:0]
	uniqueBases := make(map[string]bool)
	for _, t := range g.triggers {
		if t.at.After(windowStart) {
			kept = append(kept, t)
			uniqueBases[t.base] = true
		}
	}
	g.triggers = kept

	if len(uniqueBases) >= g.cfg.MarketWideCount {
		for sym := range markPrices {
			if uniqueBases[symbols.Normalize(sym)] {
				triggeredSymbols[sym] = true
			}
		}
		reasons = append(reasons, "market-wide shock: multiple assets triggered within window")
	}

	if len(triggeredSymbols) == 0 {
		return false
	}

	g.active = true
	g.until = now.Add(time.Duration(g.cfg.CooldownMinutes) * time.Minute)
	g.reasons = reasons
	log.Printf("shockguard: SHOCK_MODE activated until=%s reasons=%v", g.until, reasons)
	return true
}

func (g *Guard) recordSnapshots(markPrices map[string]decimal.Decimal, now time.Time) {
	cutoff := now.Add(-time.Minute)
	for sym, price := range markPrices {
		hist := append(g.history[sym], snapshot{price: price, at: now})
		kept := hist[:0]
		for _, s := range hist {
			if s.at.After(cutoff) {
				kept = append(kept, s)
			}
		}
		if len(kept) > 3 {
			kept = kept[len(kept)-3:]
		}
		g.history[sym] = kept
	}
}

// priorSnapshot finds the snapshot closest to 60s old, requiring at least
// MinSnapshotAge to avoid tripping on micro-moves between adjacent ticks.
func (g *Guard) priorSnapshot(sym string, now time.Time) (*snapshot, time.Duration) {
	hist := g.history[sym]
	var best *snapshot
	var bestAge time.Duration
	for i := range hist {
		age := now.Sub(hist[i].at)
		if age < g.cfg.MinSnapshotAge {
			continue
		}
		if best == nil || absDuration(age-60*time.Second) < absDuration(bestAge-60*time.Second) {
			best = &hist[i]
			bestAge = age
		}
	}
	return best, bestAge
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// ShouldPauseEntries reports whether the cooldown is still in effect,
// clearing shock mode once it has elapsed.
func (g *Guard) ShouldPauseEntries(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.active {
		return false
	}
	if now.Before(g.until) {
		return true
	}
	g.active = false
	log.Printf("shockguard: cooldown expired, resuming normal entries")
	return false
}

// Active reports the raw shock-mode flag without advancing its cooldown.
func (g *Guard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// PositionExposure describes the minimal position fields the exposure
// advisory needs, decoupled from domain.ManagedPosition so this package
// stays a leaf the execution layer depends on rather than the reverse.
type PositionExposure struct {
	Symbol           string
	Side             string // "buy" or "sell"
	MarkPrice        decimal.Decimal
	LiquidationPrice decimal.Decimal
}

// ExposureAdvice evaluates the liquidation buffer for one position during
// an active shock and returns the recommended action.
func (g *Guard) ExposureAdvice(pos PositionExposure) ExposureAction {
	if !g.Active() {
		return ActionHold
	}
	if pos.LiquidationPrice.IsZero() || pos.MarkPrice.IsZero() {
		return ActionHold
	}

	var buffer decimal.Decimal
	if pos.Side == "sell" {
		buffer = pos.LiquidationPrice.Sub(pos.MarkPrice).Div(pos.MarkPrice)
	} else {
		buffer = pos.MarkPrice.Sub(pos.LiquidationPrice).Div(pos.MarkPrice)
	}

	switch {
	case buffer.LessThan(g.cfg.EmergencyBufferPct):
		return ActionClose
	case buffer.LessThan(g.cfg.TrimBufferPct):
		return ActionTrim
	default:
		return ActionHold
	}
}
