package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// CooldownState tracks two independent losing-streak counters, one per
// regime, plus any currently active pause (spec.md §4.3).
type CooldownState struct {
	TightSMCStreak        int
	TightSMCPausedUntil   time.Time
	WideStructureStreak   int
	WideStructurePausedUntil time.Time
}

// Active reports whether the regime's cooldown pause is currently in
// effect.
func (s CooldownState) Active(regime domain.Regime, now time.Time) bool {
	switch regime {
	case domain.RegimeTightSMC:
		return now.Before(s.TightSMCPausedUntil)
	case domain.RegimeWideStructure:
		return now.Before(s.WideStructurePausedUntil)
	default:
		return false
	}
}

// RegisterOutcome updates the streak counters after a trade closes.
// pnlPct is the realized P&L as a fraction of equity (negative for a loss).
// A loss only counts toward the streak if its magnitude is at least
// loss_streak_min_loss_bps of equity. Any win resets both counters and
// clears any active pause. Activating a new cooldown resets both counters
// to avoid an immediate re-trigger.
func (s CooldownState) RegisterOutcome(regime domain.Regime, pnlPct decimal.Decimal, cfg Config, now time.Time) CooldownState {
	next := s

	if pnlPct.IsPositive() || pnlPct.IsZero() {
		next.TightSMCStreak = 0
		next.WideStructureStreak = 0
		next.TightSMCPausedUntil = time.Time{}
		next.WideStructurePausedUntil = time.Time{}
		return next
	}

	minLoss := cfg.LossStreakMinLossBps.Div(decimal.NewFromInt(10000))
	if pnlPct.Abs().LessThan(minLoss) {
		return next // loss too small to count
	}

	switch regime {
	case domain.RegimeTightSMC:
		next.TightSMCStreak++
		if next.TightSMCStreak >= cfg.TightSMCCooldownN {
			next.TightSMCPausedUntil = now.Add(time.Duration(cfg.TightSMCCooldownMinutes) * time.Minute)
			next.TightSMCStreak = 0
			next.WideStructureStreak = 0
		}
	case domain.RegimeWideStructure:
		next.WideStructureStreak++
		if next.WideStructureStreak >= cfg.WideStructureCooldownN {
			next.WideStructurePausedUntil = now.Add(time.Duration(cfg.WideStructureCooldownMinutes) * time.Minute)
			next.WideStructureStreak = 0
			next.TightSMCStreak = 0
		}
	}
	return next
}
