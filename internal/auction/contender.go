package auction

import (
	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// Kind distinguishes an already-open position from a new candidate signal
// inside the unified contender ranking.
type Kind int

const (
	KindOpen Kind = iota
	KindNew
)

// Contender wraps either an open position or a candidate signal with the
// common scalar value the sort and selection loop operate on (spec.md
// §4.4).
type Contender struct {
	Kind Kind

	Symbol   string
	Regime   domain.Regime
	SetupType domain.SetupType

	Value           decimal.Decimal
	RequiredMargin  decimal.Decimal
	AgeSeconds      int64
	Bullish         bool

	Locked      bool
	LockedReason string

	// OpenPosition-only fields.
	PositionSymbol string

	// NEW-only fields.
	Signal domain.Signal
}

func (c Contender) Cluster() string {
	return string(c.Regime) + "_" + string(c.SetupType)
}

// ValueOpen computes an OPEN contender's value: entry_score + 5*current_pnl_R - exit_cost.
func ValueOpen(entryScore, currentPnlR, exitCost decimal.Decimal) decimal.Decimal {
	return entryScore.Add(currentPnlR.Mul(decimal.NewFromInt(5))).Sub(exitCost)
}

// ValueNew computes a NEW contender's value: candidate.score - entry_cost.
func ValueNew(score, entryCost decimal.Decimal) decimal.Decimal {
	return score.Sub(entryCost)
}

func kindRank(k Kind) int {
	if k == KindOpen {
		return 0
	}
	return 1
}
