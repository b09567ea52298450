package statemachine

import "github.com/shopspring/decimal"

// TPMode selects between the legacy fixed three-way split and the runner
// mode that leaves a final unbounded slice governed by trailing (spec.md
// §4.5.5).
type TPMode string

const (
	TPModeFixedTP3 TPMode = "fixed_tp3"
	TPModeRunner   TPMode = "runner"
)

type Config struct {
	TPMode TPMode

	TP1SplitPct decimal.Decimal
	TP2SplitPct decimal.Decimal
	TP3SplitPct decimal.Decimal // legacy mode only; ignored in runner mode

	BreakEvenOffsetTicks    decimal.Decimal
	TrailingActivationATRMin decimal.Decimal
	TrailingATRMultiplier   decimal.Decimal
	TrailingMinTickThreshold decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		TPMode:      TPModeRunner,
		TP1SplitPct: decimal.NewFromFloat(0.4),
		TP2SplitPct: decimal.NewFromFloat(0.4),
		TP3SplitPct: decimal.NewFromFloat(0.2),

		BreakEvenOffsetTicks:     decimal.NewFromInt(2),
		TrailingActivationATRMin: decimal.NewFromFloat(0.5),
		TrailingATRMultiplier:    decimal.NewFromFloat(1.5),
		TrailingMinTickThreshold: decimal.NewFromFloat(0.0005),
	}
}
