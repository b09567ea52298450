package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// computeSMCScore awards the points of the selected setup's type: OB(+10),
// FVG(+8), BOS(+7), so at most 10. Only the winning setup is scored (spec.md §4.2
// step 5 describes presence of each, in practice the pipeline keeps the most
// recent valid instance and scores it by type).
func computeSMCScore(setupType domain.SetupType) decimal.Decimal {
	switch setupType {
	case domain.SetupOB:
		return decimal.NewFromInt(10)
	case domain.SetupFVG:
		return decimal.NewFromInt(8)
	case domain.SetupBOS:
		return decimal.NewFromInt(7)
	default:
		return decimal.Zero
	}
}

// computeFibScore awards up to 20 points for fibonacci confluence: OTE
// zone (+15), retracement near a key ratio (+10), extension near a key
// ratio (+5). toleranceBps controls how close "near" means.
func computeFibScore(entry, swingLo, swingHi decimal.Decimal, bullish bool, toleranceBps decimal.Decimal) decimal.Decimal {
	rangeSize := swingHi.Sub(swingLo)
	if rangeSize.IsZero() {
		return decimal.Zero
	}
	var retracement decimal.Decimal
	if bullish {
		retracement = swingHi.Sub(entry).Div(rangeSize)
	} else {
		retracement = entry.Sub(swingLo).Div(rangeSize)
	}

	score := decimal.Zero
	tol := toleranceBps.Div(decimal.NewFromInt(10000))

	oteLo := decimal.NewFromFloat(0.618)
	oteHi := decimal.NewFromFloat(0.786)
	if retracement.GreaterThanOrEqual(oteLo.Sub(tol)) && retracement.LessThanOrEqual(oteHi.Add(tol)) {
		score = score.Add(decimal.NewFromInt(15))
	}

	for _, ratio := range []decimal.Decimal{decimal.NewFromFloat(0.382), decimal.NewFromFloat(0.5), decimal.NewFromFloat(0.618), decimal.NewFromFloat(0.786)} {
		if retracement.Sub(ratio).Abs().LessThanOrEqual(tol) {
			score = score.Add(decimal.NewFromInt(10))
			break
		}
	}

	for _, ratio := range []decimal.Decimal{decimal.NewFromFloat(1.272), decimal.NewFromFloat(1.618)} {
		if retracement.Sub(ratio).Abs().LessThanOrEqual(tol) {
			score = score.Add(decimal.NewFromInt(5))
			break
		}
	}

	cap := decimal.NewFromInt(20)
	if score.GreaterThan(cap) {
		return cap
	}
	return score
}

// computeHTFScore awards up to 20 points: aligned with bias (+20), neutral
// bias (+10), counter-trend (0).
func computeHTFScore(signalBullish bool, bias domain.Bias) decimal.Decimal {
	switch bias {
	case domain.BiasNeutral:
		return decimal.NewFromInt(10)
	case domain.BiasBullish:
		if signalBullish {
			return decimal.NewFromInt(20)
		}
		return decimal.Zero
	case domain.BiasBearish:
		if !signalBullish {
			return decimal.NewFromInt(20)
		}
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

// computeADXScore is a step function over ADX strength, capped at 15.
func computeADXScore(adx decimal.Decimal) decimal.Decimal {
	switch {
	case adx.GreaterThanOrEqual(decimal.NewFromInt(40)):
		return decimal.NewFromInt(15)
	case adx.GreaterThanOrEqual(decimal.NewFromInt(30)):
		return decimal.NewFromInt(12)
	case adx.GreaterThanOrEqual(decimal.NewFromInt(25)):
		return decimal.NewFromInt(8)
	case adx.GreaterThanOrEqual(decimal.NewFromInt(20)):
		return decimal.NewFromInt(4)
	default:
		return decimal.Zero
	}
}

// computeCostScore is a step function over estimated round-trip cost in bps,
// capped at 20 (lower cost -> higher score).
func computeCostScore(costBps decimal.Decimal) decimal.Decimal {
	switch {
	case costBps.LessThanOrEqual(decimal.NewFromInt(5)):
		return decimal.NewFromInt(20)
	case costBps.LessThanOrEqual(decimal.NewFromInt(10)):
		return decimal.NewFromInt(15)
	case costBps.LessThanOrEqual(decimal.NewFromInt(20)):
		return decimal.NewFromInt(8)
	case costBps.LessThanOrEqual(decimal.NewFromInt(35)):
		return decimal.NewFromInt(3)
	default:
		return decimal.Zero
	}
}

func scoreGate(regime domain.Regime, bias domain.Bias, signalBullish bool, cfg Config) decimal.Decimal {
	aligned := (bias == domain.BiasBullish && signalBullish) || (bias == domain.BiasBearish && !signalBullish)
	switch {
	case regime == domain.RegimeTightSMC && aligned:
		return cfg.ScoreGateTightAligned
	case regime == domain.RegimeWideStructure && bias == domain.BiasNeutral:
		return cfg.ScoreGateWideNeutral
	default:
		return cfg.ScoreGateDefault
	}
}
