// Package risk implements the leverage-independent risk gate and position
// sizer: a pure function of (signal, account state, open positions,
// cooldown state) to a RiskDecision, with no I/O of its own (spec.md §4.3).
package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// RiskDecision is the gate's verdict. Approved is false whenever
// RejectionReasons is non-empty.
type RiskDecision struct {
	Approved                bool
	PositionNotional        decimal.Decimal
	Leverage                decimal.Decimal
	MarginRequired          decimal.Decimal
	RejectionReasons        Violations
	ShouldCloseExisting     bool
	CloseSymbol             string
	UtilisationBoostApplied bool
}

// Evaluate runs the full gate in this order: input validity, basis
// divergence, max concurrent positions and the cooldown check (any failure
// here rejects before sizing); then sizing and caps, the effective-leverage
// and free-margin safety gates, the regime-specific cost/RR checks, and the
// minimum-notional check. It never mutates its arguments and performs no I/O.
func Evaluate(sig domain.Signal, acct AccountState, cooldown CooldownState, cfg Config, atrRatio decimal.Decimal, now time.Time) RiskDecision {
	var violations Violations

	if sig.Type == domain.NoSignal {
		violations = append(violations, Violation{Code: RejectNoSignal, Message: "no signal to size"})
		return RiskDecision{RejectionReasons: violations}
	}

	if sig.EntryPrice.LessThanOrEqual(decimal.Zero) {
		violations = append(violations, Violation{
			Code: RejectEntryPriceInvalid, Message: "entry price must be positive",
			Limit: "0", Observed: sig.EntryPrice.String(),
		})
	}
	stopDist := stopDistancePct(sig)
	if stopDist.LessThanOrEqual(decimal.Zero) {
		violations = append(violations, Violation{
			Code: RejectStopDistanceInvalid, Message: "stop distance must be positive",
			Limit: "0", Observed: stopDist.String(),
		})
	}
	if acct.Equity.LessThanOrEqual(decimal.Zero) {
		violations = append(violations, Violation{
			Code: RejectEquityNonPositive, Message: "account equity must be positive",
			Limit: "0", Observed: acct.Equity.String(),
		})
	}

	if !acct.SpotPrice.IsZero() {
		basisDivergence := acct.SpotPrice.Sub(acct.FuturesMarkPrice).Abs().Div(acct.SpotPrice)
		if basisDivergence.GreaterThan(cfg.BasisMaxPct) {
			violations = append(violations, Violation{
				Code: RejectBasisDivergence, Message: "spot/mark basis divergence exceeds cap",
				Limit: cfg.BasisMaxPct.String(), Observed: basisDivergence.String(),
			})
		}
	}

	if !cfg.AuctionModeEnabled && acct.OpenPositions >= cfg.MaxConcurrentPositions {
		violations = append(violations, Violation{
			Code: RejectMaxConcurrentPositions, Message: "max concurrent positions reached",
			Limit: decimal.NewFromInt(int64(cfg.MaxConcurrentPositions)).String(),
			Observed: decimal.NewFromInt(int64(acct.OpenPositions)).String(),
		})
	}

	if cooldown.Active(sig.Regime, now) {
		violations = append(violations, Violation{Code: RejectCooldownActive, Message: "cooldown active for regime " + string(sig.Regime)})
	}

	if len(violations) > 0 {
		return RiskDecision{RejectionReasons: violations}
	}

	leverage := resolveLeverage(cfg.DefaultLeverage, cfg)
	notional := baseNotional(sig, acct, cfg, atrRatio)
	boosted, boostApplied := applyUtilisationBoost(notional, acct, cfg)
	notional = applyCaps(boosted, acct, leverage, cfg)

	effectiveLeverageMax := cfg.MaxLeverage.Mul(cfg.EffectiveLeverageMaxPct)
	if !acct.Equity.IsZero() {
		effectiveLeverage := notional.Div(acct.Equity)
		if effectiveLeverage.GreaterThan(effectiveLeverageMax) {
			violations = append(violations, Violation{
				Code: RejectLeverageTooHigh, Message: "effective leverage exceeds safety cap",
				Limit: effectiveLeverageMax.String(), Observed: effectiveLeverage.String(),
			})
		}
	}

	marginRequired := decimal.Zero
	if leverage.IsPositive() {
		marginRequired = notional.Div(leverage)
	}
	freeMarginAfter := acct.AvailableMargin.Sub(marginRequired)
	if !acct.Equity.IsZero() {
		buffer := freeMarginAfter.Div(acct.Equity)
		if buffer.LessThan(cfg.FreeMarginBufferPct) {
			violations = append(violations, Violation{
				Code: RejectFreeMarginBuffer, Message: "post-trade free margin buffer too thin",
				Limit: cfg.FreeMarginBufferPct.String(), Observed: buffer.String(),
			})
		}
	}

	costBps := estimateRoundTripCostBps(sig.Regime, cfg)
	riskAmount := notional.Mul(stopDist)
	switch sig.Regime {
	case domain.RegimeTightSMC:
		if costBps.GreaterThan(cfg.TightSMCCostCapBps) {
			violations = append(violations, Violation{
				Code: RejectTightSMCCost, Message: "estimated round-trip cost exceeds tight_smc cap",
				Limit: cfg.TightSMCCostCapBps.String(), Observed: costBps.String(),
			})
		}
		if sig.TakeProfit.IsPositive() {
			rr := sig.TakeProfit.Sub(sig.EntryPrice).Abs().Div(sig.EntryPrice.Sub(sig.StopLoss).Abs())
			if rr.LessThan(cfg.TightSMCMinRRMultiple) {
				violations = append(violations, Violation{
					Code: RejectTightSMCRR, Message: "R:R below tight_smc minimum",
					Limit: cfg.TightSMCMinRRMultiple.String(), Observed: rr.String(),
				})
			}
		}
	case domain.RegimeWideStructure:
		if riskAmount.IsPositive() {
			costUSD := notional.Mul(costBps).Div(decimal.NewFromInt(10000))
			distortion := costUSD.Div(riskAmount)
			if distortion.GreaterThan(cfg.WideStructureMaxDistortionPct) {
				violations = append(violations, Violation{
					Code: RejectWideStructureDistortion, Message: "cost distortion exceeds wide_structure cap",
					Limit: cfg.WideStructureMaxDistortionPct.String(), Observed: distortion.String(),
				})
			}
		}
	}

	if notional.LessThan(cfg.MinNotionalUSD) {
		violations = append(violations, Violation{
			Code: RejectBelowMinNotional, Message: "sized notional below hard minimum",
			Limit: cfg.MinNotionalUSD.String(), Observed: notional.String(),
		})
	}

	if len(violations) > 0 {
		return RiskDecision{RejectionReasons: violations}
	}

	return RiskDecision{
		Approved:                true,
		PositionNotional:        notional,
		Leverage:                leverage,
		MarginRequired:          marginRequired,
		UtilisationBoostApplied: boostApplied,
	}
}
