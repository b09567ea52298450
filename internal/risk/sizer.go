package risk

import (
	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// AccountState is the pricing and margin context the sizer and gate need.
// It is passed in fresh every cycle; the risk package never fetches it.
type AccountState struct {
	Equity           decimal.Decimal
	SpotPrice        decimal.Decimal
	FuturesMarkPrice decimal.Decimal
	AvailableMargin  decimal.Decimal
	OpenPositions    int
	NotionalOverride *decimal.Decimal
}

func stopDistancePct(sig domain.Signal) decimal.Decimal {
	if sig.EntryPrice.IsZero() {
		return decimal.Zero
	}
	return sig.EntryPrice.Sub(sig.StopLoss).Abs().Div(sig.EntryPrice)
}

// baseNotional implements the four sizing modes of spec.md §4.3. atrRatio is
// current ATR divided by a reference ATR; values > 1 indicate elevated
// volatility and only affect the kelly_volatility mode.
func baseNotional(sig domain.Signal, acct AccountState, cfg Config, atrRatio decimal.Decimal) decimal.Decimal {
	stopPct := stopDistancePct(sig)

	switch cfg.SizingMode {
	case SizingFixed:
		if stopPct.IsZero() {
			return decimal.Zero
		}
		return acct.Equity.Mul(cfg.RiskPerTradePct).Div(stopPct)

	case SizingKelly:
		fraction := decimal.Min(cfg.KellyFraction, cfg.KellyCap)
		if stopPct.IsZero() {
			return decimal.Zero
		}
		return acct.Equity.Mul(fraction).Div(stopPct)

	case SizingKellyVolatility:
		fraction := decimal.Min(cfg.KellyFraction, cfg.KellyCap)
		if stopPct.IsZero() {
			return decimal.Zero
		}
		notional := acct.Equity.Mul(fraction).Div(stopPct)
		if atrRatio.IsPositive() {
			// High volatility (atrRatio > 1) penalizes size; low volatility boosts it.
			scale := decimal.NewFromInt(1).Div(atrRatio)
			notional = notional.Mul(scale)
		}
		return notional

	case SizingLeverageBased:
		fallthrough
	default:
		return acct.Equity.Mul(cfg.DefaultLeverage).Mul(cfg.RiskPerTradePct)
	}
}

// applyUtilisationBoost scales notional up when the sizing mode is
// leverage_based, auction mode is enabled, a notional override is present,
// and current utilisation sits below target (spec.md §4.3).
func applyUtilisationBoost(notional decimal.Decimal, acct AccountState, cfg Config) (decimal.Decimal, bool) {
	if cfg.SizingMode != SizingLeverageBased || !cfg.AuctionModeEnabled || acct.NotionalOverride == nil {
		return notional, false
	}
	if acct.Equity.IsZero() {
		return notional, false
	}
	utilisation := notional.Div(acct.Equity.Mul(cfg.DefaultLeverage))
	if utilisation.GreaterThanOrEqual(cfg.UtilisationTargetPct) {
		return notional, false
	}
	boosted := acct.NotionalOverride.Mul(cfg.UtilisationBoostMaxFactor)
	if boosted.LessThanOrEqual(notional) {
		return notional, false
	}
	return boosted, true
}

// applyCaps enforces the ordered, last-wins cap chain of spec.md §4.3.
func applyCaps(notional decimal.Decimal, acct AccountState, leverage decimal.Decimal, cfg Config) decimal.Decimal {
	capped := notional

	if cfg.MaxPositionSizeUSD.IsPositive() {
		capped = decimal.Min(capped, cfg.MaxPositionSizeUSD)
	}
	if cfg.TierMaxSizeUSD.IsPositive() {
		tierCap := decimal.Min(cfg.MaxPositionSizeUSD, cfg.TierMaxSizeUSD)
		capped = decimal.Min(capped, tierCap)
	}

	buyingPower := acct.Equity.Mul(leverage)
	capped = decimal.Min(capped, buyingPower)

	singlePositionCap := acct.Equity.Mul(cfg.SinglePositionCapPct)
	capped = decimal.Min(capped, singlePositionCap)

	marginCap := acct.AvailableMargin.Mul(cfg.AvailableMarginCapPct).Mul(leverage)
	capped = decimal.Min(capped, marginCap)

	return capped
}

// resolveLeverage applies the requested-vs-tier-vs-config leverage cap.
func resolveLeverage(requested decimal.Decimal, cfg Config) decimal.Decimal {
	lev := decimal.Min(requested, cfg.MaxLeverage)
	if cfg.TierMaxLeverage.IsPositive() {
		lev = decimal.Min(lev, cfg.TierMaxLeverage)
	}
	return lev
}
