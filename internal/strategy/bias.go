package strategy

import (
	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/indicators"
)

// computeBias derives the higher-timeframe bias from 1d EMA(200) and its
// slope (spec.md §4.2 step 1).
func computeBias(daily []domain.Candle, cfg Config) (domain.Bias, string) {
	if len(daily) < 200 {
		return domain.BiasNeutral, "insufficient 1d history for EMA200"
	}
	ema := indicators.EMA(daily, 200)
	lastEMA := ema[len(ema)-1]
	slope := indicators.EMASlope(ema, cfg.EMASlopeLookback)
	close := daily[len(daily)-1].Close

	switch {
	case close.GreaterThan(lastEMA) && slope == "up":
		return domain.BiasBullish, "close > EMA200 and slope up"
	case close.LessThan(lastEMA) && slope == "down":
		return domain.BiasBearish, "close < EMA200 and slope down"
	default:
		return domain.BiasNeutral, "close/EMA200 relation does not confirm a directional slope"
	}
}
