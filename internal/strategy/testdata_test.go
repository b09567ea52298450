package strategy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

func d(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// flatCandles builds n identical candles of timeframe tf starting at start:
// open and close at price, high and low one unit either side.
func flatCandles(symbol string, tf domain.Timeframe, n int, start time.Time, step time.Duration, price float64) []domain.Candle {
	out := make([]domain.Candle, 0, n)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * step)
		out = append(out, domain.Candle{
			Timestamp: ts,
			Symbol:    symbol,
			Timeframe: tf,
			Open:      d(price),
			High:      d(price + 1),
			Low:       d(price - 1),
			Close:     d(price),
			Volume:    d(1000),
		})
	}
	return out
}

// risingDailyCandles builds a clean, steadily rising daily series so that
// close stays above a rising EMA200 with an "up" slope.
func risingDailyCandles(symbol string, n int, start time.Time) []domain.Candle {
	out := make([]domain.Candle, 0, n)
	price := 100.0
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * 24 * time.Hour)
		open := price
		price += 1.0
		close := price
		out = append(out, domain.Candle{
			Timestamp: ts,
			Symbol:    symbol,
			Timeframe: domain.TF1d,
			Open:      d(open),
			High:      d(close + 0.5),
			Low:       d(open - 0.5),
			Close:     d(close),
			Volume:    d(1000),
		})
	}
	return out
}

func cloneCandles(in []domain.Candle) []domain.Candle {
	out := make([]domain.Candle, len(in))
	copy(out, in)
	return out
}

var testEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func fixedTime(hoursOffset int) time.Time {
	return testEpoch.Add(time.Duration(hoursOffset) * time.Hour)
}
