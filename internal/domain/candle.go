package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Timeframe is a candle interval, e.g. "15m", "1h", "4h", "1d".
type Timeframe string

const (
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// Candle is an immutable OHLCV record. It carries no data-source field: the
// signal path must not be able to tell futures data from spot data (spec §3).
type Candle struct {
	Timestamp time.Time
	Symbol    string
	Timeframe Timeframe
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Validate checks invariant low <= min(open,close) <= max(open,close) <= high
// and that the timestamp carries timezone information (UTC is required).
func (c Candle) Validate() error {
	minOC := decimal.Min(c.Open, c.Close)
	maxOC := decimal.Max(c.Open, c.Close)
	if c.Low.GreaterThan(minOC) {
		return fmt.Errorf("candle %s@%s: low %s > min(open,close) %s", c.Symbol, c.Timestamp, c.Low, minOC)
	}
	if minOC.GreaterThan(maxOC) {
		return fmt.Errorf("candle %s@%s: min(open,close) %s > max(open,close) %s", c.Symbol, c.Timestamp, minOC, maxOC)
	}
	if maxOC.GreaterThan(c.High) {
		return fmt.Errorf("candle %s@%s: max(open,close) %s > high %s", c.Symbol, c.Timestamp, maxOC, c.High)
	}
	if c.Timestamp.Location() != time.UTC {
		return fmt.Errorf("candle %s@%s: timestamp is not UTC", c.Symbol, c.Timestamp)
	}
	return nil
}
