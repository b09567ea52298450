// Package candlestore maintains a bounded, per-(symbol, timeframe) ring of
// OHLCV candles and enforces the freshness contract the signal pipeline
// depends on. It is the single writer of candle state; callers only ever
// see immutable snapshots (spec.md §4.1).
package candlestore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ridgecove/futurescore/internal/domain"
)

const maxEntries = 300

var freshnessWindow = map[domain.Timeframe]time.Duration{
	domain.TF15m: 30 * time.Minute,
	domain.TF1h:  2 * time.Hour,
	domain.TF4h:  8 * time.Hour,
	domain.TF1d:  48 * time.Hour,
}

type key struct {
	symbol    string
	timeframe domain.Timeframe
}

// Store is safe for concurrent use: the candle feeder is the sole writer,
// the cycle driver and signal pipeline are readers (spec.md §5 ownership).
type Store struct {
	mu   sync.RWMutex
	data map[key][]domain.Candle
}

func New() *Store {
	return &Store{data: make(map[key][]domain.Candle)}
}

// Merge inserts or replaces candles by timestamp. Once the series holds any
// candles, incoming candles older than its current oldest entry are ignored,
// and a duplicate timestamp replaces the existing entry rather than appending.
func (s *Store) Merge(symbol string, tf domain.Timeframe, incoming []domain.Candle) error {
	for _, c := range incoming {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("candlestore: reject candle for %s/%s: %w", symbol, tf, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{symbol, tf}
	existing := s.data[k]

	byTS := make(map[time.Time]domain.Candle, len(existing)+len(incoming))
	for _, c := range existing {
		byTS[c.Timestamp] = c
	}
	for _, c := range incoming {
		if len(existing) > 0 && c.Timestamp.Before(existing[0].Timestamp) {
			continue // out-of-order older candle, ignore once newer exists
		}
		byTS[c.Timestamp] = c
	}

	merged := make([]domain.Candle, 0, len(byTS))
	for _, c := range byTS {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })

	if len(merged) > maxEntries {
		merged = merged[len(merged)-maxEntries:]
	}

	s.data[k] = merged
	return nil
}

// Get returns up to maxCount of the most recent candles for (symbol,
// timeframe), oldest first. The returned slice is a copy: callers may not
// mutate store state through it.
func (s *Store) Get(symbol string, tf domain.Timeframe, maxCount int) []domain.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.data[key{symbol, tf}]
	if maxCount <= 0 || maxCount > len(all) {
		maxCount = len(all)
	}
	start := len(all) - maxCount
	out := make([]domain.Candle, maxCount)
	copy(out, all[start:])
	return out
}

// AgeOfLatest returns how old the newest candle for (symbol, timeframe) is,
// and false if there is no data at all.
func (s *Store) AgeOfLatest(symbol string, tf domain.Timeframe, now time.Time) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.data[key{symbol, tf}]
	if len(all) == 0 {
		return 0, false
	}
	return now.Sub(all[len(all)-1].Timestamp), true
}

// Fresh reports whether the latest candle for (symbol, timeframe) satisfies
// the freshness contract (spec.md §4.1): 15m <= 30min old, 1d <= 48h old.
// Timeframes without a configured window are always considered fresh.
func (s *Store) Fresh(symbol string, tf domain.Timeframe, now time.Time) bool {
	window, ok := freshnessWindow[tf]
	if !ok {
		return true
	}
	age, haveData := s.AgeOfLatest(symbol, tf, now)
	if !haveData {
		return false
	}
	return age <= window
}
