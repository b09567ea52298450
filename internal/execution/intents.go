package execution

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const intentLookback = 24 * time.Hour

// IntentHash identifies an order placement attempt: symbol + timestamp +
// signal type + notional (spec.md §4.5.4). Duplicate intents within the
// lookback window are dropped, including ones whose placement failed.
func IntentHash(symbol string, ts time.Time, signalType string, notional decimal.Decimal) string {
	raw := fmt.Sprintf("%s|%d|%s|%s", symbol, ts.Unix(), signalType, notional.String())
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// IntentStore tracks seen intent hashes in the lookback window, in memory.
// It can be seeded from persistence at startup (LoadRecent); it does not
// write hashes back to persistence, so hashes recorded after startup do not
// survive a process restart.
type IntentStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewIntentStore() *IntentStore {
	return &IntentStore{seen: make(map[string]time.Time)}
}

// LoadRecent seeds the store from persistence at startup.
func (s *IntentStore) LoadRecent(hashes map[string]time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, ts := range hashes {
		s.seen[h] = ts
	}
}

// Seen reports whether hash was already recorded within the lookback
// window, evicting expired entries as it goes.
func (s *IntentStore) Seen(hash string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, ts := range s.seen {
		if now.Sub(ts) > intentLookback {
			delete(s.seen, h)
		}
	}
	_, ok := s.seen[hash]
	return ok
}

// Record adds a new intent hash to the in-memory set, regardless of whether
// the subsequent placement succeeds — this is what prevents tight retry
// loops within this process.
func (s *IntentStore) Record(hash string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[hash] = now
}
