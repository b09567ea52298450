package main

import (
	"sync"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/symbols"
)

// pendingEntries tracks entry orders submitted this process but not yet
// confirmed filled or cancelled, so execution.CheckPyramiding can see an
// in-flight entry even before reconciliation observes it on the exchange.
type pendingEntries struct {
	mu      sync.Mutex
	entries map[string]domain.Side // normalized symbol -> side
}

func newPendingEntries() *pendingEntries {
	return &pendingEntries{entries: make(map[string]domain.Side)}
}

func (p *pendingEntries) HasPendingEntry(normalizedSymbol string, side domain.Side) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.entries[normalizedSymbol]
	return ok && s == side
}

func (p *pendingEntries) add(symbol string, side domain.Side) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[symbols.Normalize(symbol)] = side
}

func (p *pendingEntries) clear(symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, symbols.Normalize(symbol))
}
