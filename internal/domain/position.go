package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionState is a node in the lifecycle state machine (spec.md §4.5.6).
type PositionState string

const (
	StatePending   PositionState = "PENDING"
	StateOpen      PositionState = "OPEN"
	StateProtected PositionState = "PROTECTED"
	StatePartial   PositionState = "PARTIAL"
	StateClosed    PositionState = "CLOSED"
	StateCancelled PositionState = "CANCELLED"
)

// FillRecord is one execution fill against an order, entry or exit.
type FillRecord struct {
	OrderID   string
	Size      decimal.Decimal
	Price     decimal.Decimal
	Timestamp time.Time
}

// ManagedPosition is the authoritative local record for one futures symbol.
// Orders are referenced by id, never embedded, to avoid Position<->Order
// pointer cycles (spec.md §9 design note).
type ManagedPosition struct {
	Symbol string
	Side   Side

	InitialSize        decimal.Decimal
	InitialEntryPrice  decimal.Decimal
	InitialStopPrice   decimal.Decimal // current stop: set at entry, then overwritten by break-even and trailing updates; the original stop is not kept
	InitialTP1Price    decimal.Decimal // immutable
	InitialTP2Price    decimal.Decimal // immutable
	FinalTargetPrice   decimal.Decimal // immutable

	// Snapshot targets, frozen exactly once from the first entry fills (I3).
	EntrySizeInitial decimal.Decimal
	TP1QtyTarget     decimal.Decimal
	TP2QtyTarget     decimal.Decimal
	snapshotFrozen   bool

	EntryFills []FillRecord
	ExitFills  []FillRecord

	StopOrderID string
	TP1OrderID  string
	TP2OrderID  string
	TP3OrderID  string // legacy fixed-TP3 mode only

	State PositionState

	EntryAcknowledged bool
	TP1Filled         bool
	TP2Filled         bool
	TrailingActive    bool
	BreakEvenActive   bool

	Cluster          string
	Regime           Regime
	SetupType        SetupType
	EntryScore       decimal.Decimal
	OpenedAt         time.Time
	IsProtected      bool
	ProtectionReason string
	Unprotected      bool
}

// RemainingSize is the portion of the position not yet closed.
func (p *ManagedPosition) RemainingSize() decimal.Decimal {
	filled := decimal.Zero
	for _, f := range p.ExitFills {
		filled = filled.Add(f.Size)
	}
	return p.EntrySizeInitial.Sub(filled)
}

// FreezeSnapshotIfNeeded sets the I3 snapshot targets exactly once, from the
// entry size accumulated so far. Later calls are no-ops.
func (p *ManagedPosition) FreezeSnapshotIfNeeded(tp1Pct, tp2Pct decimal.Decimal) {
	if p.snapshotFrozen {
		return
	}
	entrySize := decimal.Zero
	for _, f := range p.EntryFills {
		entrySize = entrySize.Add(f.Size)
	}
	if entrySize.IsZero() {
		return
	}
	p.EntrySizeInitial = entrySize
	p.TP1QtyTarget = entrySize.Mul(tp1Pct)
	p.TP2QtyTarget = entrySize.Mul(tp2Pct)
	p.snapshotFrozen = true
}

// SnapshotFrozen reports whether I3 targets have been set.
func (p *ManagedPosition) SnapshotFrozen() bool { return p.snapshotFrozen }

// RestoreSnapshotFrozen sets the I3 frozen flag directly, for use only by a
// persistence adapter rehydrating a position that was already frozen before
// the process restarted. Anything else should go through
// FreezeSnapshotIfNeeded.
func (p *ManagedPosition) RestoreSnapshotFrozen(v bool) { p.snapshotFrozen = v }

// StopIsOnLosingSide checks invariant I1: the stop is strictly on the losing
// side of the entry for the position's side.
func (p *ManagedPosition) StopIsOnLosingSide() bool {
	if p.Side == SideBuy {
		return p.InitialStopPrice.LessThan(p.InitialEntryPrice)
	}
	return p.InitialStopPrice.GreaterThan(p.InitialEntryPrice)
}
