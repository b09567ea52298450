// Package trace wraps ports.Persistence.RecordEvent with one convenience
// method per domain.TraceKind, mirroring the structured key=value logging
// style used throughout the teacher's libs packages. A trace is write-only
// audit trail: control flow never reads it back (spec.md §3, §7).
package trace

import (
	"context"
	"log"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/ports"
)

// Recorder records decision traces. A failed write is logged but never
// propagated as an error to the caller — a missed audit row must not block
// a trading decision already made.
type Recorder struct {
	store ports.Persistence
}

func New(store ports.Persistence) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) record(ctx context.Context, kind domain.TraceKind, symbol string, payload map[string]any, decisionID string) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.RecordEvent(ctx, kind, symbol, payload, decisionID); err != nil {
		log.Printf("trace: record kind=%s symbol=%s decision=%s failed: %v", kind, symbol, decisionID, err)
	}
}

func (r *Recorder) SignalGenerated(ctx context.Context, symbol string, payload map[string]any, decisionID string) {
	r.record(ctx, domain.TraceSignalGenerated, symbol, payload, decisionID)
}

func (r *Recorder) SignalRejected(ctx context.Context, symbol string, payload map[string]any, decisionID string) {
	r.record(ctx, domain.TraceSignalRejected, symbol, payload, decisionID)
}

func (r *Recorder) RiskValidation(ctx context.Context, symbol string, payload map[string]any, decisionID string) {
	r.record(ctx, domain.TraceRiskValidation, symbol, payload, decisionID)
}

func (r *Recorder) AuctionResult(ctx context.Context, symbol string, payload map[string]any, decisionID string) {
	r.record(ctx, domain.TraceAuctionResult, symbol, payload, decisionID)
}

func (r *Recorder) OrderEvent(ctx context.Context, symbol string, payload map[string]any, decisionID string) {
	r.record(ctx, domain.TraceOrderEvent, symbol, payload, decisionID)
}

func (r *Recorder) Reconciliation(ctx context.Context, symbol string, payload map[string]any, decisionID string) {
	r.record(ctx, domain.TraceReconciliation, symbol, payload, decisionID)
}

func (r *Recorder) Error(ctx context.Context, symbol string, payload map[string]any, decisionID string) {
	r.record(ctx, domain.TraceError, symbol, payload, decisionID)
}
