package domain

import "time"

// TraceKind categorizes an audit record.
type TraceKind string

const (
	TraceSignalGenerated TraceKind = "SIGNAL_GENERATED"
	TraceSignalRejected  TraceKind = "SIGNAL_REJECTED"
	TraceRiskValidation  TraceKind = "RISK_VALIDATION"
	TraceAuctionResult   TraceKind = "AUCTION_RESULT"
	TraceOrderEvent      TraceKind = "ORDER_EVENT"
	TraceReconciliation  TraceKind = "RECONCILIATION"
	TraceError           TraceKind = "ERROR"
)

// Trace is an append-only audit record. It is never read back by control
// logic — it exists purely as the replay seed for offline analysis
// (spec.md §3, §7).
type Trace struct {
	Timestamp  time.Time
	DecisionID string
	Symbol     string
	Kind       TraceKind
	Payload    map[string]any
}
