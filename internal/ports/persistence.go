package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
)

// Persistence is the storage contract the core consumes. Every call is
// atomic; the core never reads a Trace row back (spec.md §6).
type Persistence interface {
	SavePosition(ctx context.Context, pos domain.ManagedPosition) error
	GetActivePositions(ctx context.Context) ([]domain.ManagedPosition, error)
	DeletePosition(ctx context.Context, symbol string) error
	SaveAccountState(ctx context.Context, equity, availableMargin decimal.Decimal) error
	RecordEvent(ctx context.Context, kind domain.TraceKind, symbol string, payload map[string]any, decisionID string) error
	SaveIntentHash(ctx context.Context, hash, symbol string, ts time.Time) error
	LoadRecentIntentHashes(ctx context.Context, lookback time.Duration) (map[string]time.Time, error)
}
