// Package postgres implements ports.Persistence against PostgreSQL via
// pgx/pgxpool. Connect adapts the teacher's libs/database.Connect retry
// loop (exponential backoff, ping-before-return) onto a pgxpool.Pool, and
// positions are stored as JSONB payload rows so the schema tracks
// domain.ManagedPosition's fields without a migration for every new one
// (spec.md §4.5.6, §6 — DB schema details are explicitly a non-goal here).
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/ports"
)

// Config mirrors the teacher's libs/database.Config field-for-field, with
// the sql.DB pool knobs replaced by pgxpool's equivalents.
type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	RetryAttempts    int
	RetryDelay       time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxConns:        25,
		MinConns:        2,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: time.Minute,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
	}
}

// Store wraps a pgxpool.Pool and implements ports.Persistence.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes the pool with retry and exponential backoff, the same
// shape as the teacher's database.Connect, then verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: empty DSN")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	var pool *pgxpool.Pool
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}

	for attempt := 0; attempt <= attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}

		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			if attempt == attempts {
				return nil, fmt.Errorf("postgres: open pool after %d attempts: %w", attempts+1, err)
			}
			continue
		}

		if err = pool.Ping(ctx); err != nil {
			pool.Close()
			if attempt == attempts {
				return nil, fmt.Errorf("postgres: ping after %d attempts: %w", attempts+1, err)
			}
			continue
		}

		return &Store{pool: pool}, nil
	}

	return nil, fmt.Errorf("postgres: connect: %w", err)
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) SavePosition(ctx context.Context, pos domain.ManagedPosition) error {
	payload, err := json.Marshal(positionWire{
		Position:       pos,
		SnapshotFrozen: pos.SnapshotFrozen(),
	})
	if err != nil {
		return fmt.Errorf("postgres: marshal position %s: %w", pos.Symbol, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO positions (symbol, state, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (symbol) DO UPDATE SET state = $2, payload = $3, updated_at = now()
	`, pos.Symbol, string(pos.State), payload)
	if err != nil {
		return fmt.Errorf("postgres: save position %s: %w", pos.Symbol, err)
	}
	return nil
}

func (s *Store) GetActivePositions(ctx context.Context) ([]domain.ManagedPosition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM positions
		WHERE state NOT IN ('CLOSED', 'CANCELLED')
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: get active positions: %w", err)
	}
	defer rows.Close()

	var out []domain.ManagedPosition
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("postgres: scan position: %w", err)
		}
		var w positionWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal position: %w", err)
		}
		w.Position.RestoreSnapshotFrozen(w.SnapshotFrozen)
		out = append(out, w.Position)
	}
	return out, rows.Err()
}

func (s *Store) DeletePosition(ctx context.Context, symbol string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM positions WHERE symbol = $1`, symbol)
	if err != nil {
		return fmt.Errorf("postgres: delete position %s: %w", symbol, err)
	}
	return nil
}

func (s *Store) SaveAccountState(ctx context.Context, equity, availableMargin decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO account_state (id, equity, available_margin, recorded_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE SET equity = $1, available_margin = $2, recorded_at = now()
	`, equity.String(), availableMargin.String())
	if err != nil {
		return fmt.Errorf("postgres: save account state: %w", err)
	}
	return nil
}

func (s *Store) RecordEvent(ctx context.Context, kind domain.TraceKind, symbol string, payload map[string]any, decisionID string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("postgres: marshal trace payload: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO trace_events (decision_id, symbol, kind, payload, recorded_at)
		VALUES ($1, $2, $3, $4, now())
	`, decisionID, symbol, string(kind), body)
	if err != nil {
		return fmt.Errorf("postgres: record event %s/%s: %w", kind, symbol, err)
	}
	return nil
}

func (s *Store) SaveIntentHash(ctx context.Context, hash, symbol string, ts time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO intent_hashes (hash, symbol, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (hash) DO NOTHING
	`, hash, symbol, ts)
	if err != nil {
		return fmt.Errorf("postgres: save intent hash: %w", err)
	}
	return nil
}

func (s *Store) LoadRecentIntentHashes(ctx context.Context, lookback time.Duration) (map[string]time.Time, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT hash, created_at FROM intent_hashes WHERE created_at > $1
	`, time.Now().Add(-lookback))
	if err != nil {
		return nil, fmt.Errorf("postgres: load intent hashes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var hash string
		var ts time.Time
		if err := rows.Scan(&hash, &ts); err != nil {
			return nil, fmt.Errorf("postgres: scan intent hash: %w", err)
		}
		out[hash] = ts
	}
	return out, rows.Err()
}

// positionWire carries the unexported snapshotFrozen flag across the JSON
// boundary alongside the position.
type positionWire struct {
	Position       domain.ManagedPosition `json:"position"`
	SnapshotFrozen bool                   `json:"snapshot_frozen"`
}

var _ ports.Persistence = (*Store)(nil)
