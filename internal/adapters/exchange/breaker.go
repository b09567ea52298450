package exchange

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"
)

// breakerConfig mirrors the teacher's libs/resilience.CircuitBreakerConfig:
// same trip rule (>=3 requests and either consecutive failures past the
// threshold or a >=60% failure ratio), adapted here for a single venue
// client instead of a general-purpose HTTP wrapper.
type breakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	MaxFailures uint32
}

func defaultBreakerConfig(name string) breakerConfig {
	return breakerConfig{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		MaxFailures: 5,
	}
}

// breaker wraps gobreaker with the exchange client's logging conventions.
type breaker struct {
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

func newBreaker(cfg breakerConfig) *breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && (counts.ConsecutiveFailures >= cfg.MaxFailures || failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("exchange: circuit breaker %s state %s -> %s", name, from, to)
		},
	}
	return &breaker{cb: gobreaker.NewCircuitBreaker[any](settings), name: cfg.Name}
}

func (b *breaker) run(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := b.cb.Execute(fn)
	if err != nil {
		return nil, fmt.Errorf("circuit breaker %s: %w", b.name, err)
	}
	return result, nil
}
