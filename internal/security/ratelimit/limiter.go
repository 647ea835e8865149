// Package ratelimit throttles sensitive endpoints (login) with a fixed
// window counter kept in Redis, so the limit holds across replicas. A
// circuit breaker guards the Redis dependency: when it is unavailable the
// limiter fails open rather than locking everyone out.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/personnelapi/internal/reliability/circuitbreaker"
)

// Store is the subset of the Redis client the limiter needs.
type Store interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Limiter is a fixed-window rate limiter keyed by an arbitrary identifier
// (client IP for login attempts).
type Limiter struct {
	store   Store
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
	maxReqs int
	window  time.Duration
}

// NewLimiter creates a limiter allowing maxRequests per window per key.
func NewLimiter(store Store, maxRequests int, window time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Limiter{
		store:   store,
		logger:  logger,
		maxReqs: maxRequests,
		window:  window,
	}
	l.breaker = circuitbreaker.New(5, 2, 30*time.Second, func(from, to circuitbreaker.State) {
		logger.Warn("rate limit store circuit state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return l
}

// Allow reports whether the identified caller is within its budget. Redis
// failures fail open: availability of login wins over strictness of the
// limit.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if key == "" {
		return true
	}
	if !l.breaker.Allow() {
		return true
	}

	bucket := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(l.window.Seconds()))
	count, err := l.store.Incr(ctx, bucket)
	if err != nil {
		l.breaker.RecordFailure()
		l.logger.Error("rate limit store unavailable, failing open", slog.String("error", err.Error()))
		return true
	}
	if count == 1 {
		// First hit in this window owns the expiry. A crash between Incr
		// and Expire leaks one counter key per window at worst.
		if _, err := l.store.Expire(ctx, bucket, l.window+time.Second); err != nil {
			l.breaker.RecordFailure()
			l.logger.Error("rate limit expire failed", slog.String("error", err.Error()))
			return true
		}
	}
	l.breaker.RecordSuccess()

	return count <= int64(l.maxReqs)
}
