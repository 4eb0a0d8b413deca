package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Counter is the windowed-counter backend; satisfied by the Redis
// client wrapper.
type Counter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// NopCounter stands in when no shared counter backend is configured;
// it never trips the ceiling.
type NopCounter struct{}

func (NopCounter) IncrWindow(context.Context, string, time.Duration) (int64, error) {
	return 0, nil
}

// Limiter enforces fixed-window request ceilings backed by a shared
// counter, so the limit holds across replicas. On backend errors it
// fails open: a degraded Redis must not take the API down with it.
type Limiter struct {
	counter Counter
	maxReqs int64
	window  time.Duration
	logger  *slog.Logger
}

// NewLimiter creates a limiter with the default ceiling per window
func NewLimiter(counter Counter, maxRequests int, window time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		counter: counter,
		maxReqs: int64(maxRequests),
		window:  window,
		logger:  logger,
	}
}

// Allow reports whether the caller identified by key is within the
// default ceiling. Empty keys (unauthenticated public paths) pass.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if key == "" {
		return true
	}
	return l.allow(ctx, "rl:"+key, l.maxReqs, l.window)
}

// AllowStrict applies a tighter ceiling for sensitive endpoints, keyed
// separately so the default window is unaffected.
func (l *Limiter) AllowStrict(ctx context.Context, key string, maxReqs int, window time.Duration) bool {
	return l.allow(ctx, "rl:strict:"+key, int64(maxReqs), window)
}

func (l *Limiter) allow(ctx context.Context, key string, maxReqs int64, window time.Duration) bool {
	count, err := l.counter.IncrWindow(ctx, fmt.Sprintf("%s:%d", key, time.Now().Unix()/int64(window.Seconds())), window)
	if err != nil {
		l.logger.Warn("rate limiter backend unavailable, allowing request",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return true
	}
	return count <= maxReqs
}
