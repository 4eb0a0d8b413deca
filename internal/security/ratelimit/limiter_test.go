package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memCounter struct {
	counts map[string]int64
	err    error
}

func (c *memCounter) IncrWindow(_ context.Context, key string, _ time.Duration) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	if c.counts == nil {
		c.counts = map[string]int64{}
	}
	c.counts[key]++
	return c.counts[key], nil
}

func TestAllowWithinCeiling(t *testing.T) {
	l := NewLimiter(&memCounter{}, 3, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "user-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow(ctx, "user-1") {
		t.Fatal("request over ceiling should be denied")
	}
	// A different caller has its own window
	if !l.Allow(ctx, "user-2") {
		t.Fatal("independent key should be allowed")
	}
}

func TestEmptyKeyAlwaysAllowed(t *testing.T) {
	l := NewLimiter(&memCounter{}, 1, time.Minute, nil)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if !l.Allow(ctx, "") {
			t.Fatal("empty key must always pass")
		}
	}
}

func TestStrictCeilingIsSeparate(t *testing.T) {
	l := NewLimiter(&memCounter{}, 100, time.Minute, nil)
	ctx := context.Background()

	if !l.AllowStrict(ctx, "1.2.3.4", 1, time.Minute) {
		t.Fatal("first strict request should pass")
	}
	if l.AllowStrict(ctx, "1.2.3.4", 1, time.Minute) {
		t.Fatal("second strict request should be denied")
	}
	// Default ceiling is untouched
	if !l.Allow(ctx, "1.2.3.4") {
		t.Fatal("default window should be unaffected by strict window")
	}
}

func TestFailsOpenOnBackendError(t *testing.T) {
	l := NewLimiter(&memCounter{err: errors.New("redis down")}, 1, time.Minute, nil)
	if !l.Allow(context.Background(), "user-1") {
		t.Fatal("limiter must fail open when the backend is unavailable")
	}
}
