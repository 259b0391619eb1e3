package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestLimiterEnforcesRouteBudget(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := New(redis.Addr(), "", "test:ratelimit", map[string]Rule{
		"auth":     {Limit: 2, Window: time.Second},
		"generate": PerMinute(1),
	})
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	if !limiter.Allow("auth", "ip-1") {
		t.Fatalf("first request should pass")
	}
	if !limiter.Allow("auth", "ip-1") {
		t.Fatalf("second request should pass")
	}
	if limiter.Allow("auth", "ip-1") {
		t.Fatalf("third request should be blocked")
	}

	// Budgets are per route, not shared.
	if !limiter.Allow("generate", "ip-1") {
		t.Fatalf("generate budget should be independent of auth")
	}
	if limiter.Allow("generate", "ip-1") {
		t.Fatalf("generate budget should be spent")
	}
}

func TestLimiterPassesUnregisteredRoutes(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := New(redis.Addr(), "", "test:ratelimit", map[string]Rule{"auth": PerMinute(1)})
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	for i := 0; i < 5; i++ {
		if !limiter.Allow("webhook", "ip-1") {
			t.Fatalf("unregistered route should pass")
		}
	}
}

func TestLimiterFailsClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := New(redis.Addr(), "", "test:ratelimit", map[string]Rule{"auth": PerMinute(1)})
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	redis.Close()
	if limiter.Allow("auth", "ip-1") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestLimiterRejectsBadConfig(t *testing.T) {
	if _, err := New("", "", "test:ratelimit", nil); err == nil {
		t.Fatalf("expected constructor error for empty redis addr")
	}
	redis := miniredis.RunT(t)
	if _, err := New(redis.Addr(), "", "test:ratelimit", map[string]Rule{"auth": {Limit: 0, Window: time.Second}}); err == nil {
		t.Fatalf("expected constructor error for zero limit")
	}
}
