package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/yourorg/personnelapi/internal/infrastructure/redis"
)

func testLimiter(t *testing.T, maxReqs int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return NewLimiter(client, maxReqs, window, nil), mr
}

func TestAllowWithinBudget(t *testing.T) {
	l, _ := testLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow(ctx, "1.2.3.4") {
		t.Fatal("fourth request should be rejected")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := testLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if !l.Allow(ctx, "1.2.3.4") {
		t.Fatal("first key should be allowed")
	}
	if l.Allow(ctx, "1.2.3.4") {
		t.Fatal("first key should now be over budget")
	}
	if !l.Allow(ctx, "5.6.7.8") {
		t.Fatal("second key should have its own budget")
	}
}

func TestEmptyKeyAlwaysAllowed(t *testing.T) {
	l, _ := testLimiter(t, 1, time.Minute)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if !l.Allow(ctx, "") {
			t.Fatal("empty key must not be limited")
		}
	}
}

func TestCounterCarriesExpiry(t *testing.T) {
	l, mr := testLimiter(t, 5, time.Minute)
	ctx := context.Background()

	if !l.Allow(ctx, "1.2.3.4") {
		t.Fatal("request should be allowed")
	}

	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected one counter key, got %v", keys)
	}
	if mr.TTL(keys[0]) <= 0 {
		t.Fatal("counter key must expire with the window")
	}
}

type failingStore struct{}

func (failingStore) Incr(ctx context.Context, key string) (int64, error) {
	return 0, errors.New("connection refused")
}

func (failingStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func TestFailsOpenWhenStoreDown(t *testing.T) {
	l := NewLimiter(failingStore{}, 1, time.Minute, nil)
	ctx := context.Background()

	// Every call errors, yet requests keep flowing.
	for i := 0; i < 10; i++ {
		if !l.Allow(ctx, "1.2.3.4") {
			t.Fatal("limiter must fail open when the store is down")
		}
	}
}
