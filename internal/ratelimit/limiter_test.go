package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/duochat/chat-app/internal/kv"
)

func TestAllowWithinLimit(t *testing.T) {
	limiter := NewLimiter(kv.NewMemory())
	ctx := context.Background()
	rule := Rule{Key: "rl:test:", Limit: 3, Window: time.Minute}

	for i := 1; i <= 3; i++ {
		allowed, err := limiter.Allow(ctx, "alice", rule)
		if err != nil {
			t.Fatalf("Allow() call %d error: %v", i, err)
		}
		if !allowed {
			t.Fatalf("call %d should be allowed", i)
		}
	}

	allowed, err := limiter.Allow(ctx, "alice", rule)
	if err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if allowed {
		t.Error("call over the limit should be rejected")
	}
}

func TestSeparateIdentifiers(t *testing.T) {
	limiter := NewLimiter(kv.NewMemory())
	ctx := context.Background()
	rule := Rule{Key: "rl:test:", Limit: 1, Window: time.Minute}

	limiter.Allow(ctx, "alice", rule)
	allowed, _ := limiter.Allow(ctx, "bob", rule)
	if !allowed {
		t.Error("bob's counter must be independent of alice's")
	}
}

func TestWindowResets(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	mem := kv.NewMemoryWithClock(func() time.Time { return clock })
	limiter := NewLimiter(mem)
	ctx := context.Background()
	rule := Rule{Key: "rl:test:", Limit: 1, Window: 10 * time.Second}

	limiter.Allow(ctx, "alice", rule)
	if allowed, _ := limiter.Allow(ctx, "alice", rule); allowed {
		t.Fatal("second call in window should be rejected")
	}

	clock = clock.Add(11 * time.Second)
	if allowed, _ := limiter.Allow(ctx, "alice", rule); !allowed {
		t.Error("a fresh window should allow the request")
	}
}

// errStore fails every Incr to exercise the fail-open path.
type errStore struct {
	*kv.Memory
}

func (e *errStore) Incr(context.Context, string) (int64, error) {
	return 0, errors.New("store down")
}

func TestFailsOpenOnStoreError(t *testing.T) {
	limiter := NewLimiter(&errStore{Memory: kv.NewMemory()})

	allowed, err := limiter.Allow(context.Background(), "alice", RuleSend)
	if err == nil {
		t.Error("expected the store error to be reported")
	}
	if !allowed {
		t.Error("limiter must fail open when the store is down")
	}
}
