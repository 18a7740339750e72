package kv

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source for expiry tests.
type fakeClock struct {
	t time.Time
}

func (fc *fakeClock) now() time.Time { return fc.t }

func (fc *fakeClock) advance(d time.Duration) { fc.t = fc.t.Add(d) }

func newClockedMemory() (*Memory, *fakeClock) {
	fc := &fakeClock{t: time.Unix(1700000000, 0)}
	return NewMemoryWithClock(fc.now), fc
}

func TestGetSetDel(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := m.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	val, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if val != "v" {
		t.Errorf("expected %q, got %q", "v", val)
	}

	if err := m.Del(ctx, "k"); err != nil {
		t.Fatalf("Del() error: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after Del, got %v", err)
	}
}

func TestTTLExpiry(t *testing.T) {
	m, clock := newClockedMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	clock.advance(59 * time.Second)
	if _, err := m.Get(ctx, "k"); err != nil {
		t.Fatalf("key expired early: %v", err)
	}

	clock.advance(2 * time.Second)
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestExpireRefreshesWindow(t *testing.T) {
	m, clock := newClockedMemory()
	ctx := context.Background()

	m.Set(ctx, "k", "v", time.Minute)
	clock.advance(50 * time.Second)

	// Sliding expiry: refresh pushes the deadline out from now.
	if err := m.Expire(ctx, "k", time.Minute); err != nil {
		t.Fatalf("Expire() error: %v", err)
	}
	clock.advance(50 * time.Second)
	if _, err := m.Get(ctx, "k"); err != nil {
		t.Errorf("key expired despite refresh: %v", err)
	}
}

func TestExpireMissingKeyIsNoop(t *testing.T) {
	m := NewMemory()
	if err := m.Expire(context.Background(), "missing", time.Minute); err != nil {
		t.Errorf("Expire on missing key: %v", err)
	}
}

func TestIncr(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := m.Incr(ctx, "counter")
		if err != nil {
			t.Fatalf("Incr() error: %v", err)
		}
		if got != want {
			t.Errorf("Incr() = %d, want %d", got, want)
		}
	}
}

func TestNextIDMonotonic(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	// Same "now" repeatedly must still advance by one each call.
	var prev int64
	for i := 0; i < 5; i++ {
		id, err := m.NextID(ctx, "msgid:a_b", 1000, time.Hour)
		if err != nil {
			t.Fatalf("NextID() error: %v", err)
		}
		if id <= prev {
			t.Fatalf("NextID() = %d, not greater than previous %d", id, prev)
		}
		prev = id
	}

	// A clock regression must not produce a smaller id.
	id, err := m.NextID(ctx, "msgid:a_b", 500, time.Hour)
	if err != nil {
		t.Fatalf("NextID() error: %v", err)
	}
	if id <= prev {
		t.Errorf("NextID() = %d after clock regression, want > %d", id, prev)
	}

	// A clock jump forward is taken as-is.
	id, err = m.NextID(ctx, "msgid:a_b", 50000, time.Hour)
	if err != nil {
		t.Fatalf("NextID() error: %v", err)
	}
	if id != 50000 {
		t.Errorf("NextID() = %d, want 50000", id)
	}
}

func TestSetMembers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.SAdd(ctx, "s", "a")
	m.SAdd(ctx, "s", "b", "a") // duplicate add

	members, err := m.SMembers(ctx, "s")
	if err != nil {
		t.Fatalf("SMembers() error: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %v", members)
	}

	empty, err := m.SMembers(ctx, "missing")
	if err != nil {
		t.Fatalf("SMembers() error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty slice for missing set, got %v", empty)
	}
}

func TestHashOps(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.HSet(ctx, "h", "alice", "1")
	m.HSet(ctx, "h", "bob", "2")
	m.HDel(ctx, "h", "alice")

	got, err := m.HGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("HGetAll() error: %v", err)
	}
	if len(got) != 1 || got["bob"] != "2" {
		t.Errorf("unexpected hash contents: %v", got)
	}
}

func TestLPushLRange(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.LPush(ctx, "l", "first")
	m.LPush(ctx, "l", "second")
	m.LPush(ctx, "l", "third")

	// Head of the list is the most recent push.
	head, err := m.LRange(ctx, "l", 0, 0)
	if err != nil {
		t.Fatalf("LRange() error: %v", err)
	}
	if len(head) != 1 || head[0] != "third" {
		t.Errorf("expected head [third], got %v", head)
	}

	all, _ := m.LRange(ctx, "l", 0, -1)
	want := []string{"third", "second", "first"}
	if len(all) != len(want) {
		t.Fatalf("expected %d elements, got %v", len(want), all)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], all[i])
		}
	}

	empty, _ := m.LRange(ctx, "missing", 0, -1)
	if len(empty) != 0 {
		t.Errorf("expected empty range for missing list, got %v", empty)
	}

	outOfBounds, _ := m.LRange(ctx, "l", 5, 10)
	if len(outOfBounds) != 0 {
		t.Errorf("expected empty range past end, got %v", outOfBounds)
	}
}
