// Package kv abstracts the expiring key-value store that every chat store is
// built on. Production code backs it with Redis; tests use the in-memory
// implementation. The interface is narrow: plain strings, sets, hashes,
// lists, per-key expiry, and one atomic id primitive.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist or has expired.
var ErrNotFound = errors.New("kv: not found")

// Store is the expiring key-value interface all chat state lives behind.
// Implementations must make every method safe for concurrent use, and each
// single-key operation atomic. Multi-key updates are the caller's problem.
type Store interface {
	// Get returns the string value at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes a string value. A ttl of zero means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Del removes keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error

	// Expire sets or refreshes the TTL on an existing key. Expiring a
	// missing key is a no-op, not an error.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Incr atomically increments the integer value at key, creating it at
	// zero first if missing, and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)

	// NextID atomically advances the counter at key to max(now, previous+1)
	// and returns the new value. It is the basis for strictly monotonic
	// per-pair message ids even when the clock ties or steps backwards.
	// The ttl is applied to the counter on every call.
	NextID(ctx context.Context, key string, now int64, ttl time.Duration) (int64, error)

	// SAdd adds members to the set at key.
	SAdd(ctx context.Context, key string, members ...string) error

	// SMembers returns all members of the set at key, in no particular
	// order. A missing set yields an empty slice.
	SMembers(ctx context.Context, key string) ([]string, error)

	// HSet writes a single field in the hash at key.
	HSet(ctx context.Context, key, field, value string) error

	// HDel removes fields from the hash at key.
	HDel(ctx context.Context, key string, fields ...string) error

	// HGetAll returns the full hash at key. A missing hash yields an empty
	// map.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// LPush prepends values to the list at key, leftmost last (so the list
	// head is always the most recently pushed value).
	LPush(ctx context.Context, key string, values ...string) error

	// LRange returns list elements from start to stop inclusive, where
	// negative indexes count from the tail (-1 is the last element).
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying connections.
	Close() error
}
