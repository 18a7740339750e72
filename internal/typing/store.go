// Package typing implements the transient "who is typing" state for each
// chat pair. Entries live in one expiring hash per pair, keyed by user, with
// the last keep-alive time as the value.
//
// Two windows govern an entry's life and they must be read together:
//
//   - Staleness is the maximum entry age still reported as "typing" by
//     queries. It must be longer than the client's keep-alive ping interval
//     or indicators flicker off between pings (clients are expected to
//     re-ping at most every 3 seconds against the 5-second default).
//   - MapTTL is the expiry on the whole hash, a safety net that garbage
//     collects the map when every participant goes silent. It is several
//     times the staleness window; correctness never depends on it.
//
// A stop-typing call or a sent message removes the entry eagerly; a stale
// entry is simply not returned, with no eager deletion needed.
package typing

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/duochat/chat-app/internal/keys"
	"github.com/duochat/chat-app/internal/kv"
)

// Config holds the two typing windows. See the package comment for how they
// relate; both default via DefaultConfig.
type Config struct {
	Staleness time.Duration // max entry age reported as typing
	MapTTL    time.Duration // expiry on the pair's whole typing hash
}

// DefaultConfig returns the standard typing windows.
func DefaultConfig() Config {
	return Config{
		Staleness: 5 * time.Second,
		MapTTL:    30 * time.Second,
	}
}

// Store manages per-pair typing state.
type Store struct {
	kv  kv.Store
	cfg Config
}

// NewStore creates a typing store on the given key-value backend.
func NewStore(store kv.Store, cfg Config) *Store {
	return &Store{kv: store, cfg: cfg}
}

// Set records that user is (or is no longer) typing in the chat with
// partner. Starting to type writes the current time into the pair's hash and
// refreshes the map TTL; redundant start calls are cheap and simply rewrite
// the timestamp. Stopping removes the entry.
func (s *Store) Set(ctx context.Context, user, partner string, isTyping bool) error {
	pair := keys.PairKey(user, partner)
	if !isTyping {
		return s.Clear(ctx, user, pair)
	}

	key := keys.TypingKey(pair)
	now := time.Now().UnixMilli()
	if err := s.kv.HSet(ctx, key, user, strconv.FormatInt(now, 10)); err != nil {
		return fmt.Errorf("typing: set %s in %s: %w", user, pair, err)
	}
	if err := s.kv.Expire(ctx, key, s.cfg.MapTTL); err != nil {
		return fmt.Errorf("typing: refresh %s: %w", pair, err)
	}
	return nil
}

// Clear removes user's typing entry for the given pair. Called on explicit
// stop-typing and when the user sends a message. Clearing an absent entry is
// a no-op.
func (s *Store) Clear(ctx context.Context, user, pair string) error {
	if err := s.kv.HDel(ctx, keys.TypingKey(pair), user); err != nil {
		return fmt.Errorf("typing: clear %s in %s: %w", user, pair, err)
	}
	return nil
}

// Typers returns the users currently typing in requester's chat with
// partner, excluding the requester themselves and any entry older than the
// staleness window. Corrupt timestamps are skipped. The result is sorted so
// polls see a stable order.
func (s *Store) Typers(ctx context.Context, requester, partner string) ([]string, error) {
	pair := keys.PairKey(requester, partner)
	entries, err := s.kv.HGetAll(ctx, keys.TypingKey(pair))
	if err != nil {
		return nil, fmt.Errorf("typing: read %s: %w", pair, err)
	}

	cutoff := time.Now().Add(-s.cfg.Staleness).UnixMilli()
	active := make([]string, 0, len(entries))
	for user, raw := range entries {
		if user == requester {
			continue
		}
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ts <= cutoff {
			continue
		}
		active = append(active, user)
	}
	sort.Strings(active)
	return active, nil
}
