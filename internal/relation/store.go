// Package relation maintains each user's set of known chat partners. Edges
// are symmetric and created in both directions when a search finds an
// existing user or when a message is sent. The two SADDs are not a
// transaction: a crash between them can leave a one-sided edge until the
// next successful write, which callers are expected to tolerate.
package relation

import (
	"context"
	"fmt"

	"github.com/duochat/chat-app/internal/keys"
	"github.com/duochat/chat-app/internal/kv"
	"github.com/duochat/chat-app/internal/presence"
)

// Store manages the per-user partner sets.
type Store struct {
	kv       kv.Store
	presence *presence.Store
}

// NewStore creates a relationship store. The presence store decides whether
// a searched-for identity is live.
func NewStore(store kv.Store, p *presence.Store) *Store {
	return &Store{kv: store, presence: p}
}

// Search looks up whether targetID is a live user. If it is, and the
// requester is not searching for themselves, the partner edge is created in
// both directions and both sets' expiry is refreshed. Searching for a
// missing user creates nothing. Set semantics make repeated searches
// idempotent.
func (s *Store) Search(ctx context.Context, requester, targetID string) (bool, error) {
	if !keys.Valid(requester) || !keys.Valid(targetID) {
		return false, presence.ErrInvalidUserID
	}

	found, err := s.presence.Exists(ctx, targetID)
	if err != nil {
		return false, fmt.Errorf("relation: search %s: %w", targetID, err)
	}
	if !found || requester == targetID {
		// Self-chat is disallowed; a self-search reports existence but
		// never creates an edge.
		return found, nil
	}

	if err := s.Touch(ctx, requester, targetID); err != nil {
		return true, err
	}
	return true, nil
}

// Touch creates or refreshes the symmetric edge between two users, sliding
// both sets' expiry to the presence window. Best-effort across the two
// directions.
func (s *Store) Touch(ctx context.Context, a, b string) error {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		key := keys.PartnersKey(pair[0])
		if err := s.kv.SAdd(ctx, key, pair[1]); err != nil {
			return fmt.Errorf("relation: add edge %s -> %s: %w", pair[0], pair[1], err)
		}
		if err := s.kv.Expire(ctx, key, presence.TTL); err != nil {
			return fmt.Errorf("relation: refresh edge %s: %w", pair[0], err)
		}
	}
	return nil
}

// Partners returns the live partner set for userID. A user with no partners
// gets an empty slice, not an error.
func (s *Store) Partners(ctx context.Context, userID string) ([]string, error) {
	if !keys.Valid(userID) {
		return nil, presence.ErrInvalidUserID
	}

	partners, err := s.kv.SMembers(ctx, keys.PartnersKey(userID))
	if err != nil {
		return nil, fmt.Errorf("relation: partners %s: %w", userID, err)
	}
	return partners, nil
}
