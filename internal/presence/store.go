// Package presence tracks which user identities are currently live. A
// presence record is a single expiring key holding the last registration
// time; re-registering slides the expiry window forward. Identities are
// opaque, case-sensitive strings chosen by the caller; there are no
// accounts and no authentication.
package presence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/duochat/chat-app/internal/keys"
	"github.com/duochat/chat-app/internal/kv"
)

// TTL is the inactivity window after which a user and all their derived
// state (partner sets, read markers, message logs) are allowed to expire.
// Every store in the application uses this value as its expiry ceiling.
const TTL = 1 * time.Hour

// ErrInvalidUserID is returned when an identity is empty or whitespace-only.
var ErrInvalidUserID = errors.New("presence: invalid user id")

// Store manages presence records.
type Store struct {
	kv kv.Store
}

// NewStore creates a presence store on the given key-value backend.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// Register creates or refreshes the presence record for userID with a
// sliding 1-hour expiry. Repeated calls are idempotent and simply extend
// the window.
func (s *Store) Register(ctx context.Context, userID string) error {
	if !keys.Valid(userID) {
		return ErrInvalidUserID
	}

	now := time.Now().UnixMilli()
	if err := s.kv.Set(ctx, keys.UserKey(userID), strconv.FormatInt(now, 10), TTL); err != nil {
		return fmt.Errorf("presence: register %s: %w", userID, err)
	}
	return nil
}

// Exists reports whether a live presence record exists for userID.
func (s *Store) Exists(ctx context.Context, userID string) (bool, error) {
	_, err := s.kv.Get(ctx, keys.UserKey(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("presence: exists %s: %w", userID, err)
	}
	return true, nil
}
