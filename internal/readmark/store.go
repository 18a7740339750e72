// Package readmark tracks the last point in a conversation each reader has
// acknowledged. Markers are directional: each side of a pair keeps its own.
// Unread counts compare partner-authored message ids against the marker.
// Ids, not wall-clock send times, are the one comparison basis used
// anywhere, since ids are guaranteed monotonic within a pair.
package readmark

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/duochat/chat-app/internal/keys"
	"github.com/duochat/chat-app/internal/kv"
	"github.com/duochat/chat-app/internal/msglog"
	"github.com/duochat/chat-app/internal/presence"
)

// Store manages read markers.
type Store struct {
	kv kv.Store
}

// NewStore creates a read-marker store on the given key-value backend.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// MarkRead records that reader has seen the conversation with partner up to
// now. Message id allocation can run ahead of the wall clock when sends
// burst within one millisecond, so the marker is the later of the clock and
// the pair's id counter; otherwise a mark-read issued in the same
// millisecond as a burst would leave its tail unread. The marker carries
// the same expiry as the rest of the session state.
func (s *Store) MarkRead(ctx context.Context, reader, partner string) error {
	if !keys.Valid(reader) || !keys.Valid(partner) {
		return presence.ErrInvalidUserID
	}

	marker := time.Now().UnixMilli()
	idKey := keys.MessageIDKey(keys.PairKey(reader, partner))
	if raw, err := s.kv.Get(ctx, idKey); err == nil {
		if latest, perr := strconv.ParseInt(raw, 10, 64); perr == nil && latest > marker {
			marker = latest
		}
	}

	key := keys.LastSeenKey(reader, partner)
	if err := s.kv.Set(ctx, key, strconv.FormatInt(marker, 10), presence.TTL); err != nil {
		return fmt.Errorf("readmark: mark read %s: %w", key, err)
	}
	return nil
}

// LastSeen returns the reader's marker for the conversation with partner,
// or zero if the reader has never marked it read (or the marker expired).
func (s *Store) LastSeen(ctx context.Context, reader, partner string) (int64, error) {
	val, err := s.kv.Get(ctx, keys.LastSeenKey(reader, partner))
	if errors.Is(err, kv.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("readmark: last seen %s/%s: %w", reader, partner, err)
	}

	ts, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// A corrupt marker reads as "never seen" rather than failing.
		return 0, nil
	}
	return ts, nil
}

// UnreadCount counts the messages in msgs authored by someone other than
// reader with an id strictly greater than lastSeen.
func UnreadCount(reader string, lastSeen int64, msgs []msglog.Message) int {
	count := 0
	for _, msg := range msgs {
		if msg.From != reader && msg.ID > lastSeen {
			count++
		}
	}
	return count
}
