// Package msglog stores the append-only message history of each chat pair.
// Messages live in one expiring list per pair, pushed newest-first and read
// back oldest-first. Ids are strictly monotonic within a pair even for
// appends that land in the same millisecond (a per-pair counter resolves
// the wall clock against the previous id), which makes the id the single
// ordering and read-comparison basis across the application.
package msglog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/duochat/chat-app/internal/keys"
	"github.com/duochat/chat-app/internal/kv"
	"github.com/duochat/chat-app/internal/presence"
)

const (
	// MaxBodyBytes is the maximum encoded size of a message body.
	MaxBodyBytes = 4096
	// MaxBodyChars is the maximum character count of a message body.
	MaxBodyChars = 2000
)

// Message is an immutable chat message. The id doubles as send-order and as
// the value read markers are compared against. The JSON field names are part
// of the client wire format.
type Message struct {
	ID     int64     `json:"id"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Body   string    `json:"message"`
	SentAt time.Time `json:"timestamp"`
}

// ValidateBody checks that a message body meets content requirements.
func ValidateBody(body string) error {
	if len(body) == 0 {
		return fmt.Errorf("message body is empty")
	}
	if len(body) > MaxBodyBytes {
		return fmt.Errorf("message exceeds %d byte limit", MaxBodyBytes)
	}
	if utf8.RuneCountInString(body) > MaxBodyChars {
		return fmt.Errorf("message exceeds %d character limit", MaxBodyChars)
	}
	if !utf8.ValidString(body) {
		return fmt.Errorf("message contains invalid UTF-8")
	}
	return nil
}

// Store manages per-pair message logs.
type Store struct {
	kv kv.Store
}

// NewStore creates a message log store on the given key-value backend.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// Append adds a message to the pair's log and refreshes the log's expiry.
// The assigned id is the current wall clock in milliseconds, bumped past the
// pair's previous id when the clock ties or regresses.
func (s *Store) Append(ctx context.Context, from, to, body string) (Message, error) {
	pair := keys.PairKey(from, to)
	now := time.Now()

	id, err := s.kv.NextID(ctx, keys.MessageIDKey(pair), now.UnixMilli(), presence.TTL)
	if err != nil {
		return Message{}, fmt.Errorf("msglog: assign id for %s: %w", pair, err)
	}

	msg := Message{
		ID:     id,
		From:   from,
		To:     to,
		Body:   body,
		SentAt: now.UTC(),
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return Message{}, fmt.Errorf("msglog: marshal message: %w", err)
	}

	logKey := keys.MessagesKey(pair)
	if err := s.kv.LPush(ctx, logKey, string(raw)); err != nil {
		return Message{}, fmt.Errorf("msglog: push to %s: %w", pair, err)
	}
	if err := s.kv.Expire(ctx, logKey, presence.TTL); err != nil {
		return Message{}, fmt.Errorf("msglog: refresh %s: %w", pair, err)
	}

	return msg, nil
}

// List returns the full message history of a pair, oldest first. An empty
// log yields an empty slice. Entries that fail to decode are dropped rather
// than failing the whole read, so one corrupt record cannot take down a
// conversation view.
func (s *Store) List(ctx context.Context, pair string) ([]Message, error) {
	return s.window(ctx, pair, -1)
}

// Recent returns at most n of the pair's latest messages, oldest first.
func (s *Store) Recent(ctx context.Context, pair string, n int) ([]Message, error) {
	if n <= 0 {
		return []Message{}, nil
	}
	return s.window(ctx, pair, int64(n)-1)
}

func (s *Store) window(ctx context.Context, pair string, stop int64) ([]Message, error) {
	raw, err := s.kv.LRange(ctx, keys.MessagesKey(pair), 0, stop)
	if err != nil {
		return nil, fmt.Errorf("msglog: read %s: %w", pair, err)
	}

	// The list is stored newest-first; decode and reverse in one pass.
	msgs := make([]Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var msg Message
		if err := json.Unmarshal([]byte(raw[i]), &msg); err != nil || msg.ID == 0 {
			log.Printf("[msglog] dropping corrupt entry in %s: %v", pair, err)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
