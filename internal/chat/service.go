// Package chat composes the presence, relationship, message, read-marker
// and typing stores into the logical operations the polling API exposes:
// register, search, send, mark-read, typing updates, and the message and
// chat-list queries. The service owns cross-store side effects (a send
// refreshes relationship edges and clears the sender's typing entry) and
// the failure policy of each operation: mutations propagate store errors,
// advisory reads degrade to safe defaults.
package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/duochat/chat-app/internal/keys"
	"github.com/duochat/chat-app/internal/metrics"
	"github.com/duochat/chat-app/internal/msglog"
	"github.com/duochat/chat-app/internal/presence"
	"github.com/duochat/chat-app/internal/readmark"
	"github.com/duochat/chat-app/internal/relation"
	"github.com/duochat/chat-app/internal/typing"
)

// Config holds the aggregation tunables.
type Config struct {
	// RecentWindow is how many of a pair's latest messages the chat-list
	// aggregator fetches per partner. It bounds both the unread count and
	// the work done per poll.
	RecentWindow int

	// PartnerTimeout bounds each partner's fetch during chat-list
	// aggregation so one stuck partner cannot stall the whole list.
	PartnerTimeout time.Duration

	// FanoutLimit caps how many partner fetches run concurrently.
	FanoutLimit int
}

// DefaultConfig returns the standard aggregation settings.
func DefaultConfig() Config {
	return Config{
		RecentWindow:   20,
		PartnerTimeout: 8 * time.Second,
		FanoutLimit:    16,
	}
}

// Service implements the chat operations over the underlying stores.
type Service struct {
	cfg      Config
	presence *presence.Store
	relation *relation.Store
	messages *msglog.Store
	marks    *readmark.Store
	typing   *typing.Store
}

// NewService wires the stores into a service.
func NewService(cfg Config, p *presence.Store, r *relation.Store, m *msglog.Store, rm *readmark.Store, t *typing.Store) *Service {
	return &Service{
		cfg:      cfg,
		presence: p,
		relation: r,
		messages: m,
		marks:    rm,
		typing:   t,
	}
}

// Register creates or refreshes the caller's presence record.
func (s *Service) Register(ctx context.Context, userID string) error {
	if !keys.Valid(userID) {
		return fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}
	if err := s.presence.Register(ctx, userID); err != nil {
		metrics.StoreErrors.WithLabelValues("presence").Inc()
		return err
	}
	return nil
}

// Search reports whether targetID is a live user, creating the symmetric
// partner edge on a hit (unless the requester searched for themselves).
func (s *Service) Search(ctx context.Context, requester, targetID string) (bool, error) {
	if !keys.Valid(requester) || !keys.Valid(targetID) {
		return false, fmt.Errorf("%w: empty identity", ErrInvalidArgument)
	}
	found, err := s.relation.Search(ctx, requester, targetID)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("relation").Inc()
		return false, err
	}
	return found, nil
}

// Send appends a message to the pair's log. Side effects: both users'
// relationship edges are refreshed (sending implies a live chat) and the
// sender's typing entry for the pair is cleared. The append is the hard
// part; edge and typing updates are best-effort and only logged on failure.
func (s *Service) Send(ctx context.Context, from, to, body string) (msglog.Message, error) {
	if !keys.Valid(from) || !keys.Valid(to) {
		return msglog.Message{}, fmt.Errorf("%w: empty identity", ErrInvalidArgument)
	}
	if err := msglog.ValidateBody(body); err != nil {
		return msglog.Message{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	msg, err := s.messages.Append(ctx, from, to, body)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("msglog").Inc()
		return msglog.Message{}, err
	}

	if err := s.relation.Touch(ctx, from, to); err != nil {
		log.Printf("[chat] edge refresh after send %s -> %s: %v", from, to, err)
	}
	if err := s.typing.Clear(ctx, from, keys.PairKey(from, to)); err != nil {
		log.Printf("[chat] typing clear after send %s -> %s: %v", from, to, err)
	}

	return msg, nil
}

// MarkRead records that reader has seen the conversation with partner up
// to now.
func (s *Service) MarkRead(ctx context.Context, reader, partner string) error {
	if !keys.Valid(reader) || !keys.Valid(partner) {
		return fmt.Errorf("%w: empty identity", ErrInvalidArgument)
	}
	if err := s.marks.MarkRead(ctx, reader, partner); err != nil {
		metrics.StoreErrors.WithLabelValues("readmark").Inc()
		return err
	}
	return nil
}

// SetTyping updates user's typing state in the chat with partner. Typing is
// advisory: store failures are logged and swallowed so they can never block
// messaging.
func (s *Service) SetTyping(ctx context.Context, user, partner string, isTyping bool) error {
	if !keys.Valid(user) || !keys.Valid(partner) {
		return fmt.Errorf("%w: empty identity", ErrInvalidArgument)
	}
	if err := s.typing.Set(ctx, user, partner, isTyping); err != nil {
		metrics.StoreErrors.WithLabelValues("typing").Inc()
		log.Printf("[chat] set typing %s in chat with %s: %v", user, partner, err)
	}
	return nil
}

// Typers returns who is typing in requester's chat with partner, excluding
// the requester. Failures degrade to an empty result for the same reason
// SetTyping swallows them.
func (s *Service) Typers(ctx context.Context, requester, partner string) ([]string, error) {
	if !keys.Valid(requester) || !keys.Valid(partner) {
		return nil, fmt.Errorf("%w: empty identity", ErrInvalidArgument)
	}
	typers, err := s.typing.Typers(ctx, requester, partner)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("typing").Inc()
		log.Printf("[chat] typers for %s in chat with %s: %v", requester, partner, err)
		return []string{}, nil
	}
	return typers, nil
}

// Messages returns the full history of userID's chat with partner, oldest
// first. An empty conversation yields an empty slice.
func (s *Service) Messages(ctx context.Context, userID, partner string) ([]msglog.Message, error) {
	if !keys.Valid(userID) || !keys.Valid(partner) {
		return nil, fmt.Errorf("%w: empty identity", ErrInvalidArgument)
	}
	msgs, err := s.messages.List(ctx, keys.PairKey(userID, partner))
	if err != nil {
		metrics.StoreErrors.WithLabelValues("msglog").Inc()
		return nil, err
	}
	return msgs, nil
}
