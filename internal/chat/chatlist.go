package chat

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/duochat/chat-app/internal/keys"
	"github.com/duochat/chat-app/internal/metrics"
	"github.com/duochat/chat-app/internal/readmark"
)

// Summary is one row of a user's chat list. The JSON field names are part
// of the client wire format.
type Summary struct {
	PartnerID       string     `json:"id"`
	Name            string     `json:"name"`
	LastMessage     string     `json:"lastMessage"`
	LastMessageID   int64      `json:"-"`
	LastMessageTime *time.Time `json:"lastMessageTime"`
	UnreadCount     int        `json:"unreadCount"`
	HasUnread       bool       `json:"hasUnread"`
}

// ListChats builds userID's chat list: one summary per known partner with
// the latest message and the unread count. Partner fetches run concurrently,
// each under its own timeout, and a failing partner degrades to a zero-value
// summary instead of failing the call. Ordering: chats with unread messages
// first, then most recently active first; chats with no messages sort last.
func (s *Service) ListChats(ctx context.Context, userID string) ([]Summary, error) {
	if !keys.Valid(userID) {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidArgument)
	}

	partners, err := s.relation.Partners(ctx, userID)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("relation").Inc()
		return nil, err
	}
	if len(partners) == 0 {
		return []Summary{}, nil
	}

	summaries := make([]Summary, len(partners))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FanoutLimit)

	for i, partner := range partners {
		i, partner := i, partner
		g.Go(func() error {
			summaries[i] = s.partnerSummary(ctx, userID, partner)
			return nil // per-partner failures never abort the batch
		})
	}
	g.Wait()

	sortSummaries(summaries)
	return summaries, nil
}

// partnerSummary fetches one partner's recent window and read marker and
// folds them into a Summary. Any failure degrades to the zero-value summary
// for that partner.
func (s *Service) partnerSummary(ctx context.Context, userID, partner string) Summary {
	summary := Summary{PartnerID: partner, Name: partner}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.PartnerTimeout)
	defer cancel()

	msgs, err := s.messages.Recent(ctx, keys.PairKey(userID, partner), s.cfg.RecentWindow)
	if err != nil {
		metrics.ChatListPartnerFailures.Inc()
		log.Printf("[chat] chat list: partner %s degraded: %v", partner, err)
		return summary
	}
	if len(msgs) == 0 {
		return summary
	}

	lastSeen, err := s.marks.LastSeen(ctx, userID, partner)
	if err != nil {
		metrics.ChatListPartnerFailures.Inc()
		log.Printf("[chat] chat list: read marker for %s degraded: %v", partner, err)
		return summary
	}

	latest := msgs[len(msgs)-1]
	sentAt := latest.SentAt
	summary.LastMessage = latest.Body
	summary.LastMessageID = latest.ID
	summary.LastMessageTime = &sentAt
	summary.UnreadCount = readmark.UnreadCount(userID, lastSeen, msgs)
	summary.HasUnread = summary.UnreadCount > 0
	return summary
}

// sortSummaries orders the chat list: unread chats first, then by latest
// message id descending. Chats with no messages keep their relative order
// at the tail.
func sortSummaries(summaries []Summary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.HasUnread != b.HasUnread {
			return a.HasUnread
		}
		return a.LastMessageID > b.LastMessageID
	})
}
