package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/duochat/chat-app/internal/chat"
	"github.com/duochat/chat-app/internal/metrics"
	"github.com/duochat/chat-app/internal/msglog"
	"github.com/duochat/chat-app/internal/protocol"
	"github.com/duochat/chat-app/internal/ratelimit"
)

// maxBodyBytes caps the request body read. The largest legitimate request
// is a send with a 4KB message plus envelope overhead.
const maxBodyBytes = 16 * 1024

func newRequestID() string {
	return uuid.NewString()
}

type ackResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

type registerResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	RequestID string `json:"requestId"`
}

type searchResponse struct {
	Exists    bool   `json:"exists"`
	UserID    string `json:"userId"`
	RequestID string `json:"requestId"`
}

type sendResponse struct {
	Success   bool           `json:"success"`
	Message   msglog.Message `json:"message"`
	RequestID string         `json:"requestId"`
}

type typingResponse struct {
	IsTyping    bool     `json:"isTyping"`
	TypingUsers []string `json:"typingUsers"`
	RequestID   string   `json:"requestId"`
}

type messagesResponse struct {
	Messages  []msglog.Message `json:"messages"`
	RequestID string           `json:"requestId"`
}

type chatsResponse struct {
	Chats     []chat.Summary `json:"chats"`
	RequestID string         `json:"requestId"`
}

// handleAction processes one POST envelope: parse, rate limit, dispatch.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	requestID := newRequestID()
	start := time.Now()
	defer func() { metrics.RequestLatency.Observe(time.Since(start).Seconds()) }()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body", requestID)
		return
	}

	env, payload, err := protocol.ParseAction(body)
	if err != nil {
		metrics.ActionsTotal.WithLabelValues(env.Action, "invalid").Inc()
		writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	if !s.allow(r, env.Action, env.UserID) {
		metrics.RateLimited.WithLabelValues(env.Action).Inc()
		writeError(w, http.StatusTooManyRequests, "rate limited", requestID)
		return
	}

	ctx := r.Context()
	log.Printf("[api] %s action=%s user=%s", requestID, env.Action, env.UserID)

	switch p := payload.(type) {
	case protocol.RegisterPayload:
		err := s.svc.Register(ctx, env.UserID)
		if s.finish(w, env.Action, requestID, err) {
			return
		}
		writeJSON(w, http.StatusOK, registerResponse{
			Success:   true,
			Message:   "User registered",
			UserID:    env.UserID,
			RequestID: requestID,
		})

	case protocol.SearchPayload:
		found, err := s.svc.Search(ctx, env.UserID, p.SearchID)
		if s.finish(w, env.Action, requestID, err) {
			return
		}
		writeJSON(w, http.StatusOK, searchResponse{
			Exists:    found,
			UserID:    p.SearchID,
			RequestID: requestID,
		})

	case protocol.SendPayload:
		msg, err := s.svc.Send(ctx, p.From, p.To, p.Message)
		if s.finish(w, env.Action, requestID, err) {
			return
		}
		writeJSON(w, http.StatusOK, sendResponse{
			Success:   true,
			Message:   msg,
			RequestID: requestID,
		})

	case protocol.MarkReadPayload:
		err := s.svc.MarkRead(ctx, env.UserID, p.ChatWith)
		if s.finish(w, env.Action, requestID, err) {
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{
			Success:   true,
			Message:   "Marked as read",
			RequestID: requestID,
		})

	case protocol.TypingPayload:
		// SetTyping only fails on invalid identities; store trouble is
		// swallowed inside the service because typing is advisory.
		err := s.svc.SetTyping(ctx, env.UserID, p.ChatWith, *p.IsTyping)
		if s.finish(w, env.Action, requestID, err) {
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{
			Success:   true,
			Message:   "Typing status updated",
			RequestID: requestID,
		})
	}
}

// handleQuery processes one GET poll. Three forms, most specific first:
// typing status, message history, chat list.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	requestID := newRequestID()
	start := time.Now()
	defer func() { metrics.RequestLatency.Observe(time.Since(start).Seconds()) }()

	q := r.URL.Query()
	userID := q.Get("userId")
	chatWith := q.Get("chatWith")

	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing or empty userId parameter", requestID)
		return
	}
	ctx := r.Context()

	if q.Get("getTyping") != "" && chatWith != "" {
		// Typing queries degrade to "nobody typing" on any failure.
		typers, err := s.svc.Typers(ctx, userID, chatWith)
		if errors.Is(err, chat.ErrInvalidArgument) {
			metrics.ActionsTotal.WithLabelValues("is_typing", "invalid").Inc()
			writeError(w, http.StatusBadRequest, err.Error(), requestID)
			return
		}
		metrics.ActionsTotal.WithLabelValues("is_typing", "ok").Inc()
		writeJSON(w, http.StatusOK, typingResponse{
			IsTyping:    len(typers) > 0,
			TypingUsers: typers,
			RequestID:   requestID,
		})
		return
	}

	if chatWith != "" {
		msgs, err := s.svc.Messages(ctx, userID, chatWith)
		if s.finish(w, "list_messages", requestID, err) {
			return
		}
		writeJSON(w, http.StatusOK, messagesResponse{Messages: msgs, RequestID: requestID})
		return
	}

	chats, err := s.svc.ListChats(ctx, userID)
	if s.finish(w, "list_chats", requestID, err) {
		return
	}
	writeJSON(w, http.StatusOK, chatsResponse{Chats: chats, RequestID: requestID})
}

// finish maps a service error to a response and records the action outcome.
// It reports true when the request is already answered.
func (s *Server) finish(w http.ResponseWriter, action, requestID string, err error) bool {
	switch {
	case err == nil:
		metrics.ActionsTotal.WithLabelValues(action, "ok").Inc()
		return false
	case errors.Is(err, chat.ErrInvalidArgument):
		metrics.ActionsTotal.WithLabelValues(action, "invalid").Inc()
		writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return true
	default:
		metrics.ActionsTotal.WithLabelValues(action, "error").Inc()
		log.Printf("[api] %s action=%s failed: %v", requestID, action, err)
		writeError(w, http.StatusInternalServerError, "store unavailable", requestID)
		return true
	}
}

// allow applies the per-action rate limit rule, if any. With no limiter
// configured every request passes.
func (s *Server) allow(r *http.Request, action, userID string) bool {
	if s.limiter == nil {
		return true
	}

	var rule ratelimit.Rule
	switch action {
	case protocol.ActionSend:
		rule = ratelimit.RuleSend
	case protocol.ActionRegister:
		rule = ratelimit.RuleRegister
	case protocol.ActionSearch:
		rule = ratelimit.RuleSearch
	default:
		return true
	}

	allowed, err := s.limiter.Allow(r.Context(), userID, rule)
	if err != nil {
		// Allow already failed open; just record that the store hiccuped.
		metrics.StoreErrors.WithLabelValues("ratelimit").Inc()
	}
	return allowed
}
