// Package client is a typed HTTP client for the duochat polling API. It
// mirrors the endpoint's action envelope and query forms so Go callers (the
// load tester, integration tests, bots) don't hand-roll request bodies.
// "Real-time" behavior is the caller's loop: poll Chats/Messages/Typers
// every few seconds.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/duochat/chat-app/internal/msglog"
	"github.com/duochat/chat-app/internal/protocol"
)

// Message is one chat message as returned by the API.
type Message = msglog.Message

// ChatSummary is one row of a chat list as returned by the API.
type ChatSummary struct {
	PartnerID       string     `json:"id"`
	Name            string     `json:"name"`
	LastMessage     string     `json:"lastMessage"`
	LastMessageTime *time.Time `json:"lastMessageTime"`
	UnreadCount     int        `json:"unreadCount"`
	HasUnread       bool       `json:"hasUnread"`
}

// Client talks to one duochat server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Register creates or refreshes the user's presence.
func (c *Client) Register(ctx context.Context, userID string) error {
	_, err := c.post(ctx, envelope{Action: protocol.ActionRegister, UserID: userID})
	return err
}

// Search reports whether targetID is registered, creating the chat
// relationship on a hit.
func (c *Client) Search(ctx context.Context, userID, targetID string) (bool, error) {
	raw, err := c.post(ctx, envelope{
		Action: protocol.ActionSearch,
		UserID: userID,
		Data:   protocol.SearchPayload{SearchID: targetID},
	})
	if err != nil {
		return false, err
	}
	var resp struct {
		Exists bool `json:"exists"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return false, fmt.Errorf("client: decode search response: %w", err)
	}
	return resp.Exists, nil
}

// Send delivers one message and returns it as stored.
func (c *Client) Send(ctx context.Context, from, to, body string) (Message, error) {
	raw, err := c.post(ctx, envelope{
		Action: protocol.ActionSend,
		UserID: from,
		Data:   protocol.SendPayload{From: from, To: to, Message: body},
	})
	if err != nil {
		return Message{}, err
	}
	var resp struct {
		Message Message `json:"message"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Message{}, fmt.Errorf("client: decode send response: %w", err)
	}
	return resp.Message, nil
}

// MarkRead acknowledges the conversation with partner up to now.
func (c *Client) MarkRead(ctx context.Context, userID, partner string) error {
	_, err := c.post(ctx, envelope{
		Action: protocol.ActionMarkRead,
		UserID: userID,
		Data:   protocol.MarkReadPayload{ChatWith: partner},
	})
	return err
}

// SetTyping updates the caller's typing state in the chat with partner.
func (c *Client) SetTyping(ctx context.Context, userID, partner string, isTyping bool) error {
	_, err := c.post(ctx, envelope{
		Action: protocol.ActionSetTyping,
		UserID: userID,
		Data:   protocol.TypingPayload{ChatWith: partner, IsTyping: &isTyping},
	})
	return err
}

// Typers returns who is typing in the chat with partner, excluding the
// caller.
func (c *Client) Typers(ctx context.Context, userID, partner string) ([]string, error) {
	raw, err := c.get(ctx, url.Values{
		"userId":    {userID},
		"chatWith":  {partner},
		"getTyping": {"1"},
	})
	if err != nil {
		return nil, err
	}
	var resp struct {
		TypingUsers []string `json:"typingUsers"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("client: decode typing response: %w", err)
	}
	return resp.TypingUsers, nil
}

// Messages returns the full history of the chat with partner, oldest first.
func (c *Client) Messages(ctx context.Context, userID, partner string) ([]Message, error) {
	raw, err := c.get(ctx, url.Values{"userId": {userID}, "chatWith": {partner}})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("client: decode messages response: %w", err)
	}
	return resp.Messages, nil
}

// Chats returns the caller's chat list, unread conversations first.
func (c *Client) Chats(ctx context.Context, userID string) ([]ChatSummary, error) {
	raw, err := c.get(ctx, url.Values{"userId": {userID}})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Chats []ChatSummary `json:"chats"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("client: decode chats response: %w", err)
	}
	return resp.Chats, nil
}

type envelope struct {
	Action string      `json:"action"`
	UserID string      `json:"userId"`
	Data   interface{} `json:"data,omitempty"`
}

func (c *Client) post(ctx context.Context, env envelope) (json.RawMessage, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("client: marshal %s request: %w", env.Action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("client: build %s request: %w", env.Action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, env.Action)
}

func (c *Client) get(ctx context.Context, query url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/chat?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("client: build query: %w", err)
	}
	return c.do(req, "query")
}

func (c *Client) do(req *http.Request, op string) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: %s: read response: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("client: %s: %s (status %d)", op, apiErr.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("client: %s: unexpected status %d", op, resp.StatusCode)
	}
	return raw, nil
}
