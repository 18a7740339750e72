// Package protocol defines the wire format of the polling chat API. Mutating
// requests arrive as a JSON envelope with an action discriminator, a user
// identity, and an action-specific data payload; the envelope is decoded
// once at the boundary into a closed set of typed payloads before anything
// reaches the stores.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action type constants. This is the full closed set; anything else is
// rejected at parse time.
const (
	ActionRegister  = "register"
	ActionSearch    = "search"
	ActionSend      = "send"
	ActionMarkRead  = "mark_read"
	ActionSetTyping = "typing"
)

// Envelope is the outer shape of every mutating request.
type Envelope struct {
	Action string          `json:"action"`
	UserID string          `json:"userId"`
	Data   json.RawMessage `json:"data"`
}

// RegisterPayload carries no data beyond the envelope's user id.
type RegisterPayload struct{}

// SearchPayload asks whether another identity exists.
type SearchPayload struct {
	SearchID string `json:"searchId"`
}

// SendPayload carries one outbound message.
type SendPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// MarkReadPayload acknowledges the conversation with one partner.
type MarkReadPayload struct {
	ChatWith string `json:"chatWith"`
}

// TypingPayload updates the caller's typing state in one conversation.
// IsTyping is a pointer so a missing boolean is distinguishable from false
// and rejected.
type TypingPayload struct {
	ChatWith string `json:"chatWith"`
	IsTyping *bool  `json:"isTyping"`
}

// ParseAction decodes a request body into its envelope and typed payload.
// It validates the envelope fields and the payload's required fields, so a
// successfully parsed action is structurally complete (identity liveness
// and message content rules are still the stores' business).
func ParseAction(body []byte) (Envelope, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("protocol: malformed request body: %w", err)
	}
	if env.Action == "" {
		return env, nil, fmt.Errorf("protocol: missing action")
	}
	if strings.TrimSpace(env.UserID) == "" {
		return env, nil, fmt.Errorf("protocol: missing or empty userId")
	}

	data := env.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	switch env.Action {
	case ActionRegister:
		return env, RegisterPayload{}, nil

	case ActionSearch:
		var p SearchPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return env, nil, fmt.Errorf("protocol: decode search payload: %w", err)
		}
		if strings.TrimSpace(p.SearchID) == "" {
			return env, nil, fmt.Errorf("protocol: missing or empty searchId")
		}
		return env, p, nil

	case ActionSend:
		var p SendPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return env, nil, fmt.Errorf("protocol: decode send payload: %w", err)
		}
		if p.From == "" || p.To == "" || p.Message == "" {
			return env, nil, fmt.Errorf("protocol: missing from, to, or message")
		}
		return env, p, nil

	case ActionMarkRead:
		var p MarkReadPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return env, nil, fmt.Errorf("protocol: decode mark_read payload: %w", err)
		}
		if p.ChatWith == "" {
			return env, nil, fmt.Errorf("protocol: missing chatWith")
		}
		return env, p, nil

	case ActionSetTyping:
		var p TypingPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return env, nil, fmt.Errorf("protocol: decode typing payload: %w", err)
		}
		if p.ChatWith == "" || p.IsTyping == nil {
			return env, nil, fmt.Errorf("protocol: missing chatWith or isTyping")
		}
		return env, p, nil

	default:
		return env, nil, fmt.Errorf("protocol: invalid action: %q", env.Action)
	}
}
