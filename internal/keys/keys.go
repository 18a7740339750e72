// Package keys defines the key naming scheme shared by every store in the
// application. All derivation functions are pure: the same identities always
// produce the same key, and no function here touches the store.
//
// Key families:
//
//	user:<id>            presence record (string, TTL)
//	chats:<id>           partner set for a user (set, TTL)
//	messages:<pair>      message log for a pair (list, TTL)
//	msgid:<pair>         monotonic message-id counter for a pair (string, TTL)
//	lastseen:<a>_<b>     a's read marker for the chat with b (string, TTL)
//	typing:<pair>        typing timestamps per user for a pair (hash, TTL)
package keys

import "strings"

const (
	userPrefix      = "user:"
	partnersPrefix  = "chats:"
	messagesPrefix  = "messages:"
	messageIDPrefix = "msgid:"
	lastSeenPrefix  = "lastseen:"
	typingPrefix    = "typing:"
)

// UserKey returns the presence key for a user identity.
func UserKey(userID string) string {
	return userPrefix + userID
}

// PartnersKey returns the key of a user's chat-partner set.
func PartnersKey(userID string) string {
	return partnersPrefix + userID
}

// PairKey derives the canonical identifier for the chat between two users.
// The identities are sorted lexicographically before joining, so
// PairKey(a, b) == PairKey(b, a) for all inputs.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// MessagesKey returns the message-log key for a pair.
func MessagesKey(pair string) string {
	return messagesPrefix + pair
}

// MessageIDKey returns the per-pair message-id counter key.
func MessageIDKey(pair string) string {
	return messageIDPrefix + pair
}

// TypingKey returns the typing-state hash key for a pair.
func TypingKey(pair string) string {
	return typingPrefix + pair
}

// LastSeenKey returns the read-marker key for reader's view of the chat with
// partner. Unlike PairKey this is directional: each side of a conversation
// keeps its own marker, so LastSeenKey(a, b) != LastSeenKey(b, a).
func LastSeenKey(reader, partner string) string {
	return lastSeenPrefix + reader + "_" + partner
}

// Valid reports whether an identity is acceptable as a key component:
// non-empty after trimming whitespace.
func Valid(userID string) bool {
	return strings.TrimSpace(userID) != ""
}
