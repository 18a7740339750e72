// Package ratelimit provides fixed-window rate limiting on top of the
// key-value store using the INCR + EXPIRE algorithm. Polling clients hit the
// API every couple of seconds in normal operation, so the limits throttle
// per-user mutation bursts, not the polling reads.
package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/duochat/chat-app/internal/kv"
)

// Rule defines a rate limiting policy: the key prefix, maximum number of
// requests allowed in the window, and the window duration.
type Rule struct {
	Key    string        // key prefix (e.g., "rl:send:")
	Limit  int           // max count in the window
	Window time.Duration // time window
}

var (
	// RuleSend allows 20 messages per 10 seconds per sender.
	RuleSend = Rule{Key: "rl:send:", Limit: 20, Window: 10 * time.Second}

	// RuleRegister allows 10 registrations per minute per identity.
	RuleRegister = Rule{Key: "rl:reg:", Limit: 10, Window: 1 * time.Minute}

	// RuleSearch allows 30 searches per minute per requester.
	RuleSearch = Rule{Key: "rl:search:", Limit: 30, Window: 1 * time.Minute}
)

// Limiter performs rate limiting checks against the store.
type Limiter struct {
	kv kv.Store
}

// NewLimiter creates a Limiter backed by the given key-value store.
func NewLimiter(store kv.Store) *Limiter {
	return &Limiter{kv: store}
}

// Allow checks whether the given identifier is within the rate limit defined
// by rule. It increments the counter and sets the expiry on first access.
//
// Returns true if the request is allowed, false if rate limited. On store
// errors the method fails open (returns true) so that a store outage does
// not block legitimate traffic.
func (l *Limiter) Allow(ctx context.Context, identifier string, rule Rule) (bool, error) {
	key := rule.Key + identifier

	count, err := l.kv.Incr(ctx, key)
	if err != nil {
		log.Printf("[ratelimit] incr error key=%s: %v (failing open)", key, err)
		return true, err
	}

	// On the first increment, set the expiry to define the window boundary.
	if count == 1 {
		if err := l.kv.Expire(ctx, key, rule.Window); err != nil {
			log.Printf("[ratelimit] expire error key=%s: %v (failing open)", key, err)
			// The key exists but has no TTL. Best effort: delete it so it
			// doesn't block the identifier forever.
			l.kv.Del(ctx, key)
			return true, err
		}
	}

	return int(count) <= rule.Limit, nil
}
