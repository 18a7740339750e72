package kv

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Memory is an in-process Store with the same expiry semantics as the Redis
// implementation. It backs all package tests and can serve as a single-node
// fallback when no Redis is configured. Expired keys are dropped lazily on
// access.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	strings map[string]string
	sets    map[string]map[string]struct{}
	hashes  map[string]map[string]string
	lists   map[string][]string
	expiry  map[string]time.Time // absent entry = no expiry
}

// NewMemory creates an empty in-memory store using the wall clock.
func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock creates an in-memory store with an injected time
// source, letting tests control key expiry deterministically.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		now:     now,
		strings: make(map[string]string),
		sets:    make(map[string]map[string]struct{}),
		hashes:  make(map[string]map[string]string),
		lists:   make(map[string][]string),
		expiry:  make(map[string]time.Time),
	}
}

// expired reports whether key has an expiry in the past. Caller holds mu.
func (m *Memory) expired(key string) bool {
	deadline, ok := m.expiry[key]
	return ok && m.now().After(deadline)
}

// purge removes a key from every family. Caller holds mu.
func (m *Memory) purge(key string) {
	delete(m.strings, key)
	delete(m.sets, key)
	delete(m.hashes, key)
	delete(m.lists, key)
	delete(m.expiry, key)
}

// purgeIfExpired drops the key if its TTL has passed. Caller holds mu.
func (m *Memory) purgeIfExpired(key string) {
	if m.expired(key) {
		m.purge(key)
	}
}

func (m *Memory) setTTL(key string, ttl time.Duration) {
	if ttl > 0 {
		m.expiry[key] = m.now().Add(ttl)
	} else {
		delete(m.expiry, key)
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeIfExpired(key)
	val, ok := m.strings[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.strings[key] = value
	m.setTTL(key, ttl)
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		m.purge(key)
	}
	return nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeIfExpired(key)
	if !m.exists(key) {
		return nil
	}
	m.setTTL(key, ttl)
	return nil
}

// exists reports whether key is present in any family. Caller holds mu.
func (m *Memory) exists(key string) bool {
	if _, ok := m.strings[key]; ok {
		return true
	}
	if _, ok := m.sets[key]; ok {
		return true
	}
	if _, ok := m.hashes[key]; ok {
		return true
	}
	_, ok := m.lists[key]
	return ok
}

func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeIfExpired(key)
	n, _ := strconv.ParseInt(m.strings[key], 10, 64)
	n++
	m.strings[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *Memory) NextID(_ context.Context, key string, now int64, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeIfExpired(key)
	prev, _ := strconv.ParseInt(m.strings[key], 10, 64)
	next := now
	if next <= prev {
		next = prev + 1
	}
	m.strings[key] = strconv.FormatInt(next, 10)
	m.setTTL(key, ttl)
	return next, nil
}

func (m *Memory) SAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeIfExpired(key)
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	for _, member := range members {
		set[member] = struct{}{}
	}
	return nil
}

func (m *Memory) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeIfExpired(key)
	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (m *Memory) HSet(_ context.Context, key, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeIfExpired(key)
	hash, ok := m.hashes[key]
	if !ok {
		hash = make(map[string]string)
		m.hashes[key] = hash
	}
	hash[field] = value
	return nil
}

func (m *Memory) HDel(_ context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeIfExpired(key)
	hash, ok := m.hashes[key]
	if !ok {
		return nil
	}
	for _, field := range fields {
		delete(hash, field)
	}
	if len(hash) == 0 {
		m.purge(key)
	}
	return nil
}

func (m *Memory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeIfExpired(key)
	out := make(map[string]string, len(m.hashes[key]))
	for field, value := range m.hashes[key] {
		out[field] = value
	}
	return out, nil
}

func (m *Memory) LPush(_ context.Context, key string, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeIfExpired(key)
	list := m.lists[key]
	for _, v := range values {
		list = append([]string{v}, list...)
	}
	m.lists[key] = list
	return nil
}

func (m *Memory) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeIfExpired(key)
	list := m.lists[key]
	n := int64(len(list))

	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return []string{}, nil
	}

	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
