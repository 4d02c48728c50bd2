// Package storage defines the key/value surface the session tracker persists
// to. Values are whole JSON documents overwritten on every write.
package storage

import (
	"context"
	"sync"
	"time"
)

type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Memory keeps documents in process. With a TTL every write refreshes the
// key's expiry, like the Redis store, and expired keys are dropped as later
// writes come in.
type Memory struct {
	mu        sync.RWMutex
	data      map[string]entry
	ttl       time.Duration
	now       func() time.Time
	nextPurge time.Time
}

type entry struct {
	value   string
	expires time.Time
}

func NewMemory() *Memory {
	return NewMemoryWithTTL(0)
}

// NewMemoryWithTTL returns a store whose keys expire ttl after their last
// write. A ttl of zero keeps keys forever.
func NewMemoryWithTTL(ttl time.Duration) *Memory {
	return &Memory{data: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || e.expired(m.now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: value}
	if m.ttl > 0 {
		now := m.now()
		e.expires = now.Add(m.ttl)
		if !now.Before(m.nextPurge) {
			m.purge(now)
			m.nextPurge = now.Add(m.ttl)
		}
	}

	m.data[key] = e
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Purge drops expired keys and reports how many went.
func (m *Memory) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.purge(m.now())
}

func (m *Memory) purge(now time.Time) int {
	n := 0
	for k, e := range m.data {
		if e.expired(now) {
			delete(m.data, k)
			n++
		}
	}
	return n
}

// Len counts the keys that have not expired.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	n := 0
	for _, e := range m.data {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

type scoped struct {
	kv     KV
	prefix string
}

// Scoped prefixes every key with prefix and ":" so that several visitors can
// share one backing store.
func Scoped(kv KV, prefix string) KV {
	return &scoped{kv: kv, prefix: prefix + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.kv.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Remove(ctx context.Context, key string) error {
	return s.kv.Remove(ctx, s.prefix+key)
}
