package blacklist

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Blacklist. It is only correct for a single
// instance; use Redis once more than one process verifies tokens.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time

	// Now is the clock used for expiry. Defaults to time.Now.
	Now func() time.Time
}

// NewMemory returns an empty in-memory blacklist.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
		Now:     time.Now,
	}
}

func (m *Memory) Add(ctx context.Context, token string, ttl time.Duration) error {
	return m.AddKey(ctx, Key(token), ttl)
}

func (m *Memory) AddKey(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	exp := m.Now().Add(ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Keep the later expiry if the token is revoked twice.
	if cur, ok := m.entries[key]; !ok || exp.After(cur) {
		m.entries[key] = exp
	}
	return nil
}

func (m *Memory) Contains(_ context.Context, token string) (bool, error) {
	m.mu.RLock()
	exp, ok := m.entries[Key(token)]
	m.mu.RUnlock()

	return ok && m.Now().Before(exp), nil
}

// Purge drops entries whose token has expired and returns how many were
// removed. The housekeeping worker calls it periodically.
func (m *Memory) Purge() int {
	now := m.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, exp := range m.entries {
		if !now.Before(exp) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, including expired ones not yet
// purged.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { return nil }
