package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process. Sessions survive reconnects but
// not restarts; use RedisStore when several servers share sessions.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	closed  bool
	done    chan struct{}
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	sweep time.Duration
	now   func() time.Time
}

// WithSweepInterval sets how often expired entries are dropped. Zero
// disables the sweeper; expired entries are still never returned.
// Default: 1 minute.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.sweep = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *memoryConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	cfg := memoryConfig{sweep: time.Minute, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	m := &MemoryStore{
		entries: make(map[string]Entry),
		done:    make(chan struct{}),
		now:     cfg.now,
	}
	if cfg.sweep > 0 {
		go m.sweepLoop(cfg.sweep)
	}
	return m
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, id string, data []byte, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	m.entries[id] = Entry{Data: clone(data), ExpiresAt: expiresAt}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	e, ok := m.entries[id]
	if !ok || !m.now().Before(e.ExpiresAt) {
		return nil, nil
	}
	return clone(e.Data), nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.entries, id)
	return nil
}

// Touch implements Store.
func (m *MemoryStore) Touch(_ context.Context, id string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	if e, ok := m.entries[id]; ok {
		e.ExpiresAt = expiresAt
		m.entries[id] = e
	}
	return nil
}

// SaveAll implements Store. The batch is applied under one lock.
func (m *MemoryStore) SaveAll(_ context.Context, entries map[string]Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	for id, e := range entries {
		m.entries[id] = Entry{Data: clone(e.Data), ExpiresAt: e.ExpiresAt}
	}
	return nil
}

// Close stops the sweeper and drops every entry. Close is idempotent.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.entries = nil
	return nil
}

// Len returns the number of stored entries, expired ones included until
// the next sweep.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.done:
			return
		}
	}
}

// Sweep drops expired entries and returns how many it dropped.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0
	}
	now := m.now()
	n := 0
	for id, e := range m.entries {
		if !now.Before(e.ExpiresAt) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}
