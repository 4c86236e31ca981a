package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Manager errors.
var (
	ErrTooManySessionsFromIP = errors.New("session: too many sessions from this IP address")
	ErrMaxSessionsReached    = errors.New("session: maximum session limit reached")
	ErrSessionNotFound       = errors.New("session: not found")
	ErrSessionActive         = errors.New("session: already connected")
	ErrManagerStopped        = errors.New("session: manager is stopped")
)

// Config limits the sessions a Manager accepts.
type Config struct {
	// MaxSessions caps connected sessions. Zero means no limit.
	MaxSessions int

	// MaxSessionsPerIP caps connected sessions per client address. Zero
	// means no limit.
	MaxSessionsPerIP int

	// ResumeWindow is how long a detached session stays resumable.
	ResumeWindow time.Duration
}

// DefaultConfig returns the limits used by the server.
func DefaultConfig() Config {
	return Config{
		MaxSessions:      10000,
		MaxSessionsPerIP: 100,
		ResumeWindow:     5 * time.Minute,
	}
}

// Info describes a connected session.
type Info struct {
	ID         string
	IP         string
	CreatedAt  time.Time
	LastActive time.Time
}

// Stats is a point-in-time view of a Manager.
type Stats struct {
	Connected int
	UniqueIPs int
}

// Manager tracks connected sessions and moves their snapshots in and out of
// a Store when they detach and resume.
type Manager struct {
	mu      sync.RWMutex
	live    map[string]*Info
	byIP    map[string]int
	stopped bool

	store  Store
	config Config
	logger *slog.Logger
}

// NewManager creates a Manager over store.
func NewManager(store Store, config Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ResumeWindow <= 0 {
		config.ResumeWindow = DefaultConfig().ResumeWindow
	}
	return &Manager{
		live:   make(map[string]*Info),
		byIP:   make(map[string]int),
		store:  store,
		config: config,
		logger: logger.With("component", "session_manager"),
	}
}

// NewID returns a random 128-bit session id.
func NewID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// Register marks id as connected from ip.
func (m *Manager) Register(id, ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.stopped:
		return ErrManagerStopped
	case m.live[id] != nil:
		return ErrSessionActive
	case m.config.MaxSessions > 0 && len(m.live) >= m.config.MaxSessions:
		return ErrMaxSessionsReached
	case m.config.MaxSessionsPerIP > 0 && m.byIP[ip] >= m.config.MaxSessionsPerIP:
		return ErrTooManySessionsFromIP
	}

	now := time.Now()
	m.live[id] = &Info{ID: id, IP: ip, CreatedAt: now, LastActive: now}
	m.byIP[ip]++
	m.logger.Debug("session registered",
		"session_id", id,
		"ip", ip,
		"ip_session_count", m.byIP[ip])
	return nil
}

// Touch records activity on a connected session.
func (m *Manager) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if info := m.live[id]; info != nil {
		info.LastActive = time.Now()
	}
}

// Get returns a copy of the info for a connected session.
func (m *Manager) Get(id string) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info := m.live[id]
	if info == nil {
		return Info{}, false
	}
	return *info, true
}

func (m *Manager) dropLocked(id string) {
	info := m.live[id]
	if info == nil {
		return
	}
	delete(m.live, id)
	if m.byIP[info.IP]--; m.byIP[info.IP] <= 0 {
		delete(m.byIP, info.IP)
	}
}

// Checkpoint saves a snapshot of a connected session, so it can be resumed
// even if this process dies.
func (m *Manager) Checkpoint(ctx context.Context, id string, snapshot []byte) error {
	if m.store == nil {
		return nil
	}
	return m.store.Save(ctx, id, snapshot, time.Now().Add(m.config.ResumeWindow))
}

// Detach disconnects id and keeps snapshot resumable for ResumeWindow.
func (m *Manager) Detach(ctx context.Context, id string, snapshot []byte) error {
	m.mu.Lock()
	m.dropLocked(id)
	m.mu.Unlock()

	if m.store == nil || len(snapshot) == 0 {
		return nil
	}
	if err := m.Checkpoint(ctx, id, snapshot); err != nil {
		m.logger.Warn("failed to persist detached session",
			"session_id", id,
			"error", err)
		return err
	}
	m.logger.Debug("session detached", "session_id", id)
	return nil
}

// Resume returns the snapshot stored for id. The caller registers the
// session again once it has restored it.
func (m *Manager) Resume(ctx context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	stopped, active := m.stopped, m.live[id] != nil
	m.mu.RUnlock()

	switch {
	case stopped:
		return nil, ErrManagerStopped
	case active:
		return nil, ErrSessionActive
	case m.store == nil:
		return nil, ErrSessionNotFound
	}
	data, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrSessionNotFound
	}
	return data, nil
}

// Remove forgets id for good.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	m.dropLocked(id)
	m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// Stats returns the current counts.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{Connected: len(m.live), UniqueIPs: len(m.byIP)}
}

// Shutdown refuses new sessions and saves the given snapshots in one batch.
func (m *Manager) Shutdown(ctx context.Context, snapshots map[string][]byte) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	m.live = make(map[string]*Info)
	m.byIP = make(map[string]int)
	m.mu.Unlock()

	if m.store == nil || len(snapshots) == 0 {
		return nil
	}
	expiresAt := time.Now().Add(m.config.ResumeWindow)
	entries := make(map[string]Entry, len(snapshots))
	for id, data := range snapshots {
		entries[id] = Entry{Data: data, ExpiresAt: expiresAt}
	}
	if err := m.store.SaveAll(ctx, entries); err != nil {
		m.logger.Warn("failed to persist sessions on shutdown",
			"error", err,
			"count", len(entries))
		return err
	}
	m.logger.Info("persisted sessions on shutdown", "count", len(entries))
	return nil
}
