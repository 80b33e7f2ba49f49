package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager keeps live sessions in memory, keyed by session ID.
type Manager struct {
	finder MoveFinder
	sched  Scheduler
	ttl    time.Duration
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	onCreate []func(*Session)
	onDelete []func(id string)
}

func NewManager(finder MoveFinder, sched Scheduler, ttl time.Duration, logger *zap.Logger) *Manager {
	if sched == nil {
		sched = RealScheduler()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		finder:   finder,
		sched:    sched,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// OnCreate registers a hook run for every new session before it is
// returned to the caller.
func (m *Manager) OnCreate(fn func(*Session)) {
	m.mu.Lock()
	m.onCreate = append(m.onCreate, fn)
	m.mu.Unlock()
}

// OnDelete registers a hook run after a session is removed, whether by
// Delete or by Sweep.
func (m *Manager) OnDelete(fn func(id string)) {
	m.mu.Lock()
	m.onDelete = append(m.onDelete, fn)
	m.mu.Unlock()
}

func (m *Manager) Create(cfg Config) *Session {
	s := New(m.finder, m.sched, cfg, m.logger)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	hooks := append([]func(*Session){}, m.onCreate...)
	m.mu.Unlock()
	for _, fn := range hooks {
		fn(s)
	}
	m.logger.Info("checkers session created",
		zap.String("session_id", s.ID()),
		zap.String("ai_player", string(s.Config().AIPlayer)),
		zap.String("preset", s.Config().Preset),
	)
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[strings.TrimSpace(id)]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	hooks := append([]func(string){}, m.onDelete...)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	for _, fn := range hooks {
		fn(id)
	}
	m.logger.Info("checkers session deleted", zap.String("session_id", id))
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the live session IDs in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed. A non-positive TTL keeps everything.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.sched.Now()
	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if now.Sub(s.LastActivity()) > m.ttl {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range expired {
		if err := m.Delete(id); err == nil {
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired checkers sessions swept", zap.Int("count", removed))
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Sweep()
		}
	}
}

// Close stops every session's timers.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
