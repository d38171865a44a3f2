package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdleTTL applies when Options.IdleTTL is zero.
const DefaultIdleTTL = 30 * time.Minute

// Logger defines the logging interface used by the Manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Options configures a Manager.
type Options struct {
	// IdleTTL is how long a session survives without being read or changed.
	IdleTTL time.Duration

	// MaxSessions caps live sessions. 0 means unlimited.
	MaxSessions int
}

// Manager keeps converter sessions in memory.
//
// The lock guards only the session map; each Session guards its own state.
type Manager struct {
	conv Converter
	opts Options
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	logger Logger
}

// NewManager creates a manager whose sessions convert through conv.
func NewManager(conv Converter, opts Options) *Manager {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	return &Manager{
		conv:     conv,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*Session),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// Create starts a session with default inputs.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		return nil, ErrTooManySessions
	}

	s := newSession(uuid.NewString(), m.conv, m.now)
	m.sessions[s.ID()] = s
	m.logger.Debug("session created", "session_id", s.ID())
	return s, nil
}

// Get returns a live session. Expired sessions are reported as not found
// even before the sweep removes them.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || m.expired(s) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.logger.Debug("session deleted", "session_id", id)
	return nil
}

// Len returns the number of sessions held, including expired ones not yet swept.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
// Sessions attached to a live connection are kept.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired sessions removed", "count", removed, "remaining", len(m.sessions))
	}
	return removed
}

// RecomputeAll re-derives the output of every held session and returns
// how many were updated.
func (m *Manager) RecomputeAll() int {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.Recompute()
	}
	return len(sessions)
}

// Run sweeps every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) expired(s *Session) bool {
	since, idle := s.idleSince()
	return idle && m.now().Sub(since) > m.opts.IdleTTL
}
