package session

import (
	"log/slog"
	"sync"
	"time"

	"gatehouse/internal/gate"
	"gatehouse/internal/gate/metrics"
	"gatehouse/internal/gate/ports"
)

type sessionKey struct {
	workOrderID string
	userID      string
	step        gate.StepID
}

const defaultAutoRefreshInterval = 30 * time.Second

// Manager owns the long-lived sessions behind dashboard polling. A session is
// created on first use for its (work order, user, step) tuple and
// auto-refreshes until the manager closes, so repeated status queries read
// the cached result instead of gathering facts per request.
type Manager struct {
	collectors   ports.Collectors
	fetchTimeout time.Duration
	interval     time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics

	mu       sync.Mutex
	sessions map[sessionKey]*Session
	closed   bool
}

func NewManager(collectors ports.Collectors, fetchTimeout, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Manager {
	if interval <= 0 {
		interval = defaultAutoRefreshInterval
	}
	return &Manager{
		collectors:   collectors,
		fetchTimeout: fetchTimeout,
		interval:     interval,
		logger:       logger,
		metrics:      m,
		sessions:     make(map[sessionKey]*Session),
	}
}

// Session returns the cached session for the tuple, creating it and starting
// its auto-refresh on first use.
func (m *Manager) Session(workOrderID, userID string, step gate.StepID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey{workOrderID: workOrderID, userID: userID, step: step}
	if sess, ok := m.sessions[key]; ok {
		return sess
	}

	sess := New(Config{
		WorkOrderID:   workOrderID,
		CurrentUserID: userID,
		CurrentStep:   step,
		Collectors:    m.collectors,
		FetchTimeout:  m.fetchTimeout,
		Logger:        m.logger,
		Metrics:       m.metrics,
	})
	if m.closed {
		// Shutting down: hand back an idle session that fails closed.
		return sess
	}
	sess.StartAutoRefresh(m.interval)
	m.sessions[key] = sess
	return sess
}

// Close stops every managed session. Queries against already-handed-out
// sessions keep answering from their last result.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = nil
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
