package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Manager tracks the live subscriptions owned by each session so they can
// be released as a group. Releasing a session's subscriptions is mandatory
// on logout and must happen before new ones are established for a
// different identity.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]map[string]context.CancelFunc
	logger   *zap.Logger
}

func NewManager(logger ...*zap.Logger) *Manager {
	l := zap.L().Named("realtime.manager")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("realtime.manager")
	}
	return &Manager{
		sessions: make(map[string]map[string]context.CancelFunc),
		logger:   l,
	}
}

// Track registers a view subscription under a session. A second Track for
// the same (session, view) pair cancels the previous subscription first so
// a session never holds two listeners for one view.
func (m *Manager) Track(sessionID, viewKey string, cancel context.CancelFunc) {
	m.mu.Lock()
	views, ok := m.sessions[sessionID]
	if !ok {
		views = make(map[string]context.CancelFunc)
		m.sessions[sessionID] = views
	}
	prev := views[viewKey]
	views[viewKey] = cancel
	m.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Untrack removes a single view subscription without cancelling it (the
// owner already did, typically because the HTTP stream ended).
func (m *Manager) Untrack(sessionID, viewKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if views, ok := m.sessions[sessionID]; ok {
		delete(views, viewKey)
		if len(views) == 0 {
			delete(m.sessions, sessionID)
		}
	}
}

// ReleaseSession cancels every subscription the session owns.
func (m *Manager) ReleaseSession(sessionID string) {
	m.mu.Lock()
	views := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	for _, cancel := range views {
		cancel()
	}
	if len(views) > 0 {
		m.logger.Info("session subscriptions released",
			zap.String("session_id", sessionID),
			zap.Int("count", len(views)),
		)
	}
}

// ReleaseAll cancels everything. Called on shutdown.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]map[string]context.CancelFunc)
	m.mu.Unlock()

	for _, views := range sessions {
		for _, cancel := range views {
			cancel()
		}
	}
}
