package services

import (
	"sync"
	"time"

	"lumicart-io/api/internal/auth"
	"lumicart-io/api/internal/events"
)

// SessionManager hands out the CartSession for an identity, creating it on
// first touch and tearing it down on logout. Sessions are the only place cart
// state lives; nothing here is a module-level cache.
type SessionManager struct {
	sync     *SyncClient
	bus      *events.Bus
	resolver *OptionResolver
	mirror   *GuestCartMirror
	quiet    time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	sessions map[string]*CartSession
}

func NewSessionManager(syncClient *SyncClient, bus *events.Bus, resolver *OptionResolver, mirror *GuestCartMirror, quiet, timeout time.Duration) *SessionManager {
	return &SessionManager{
		sync:     syncClient,
		bus:      bus,
		resolver: resolver,
		mirror:   mirror,
		quiet:    quiet,
		timeout:  timeout,
		sessions: make(map[string]*CartSession),
	}
}

// Session returns the live session for an identity, creating one if needed.
func (m *SessionManager) Session(identity auth.Identity) *CartSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[identity.UserID]; ok {
		return session
	}
	session := NewCartSession(identity, m.sync, m.bus, m.resolver, m.mirror, m.quiet, m.timeout)
	m.sessions[identity.UserID] = session
	return session
}

// Close flushes and discards one identity's session (logout).
func (m *SessionManager) Close(identity auth.Identity) {
	m.mu.Lock()
	session, ok := m.sessions[identity.UserID]
	delete(m.sessions, identity.UserID)
	m.mu.Unlock()

	if ok {
		session.Close()
	}
}

// CloseAll tears every session down (shutdown).
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*CartSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*CartSession)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
