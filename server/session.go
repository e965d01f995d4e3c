package server

import (
	"sync"
	"time"
)

// Session is the authentication state bound to one connection. It moves
// from unauthenticated to authenticated at most forward: once a
// connection has authenticated it stays authenticated until it closes,
// and a new connection always starts from scratch.
type Session struct {
	ID          string
	RemoteAddr  string
	ConnectedAt time.Time

	mu            sync.RWMutex
	identity      string
	authenticated bool
	closed        bool
}

func NewSession(prefix, remoteAddr string) *Session {
	return &Session{
		ID:          generateSessionID(prefix),
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
	}
}

// Authenticate records a successful credential check. Re-authentication
// overwrites the identity; there is no downgrade path.
func (s *Session) Authenticate(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.identity = identity
	s.authenticated = true
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Session) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Close marks the session terminal. No transition leaves Closed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
