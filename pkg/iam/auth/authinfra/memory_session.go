package authinfra

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/academy/pkg/iam/auth"
	"github.com/Abraxas-365/academy/pkg/kernel"
)

// InMemorySessionStore implements auth.SessionStore for tests and local
// development. Expiry is checked lazily on Resolve, mirroring the TTL
// behavior of the Redis store.
type InMemorySessionStore struct {
	mu       sync.Mutex
	sessions map[kernel.SessionID]*auth.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewInMemorySessionStore creates an empty in-memory session store.
func NewInMemorySessionStore(ttl time.Duration) *InMemorySessionStore {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &InMemorySessionStore{
		sessions: make(map[kernel.SessionID]*auth.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *InMemorySessionStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Start creates a fresh session bound to the user.
func (s *InMemorySessionStore) Start(_ context.Context, userID kernel.UserID) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	session := &auth.Session{
		ID:        kernel.NewSessionID(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.sessions[session.ID] = session

	out := *session
	return &out, nil
}

// Resolve maps a session id to its user, lazily evicting expired entries.
func (s *InMemorySessionStore) Resolve(_ context.Context, id kernel.SessionID) (kernel.UserID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return "", false, nil
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, id)
		return "", false, nil
	}
	return session.UserID, true, nil
}

// Touch slides the expiry window.
func (s *InMemorySessionStore) Touch(_ context.Context, id kernel.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		session.ExpiresAt = s.now().UTC().Add(s.ttl)
	}
	return nil
}

// Destroy removes the session record; idempotent.
func (s *InMemorySessionStore) Destroy(_ context.Context, id kernel.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}
