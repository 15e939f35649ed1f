package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/Abraxas-365/academy/pkg/errx"
)

// GenerateStateNonce produces a URL-safe random nonce for the OAuth state
// parameter.
func GenerateStateNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to generate state nonce", errx.TypeInternal)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// InMemoryStateManager implements StateManager with a local map. Fine for
// tests and single-instance development; production uses the Redis state
// manager so callbacks can land on any instance.
type InMemoryStateManager struct {
	mu     sync.Mutex
	states map[string]time.Time
	ttl    time.Duration
}

// NewInMemoryStateManager creates a state manager with the given nonce TTL.
func NewInMemoryStateManager(ttl time.Duration) *InMemoryStateManager {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &InMemoryStateManager{
		states: make(map[string]time.Time),
		ttl:    ttl,
	}
}

// Generate issues a new one-shot nonce.
func (m *InMemoryStateManager) Generate(_ context.Context, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = m.ttl
	}

	state, err := GenerateStateNonce()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.states[state] = time.Now().Add(ttl)
	m.mu.Unlock()

	return state, nil
}

// Consume validates and invalidates a nonce in one step.
func (m *InMemoryStateManager) Consume(_ context.Context, state string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.states[state]
	if !ok {
		return false, nil
	}
	delete(m.states, state)

	return time.Now().Before(expiry), nil
}
