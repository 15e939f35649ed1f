package auth

import (
	"context"
	"time"

	"github.com/Abraxas-365/academy/pkg/kernel"
)

// TokenService mints and validates signed, time-bound identity claims.
type TokenService interface {
	Issue(claims TokenClaims) (string, error)
	// Verify returns the embedded claims, failing with AUTH_TOKEN_EXPIRED
	// for a well-signed but stale token and AUTH_TOKEN_MALFORMED for
	// everything else.
	Verify(token string) (*TokenClaims, error)
}

// PasswordService is the one-way credential verifier.
type PasswordService interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches the stored credential. An
	// absent credential verifies false, never errors: OAuth-only accounts
	// short-circuit password login the same way a wrong password does.
	Verify(plaintext, credential string) bool
}

// SessionStore owns the server-side session lifecycle. Expiry is lazy:
// Resolve on a stale session behaves as if the session never existed.
type SessionStore interface {
	Start(ctx context.Context, userID kernel.UserID) (*Session, error)
	// Resolve maps a session id to its user, or ok=false when the session
	// is unknown or expired.
	Resolve(ctx context.Context, id kernel.SessionID) (kernel.UserID, bool, error)
	// Touch slides the expiry window. Racing touches across concurrent
	// requests are harmless: last writer wins and only extends validity.
	Touch(ctx context.Context, id kernel.SessionID) error
	Destroy(ctx context.Context, id kernel.SessionID) error
}

// OAuthService talks to one external identity provider.
type OAuthService interface {
	// AuthURL builds the provider redirect for a new state nonce.
	AuthURL(ctx context.Context) (string, error)
	// ExchangeCode validates state, trades the code for provider tokens and
	// returns the verified external identity.
	ExchangeCode(ctx context.Context, code, state string) (*ExternalIdentity, error)
}

// StateManager issues and consumes one-shot OAuth state nonces.
type StateManager interface {
	Generate(ctx context.Context, ttl time.Duration) (string, error)
	// Consume validates and invalidates a nonce in one step.
	Consume(ctx context.Context, state string) (bool, error)
}

// OwnershipChecker is the external resource collaborator the ownership
// guard consults. The course module implements it.
type OwnershipChecker interface {
	OwnerOf(ctx context.Context, resourceID string) (kernel.UserID, error)
}
