package auth

import (
	"context"

	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/iam/user"
)

// Credential is the closed set of ways a caller can prove an identity.
// Each variant has exactly one strategy; Authenticator.Authenticate
// dispatches on the concrete type.
type Credential interface {
	credential()
}

// LocalCredential is an email and password pair.
type LocalCredential struct {
	Email    string
	Password string
}

func (LocalCredential) credential() {}

// FederatedCredential is an OAuth authorization code plus the state nonce
// that started the flow.
type FederatedCredential struct {
	Code  string
	State string
}

func (FederatedCredential) credential() {}

// Authenticator turns credentials into authenticated users. It is the only
// component allowed to read password hashes.
type Authenticator struct {
	users      user.Repository
	passwords  PasswordService
	oauth      OAuthService
	federation *FederationService
}

// NewAuthenticator wires the credential strategies.
func NewAuthenticator(users user.Repository, passwords PasswordService, oauth OAuthService, federation *FederationService) *Authenticator {
	return &Authenticator{
		users:      users,
		passwords:  passwords,
		oauth:      oauth,
		federation: federation,
	}
}

// Authenticate verifies the credential and returns the redacted account.
// Every local failure mode collapses into AUTH_INVALID_CREDENTIALS so the
// response never reveals whether an email is registered.
func (a *Authenticator) Authenticate(ctx context.Context, cred Credential) (*user.User, error) {
	switch c := cred.(type) {
	case LocalCredential:
		return a.local(ctx, c)
	case FederatedCredential:
		return a.federated(ctx, c)
	default:
		return nil, ErrInvalidCredentials()
	}
}

func (a *Authenticator) local(ctx context.Context, c LocalCredential) (*user.User, error) {
	stored, err := a.users.FindCredentialByEmail(ctx, user.NormalizeEmail(c.Email))
	if err != nil {
		if errx.HasCode(err, user.CodeNotFound) {
			return nil, ErrInvalidCredentials()
		}
		return nil, err
	}

	// An empty hash means a federation-only account; Verify returns false
	// and the caller sees the same failure as a wrong password.
	if !a.passwords.Verify(c.Password, stored.Hash) {
		return nil, ErrInvalidCredentials()
	}

	u, err := a.users.FindByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	return a.admit(u)
}

func (a *Authenticator) federated(ctx context.Context, c FederatedCredential) (*user.User, error) {
	identity, err := a.oauth.ExchangeCode(ctx, c.Code, c.State)
	if err != nil {
		return nil, err
	}

	u, err := a.federation.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	return a.admit(u)
}

// admit is the final gate shared by every strategy: deactivated accounts
// cannot authenticate regardless of how they proved their identity.
func (a *Authenticator) admit(u *user.User) (*user.User, error) {
	if !u.IsActive {
		return nil, user.ErrInactive()
	}
	return u, nil
}
