package auth

import (
	"context"

	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/iam/user"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/Abraxas-365/academy/pkg/logx"
)

// FederationService maps verified external identities to local accounts.
// Resolution is deterministic: a given identity always lands on the same
// account, and a concurrent first login for the same email converges on one
// account instead of producing duplicates.
type FederationService struct {
	users user.Repository
}

// NewFederationService creates the resolver over the identity store.
func NewFederationService(users user.Repository) *FederationService {
	return &FederationService{users: users}
}

// Resolve finds or creates the local account for an external identity.
//
// Order matters: the (provider, external id) pair is the primary key of a
// federated identity and wins over email, so a user who changes their email
// at the provider still lands on their original account. An email match on
// an unlinked account merges by linking, preserving the account's id, role
// and email. Only when neither matches is a new student account created,
// with no password credential.
func (s *FederationService) Resolve(ctx context.Context, identity *ExternalIdentity) (*user.User, error) {
	found, err := s.users.FindByOAuthID(ctx, identity.Provider, identity.ExternalID)
	if err == nil {
		return found, nil
	}
	if !errx.HasCode(err, user.CodeNotFound) {
		return nil, err
	}

	email := user.NormalizeEmail(identity.Email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return s.link(ctx, existing, identity)
	}
	if !errx.HasCode(err, user.CodeNotFound) {
		return nil, err
	}

	created, err := s.create(ctx, identity, email)
	if err == nil {
		logx.WithFields(logx.Fields{
			"user_id":  created.ID,
			"provider": identity.Provider,
		}).Info("created account from federated login")
		return created, nil
	}

	// A concurrent first login for the same email can create the account
	// between our lookup and insert. The unique constraint arbitrates; the
	// loser re-reads and merges into the winner's account.
	if errx.HasCode(err, user.CodeEmailTaken) {
		existing, ferr := s.users.FindByEmail(ctx, email)
		if ferr != nil {
			return nil, ferr
		}
		return s.link(ctx, existing, identity)
	}
	return nil, err
}

func (s *FederationService) link(ctx context.Context, u *user.User, identity *ExternalIdentity) (*user.User, error) {
	linked, err := s.users.LinkOAuth(ctx, u.ID, identity.Provider, identity.ExternalID)
	if err != nil {
		return nil, err
	}
	if !u.HasOAuth() {
		logx.WithFields(logx.Fields{
			"user_id":  u.ID,
			"provider": identity.Provider,
		}).Info("linked federated identity to existing account")
	}
	return linked, nil
}

func (s *FederationService) create(ctx context.Context, identity *ExternalIdentity, email string) (*user.User, error) {
	provider := identity.Provider
	externalID := identity.ExternalID

	n := user.NewUser{
		Email:         email,
		Name:          identity.Name,
		OAuthProvider: &provider,
		OAuthID:       &externalID,
		Role:          kernel.RoleStudent,
	}
	if identity.Avatar != "" {
		avatar := identity.Avatar
		n.Avatar = &avatar
	}
	if n.Name == "" {
		n.Name = email
	}
	return s.users.Create(ctx, n)
}
