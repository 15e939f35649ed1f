package user

import (
	"context"

	"github.com/Abraxas-365/academy/pkg/iam"
	"github.com/Abraxas-365/academy/pkg/kernel"
)

// Repository is the identity store contract: the sole source of truth for
// identity, uniqueness and role state. The storage-level unique constraint
// on email is the final arbiter of concurrent-create races; Create surfaces
// it as a USER_EMAIL_TAKEN conflict and callers resolve by re-reading.
type Repository interface {
	Create(ctx context.Context, n NewUser) (*User, error)
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByOAuthID(ctx context.Context, provider iam.OAuthProvider, externalID string) (*User, error)

	// FindCredentialByEmail is the single unredacted read path. Only the
	// password login and change-password flows may call it.
	FindCredentialByEmail(ctx context.Context, email string) (*Credential, error)

	// LinkOAuth attaches a federated identity to an existing account.
	// Idempotent for the same pair on the same user; linking a pair owned
	// by a different user fails with USER_OAUTH_LINK_CONFLICT. Never
	// changes id, role or email.
	LinkOAuth(ctx context.Context, id kernel.UserID, provider iam.OAuthProvider, externalID string) (*User, error)

	SetRole(ctx context.Context, id kernel.UserID, role kernel.Role) error
	SetApproval(ctx context.Context, id kernel.UserID, approved bool) error
	SetActive(ctx context.Context, id kernel.UserID, active bool) error
	UpdateCredential(ctx context.Context, id kernel.UserID, hash string) error
	UpdateProfile(ctx context.Context, id kernel.UserID, name, avatar *string) (*User, error)

	List(ctx context.Context, filter ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[User], error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}
