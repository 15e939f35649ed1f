package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/iam"
	"github.com/Abraxas-365/academy/pkg/kernel"
)

// ============================================================================
// Domain Types
// ============================================================================

// User is the redacted account projection. It never carries the password
// hash; the single credential-fetch path used by password login returns a
// Credential instead.
type User struct {
	ID            kernel.UserID      `db:"id" json:"id"`
	Email         string             `db:"email" json:"email"`
	Name          string             `db:"name" json:"name"`
	Avatar        *string            `db:"avatar" json:"avatar,omitempty"`
	OAuthProvider *iam.OAuthProvider `db:"oauth_provider" json:"oauth_provider,omitempty"`
	OAuthID       *string            `db:"oauth_id" json:"-"`
	Role          kernel.Role        `db:"role" json:"role"`
	IsApproved    bool               `db:"is_approved" json:"is_approved"`
	IsActive      bool               `db:"is_active" json:"is_active"`
	HasPassword   bool               `db:"has_password" json:"-"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
}

// Credential is the internal projection carrying the password hash. Only the
// password login flow may fetch it. Hash is empty for federation-only
// accounts.
type Credential struct {
	UserID kernel.UserID `db:"id"`
	Email  string        `db:"email"`
	Hash   string        `db:"password_hash"`
}

// NewUser carries everything needed to create an account. Exactly one of
// PasswordHash or the OAuth pair must be set: an account reachable by no
// login path must never be produced.
type NewUser struct {
	Email         string
	Name          string
	Avatar        *string
	PasswordHash  *string
	OAuthProvider *iam.OAuthProvider
	OAuthID       *string
	Role          kernel.Role
	IsApproved    bool
}

// ListFilter narrows admin user listings.
type ListFilter struct {
	Role     *kernel.Role
	IsActive *bool
}

// ============================================================================
// Domain Methods
// ============================================================================

// HasOAuth reports whether a federated identity is linked. The provider and
// external id are always set together; one without the other is a storage
// corruption.
func (u *User) HasOAuth() bool {
	return u.OAuthProvider != nil && u.OAuthID != nil
}

// Principal projects the user onto the request principal.
func (u *User) Principal() *kernel.Principal {
	return &kernel.Principal{
		UserID:     u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		IsApproved: u.IsApproved,
		IsActive:   u.IsActive,
	}
}

// Validate checks the creation invariants before anything hits storage.
func (n *NewUser) Validate() error {
	if strings.TrimSpace(n.Email) == "" {
		return ErrRegistry.NewWithMessage(CodeInvalidInput, "Email is required")
	}
	if !strings.Contains(n.Email, "@") {
		return ErrRegistry.NewWithMessage(CodeInvalidInput, "Email is not valid")
	}
	if strings.TrimSpace(n.Name) == "" {
		return ErrRegistry.NewWithMessage(CodeInvalidInput, "Name is required")
	}
	if !n.Role.IsValid() {
		return ErrRegistry.NewWithMessage(CodeInvalidInput, "Unknown role").
			WithDetail("role", string(n.Role))
	}
	if (n.OAuthProvider == nil) != (n.OAuthID == nil) {
		return ErrRegistry.NewWithMessage(CodeInvalidInput, "OAuth provider and id must be set together")
	}
	if n.PasswordHash == nil && n.OAuthProvider == nil {
		return ErrRegistry.NewWithMessage(CodeInvalidInput, "Account needs a password or a federated identity")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email so uniqueness is
// case-insensitive everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeNotFound     = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeEmailTaken   = ErrRegistry.Register("EMAIL_TAKEN", errx.TypeConflict, http.StatusConflict, "Email already in use")
	CodeLinkConflict = ErrRegistry.Register("OAUTH_LINK_CONFLICT", errx.TypeConflict, http.StatusConflict, "This identity is linked to another account")
	CodeInactive     = ErrRegistry.Register("INACTIVE", errx.TypeAuthentication, http.StatusUnauthorized, "User account is inactive")
	CodeInvalidInput = ErrRegistry.Register("INVALID_INPUT", errx.TypeValidation, http.StatusBadRequest, "Invalid user data")
)

func ErrNotFound() *errx.Error     { return ErrRegistry.New(CodeNotFound) }
func ErrEmailTaken() *errx.Error   { return ErrRegistry.New(CodeEmailTaken) }
func ErrLinkConflict() *errx.Error { return ErrRegistry.New(CodeLinkConflict) }
func ErrInactive() *errx.Error     { return ErrRegistry.New(CodeInactive) }
