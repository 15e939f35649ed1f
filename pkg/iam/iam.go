package iam

import (
	"net/http"

	"github.com/Abraxas-365/academy/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthorized = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthentication, http.StatusUnauthorized, "Authentication required")
	CodeAccessDenied = ErrRegistry.Register("ACCESS_DENIED", errx.TypeAuthorization, http.StatusForbidden, "Access denied")
)

// Helper functions
func ErrUnauthorized() *errx.Error {
	return ErrRegistry.New(CodeUnauthorized)
}

func ErrAccessDenied() *errx.Error {
	return ErrRegistry.New(CodeAccessDenied)
}

// OAuthProvider represents supported OAuth providers. Google is the only
// provider wired today; the type keeps the storage schema honest about
// which external directory an oauth_id belongs to.
type OAuthProvider string

const (
	OAuthProviderGoogle OAuthProvider = "google"
)

// IsValid reports whether the provider is supported.
func (p OAuthProvider) IsValid() bool {
	return p == OAuthProviderGoogle
}

// GetProviderName returns the human-readable provider name
func (p OAuthProvider) GetProviderName() string {
	switch p {
	case OAuthProviderGoogle:
		return "Google"
	default:
		return "Unknown"
	}
}
