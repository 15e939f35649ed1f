package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/iam"
	"github.com/Abraxas-365/academy/pkg/kernel"
)

// ============================================================================
// Token Types
// ============================================================================

// TokenClaims is the signed claim set embedded in every issued token.
// Tokens are self-contained: validity is a pure function of the signing
// secret and the expiry, never of server-side state.
type TokenClaims struct {
	UserID    kernel.UserID `json:"user_id"`
	Email     string        `json:"email"`
	Role      kernel.Role   `json:"role"`
	IssuedAt  time.Time     `json:"iat"`
	ExpiresAt time.Time     `json:"exp"`
}

// ============================================================================
// Session Types
// ============================================================================

// Session is the server-side counterpart of a transport cookie. Created on
// any successful authentication, renewed on token-based resolution,
// destroyed on logout or expiry.
type Session struct {
	ID        kernel.SessionID `json:"id"`
	UserID    kernel.UserID    `json:"user_id"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ============================================================================
// Federated Identity
// ============================================================================

// ExternalIdentity is a verified identity handed back by an OAuth provider.
// By the time one of these exists the provider has already authenticated
// the subject; the federation resolver only decides which local account it
// maps to.
type ExternalIdentity struct {
	Provider   iam.OAuthProvider
	ExternalID string
	Email      string
	Name       string
	Avatar     string
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	// Authentication failures — 401
	CodeUnauthorized       = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthentication, http.StatusUnauthorized, "Authentication required")
	CodeInvalidCredentials = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthentication, http.StatusUnauthorized, "Invalid email or password")
	CodeTokenMalformed     = ErrRegistry.Register("TOKEN_MALFORMED", errx.TypeAuthentication, http.StatusUnauthorized, "Invalid token format")
	CodeTokenExpired       = ErrRegistry.Register("TOKEN_EXPIRED", errx.TypeAuthentication, http.StatusUnauthorized, "Token expired")
	CodeAccountNotFound    = ErrRegistry.Register("ACCOUNT_NOT_FOUND", errx.TypeAuthentication, http.StatusUnauthorized, "User account not found")

	// Authorization failures — 403
	CodeForbidden       = ErrRegistry.Register("FORBIDDEN", errx.TypeAuthorization, http.StatusForbidden, "Insufficient permissions")
	CodePendingApproval = ErrRegistry.Register("ACCOUNT_PENDING_APPROVAL", errx.TypeAuthorization, http.StatusForbidden, "Instructor account not yet approved")
	CodeNotCourseOwner  = ErrRegistry.Register("NOT_COURSE_OWNER", errx.TypeAuthorization, http.StatusForbidden, "You don't own this course")

	// Validation failures — 400
	CodeWeakPassword = ErrRegistry.Register("WEAK_PASSWORD", errx.TypeValidation, http.StatusBadRequest, "Password does not meet the minimum length")
	CodeInvalidState = ErrRegistry.Register("INVALID_STATE", errx.TypeValidation, http.StatusBadRequest, "Invalid OAuth state")

	// Infrastructure failures
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Token generation failed")
	CodeOAuthExchangeFailed   = ErrRegistry.Register("OAUTH_EXCHANGE_FAILED", errx.TypeExternal, http.StatusBadGateway, "OAuth authorization failed")
)

// Helper functions
func ErrUnauthorized() *errx.Error {
	return ErrRegistry.New(CodeUnauthorized)
}

func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

func ErrTokenMalformed() *errx.Error {
	return ErrRegistry.New(CodeTokenMalformed).
		WithDetail("solution", "Get a new token by logging in")
}

func ErrTokenExpired() *errx.Error {
	return ErrRegistry.New(CodeTokenExpired).
		WithDetail("solution", "Refresh your token by logging in again")
}

func ErrAccountNotFound() *errx.Error {
	return ErrRegistry.New(CodeAccountNotFound).
		WithDetail("solution", "Try logging in again")
}

func ErrForbidden() *errx.Error {
	return ErrRegistry.New(CodeForbidden)
}

func ErrPendingApproval() *errx.Error {
	return ErrRegistry.New(CodePendingApproval)
}

func ErrNotCourseOwner() *errx.Error {
	return ErrRegistry.New(CodeNotCourseOwner)
}

func ErrWeakPassword(minLength int) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeWeakPassword,
		fmt.Sprintf("Password must be at least %d characters", minLength))
}

func ErrInvalidState() *errx.Error {
	return ErrRegistry.New(CodeInvalidState)
}

func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}

func ErrOAuthExchangeFailed() *errx.Error {
	return ErrRegistry.New(CodeOAuthExchangeFailed)
}
