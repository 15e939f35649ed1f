package auth_test

import (
	"testing"
	"time"

	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/iam/auth"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

func TestJWTService_IssueAndVerify(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour, "academy-test")

	claims := auth.TokenClaims{
		UserID: kernel.NewUserID(),
		Email:  "ana@example.com",
		Role:   kernel.RoleInstructor,
	}

	token, err := svc.Issue(claims)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	got, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if got.UserID != claims.UserID {
		t.Errorf("user id: got %s, want %s", got.UserID, claims.UserID)
	}
	if got.Email != claims.Email {
		t.Errorf("email: got %s, want %s", got.Email, claims.Email)
	}
	if got.Role != kernel.RoleInstructor {
		t.Errorf("role: got %s, want instructor", got.Role)
	}
	if !got.ExpiresAt.After(time.Now()) {
		t.Error("expected expiry in the future")
	}
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := auth.NewJWTService("test-secret", -time.Minute, "academy-test")

	token, err := svc.Issue(auth.TokenClaims{UserID: kernel.NewUserID()})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = svc.Verify(token)
	if !errx.HasCode(err, auth.CodeTokenExpired) {
		t.Fatalf("expected AUTH_TOKEN_EXPIRED, got %v", err)
	}
}

func TestJWTService_WrongSecretIsMalformed(t *testing.T) {
	issuer := auth.NewJWTService("secret-a", time.Hour, "academy-test")
	verifier := auth.NewJWTService("secret-b", time.Hour, "academy-test")

	token, err := issuer.Issue(auth.TokenClaims{UserID: kernel.NewUserID()})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = verifier.Verify(token)
	if !errx.HasCode(err, auth.CodeTokenMalformed) {
		t.Fatalf("expected AUTH_TOKEN_MALFORMED, got %v", err)
	}
}

func TestJWTService_MissingExpiryIsMalformed(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour, "academy-test")

	// Correctly signed but with no exp or iat claims. Expiry is part of
	// token validity, so this must fail as malformed, not pass or panic.
	bare := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": kernel.NewUserID().String(),
		"email":   "ana@example.com",
		"role":    string(kernel.RoleStudent),
	})
	token, err := bare.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	_, err = svc.Verify(token)
	if !errx.HasCode(err, auth.CodeTokenMalformed) {
		t.Fatalf("expected AUTH_TOKEN_MALFORMED, got %v", err)
	}
}

func TestJWTService_GarbageIsMalformed(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour, "academy-test")

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.Verify(token); !errx.HasCode(err, auth.CodeTokenMalformed) {
			t.Errorf("token %q: expected AUTH_TOKEN_MALFORMED, got %v", token, err)
		}
	}
}
