package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abraxas-365/academy/pkg/config"
	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/iam/auth"
	"github.com/Abraxas-365/academy/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/academy/pkg/iam/user"
	"github.com/Abraxas-365/academy/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

var testCookies = config.CookieConfig{
	TokenName:   "academy_token",
	SessionName: "academy_session",
}

// testErrorHandler maps errx errors to their HTTP status so assertions can
// read codes off the response.
func testErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *errx.Error
	if errors.As(err, &appErr) {
		return c.Status(appErr.HTTPStatus).JSON(fiber.Map{"code": appErr.Code})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": "INTERNAL"})
}

type middlewareFixture struct {
	app      *fiber.App
	repo     *userinfra.InMemoryUserRepository
	sessions *authinfra.InMemorySessionStore
	tokens   *auth.JWTService
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()

	repo := userinfra.NewInMemoryUserRepository()
	sessions := authinfra.NewInMemorySessionStore(time.Hour)
	tokens := auth.NewJWTService("test-secret", time.Hour, "academy-test")
	mw := auth.NewAuthMiddleware(sessions, tokens, repo, testCookies)

	app := fiber.New(fiber.Config{ErrorHandler: testErrorHandler})
	app.Get("/protected", mw.Authenticate(), func(c *fiber.Ctx) error {
		p, err := auth.PrincipalFromCtx(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"email": p.Email})
	})
	app.Get("/optional", mw.OptionalAuthenticate(), func(c *fiber.Ctx) error {
		if p, err := auth.PrincipalFromCtx(c); err == nil {
			return c.JSON(fiber.Map{"email": p.Email})
		}
		return c.JSON(fiber.Map{"email": "anonymous"})
	})

	return &middlewareFixture{app: app, repo: repo, sessions: sessions, tokens: tokens}
}

func (f *middlewareFixture) createUser(t *testing.T, email string) *user.User {
	t.Helper()
	hash := "$2a$10$fakefakefakefakefakefake"
	u, err := f.repo.Create(context.Background(), user.NewUser{
		Email:        email,
		Name:         "Test User",
		PasswordHash: &hash,
		Role:         kernel.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return u
}

func (f *middlewareFixture) issueToken(t *testing.T, u *user.User) string {
	t.Helper()
	token, err := f.tokens.Issue(auth.TokenClaims{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return token
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]string) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestAuthenticate_NoCredentials(t *testing.T) {
	f := newMiddlewareFixture(t)

	resp, body := doRequest(t, f.app, httptest.NewRequest("GET", "/protected", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", resp.StatusCode)
	}
	if body["code"] != "AUTH_UNAUTHORIZED" {
		t.Errorf("code: got %s", body["code"])
	}
}

func TestAuthenticate_BearerTokenPlantsSession(t *testing.T) {
	f := newMiddlewareFixture(t)
	u := f.createUser(t, "ana@example.com")

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+f.issueToken(t, u))

	resp, body := doRequest(t, f.app, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if body["email"] != "ana@example.com" {
		t.Errorf("email: got %s", body["email"])
	}

	// Token resolution leaves a session cookie behind so the next request
	// skips signature verification.
	var sid string
	for _, c := range resp.Cookies() {
		if c.Name == testCookies.SessionName {
			sid = c.Value
		}
	}
	if sid == "" {
		t.Fatal("expected a session cookie on the response")
	}
	userID, ok, err := f.sessions.Resolve(context.Background(), kernel.SessionIDFrom(sid))
	if err != nil || !ok {
		t.Fatalf("planted session does not resolve: ok=%v err=%v", ok, err)
	}
	if userID != u.ID {
		t.Errorf("session user: got %s, want %s", userID, u.ID)
	}
}

func TestAuthenticate_TokenInCookieAndQuery(t *testing.T) {
	f := newMiddlewareFixture(t)
	u := f.createUser(t, "ana@example.com")
	token := f.issueToken(t, u)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: testCookies.TokenName, Value: token})
	if resp, _ := doRequest(t, f.app, req); resp.StatusCode != http.StatusOK {
		t.Errorf("cookie token: got %d, want 200", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/protected?token="+token, nil)
	if resp, _ := doRequest(t, f.app, req); resp.StatusCode != http.StatusOK {
		t.Errorf("query token: got %d, want 200", resp.StatusCode)
	}
}

func TestAuthenticate_SessionCookie(t *testing.T) {
	f := newMiddlewareFixture(t)
	u := f.createUser(t, "ana@example.com")

	sess, err := f.sessions.Start(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: testCookies.SessionName, Value: sess.ID.String()})

	resp, body := doRequest(t, f.app, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if body["email"] != "ana@example.com" {
		t.Errorf("email: got %s", body["email"])
	}
}

func TestAuthenticate_StaleSessionFallsBackToToken(t *testing.T) {
	f := newMiddlewareFixture(t)
	u := f.createUser(t, "ana@example.com")

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: testCookies.SessionName, Value: kernel.NewSessionID().String()})
	req.Header.Set("Authorization", "Bearer "+f.issueToken(t, u))

	resp, _ := doRequest(t, f.app, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200 via token fallback", resp.StatusCode)
	}
}

func TestAuthenticate_ExpiredTokenCode(t *testing.T) {
	f := newMiddlewareFixture(t)
	u := f.createUser(t, "ana@example.com")

	expired := auth.NewJWTService("test-secret", -time.Minute, "academy-test")
	token, err := expired.Issue(auth.TokenClaims{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, body := doRequest(t, f.app, req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", resp.StatusCode)
	}
	if body["code"] != "AUTH_TOKEN_EXPIRED" {
		t.Errorf("code: got %s, want AUTH_TOKEN_EXPIRED", body["code"])
	}
}

func TestAuthenticate_TokenForDeletedAccount(t *testing.T) {
	f := newMiddlewareFixture(t)
	ghost := &user.User{ID: kernel.NewUserID(), Email: "ghost@example.com", Role: kernel.RoleStudent}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+f.issueToken(t, ghost))

	resp, body := doRequest(t, f.app, req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", resp.StatusCode)
	}
	if body["code"] != "AUTH_ACCOUNT_NOT_FOUND" {
		t.Errorf("code: got %s, want AUTH_ACCOUNT_NOT_FOUND", body["code"])
	}
}

func TestAuthenticate_InactiveAccountDestroysSession(t *testing.T) {
	f := newMiddlewareFixture(t)
	u := f.createUser(t, "ana@example.com")

	sess, err := f.sessions.Start(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := f.repo.SetActive(context.Background(), u.ID, false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: testCookies.SessionName, Value: sess.ID.String()})

	resp, body := doRequest(t, f.app, req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", resp.StatusCode)
	}
	if body["code"] != "USER_INACTIVE" {
		t.Errorf("code: got %s, want USER_INACTIVE", body["code"])
	}

	if _, ok, _ := f.sessions.Resolve(context.Background(), sess.ID); ok {
		t.Error("session should be destroyed when the account is inactive")
	}
}

func TestOptionalAuthenticate(t *testing.T) {
	f := newMiddlewareFixture(t)
	u := f.createUser(t, "ana@example.com")

	// Anonymous request passes through.
	resp, body := doRequest(t, f.app, httptest.NewRequest("GET", "/optional", nil))
	if resp.StatusCode != http.StatusOK || body["email"] != "anonymous" {
		t.Fatalf("anonymous: status=%d email=%s", resp.StatusCode, body["email"])
	}

	// Valid credentials resolve the principal.
	req := httptest.NewRequest("GET", "/optional", nil)
	req.Header.Set("Authorization", "Bearer "+f.issueToken(t, u))
	resp, body = doRequest(t, f.app, req)
	if resp.StatusCode != http.StatusOK || body["email"] != "ana@example.com" {
		t.Fatalf("authenticated: status=%d email=%s", resp.StatusCode, body["email"])
	}

	// Bad credentials degrade to anonymous instead of failing the request.
	req = httptest.NewRequest("GET", "/optional", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, body = doRequest(t, f.app, req)
	if resp.StatusCode != http.StatusOK || body["email"] != "anonymous" {
		t.Fatalf("bad credentials: status=%d email=%s", resp.StatusCode, body["email"])
	}
}

func TestOptionalAuthenticate_HandlerErrorStaysTerminal(t *testing.T) {
	f := newMiddlewareFixture(t)
	u := f.createUser(t, "ana@example.com")

	mw := auth.NewAuthMiddleware(f.sessions, f.tokens, f.repo, testCookies)
	app := fiber.New(fiber.Config{ErrorHandler: testErrorHandler})
	calls := 0
	app.Get("/r", mw.OptionalAuthenticate(), func(c *fiber.Ctx) error {
		calls++
		return user.ErrNotFound()
	})

	// An authenticated viewer hitting a missing resource must see the
	// domain error, not a swallowed chain re-run.
	req := httptest.NewRequest("GET", "/r", nil)
	req.Header.Set("Authorization", "Bearer "+f.issueToken(t, u))
	resp, body := doRequest(t, app, req)
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", resp.StatusCode)
	}
	if body["code"] != "USER_NOT_FOUND" {
		t.Errorf("code: got %s, want USER_NOT_FOUND", body["code"])
	}

	// Same for an anonymous viewer.
	resp, body = doRequest(t, app, httptest.NewRequest("GET", "/r", nil))
	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
	if resp.StatusCode != http.StatusNotFound || body["code"] != "USER_NOT_FOUND" {
		t.Errorf("anonymous: status=%d code=%s", resp.StatusCode, body["code"])
	}
}
