package auth

import (
	"strings"

	"github.com/Abraxas-365/academy/pkg/config"
	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/iam/user"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware resolves the request principal. Resolution is hybrid:
// a live server-side session wins, a valid token is the fallback, and a
// token-resolved request gets a fresh session so subsequent requests take
// the cheap path.
type AuthMiddleware struct {
	sessions SessionStore
	tokens   TokenService
	users    user.Repository
	cookies  config.CookieConfig
}

// NewAuthMiddleware creates the authentication middleware.
func NewAuthMiddleware(sessions SessionStore, tokens TokenService, users user.Repository, cookies config.CookieConfig) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		tokens:   tokens,
		users:    users,
		cookies:  cookies,
	}
}

// Authenticate validates the request credentials and stores the principal
// in the request locals. Order: session cookie, then token cookie, then
// Authorization bearer header, then the token query parameter.
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := m.resolve(c); err != nil {
			return err
		}
		return c.Next()
	}
}

// OptionalAuthenticate resolves the principal when credentials are present
// but lets anonymous requests through. Routes with per-viewer visibility
// use it. Only credential failures degrade to anonymous; any other error,
// including everything raised after the chain advances, stays terminal.
func (m *AuthMiddleware) OptionalAuthenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		hasCreds := c.Cookies(m.cookies.SessionName) != "" || m.extractToken(c) != ""
		if hasCreds {
			if err := m.resolve(c); err != nil && !errx.IsType(err, errx.TypeAuthentication) {
				return err
			}
		}
		return c.Next()
	}
}

// resolve authenticates the request and admits the principal into locals.
// It never advances the handler chain; the callers own c.Next.
func (m *AuthMiddleware) resolve(c *fiber.Ctx) error {
	if sid := c.Cookies(m.cookies.SessionName); sid != "" {
		handled, err := m.fromSession(c, kernel.SessionIDFrom(sid))
		if handled || err != nil {
			return err
		}
		// Stale session cookie. Fall through to token resolution so a
		// still-valid token revives access instead of failing the
		// request.
	}

	token := m.extractToken(c)
	if token == "" {
		return ErrUnauthorized()
	}
	return m.fromToken(c, token)
}

// fromSession resolves a session-backed request. handled=false means the
// session is unknown or expired and token fallback should run.
func (m *AuthMiddleware) fromSession(c *fiber.Ctx, sid kernel.SessionID) (bool, error) {
	ctx := c.Context()

	userID, ok, err := m.sessions.Resolve(ctx, sid)
	if err != nil {
		return true, err
	}
	if !ok {
		return false, nil
	}

	u, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errx.HasCode(err, user.CodeNotFound) {
			// The account vanished under a live session. Kill the session
			// rather than resurrecting it from the token.
			_ = m.sessions.Destroy(ctx, sid)
			return true, ErrAccountNotFound()
		}
		return true, err
	}
	if !u.IsActive {
		_ = m.sessions.Destroy(ctx, sid)
		return true, user.ErrInactive()
	}

	// Sliding expiry. A failed touch only shortens the window, never
	// breaks the request.
	_ = m.sessions.Touch(ctx, sid)

	m.admit(c, u, sid)
	return true, nil
}

// fromToken resolves a token-backed request and plants a session so the
// next request resolves without signature verification.
func (m *AuthMiddleware) fromToken(c *fiber.Ctx, token string) error {
	claims, err := m.tokens.Verify(token)
	if err != nil {
		return err
	}

	ctx := c.Context()

	u, err := m.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errx.HasCode(err, user.CodeNotFound) {
			return ErrAccountNotFound()
		}
		return err
	}
	if !u.IsActive {
		return user.ErrInactive()
	}

	sess, err := m.sessions.Start(ctx, u.ID)
	if err != nil {
		return err
	}
	SetSessionCookie(c, m.cookies, sess)

	m.admit(c, u, sess.ID)
	return nil
}

func (m *AuthMiddleware) admit(c *fiber.Ctx, u *user.User, sid kernel.SessionID) {
	c.Locals(string(kernel.PrincipalContextKey), u.Principal())
	c.Locals(string(kernel.SessionContextKey), sid)
}

// extractToken pulls the token from the cookie, the Authorization header or
// the query string, in that priority order.
func (m *AuthMiddleware) extractToken(c *fiber.Ctx) string {
	if token := c.Cookies(m.cookies.TokenName); token != "" {
		return token
	}
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1]
		}
	}
	return c.Query("token")
}

// PrincipalFromCtx returns the authenticated principal stored by
// Authenticate, or an unauthorized error when the route skipped it.
func PrincipalFromCtx(c *fiber.Ctx) (*kernel.Principal, error) {
	p, ok := c.Locals(string(kernel.PrincipalContextKey)).(*kernel.Principal)
	if !ok || !p.IsValid() {
		return nil, ErrUnauthorized()
	}
	return p, nil
}

// SessionFromCtx returns the session id bound to the request, if any.
func SessionFromCtx(c *fiber.Ctx) (kernel.SessionID, bool) {
	sid, ok := c.Locals(string(kernel.SessionContextKey)).(kernel.SessionID)
	return sid, ok && !sid.IsEmpty()
}
