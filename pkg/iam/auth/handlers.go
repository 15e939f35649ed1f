package auth

import (
	"context"

	"github.com/Abraxas-365/academy/pkg/config"
	"github.com/Abraxas-365/academy/pkg/iam/user"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/Abraxas-365/academy/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// RegistrationNotifier is told about new accounts so the welcome email can
// be queued off the request path. A nil notifier disables the emails.
type RegistrationNotifier interface {
	UserRegistered(ctx context.Context, u *user.User) error
}

// AuthHandlers owns the /api/auth HTTP surface.
type AuthHandlers struct {
	authn     *Authenticator
	tokens    TokenService
	sessions  SessionStore
	passwords PasswordService
	oauth     OAuthService
	users     user.Repository
	notifier  RegistrationNotifier

	clientURL string
	authCfg   config.AuthConfig
}

// NewAuthHandlers creates the auth HTTP handlers.
func NewAuthHandlers(
	authn *Authenticator,
	tokens TokenService,
	sessions SessionStore,
	passwords PasswordService,
	oauth OAuthService,
	users user.Repository,
	notifier RegistrationNotifier,
	clientURL string,
	authCfg config.AuthConfig,
) *AuthHandlers {
	return &AuthHandlers{
		authn:     authn,
		tokens:    tokens,
		sessions:  sessions,
		passwords: passwords,
		oauth:     oauth,
		users:     users,
		notifier:  notifier,
		clientURL: clientURL,
		authCfg:   authCfg,
	}
}

// RegisterRoutes mounts the auth endpoints. authenticate is the middleware
// protecting the routes that need a principal.
func (h *AuthHandlers) RegisterRoutes(app fiber.Router, authenticate fiber.Handler) {
	grp := app.Group("/api/auth")

	grp.Post("/register", h.register)
	grp.Post("/login", h.login)
	grp.Get("/google", h.googleRedirect)
	grp.Get("/google/callback", h.googleCallback)
	grp.Post("/logout", h.logout)

	grp.Get("/me", authenticate, h.me)
	grp.Put("/change-password", authenticate, h.changePassword)
	grp.Post("/link/google", authenticate, h.linkGoogle)
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AuthHandlers) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Invalid request body")
	}

	role := kernel.Role(req.Role)
	if req.Role == "" {
		role = kernel.RoleStudent
	}
	// Self-registration only hands out the two public roles. Admins are
	// provisioned out of band.
	if role != kernel.RoleStudent && role != kernel.RoleInstructor {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Role must be student or instructor").
			WithDetail("role", req.Role)
	}
	if len(req.Password) < h.authCfg.Password.MinLength {
		return ErrWeakPassword(h.authCfg.Password.MinLength)
	}

	hash, err := h.passwords.Hash(req.Password)
	if err != nil {
		return err
	}

	u, err := h.users.Create(c.Context(), user.NewUser{
		Email:        user.NormalizeEmail(req.Email),
		Name:         req.Name,
		PasswordHash: &hash,
		Role:         role,
	})
	if err != nil {
		return err
	}

	if h.notifier != nil {
		if nerr := h.notifier.UserRegistered(c.Context(), u); nerr != nil {
			logx.WithError(nerr).WithField("user_id", u.ID).Warn("failed to queue welcome notification")
		}
	}

	return h.respondAuthenticated(c, u, fiber.StatusCreated)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandlers) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Invalid request body")
	}

	u, err := h.authn.Authenticate(c.Context(), LocalCredential{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return h.respondAuthenticated(c, u, fiber.StatusOK)
}

func (h *AuthHandlers) googleRedirect(c *fiber.Ctx) error {
	url, err := h.oauth.AuthURL(c.Context())
	if err != nil {
		return err
	}
	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

// googleCallback lands the provider redirect. On success the browser is
// sent back to the client app carrying the token; the session cookie rides
// along on the redirect response.
func (h *AuthHandlers) googleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return ErrInvalidState()
	}

	u, err := h.authn.Authenticate(c.Context(), FederatedCredential{
		Code:  code,
		State: state,
	})
	if err != nil {
		return err
	}

	token, err := h.establish(c, u)
	if err != nil {
		return err
	}
	return c.Redirect(h.clientURL+"/auth/callback?token="+token, fiber.StatusTemporaryRedirect)
}

type linkRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

func (h *AuthHandlers) linkGoogle(c *fiber.Ctx) error {
	p, err := PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	var req linkRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Invalid request body")
	}

	identity, err := h.oauth.ExchangeCode(c.Context(), req.Code, req.State)
	if err != nil {
		return err
	}

	u, err := h.users.LinkOAuth(c.Context(), p.UserID, identity.Provider, identity.ExternalID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    u,
	})
}

func (h *AuthHandlers) me(c *fiber.Ctx) error {
	p, err := PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	u, err := h.users.FindByID(c.Context(), p.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    u,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandlers) changePassword(c *fiber.Ctx) error {
	p, err := PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Invalid request body")
	}
	if len(req.NewPassword) < h.authCfg.Password.MinLength {
		return ErrWeakPassword(h.authCfg.Password.MinLength)
	}

	stored, err := h.users.FindCredentialByEmail(c.Context(), p.Email)
	if err != nil {
		return err
	}

	// A federation-only account has no current password to prove; setting
	// one turns it into a hybrid account. Everyone else must prove the old
	// one first.
	if stored.Hash != "" && !h.passwords.Verify(req.CurrentPassword, stored.Hash) {
		return ErrInvalidCredentials()
	}

	hash, err := h.passwords.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := h.users.UpdateCredential(c.Context(), p.UserID, hash); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password updated",
	})
}

// logout terminates the transport: the server-side session dies and both
// cookies are cleared. Logging out without a live session is not an error.
func (h *AuthHandlers) logout(c *fiber.Ctx) error {
	if sid := c.Cookies(h.authCfg.Cookies.SessionName); sid != "" {
		if err := h.sessions.Destroy(c.Context(), kernel.SessionIDFrom(sid)); err != nil {
			logx.WithError(err).Warn("failed to destroy session on logout")
		}
	}
	ClearAuthCookies(c, h.authCfg.Cookies)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out",
	})
}

// establish issues the token and session for a freshly authenticated user
// and sets both cookies.
func (h *AuthHandlers) establish(c *fiber.Ctx, u *user.User) (string, error) {
	token, err := h.tokens.Issue(TokenClaims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	})
	if err != nil {
		return "", err
	}

	sess, err := h.sessions.Start(c.Context(), u.ID)
	if err != nil {
		return "", err
	}

	SetTokenCookie(c, h.authCfg.Cookies, token, h.authCfg.JWT.TTL)
	SetSessionCookie(c, h.authCfg.Cookies, sess)
	return token, nil
}

func (h *AuthHandlers) respondAuthenticated(c *fiber.Ctx, u *user.User, status int) error {
	token, err := h.establish(c, u)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    u,
	})
}
