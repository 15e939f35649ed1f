package iamcontainer

import (
	"github.com/Abraxas-365/academy/pkg/config"
	"github.com/Abraxas-365/academy/pkg/fsx"
	"github.com/Abraxas-365/academy/pkg/iam/auth"
	"github.com/Abraxas-365/academy/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/academy/pkg/iam/user"
	"github.com/Abraxas-365/academy/pkg/iam/user/userapi"
	"github.com/Abraxas-365/academy/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/academy/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/academy/pkg/logx"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// No hidden globals, no ambient state.
// ---------------------------------------------------------------------------

type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
	Cfg   *config.Config

	// Storage holds uploaded avatars; injected so the IAM module does not
	// know whether blobs land on disk or S3.
	Storage fsx.Storage

	// Notifier queues lifecycle emails. Injected as interfaces so IAM has
	// zero knowledge of the notification implementation; nil disables them.
	Notifier usersrv.NotificationEnqueuer

	// RegistrationNotifier is the same concern on the registration path.
	RegistrationNotifier auth.RegistrationNotifier
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module. Only what cmd/ and
// other modules actually need is exposed.
// ---------------------------------------------------------------------------

type Container struct {
	// Services and repositories other modules consume
	UserService  *usersrv.UserService
	UserRepo     user.Repository
	TokenService auth.TokenService
	Sessions     auth.SessionStore

	// Handlers cmd/ registers
	AuthHandlers *auth.AuthHandlers
	UserHandlers *userapi.UserHandlers

	// Middleware cmd/ uses to protect route groups
	AuthMiddleware *auth.AuthMiddleware
}

// New constructs the IAM dependency graph. Order matters: infra, then
// repositories, then services, then handlers, then middleware.
func New(deps Deps) *Container {
	logx.Info("initializing IAM container")

	c := &Container{}

	// Repositories
	userRepo := userinfra.NewPostgresUserRepository(deps.DB)
	c.UserRepo = userRepo

	// Infrastructure services
	var stateManager auth.StateManager
	if deps.Cfg.OAuth.State.Type == "redis" {
		stateManager = authinfra.NewRedisStateManager(deps.Redis, deps.Cfg.OAuth.State.TTL)
	} else {
		stateManager = auth.NewInMemoryStateManager(deps.Cfg.OAuth.State.TTL)
		logx.Warn("using in-memory OAuth state manager; callbacks must land on this instance")
	}

	passwordSvc := authinfra.NewBcryptPasswordService(deps.Cfg.Auth.Password.BcryptCost)
	c.TokenService = auth.NewJWTServiceFromConfig(&deps.Cfg.Auth.JWT)
	c.Sessions = authinfra.NewRedisSessionStore(deps.Redis, deps.Cfg.Auth.Session.TTL)

	var oauthSvc auth.OAuthService
	if deps.Cfg.OAuth.Google.Enabled {
		oauthSvc = authinfra.NewGoogleOAuthService(&deps.Cfg.OAuth.Google, stateManager)
		logx.Info("Google OAuth enabled")
	} else {
		oauthSvc = authinfra.NewDisabledOAuthService()
		logx.Warn("Google OAuth disabled; federated login will reject all attempts")
	}

	// Domain services
	federation := auth.NewFederationService(userRepo)
	authenticator := auth.NewAuthenticator(userRepo, passwordSvc, oauthSvc, federation)

	c.UserService = usersrv.NewUserService(userRepo, passwordSvc, deps.Notifier)

	// Handlers
	c.AuthHandlers = auth.NewAuthHandlers(
		authenticator,
		c.TokenService,
		c.Sessions,
		passwordSvc,
		oauthSvc,
		userRepo,
		deps.RegistrationNotifier,
		deps.Cfg.Server.ClientURL,
		deps.Cfg.Auth,
	)
	c.UserHandlers = userapi.NewUserHandlers(c.UserService, deps.Storage)

	// Middleware
	c.AuthMiddleware = auth.NewAuthMiddleware(c.Sessions, c.TokenService, userRepo, deps.Cfg.Auth.Cookies)

	logx.Info("IAM container initialized")
	return c
}
