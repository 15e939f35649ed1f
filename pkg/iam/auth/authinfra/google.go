package authinfra

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Abraxas-365/academy/pkg/config"
	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/iam"
	"github.com/Abraxas-365/academy/pkg/iam/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuthService implements auth.OAuthService for Google. It only
// produces verified external identities; mapping them to local accounts is
// the federation resolver's job.
type GoogleOAuthService struct {
	oauth  *oauth2.Config
	states auth.StateManager
	client *http.Client
}

// NewGoogleOAuthService creates the Google provider from config.
func NewGoogleOAuthService(cfg *config.GoogleOAuthConfig, states auth.StateManager) *GoogleOAuthService {
	return &GoogleOAuthService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		states: states,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthURL builds the provider redirect for a fresh state nonce.
func (s *GoogleOAuthService) AuthURL(ctx context.Context) (string, error) {
	state, err := s.states.Generate(ctx, 0)
	if err != nil {
		return "", err
	}
	return s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	), nil
}

// googleUserInfo is the subset of Google's userinfo payload we consume.
type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ExchangeCode validates the state, trades the authorization code for
// tokens and fetches the subject's profile.
func (s *GoogleOAuthService) ExchangeCode(ctx context.Context, code, state string) (*auth.ExternalIdentity, error) {
	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, auth.ErrInvalidState()
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, auth.ErrOAuthExchangeFailed().WithDetail("error", err.Error())
	}

	info, err := s.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	if info.ID == "" || info.Email == "" {
		return nil, auth.ErrOAuthExchangeFailed().WithDetail("reason", "provider returned incomplete profile")
	}

	return &auth.ExternalIdentity{
		Provider:   iam.OAuthProviderGoogle,
		ExternalID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
		Avatar:     info.Picture,
	}, nil
}

func (s *GoogleOAuthService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, errx.Wrap(err, "failed to build userinfo request", errx.TypeInternal)
	}
	token.SetAuthHeader(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, auth.ErrOAuthExchangeFailed().WithDetail("error", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, auth.ErrOAuthExchangeFailed().WithDetail("status", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, auth.ErrOAuthExchangeFailed().WithDetail("error", err.Error())
	}
	return &info, nil
}
