package authinfra

import (
	"context"

	"github.com/Abraxas-365/academy/pkg/iam/auth"
)

// DisabledOAuthService stands in when no provider is configured. Every
// call fails cleanly instead of panicking on a nil service.
type DisabledOAuthService struct{}

// NewDisabledOAuthService creates the stand-in.
func NewDisabledOAuthService() *DisabledOAuthService {
	return &DisabledOAuthService{}
}

func (s *DisabledOAuthService) AuthURL(context.Context) (string, error) {
	return "", auth.ErrOAuthExchangeFailed().WithDetail("reason", "no OAuth provider configured")
}

func (s *DisabledOAuthService) ExchangeCode(context.Context, string, string) (*auth.ExternalIdentity, error) {
	return nil, auth.ErrOAuthExchangeFailed().WithDetail("reason", "no OAuth provider configured")
}
