package granter

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-token-engine/captcha"
	"github.com/jrsteele09/go-token-engine/clients"
	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/users"
	"github.com/pkg/errors"
)

type captchaPasswordStrategy struct {
	password *passwordStrategy
	captchas captcha.Source
}

func newCaptchaPasswordStrategy(services *tokenServices, validator users.CredentialValidator, captchas captcha.Source) *captchaPasswordStrategy {
	p := newPasswordStrategy(services, validator)
	p.grantType = oauth2.CaptchaPasswordGrant
	return &captchaPasswordStrategy{password: p, captchas: captchas}
}

func (s *captchaPasswordStrategy) GrantType() oauth2.GrantType {
	return s.password.GrantType()
}

func (s *captchaPasswordStrategy) Supports(grantType oauth2.GrantType) bool {
	return s.password.Supports(grantType)
}

// Grant checks the captcha before the password. The challenge is spent on every
// attempt, including ones whose password turns out to be wrong.
func (s *captchaPasswordStrategy) Grant(ctx context.Context, req oauth2.TokenRequest, client *clients.Client) (*oauth2.AccessToken, error) {
	key, submitted := req.Param(oauth2.ParamCaptchaKey), req.Param(oauth2.ParamCaptchaCode)
	if key == "" || submitted == "" {
		return nil, fmt.Errorf("captcha key and code are required: %w", oauth2.ErrInvalidCaptcha)
	}

	expected, err := s.captchas.FetchAndInvalidate(ctx, key)
	if errors.Is(err, captcha.ErrNotFound) {
		return nil, fmt.Errorf("captcha %s expired or unknown: %w", key, oauth2.ErrInvalidCaptcha)
	}
	if err != nil {
		return nil, errors.Wrap(err, "captchaPasswordStrategy.Grant FetchAndInvalidate")
	}
	if !captcha.Verify(expected, submitted) {
		return nil, fmt.Errorf("captcha %s mismatch: %w", key, oauth2.ErrInvalidCaptcha)
	}

	return s.password.grantWithPassword(ctx, req, client)
}
