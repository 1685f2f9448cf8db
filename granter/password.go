package granter

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-token-engine/clients"
	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/users"
	"github.com/pkg/errors"
)

type passwordStrategy struct {
	baseStrategy
	validator users.CredentialValidator
}

func newPasswordStrategy(services *tokenServices, validator users.CredentialValidator) *passwordStrategy {
	return &passwordStrategy{
		baseStrategy: baseStrategy{grantType: oauth2.PasswordGrant, services: services},
		validator:    validator,
	}
}

func (s *passwordStrategy) Grant(ctx context.Context, req oauth2.TokenRequest, client *clients.Client) (*oauth2.AccessToken, error) {
	return s.grantWithPassword(ctx, req, client)
}

// grantWithPassword is shared with the captcha strategy, which runs it once the
// challenge has passed.
func (s *passwordStrategy) grantWithPassword(ctx context.Context, req oauth2.TokenRequest, client *clients.Client) (*oauth2.AccessToken, error) {
	username, password := req.Param(oauth2.ParamUsername), req.Param(oauth2.ParamPassword)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", oauth2.ErrInvalidGrant)
	}

	p, err := s.validator.Authenticate(ctx, username, password)
	if err != nil {
		return nil, userError(err, "passwordStrategy.Grant Authenticate")
	}
	if !p.Usable() {
		return nil, fmt.Errorf("user %s: %w", username, oauth2.ErrAccountDisabled)
	}

	auth, err := s.authorization(req, client)
	if err != nil {
		return nil, err
	}
	auth.Principal = p
	return s.services.createAccessToken(ctx, client, auth, true)
}

// userError maps identity source failures onto grant errors. Anything unrecognised is
// an infrastructure failure and is passed on wrapped.
func userError(err error, op string) error {
	switch {
	case errors.Is(err, users.ErrBadCredentials), errors.Is(err, users.ErrUserNotFound):
		return fmt.Errorf("bad credentials: %w", oauth2.ErrInvalidGrant)
	case errors.Is(err, users.ErrAccountDisabled), errors.Is(err, users.ErrAccountLocked):
		return fmt.Errorf("%v: %w", err, oauth2.ErrAccountDisabled)
	}
	return errors.Wrap(err, op)
}
