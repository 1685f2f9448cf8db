package granter

import (
	"context"
	"fmt"
	"maps"

	"github.com/jrsteele09/go-token-engine/clients"
	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/token/code"
	"github.com/pkg/errors"
)

type authorizationCodeStrategy struct {
	baseStrategy
	codes code.Store
}

func newAuthorizationCodeStrategy(services *tokenServices, codes code.Store) *authorizationCodeStrategy {
	return &authorizationCodeStrategy{
		baseStrategy: baseStrategy{grantType: oauth2.AuthorizationCodeGrant, services: services},
		codes:        codes,
	}
}

// Grant redeems the code before any other check, so a code presented with the wrong
// client or redirect URI is burnt.
func (s *authorizationCodeStrategy) Grant(ctx context.Context, req oauth2.TokenRequest, client *clients.Client) (*oauth2.AccessToken, error) {
	value := req.Param(oauth2.ParamCode)
	if value == "" {
		return nil, fmt.Errorf("missing authorization code: %w", oauth2.ErrInvalidGrant)
	}

	ac, err := s.codes.Consume(ctx, value)
	if errors.Is(err, code.ErrNotFound) || errors.Is(err, code.ErrExpired) {
		return nil, fmt.Errorf("authorization code: %v: %w", err, oauth2.ErrInvalidGrant)
	}
	if err != nil {
		return nil, errors.Wrap(err, "authorizationCodeStrategy.Grant Consume")
	}

	if ac.ClientID != client.ID {
		return nil, fmt.Errorf("authorization code issued to another client: %w", oauth2.ErrInvalidGrant)
	}
	redirectURI := req.Param(oauth2.ParamRedirectURI)
	if (ac.RedirectURI != "" || redirectURI != "") && ac.RedirectURI != redirectURI {
		return nil, fmt.Errorf("redirect URI mismatch: %w", oauth2.ErrInvalidGrant)
	}
	if !code.VerifyChallenge(ac.CodeChallenge, ac.CodeChallengeMethod, req.Param(oauth2.ParamCodeVerifier)) {
		return nil, fmt.Errorf("code verifier does not match: %w", oauth2.ErrInvalidGrant)
	}
	if ac.Principal == nil {
		return nil, fmt.Errorf("authorization code has no user: %w", oauth2.ErrInvalidGrant)
	}
	if !ac.Principal.Usable() {
		return nil, fmt.Errorf("user %s: %w", ac.Principal.Username, oauth2.ErrAccountDisabled)
	}
	scopes, err := client.ApproveScopes(ac.Scopes)
	if err != nil {
		return nil, err
	}

	params := maps.Clone(ac.Parameters)
	if params == nil {
		params = map[string]string{}
	}
	maps.Copy(params, req.SanitizedParams())
	delete(params, oauth2.ParamCode)

	auth := oauth2.Authorization{
		GrantType:  s.grantType,
		ClientID:   client.ID,
		Scopes:     scopes,
		Principal:  ac.Principal,
		Parameters: params,
	}
	return s.services.createAccessToken(ctx, client, auth, true)
}
