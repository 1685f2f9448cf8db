package granter

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-token-engine/clients"
	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/token"
	"github.com/jrsteele09/go-token-engine/users"
	"github.com/pkg/errors"
)

type refreshTokenStrategy struct {
	baseStrategy
	tokens token.Store
	loader users.Loader
}

func newRefreshTokenStrategy(services *tokenServices, tokens token.Store, loader users.Loader) *refreshTokenStrategy {
	return &refreshTokenStrategy{
		baseStrategy: baseStrategy{grantType: oauth2.RefreshTokenGrant, services: services},
		tokens:       tokens,
		loader:       loader,
	}
}

func (s *refreshTokenStrategy) Grant(ctx context.Context, req oauth2.TokenRequest, client *clients.Client) (*oauth2.AccessToken, error) {
	value := req.Param(oauth2.ParamRefreshToken)
	if value == "" {
		return nil, fmt.Errorf("missing refresh token: %w", oauth2.ErrInvalidGrant)
	}

	record, err := s.tokens.ReadRefreshToken(ctx, value)
	if errors.Is(err, token.ErrNotFound) {
		return nil, fmt.Errorf("unknown refresh token: %w", oauth2.ErrInvalidGrant)
	}
	if err != nil {
		return nil, errors.Wrap(err, "refreshTokenStrategy.Grant ReadRefreshToken")
	}
	if record.Authorization.ClientID != client.ID {
		return nil, fmt.Errorf("refresh token issued to another client: %w", oauth2.ErrInvalidGrant)
	}
	if record.Token.Expired(s.services.nowFunc()) {
		_ = s.tokens.RevokeRefreshToken(ctx, value)
		return nil, fmt.Errorf("refresh token expired: %w", oauth2.ErrInvalidGrant)
	}

	auth := record.Authorization.Clone()
	if requested := req.Scopes(); len(requested) > 0 {
		if !oauth2.ScopesSubset(requested, auth.Scopes) {
			return nil, fmt.Errorf("refresh may not widen scope %q: %w", oauth2.JoinScope(auth.Scopes), oauth2.ErrInvalidScope)
		}
		auth.Scopes = requested
	}

	if s.loader != nil && auth.Principal != nil {
		p, err := s.loader.LoadByUsername(ctx, auth.Principal.Username)
		if err != nil {
			return nil, userError(err, "refreshTokenStrategy.Grant LoadByUsername")
		}
		if !p.Usable() {
			return nil, fmt.Errorf("user %s: %w", p.Username, oauth2.ErrAccountDisabled)
		}
		auth.Principal = p
	}

	return s.services.refreshAccessToken(ctx, client, record, auth)
}
