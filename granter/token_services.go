package granter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-token-engine/clients"
	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/token"
	"github.com/jrsteele09/go-token-engine/token/enhance"
	"github.com/jrsteele09/go-token-engine/token/refresh"
	"github.com/pkg/errors"
)

// Default token lifetimes for clients that do not set their own.
const (
	DefaultAccessTokenValidity  = time.Hour
	DefaultRefreshTokenValidity = 7 * 24 * time.Hour
)

// tokenServices assembles, enhances and stores tokens for every strategy.
type tokenServices struct {
	tokens          token.Store
	enhancer        Enhancer
	refreshTokens   *refresh.Generator
	accessValidity  time.Duration
	refreshValidity time.Duration
	reuseRefresh    bool
	nowFunc         func() time.Time
}

func (s *tokenServices) validity(client *clients.Client) (access, refresh time.Duration) {
	access, refresh = s.accessValidity, s.refreshValidity
	if client.AccessTokenValidity > 0 {
		access = time.Duration(client.AccessTokenValidity) * time.Second
	}
	if client.RefreshTokenValidity > 0 {
		refresh = time.Duration(client.RefreshTokenValidity) * time.Second
	}
	return access, refresh
}

// supportsRefresh reports whether tokens for client come with a refresh token.
func supportsRefresh(client *clients.Client) bool {
	return client.AllowsGrantType(oauth2.RefreshTokenGrant)
}

func (s *tokenServices) draft(client *clients.Client, auth oauth2.Authorization, now time.Time) enhance.Draft {
	access, _ := s.validity(client)
	return enhance.NewDraft(uuid.NewString(), client.ID, auth.Subject(), auth.Scopes, now, now.Add(access))
}

// createAccessToken issues a token for a new authorization.
func (s *tokenServices) createAccessToken(ctx context.Context, client *clients.Client, auth oauth2.Authorization, withRefresh bool) (*oauth2.AccessToken, error) {
	now := s.nowFunc()
	draft := s.draft(client, auth, now)
	if withRefresh && supportsRefresh(client) {
		_, refreshValidity := s.validity(client)
		rt, err := s.refreshTokens.Create(now, refreshValidity)
		if err != nil {
			return nil, errors.Wrap(err, "tokenServices.createAccessToken refresh token")
		}
		draft = draft.WithRefreshToken(rt)
	}

	at, err := s.enhancer.Enhance(ctx, draft, auth)
	if err != nil {
		return nil, errors.Wrap(err, "tokenServices.createAccessToken Enhance")
	}
	if err := s.tokens.Save(ctx, at, auth); err != nil {
		return nil, errors.Wrap(err, "tokenServices.createAccessToken Save")
	}
	return at, nil
}

// refreshAccessToken issues a token from a stored refresh token. With rotation the old
// refresh token is swapped for a new one atomically; otherwise it is kept and the access
// token previously issued with it is dropped.
func (s *tokenServices) refreshAccessToken(ctx context.Context, client *clients.Client, record *token.RefreshRecord, auth oauth2.Authorization) (*oauth2.AccessToken, error) {
	now := s.nowFunc()
	draft := s.draft(client, auth, now)

	if s.reuseRefresh {
		draft = draft.WithRefreshToken(&record.Token)
		at, err := s.enhancer.Enhance(ctx, draft, auth)
		if err != nil {
			return nil, errors.Wrap(err, "tokenServices.refreshAccessToken Enhance")
		}
		if err := s.tokens.ReplaceAccessToken(ctx, at, auth); err != nil {
			return nil, refreshStoreError(err)
		}
		return at, nil
	}

	_, refreshValidity := s.validity(client)
	rt, err := s.refreshTokens.Create(now, refreshValidity)
	if err != nil {
		return nil, errors.Wrap(err, "tokenServices.refreshAccessToken refresh token")
	}
	at, err := s.enhancer.Enhance(ctx, draft.WithRefreshToken(rt), auth)
	if err != nil {
		return nil, errors.Wrap(err, "tokenServices.refreshAccessToken Enhance")
	}
	if err := s.tokens.RotateRefreshToken(ctx, record.Token.Value, at, auth); err != nil {
		return nil, refreshStoreError(err)
	}
	return at, nil
}

func refreshStoreError(err error) error {
	if errors.Is(err, token.ErrNotFound) {
		return fmt.Errorf("refresh token already used: %w", oauth2.ErrInvalidGrant)
	}
	return errors.Wrap(err, "tokenServices.refreshAccessToken store")
}
