// Package token persists issued access and refresh tokens together with the
// authorization they were issued for.
package token

import (
	"context"
	"errors"

	"github.com/jrsteele09/go-token-engine/oauth2"
)

// ErrNotFound is returned for unknown, revoked or already rotated tokens.
var ErrNotFound = errors.New("token not found")

// RefreshRecord is a stored refresh token and the authorization it can renew.
type RefreshRecord struct {
	Token         oauth2.RefreshToken
	Authorization oauth2.Authorization
	AccessToken   string // value of the access token most recently issued with it
}

// Store keeps issued tokens. Every operation is atomic with respect to the token
// values it touches.
type Store interface {
	// Save stores the access token, and its refresh token when present.
	Save(ctx context.Context, token *oauth2.AccessToken, auth oauth2.Authorization) error

	ReadAccessToken(ctx context.Context, value string) (*oauth2.AccessToken, error)
	ReadAuthorization(ctx context.Context, accessToken string) (oauth2.Authorization, error)
	ReadRefreshToken(ctx context.Context, value string) (*RefreshRecord, error)

	// RotateRefreshToken removes oldRefresh with the access token issued alongside it and
	// saves token in one step. Only one caller can rotate a given refresh token; the
	// others get ErrNotFound.
	RotateRefreshToken(ctx context.Context, oldRefresh string, token *oauth2.AccessToken, auth oauth2.Authorization) error

	// ReplaceAccessToken keeps the refresh token carried by token, drops the access token
	// previously issued with it and saves token.
	ReplaceAccessToken(ctx context.Context, token *oauth2.AccessToken, auth oauth2.Authorization) error

	RevokeAccessToken(ctx context.Context, value string) error
	// RevokeRefreshToken removes the refresh token and the access token issued with it.
	RevokeRefreshToken(ctx context.Context, value string) error

	// FindByClientAndUser lists live access tokens of a client for a username.
	FindByClientAndUser(ctx context.Context, clientID, username string) ([]*oauth2.AccessToken, error)
}
