package granter

import (
	"context"

	"github.com/jrsteele09/go-token-engine/clients"
	"github.com/jrsteele09/go-token-engine/oauth2"
)

// Strategy handles one grant type. The client passed to Grant has already been loaded,
// checked for the grant type and authenticated, and any requested scopes are known to
// be within the client's scopes.
type Strategy interface {
	GrantType() oauth2.GrantType
	Supports(grantType oauth2.GrantType) bool
	Grant(ctx context.Context, req oauth2.TokenRequest, client *clients.Client) (*oauth2.AccessToken, error)
}

type baseStrategy struct {
	grantType oauth2.GrantType
	services  *tokenServices
}

func (b baseStrategy) GrantType() oauth2.GrantType {
	return b.grantType
}

func (b baseStrategy) Supports(grantType oauth2.GrantType) bool {
	return grantType == b.grantType
}

// authorization builds what gets stored with the token for a fresh (non refresh) grant.
func (b baseStrategy) authorization(req oauth2.TokenRequest, client *clients.Client) (oauth2.Authorization, error) {
	scopes, err := client.ApproveScopes(req.Scopes())
	if err != nil {
		return oauth2.Authorization{}, err
	}
	return oauth2.Authorization{
		GrantType:  b.grantType,
		ClientID:   client.ID,
		Scopes:     scopes,
		Parameters: req.SanitizedParams(),
	}, nil
}
