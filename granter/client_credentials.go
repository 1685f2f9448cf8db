package granter

import (
	"context"

	"github.com/jrsteele09/go-token-engine/clients"
	"github.com/jrsteele09/go-token-engine/oauth2"
)

type clientCredentialsStrategy struct {
	baseStrategy
}

func newClientCredentialsStrategy(services *tokenServices) *clientCredentialsStrategy {
	return &clientCredentialsStrategy{baseStrategy{grantType: oauth2.ClientCredentialsGrant, services: services}}
}

// Grant issues a client-only token: the subject is the client id and no refresh token
// is returned.
func (s *clientCredentialsStrategy) Grant(ctx context.Context, req oauth2.TokenRequest, client *clients.Client) (*oauth2.AccessToken, error) {
	auth, err := s.authorization(req, client)
	if err != nil {
		return nil, err
	}
	return s.services.createAccessToken(ctx, client, auth, false)
}
