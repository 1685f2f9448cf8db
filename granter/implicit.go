package granter

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-token-engine/clients"
	"github.com/jrsteele09/go-token-engine/oauth2"
)

type implicitStrategy struct {
	baseStrategy
}

func newImplicitStrategy(services *tokenServices) *implicitStrategy {
	return &implicitStrategy{baseStrategy{grantType: oauth2.ImplicitGrant, services: services}}
}

// Grant needs the resource owner the authorization endpoint already authenticated.
// Implicit tokens never carry a refresh token.
func (s *implicitStrategy) Grant(ctx context.Context, req oauth2.TokenRequest, client *clients.Client) (*oauth2.AccessToken, error) {
	p := req.Principal()
	if p == nil {
		return nil, fmt.Errorf("implicit grant without an authenticated user: %w", oauth2.ErrInvalidGrant)
	}
	if !p.Usable() {
		return nil, fmt.Errorf("user %s: %w", p.Username, oauth2.ErrAccountDisabled)
	}
	auth, err := s.authorization(req, client)
	if err != nil {
		return nil, err
	}
	auth.Principal = p
	return s.services.createAccessToken(ctx, client, auth, false)
}
