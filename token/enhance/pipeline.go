package enhance

import (
	"context"

	"github.com/jrsteele09/go-token-engine/oauth2"
)

// Pipeline runs claim injection and then signing. The order is fixed.
type Pipeline struct {
	claims *ClaimsInjector
	signer *JWTSigner
}

func NewPipeline(claims *ClaimsInjector, signer *JWTSigner) *Pipeline {
	return &Pipeline{claims: claims, signer: signer}
}

func (p *Pipeline) Enhance(ctx context.Context, draft Draft, auth oauth2.Authorization) (*oauth2.AccessToken, error) {
	enriched, err := p.claims.Enhance(ctx, draft, auth)
	if err != nil {
		return nil, err
	}
	return p.signer.Sign(enriched)
}
