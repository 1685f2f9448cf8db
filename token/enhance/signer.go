package enhance

import (
	"fmt"
	"maps"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/token/keys"
)

// JWTSigner encodes a draft as a signed compact JWT.
type JWTSigner struct {
	signer   keys.Signer
	issuer   string
	audience string
}

func NewJWTSigner(signer keys.Signer, issuer, audience string) *JWTSigner {
	return &JWTSigner{signer: signer, issuer: issuer, audience: audience}
}

// Sign produces the final access token. Registered claims take precedence over custom
// claims of the same name.
func (s *JWTSigner) Sign(draft Draft) (*oauth2.AccessToken, error) {
	custom := draft.Claims()
	claims := jwt.MapClaims{}
	maps.Copy(claims, custom)
	claims["iss"] = s.issuer
	claims["sub"] = draft.Subject()
	claims["scope"] = oauth2.JoinScope(draft.scopes)
	claims["client_id"] = draft.ClientID()
	claims["iat"] = draft.IssuedAt().Unix()
	claims["exp"] = draft.ExpiresAt().Unix()
	claims["jti"] = draft.ID()
	if s.audience != "" {
		claims["aud"] = s.audience
	}

	signed, err := s.signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("[JWTSigner.Sign] %s: %w", draft.ID(), err)
	}

	return &oauth2.AccessToken{
		ID:               draft.ID(),
		Value:            signed,
		TokenType:        oauth2.BearerTokenType,
		ExpiresAt:        draft.ExpiresAt(),
		Scopes:           draft.Scopes(),
		RefreshToken:     draft.RefreshToken(),
		AdditionalClaims: custom,
		KeyID:            s.signer.KeyID(),
		ClientID:         draft.ClientID(),
		Subject:          draft.Subject(),
	}, nil
}
