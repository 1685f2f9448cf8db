package introspect

import (
	"context"
	"crypto"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-token-engine/token/keys"
)

// OIDCVerifier checks RS256 tokens against the engine's own public keys.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(issuer, audience string, now func() time.Time, publicKeys ...crypto.PublicKey) *OIDCVerifier {
	cfg := &oidc.Config{
		ClientID:             audience,
		SkipClientIDCheck:    audience == "",
		SupportedSigningAlgs: []string{oidc.RS256},
		Now:                  now,
	}
	keySet := &oidc.StaticKeySet{PublicKeys: publicKeys}
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuer, keySet, cfg)}
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (map[string]any, error) {
	tok, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	claims := map[string]any{}
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return claims, nil
}

// SignerVerifier checks tokens with the signer's own verification key. It is the
// only option for HMAC signed tokens.
type SignerVerifier struct {
	signer   keys.Signer
	issuer   string
	audience string
	now      func() time.Time
}

func NewSignerVerifier(signer keys.Signer, issuer, audience string, now func() time.Time) *SignerVerifier {
	if now == nil {
		now = time.Now
	}
	return &SignerVerifier{signer: signer, issuer: issuer, audience: audience, now: now}
}

func (v *SignerVerifier) Verify(_ context.Context, raw string) (map[string]any, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithTimeFunc(v.now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, v.signer.GetVerificationKey, opts...); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	return claims, nil
}
