package oauth2

import (
	"maps"

	"github.com/jrsteele09/go-token-engine/users"
)

// TokenRequest holds the parameters of one token endpoint call.
// It is built once by the transport layer and never modified afterwards;
// accessors hand out copies.
type TokenRequest struct {
	grantType    GrantType
	clientID     string
	clientSecret string
	scopes       []string
	params       map[string]string
	principal    *users.Principal
}

// TokenRequestOption customises a TokenRequest at construction.
type TokenRequestOption func(*TokenRequest)

// WithClientSecret attaches the client secret presented by the caller.
func WithClientSecret(secret string) TokenRequestOption {
	return func(r *TokenRequest) {
		r.clientSecret = secret
	}
}

// WithPrincipal attaches a resource owner the transport already authenticated (implicit flow).
func WithPrincipal(p *users.Principal) TokenRequestOption {
	return func(r *TokenRequest) {
		if p != nil {
			copied := *p
			r.principal = &copied
		}
	}
}

// NewTokenRequest builds an immutable request. The parameters map is copied; a client_secret
// parameter is lifted into the dedicated field.
func NewTokenRequest(grantType GrantType, clientID string, scopes []string, params map[string]string, opts ...TokenRequestOption) TokenRequest {
	r := TokenRequest{
		grantType: grantType,
		clientID:  clientID,
		scopes:    normaliseScopes(scopes),
		params:    maps.Clone(params),
	}
	if r.params == nil {
		r.params = map[string]string{}
	}
	if secret, ok := r.params[ParamClientSecret]; ok {
		r.clientSecret = secret
		delete(r.params, ParamClientSecret)
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r TokenRequest) GrantType() GrantType { return r.grantType }
func (r TokenRequest) ClientID() string { return r.clientID }
func (r TokenRequest) ClientSecret() string { return r.clientSecret }
func (r TokenRequest) Param(name string) string { return r.params[name] }

// Scopes returns a copy of the requested scopes.
func (r TokenRequest) Scopes() []string {
	out := make([]string, len(r.scopes))
	copy(out, r.scopes)
	return out
}

// Params returns a copy of the request parameters.
func (r TokenRequest) Params() map[string]string {
	return maps.Clone(r.params)
}

// Principal returns the pre-authenticated resource owner, if any.
func (r TokenRequest) Principal() *users.Principal {
	if r.principal == nil {
		return nil
	}
	copied := *r.principal
	return &copied
}

// WithScopes returns a copy of the request carrying the given scopes.
func (r TokenRequest) WithScopes(scopes []string) TokenRequest {
	r.scopes = normaliseScopes(scopes)
	r.params = maps.Clone(r.params)
	return r
}

// SanitizedParams returns the parameters without secrets, suitable for storing with a token.
func (r TokenRequest) SanitizedParams() map[string]string {
	out := maps.Clone(r.params)
	for _, p := range sensitiveParams {
		delete(out, p)
	}
	return out
}
