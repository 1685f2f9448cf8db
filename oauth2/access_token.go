package oauth2

import (
	"encoding/json"
	"maps"
	"time"

	"github.com/jrsteele09/go-token-engine/internal/utils"
	xoauth2 "golang.org/x/oauth2"
)

// RefreshToken is the opaque long-lived token returned next to an access token.
type RefreshToken struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the refresh token is past its expiry at now.
func (r RefreshToken) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// AccessToken is an issued, signed token.
type AccessToken struct {
	ID               string         `json:"jti"`
	Value            string         `json:"value"`
	TokenType        string         `json:"token_type"`
	ExpiresAt        time.Time      `json:"expires_at"`
	Scopes           []string       `json:"scopes"`
	RefreshToken     *RefreshToken  `json:"refresh_token,omitempty"`
	AdditionalClaims map[string]any `json:"additional_claims,omitempty"`
	KeyID            string         `json:"kid,omitempty"`
	ClientID         string         `json:"client_id"`
	Subject          string         `json:"sub"`
}

// Expired reports whether the access token is past its expiry at now.
func (t *AccessToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// ExpiresIn is the remaining lifetime in whole seconds, never negative.
func (t *AccessToken) ExpiresIn(now time.Time) int {
	secs := int(t.ExpiresAt.Sub(now).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}

// Clone returns a deep copy.
func (t *AccessToken) Clone() *AccessToken {
	out := *t
	out.Scopes = append([]string(nil), t.Scopes...)
	out.AdditionalClaims = maps.Clone(t.AdditionalClaims)
	if t.RefreshToken != nil {
		rt := *t.RefreshToken
		out.RefreshToken = &rt
	}
	return &out
}

// TokenResponse represents the response from an OAuth2 token request (RFC 6749 section 5.1).
type TokenResponse struct {
	// AccessToken is the signed JWT used to access protected resources.
	AccessToken string `json:"access_token"`

	// TokenType is always "bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token.
	ExpiresIn int `json:"expires_in"`

	// RefreshToken is present for grants that support refreshing.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// Scope is the space separated list of granted scopes.
	Scope string `json:"scope,omitempty"`

	// Jti is the token identifier.
	Jti string `json:"jti,omitempty"`

	// Additional claims are flattened into the response alongside the standard fields.
	Additional map[string]any `json:"-"`
}

// MarshalJSON flattens the additional claims next to the standard fields; standard fields win.
func (r TokenResponse) MarshalJSON() ([]byte, error) {
	type plain TokenResponse
	base, err := json.Marshal(plain(r))
	if err != nil || len(r.Additional) == 0 {
		return base, err
	}
	var std map[string]any
	if err := json.Unmarshal(base, &std); err != nil {
		return nil, err
	}
	merged := maps.Clone(r.Additional)
	maps.Copy(merged, std)
	return json.Marshal(merged)
}

// Response renders the token endpoint body.
func (t *AccessToken) Response(now time.Time) TokenResponse {
	resp := TokenResponse{
		AccessToken: t.Value,
		TokenType:   t.TokenType,
		ExpiresIn:   t.ExpiresIn(now),
		Scope:       JoinScope(t.Scopes),
		Jti:         t.ID,
		Additional:  maps.Clone(t.AdditionalClaims),
	}
	if t.RefreshToken != nil {
		resp.RefreshToken = utils.Ptr(t.RefreshToken.Value)
	}
	return resp
}

// OAuth2Token converts to the golang.org/x/oauth2 client token, with the scope and
// additional claims available through Extra.
func (t *AccessToken) OAuth2Token() *xoauth2.Token {
	tok := &xoauth2.Token{
		AccessToken: t.Value,
		TokenType:   t.TokenType,
		Expiry:      t.ExpiresAt,
	}
	if t.RefreshToken != nil {
		tok.RefreshToken = t.RefreshToken.Value
	}
	extra := maps.Clone(t.AdditionalClaims)
	if extra == nil {
		extra = map[string]any{}
	}
	extra["scope"] = JoinScope(t.Scopes)
	extra["jti"] = t.ID
	return tok.WithExtra(extra)
}
