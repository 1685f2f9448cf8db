// Package enhance turns an approved authorization into a signed access token:
// custom claims are injected first, then the JWT is signed.
package enhance

import (
	"maps"
	"time"

	"github.com/jrsteele09/go-token-engine/oauth2"
)

// Draft is an access token before signing. Values are immutable; the With methods
// return modified copies.
type Draft struct {
	id        string
	clientID  string
	subject   string
	scopes    []string
	issuedAt  time.Time
	expiresAt time.Time
	refresh   *oauth2.RefreshToken
	claims    map[string]any
}

// NewDraft starts a token for clientID and subject with no custom claims.
func NewDraft(id, clientID, subject string, scopes []string, issuedAt, expiresAt time.Time) Draft {
	return Draft{
		id:        id,
		clientID:  clientID,
		subject:   subject,
		scopes:    append([]string(nil), scopes...),
		issuedAt:  issuedAt,
		expiresAt: expiresAt,
	}
}

func (d Draft) ID() string { return d.id }
func (d Draft) ClientID() string { return d.clientID }
func (d Draft) Subject() string { return d.subject }
func (d Draft) IssuedAt() time.Time { return d.issuedAt }
func (d Draft) ExpiresAt() time.Time { return d.expiresAt }

func (d Draft) Scopes() []string {
	return append([]string(nil), d.scopes...)
}

// RefreshToken returns a copy of the attached refresh token, or nil.
func (d Draft) RefreshToken() *oauth2.RefreshToken {
	if d.refresh == nil {
		return nil
	}
	rt := *d.refresh
	return &rt
}

// Claims returns a copy of the custom claims.
func (d Draft) Claims() map[string]any {
	return maps.Clone(d.claims)
}

// WithRefreshToken returns a copy carrying rt.
func (d Draft) WithRefreshToken(rt *oauth2.RefreshToken) Draft {
	out := d.clone()
	if rt != nil {
		copied := *rt
		out.refresh = &copied
	} else {
		out.refresh = nil
	}
	return out
}

// WithClaims returns a copy with claims merged over the existing ones.
func (d Draft) WithClaims(claims map[string]any) Draft {
	out := d.clone()
	if out.claims == nil {
		out.claims = make(map[string]any, len(claims))
	}
	maps.Copy(out.claims, claims)
	return out
}

func (d Draft) clone() Draft {
	out := d
	out.scopes = append([]string(nil), d.scopes...)
	out.claims = maps.Clone(d.claims)
	return out
}
