package oauth2

import (
	"maps"

	"github.com/jrsteele09/go-token-engine/users"
)

// Authorization is an approved token request: what a token was issued for.
// It is stored alongside the token so refreshes can rebuild it.
type Authorization struct {
	GrantType  GrantType         `json:"grant_type"`
	ClientID   string            `json:"client_id"`
	Scopes     []string          `json:"scopes"`
	Principal  *users.Principal  `json:"principal,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// ClientOnly reports whether the authorization has no resource owner.
func (a Authorization) ClientOnly() bool {
	return a.Principal == nil
}

// Subject is the token subject: the username, or the client id for client-only tokens.
func (a Authorization) Subject() string {
	if a.Principal == nil {
		return a.ClientID
	}
	return a.Principal.Username
}

// Clone returns a deep copy.
func (a Authorization) Clone() Authorization {
	out := a
	out.Scopes = append([]string(nil), a.Scopes...)
	out.Parameters = maps.Clone(a.Parameters)
	if a.Principal != nil {
		p := *a.Principal
		p.Roles = append([]string(nil), a.Principal.Roles...)
		out.Principal = &p
	}
	return out
}
