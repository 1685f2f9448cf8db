package clients

import (
	"crypto/subtle"
	"fmt"
	"slices"
	"strings"

	"github.com/jrsteele09/go-token-engine/oauth2"
	"golang.org/x/crypto/bcrypt"
)

// noopPrefix marks a secret stored in plain text (development seeds only).
const noopPrefix = "{noop}"

type ClientType string

const (
	ClientTypeConfidential ClientType = "confidential" // Can keep secrets (server-side apps)
	ClientTypePublic       ClientType = "public"       // Cannot keep secrets (SPAs, mobile apps)
)

// Client is the registered configuration of an OAuth2 client, rebuilt from its source on
// every lookup.
type Client struct {
	ID                    string         `json:"id"`
	SecretHash            string         `json:"-"`
	GrantTypes            []string       `json:"grantTypes"`
	Scopes                []string       `json:"scopes"`       // Allowed scopes for this client
	RedirectURIs          []string       `json:"redirectURIs"` // Ordered as registered
	ResourceIDs           []string       `json:"resourceIds,omitempty"`
	Authorities           []string       `json:"authorities,omitempty"`
	AccessTokenValidity   int            `json:"accessTokenValidity"`  // seconds, 0 means engine default
	RefreshTokenValidity  int            `json:"refreshTokenValidity"` // seconds, 0 means engine default
	AutoApprove           []string       `json:"autoApprove,omitempty"`
	AdditionalInformation map[string]any `json:"additionalInformation,omitempty"`
}

// Type returns public for clients registered without a secret.
func (c *Client) Type() ClientType {
	if c.SecretHash == "" {
		return ClientTypePublic
	}
	return ClientTypeConfidential
}

// IsPublic returns true if the client is a public client
func (c *Client) IsPublic() bool {
	return c.Type() == ClientTypePublic
}

// AllowsGrantType reports whether the client is registered for the grant type.
func (c *Client) AllowsGrantType(grantType oauth2.GrantType) bool {
	return slices.Contains(c.GrantTypes, string(grantType))
}

// HasScope checks if the client has permission for a specific scope
func (c *Client) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// HasRedirectURI reports whether uri is one of the registered redirect URIs.
func (c *Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

// ApproveScopes returns the scopes a request is granted: all client scopes when none
// were requested, otherwise the requested scopes, which must all be registered for the client.
func (c *Client) ApproveScopes(requested []string) ([]string, error) {
	if len(requested) == 0 {
		if len(c.Scopes) == 0 {
			return nil, fmt.Errorf("client %s has no scopes registered: %w", c.ID, oauth2.ErrInvalidScope)
		}
		return oauth2.ParseScope(strings.Join(c.Scopes, " ")), nil
	}
	if !oauth2.ScopesSubset(requested, c.Scopes) {
		return nil, fmt.Errorf("scope %q exceeds client %s: %w", oauth2.JoinScope(requested), c.ID, oauth2.ErrInvalidScope)
	}
	return oauth2.ParseScope(oauth2.JoinScope(requested)), nil
}

// CheckSecret verifies a presented client secret. Public clients only accept an empty secret.
func (c *Client) CheckSecret(secret string) bool {
	if c.IsPublic() {
		return secret == ""
	}
	if plain, ok := strings.CutPrefix(c.SecretHash, noopPrefix); ok {
		return subtle.ConstantTimeCompare([]byte(plain), []byte(secret)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(c.SecretHash), []byte(secret)) == nil
}

// AutoApproves reports whether the scope needs no user consent.
func (c *Client) AutoApproves(scope string) bool {
	return slices.Contains(c.AutoApprove, "true") || slices.Contains(c.AutoApprove, scope)
}
