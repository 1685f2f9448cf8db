package clients

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned by a Source when no row exists for the client id.
var ErrNotFound = errors.New("client row not found")

// Row is a raw client record as held by the backing store. List valued columns are comma separated.
type Row struct {
	ClientID              string  `yaml:"client_id"`
	ClientSecret          string  `yaml:"client_secret"`
	ResourceIDs           *string `yaml:"resource_ids"`
	Scope                 *string `yaml:"scope"`
	AuthorizedGrantTypes  *string `yaml:"authorized_grant_types"`
	WebServerRedirectURI  *string `yaml:"web_server_redirect_uri"`
	Authorities           *string `yaml:"authorities"`
	AccessTokenValidity   *int    `yaml:"access_token_validity"`
	RefreshTokenValidity  *int    `yaml:"refresh_token_validity"`
	AdditionalInformation *string `yaml:"additional_information"`
	AutoApprove           *string `yaml:"autoapprove"`
}

// Source resolves raw client rows. Select returns the full record used for authentication;
// Find serves existence and detail checks. Implementations keep the two queries independent.
type Source interface {
	Select(ctx context.Context, clientID string) (*Row, error)
	Find(ctx context.Context, clientID string) (*Row, error)
}

// Client parses the row into a Client.
func (r *Row) Client() *Client {
	c := &Client{
		ID:           r.ClientID,
		SecretHash:   r.ClientSecret,
		GrantTypes:   splitList(r.AuthorizedGrantTypes),
		Scopes:       splitList(r.Scope),
		RedirectURIs: splitList(r.WebServerRedirectURI),
		ResourceIDs:  splitList(r.ResourceIDs),
		Authorities:  splitList(r.Authorities),
		AutoApprove:  splitList(r.AutoApprove),
	}
	if r.AccessTokenValidity != nil && *r.AccessTokenValidity > 0 {
		c.AccessTokenValidity = *r.AccessTokenValidity
	}
	if r.RefreshTokenValidity != nil && *r.RefreshTokenValidity > 0 {
		c.RefreshTokenValidity = *r.RefreshTokenValidity
	}
	if r.AdditionalInformation != nil && strings.TrimSpace(*r.AdditionalInformation) != "" {
		info := map[string]any{}
		if err := json.Unmarshal([]byte(*r.AdditionalInformation), &info); err != nil {
			log.Warn().Err(err).Str("client_id", r.ClientID).Msg("ignoring unparseable additional information")
		} else {
			c.AdditionalInformation = info
		}
	}
	return c
}

func splitList(value *string) []string {
	if value == nil {
		return nil
	}
	var out []string
	for _, part := range strings.Split(*value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// RowFromClient renders a client back into its raw row form.
func RowFromClient(c *Client) *Row {
	join := func(values []string) *string {
		if len(values) == 0 {
			return nil
		}
		s := strings.Join(values, ",")
		return &s
	}
	row := &Row{
		ClientID:             c.ID,
		ClientSecret:         c.SecretHash,
		ResourceIDs:          join(c.ResourceIDs),
		Scope:                join(c.Scopes),
		AuthorizedGrantTypes: join(c.GrantTypes),
		WebServerRedirectURI: join(c.RedirectURIs),
		Authorities:          join(c.Authorities),
		AutoApprove:          join(c.AutoApprove),
	}
	if c.AccessTokenValidity > 0 {
		v := c.AccessTokenValidity
		row.AccessTokenValidity = &v
	}
	if c.RefreshTokenValidity > 0 {
		v := c.RefreshTokenValidity
		row.RefreshTokenValidity = &v
	}
	if len(c.AdditionalInformation) > 0 {
		if b, err := json.Marshal(c.AdditionalInformation); err == nil {
			s := string(b)
			row.AdditionalInformation = &s
		}
	}
	return row
}
