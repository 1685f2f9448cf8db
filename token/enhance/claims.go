package enhance

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-token-engine/oauth2"
	"github.com/jrsteele09/go-token-engine/tenants"
)

// Custom claim names carried in every access token.
const (
	ClaimClientID    = "client_id"
	ClaimUserID      = "user_id"
	ClaimAccount     = "account"
	ClaimUserName    = "user_name"
	ClaimNickName    = "nick_name"
	ClaimTenantID    = "tenant_id"
	ClaimRoleName    = "role_name"
	ClaimAccountType = "account_type"
	ClaimLicense     = "license"
)

// ClientAccountType marks tokens issued to a client without a resource owner.
const ClientAccountType = "client"

// DefaultLicense is stamped into tokens when no license text is configured.
const DefaultLicense = "made by go-token-engine"

// ClaimsInjector adds the user and tenant claims to a draft.
type ClaimsInjector struct {
	license  string
	enricher tenants.Enricher
}

type ClaimsOption func(*ClaimsInjector)

// WithEnricher fills tenant id and account type for principals that lack them.
func WithEnricher(e tenants.Enricher) ClaimsOption {
	return func(c *ClaimsInjector) {
		c.enricher = e
	}
}

func WithLicense(license string) ClaimsOption {
	return func(c *ClaimsInjector) {
		c.license = license
	}
}

func NewClaimsInjector(opts ...ClaimsOption) *ClaimsInjector {
	c := &ClaimsInjector{license: DefaultLicense}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enhance returns draft with the custom claims for auth added.
func (c *ClaimsInjector) Enhance(ctx context.Context, draft Draft, auth oauth2.Authorization) (Draft, error) {
	claims := map[string]any{
		ClaimClientID: auth.ClientID,
		ClaimLicense:  c.license,
	}

	p := auth.Principal
	if p == nil {
		claims[ClaimAccountType] = ClientAccountType
		return draft.WithClaims(claims), nil
	}

	tenantID, accountType := p.TenantID, p.AccountType
	if c.enricher != nil && (tenantID == "" || accountType == "") {
		identity, err := c.enricher.Enrich(ctx, p.ID)
		if err != nil {
			return Draft{}, fmt.Errorf("[ClaimsInjector.Enhance] enrich %s: %w", p.Username, err)
		}
		if tenantID == "" {
			tenantID = identity.TenantID
		}
		if accountType == "" {
			accountType = identity.AccountType
		}
	}

	claims[ClaimUserID] = p.ID
	claims[ClaimAccount] = p.Username
	claims[ClaimUserName] = p.Username
	claims[ClaimNickName] = p.Nickname
	claims[ClaimTenantID] = tenantID
	claims[ClaimRoleName] = strings.Join(p.Roles, ",")
	claims[ClaimAccountType] = accountType
	return draft.WithClaims(claims), nil
}
