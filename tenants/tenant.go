package tenants

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("tenant not found")

// Tenant is an organisation users belong to. Tokens carry its id as tenant_id.
type Tenant struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Domain string `json:"domain" yaml:"domain"`
}

// Membership ties a user to a tenant with an account type (for example "web" or "app").
type Membership struct {
	UserID      string `json:"user_id" yaml:"user_id"`
	TenantID    string `json:"tenant_id" yaml:"tenant_id"`
	AccountType string `json:"account_type" yaml:"account_type"`
}

// Identity is the tenant information added to a user's token claims.
type Identity struct {
	TenantID    string
	AccountType string
}

// Enricher supplies tenant identity for a user whose principal lacks it.
type Enricher interface {
	Enrich(ctx context.Context, userID string) (Identity, error)
}
