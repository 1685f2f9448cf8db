package tenants

import (
	"context"
	"errors"
	"fmt"
)

type Repo interface {
	Upsert(ctx context.Context, tenant *Tenant) error
	Get(ctx context.Context, tenantID string) (*Tenant, error)
	Assign(ctx context.Context, membership Membership) error
	MembershipOf(ctx context.Context, userID string) (*Membership, error)
}

var _ Enricher = (*RepoEnricher)(nil)

// RepoEnricher resolves identities from tenant memberships. Users without a membership
// get an empty identity.
type RepoEnricher struct {
	repo Repo
}

func NewRepoEnricher(repo Repo) *RepoEnricher {
	return &RepoEnricher{repo: repo}
}

func (e *RepoEnricher) Enrich(ctx context.Context, userID string) (Identity, error) {
	m, err := e.repo.MembershipOf(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Identity{}, nil
	}
	if err != nil {
		return Identity{}, fmt.Errorf("[RepoEnricher.Enrich] membership of %s: %w", userID, err)
	}
	if _, err := e.repo.Get(ctx, m.TenantID); err != nil {
		return Identity{}, fmt.Errorf("[RepoEnricher.Enrich] tenant %s: %w", m.TenantID, err)
	}
	return Identity{TenantID: m.TenantID, AccountType: m.AccountType}, nil
}
