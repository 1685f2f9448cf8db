package tenantrepofakes

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-token-engine/tenants"
)

var _ tenants.Repo = (*FakeTenantRepo)(nil)

type FakeTenantRepo struct {
	tenants     map[string]tenants.Tenant
	memberships map[string]tenants.Membership
	lock        sync.RWMutex
}

func NewFakeTenantRepo() *FakeTenantRepo {
	return &FakeTenantRepo{
		tenants:     make(map[string]tenants.Tenant),
		memberships: make(map[string]tenants.Membership),
	}
}

func (tr *FakeTenantRepo) Upsert(_ context.Context, tenant *tenants.Tenant) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	tr.tenants[tenant.ID] = *tenant
	return nil
}

func (tr *FakeTenantRepo) Get(_ context.Context, tenantID string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	t, ok := tr.tenants[tenantID]
	if !ok {
		return nil, tenants.ErrNotFound
	}
	return &t, nil
}

func (tr *FakeTenantRepo) Assign(_ context.Context, membership tenants.Membership) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	tr.memberships[membership.UserID] = membership
	return nil
}

func (tr *FakeTenantRepo) MembershipOf(_ context.Context, userID string) (*tenants.Membership, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	m, ok := tr.memberships[userID]
	if !ok {
		return nil, tenants.ErrNotFound
	}
	return &m, nil
}
