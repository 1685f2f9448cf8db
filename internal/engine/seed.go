package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/jrsteele09/go-token-engine/clients"
	fakeclientrepo "github.com/jrsteele09/go-token-engine/clients/fakerepo"
	"github.com/jrsteele09/go-token-engine/tenants"
	"github.com/jrsteele09/go-token-engine/users"
	"gopkg.in/yaml.v3"
)

// Seed is the yaml document loaded into the in-memory stores when no database is configured.
//
//	clients:
//	  - client_id: web
//	    client_secret: "{noop}web_secret"
//	    scope: all
//	    authorized_grant_types: password,refresh_token,captcha_password
//	users:
//	  - username: alice
//	    password: secret
//	    tenant_id: "000000"
//	    roles: [administrator]
type Seed struct {
	Clients     []clients.Row        `yaml:"clients"`
	Users       []SeedUser           `yaml:"users"`
	Tenants     []tenants.Tenant     `yaml:"tenants"`
	Memberships []tenants.Membership `yaml:"memberships"`
}

// SeedUser is a user record that may carry a plain password, hashed on load.
type SeedUser struct {
	users.User `yaml:",inline"`
	Password   string `yaml:"password"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[LoadSeed] read %s: %w", path, err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("[LoadSeed] parse %s: %w", path, err)
	}
	return &seed, nil
}

type seedTargets struct {
	clients *fakeclientrepo.FakeClientSource
	users   users.UserRepo
	tenants tenants.Repo
}

func (s *Seed) apply(ctx context.Context, t seedTargets) error {
	for _, row := range s.Clients {
		if row.ClientID == "" {
			return fmt.Errorf("[Seed.apply] client without client_id")
		}
		t.clients.Put(row)
	}
	for _, su := range s.Users {
		u := su.User
		if su.Password != "" {
			hash, err := users.HashPassword(su.Password)
			if err != nil {
				return fmt.Errorf("[Seed.apply] hash password for %s: %w", u.Username, err)
			}
			u.PasswordHash = hash
		}
		if err := t.users.Upsert(ctx, &u); err != nil {
			return fmt.Errorf("[Seed.apply] user %s: %w", u.Username, err)
		}
	}
	for i := range s.Tenants {
		if err := t.tenants.Upsert(ctx, &s.Tenants[i]); err != nil {
			return fmt.Errorf("[Seed.apply] tenant %s: %w", s.Tenants[i].Name, err)
		}
	}
	for _, m := range s.Memberships {
		if err := t.tenants.Assign(ctx, m); err != nil {
			return fmt.Errorf("[Seed.apply] membership of %s: %w", m.UserID, err)
		}
	}
	return nil
}
