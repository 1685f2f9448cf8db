package users

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCredentials  = errors.New("bad credentials")
	ErrAccountDisabled = errors.New("account disabled")
	ErrAccountLocked   = errors.New("account locked")
	ErrUserNotFound    = errors.New("user not found")
)

// Principal is the authenticated resource owner carried into token claims.
type Principal struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Nickname    string   `json:"nickname,omitempty"`
	TenantID    string   `json:"tenant_id,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	AccountType string   `json:"account_type,omitempty"`
	Disabled    bool     `json:"disabled,omitempty"`
	Locked      bool     `json:"locked,omitempty"`
}

// Usable reports whether the account may be issued tokens.
func (p *Principal) Usable() bool {
	return p != nil && !p.Disabled && !p.Locked
}

// CredentialValidator authenticates a resource owner against an identity source.
// Implementations return ErrBadCredentials for unknown users or wrong passwords and
// ErrAccountDisabled / ErrAccountLocked for accounts that exist but may not log in.
type CredentialValidator interface {
	Authenticate(ctx context.Context, username, password string) (*Principal, error)
}

// Loader reloads a principal by username without a password, used when refreshing tokens.
type Loader interface {
	LoadByUsername(ctx context.Context, username string) (*Principal, error)
}

// User is the stored account record.
type User struct {
	ID           string   `json:"id,omitempty" yaml:"id"`
	Username     string   `json:"username,omitempty" yaml:"username"`
	PasswordHash string   `json:"-" yaml:"password_hash"` // never serialize to JSON
	Nickname     string   `json:"nickname,omitempty" yaml:"nickname"`
	TenantID     string   `json:"tenant_id,omitempty" yaml:"tenant_id"`
	Roles        []string `json:"roles,omitempty" yaml:"roles"`
	AccountType  string   `json:"account_type,omitempty" yaml:"account_type"`
	Blocked      bool     `json:"blocked,omitempty" yaml:"blocked"`
	Locked       bool     `json:"locked,omitempty" yaml:"locked"`
}

// Principal returns the token-facing view of the user.
func (u *User) Principal() *Principal {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	return &Principal{
		ID:          u.ID,
		Username:    u.Username,
		Nickname:    u.Nickname,
		TenantID:    u.TenantID,
		Roles:       roles,
		AccountType: u.AccountType,
		Disabled:    u.Blocked,
		Locked:      u.Locked,
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
