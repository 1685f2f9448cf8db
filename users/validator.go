package users

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	_ CredentialValidator = (*RepoValidator)(nil)
	_ Loader              = (*RepoValidator)(nil)
)

// RepoValidator checks bcrypt password hashes held in a UserRepo.
type RepoValidator struct {
	repo UserRepo
}

func NewRepoValidator(repo UserRepo) *RepoValidator {
	return &RepoValidator{repo: repo}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnCompare spends the same bcrypt work as a real comparison so unknown usernames
// are not distinguishable by response time.
func burnCompare(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Authenticate implements CredentialValidator.
func (v *RepoValidator) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	if username == "" || password == "" {
		return nil, ErrBadCredentials
	}
	user, err := v.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		burnCompare(password)
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("[RepoValidator.Authenticate] GetByUsername: %w", err)
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}
	return checkStatus(user)
}

// LoadByUsername implements Loader.
func (v *RepoValidator) LoadByUsername(ctx context.Context, username string) (*Principal, error) {
	user, err := v.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("[RepoValidator.LoadByUsername] GetByUsername: %w", err)
	}
	return checkStatus(user)
}

func checkStatus(user *User) (*Principal, error) {
	if user.Blocked {
		return nil, ErrAccountDisabled
	}
	if user.Locked {
		return nil, ErrAccountLocked
	}
	return user.Principal(), nil
}
