package token

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jrsteele09/go-token-engine/oauth2"
)

var _ Store = (*MemoryStore)(nil)

type accessEntry struct {
	token *oauth2.AccessToken
	auth  oauth2.Authorization
}

type refreshEntry struct {
	token       oauth2.RefreshToken
	auth        oauth2.Authorization
	accessToken string
}

// MemoryStore keeps tokens in process memory behind a single lock.
type MemoryStore struct {
	access  map[string]accessEntry
	refresh map[string]refreshEntry
	lock    sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		access:  make(map[string]accessEntry),
		refresh: make(map[string]refreshEntry),
	}
}

func (s *MemoryStore) Save(_ context.Context, token *oauth2.AccessToken, auth oauth2.Authorization) error {
	if token == nil || token.Value == "" {
		return fmt.Errorf("[MemoryStore.Save] empty access token")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.put(token, auth)
	return nil
}

func (s *MemoryStore) ReadAccessToken(_ context.Context, value string) (*oauth2.AccessToken, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	e, ok := s.access[value]
	if !ok {
		return nil, ErrNotFound
	}
	return e.token.Clone(), nil
}

func (s *MemoryStore) ReadAuthorization(_ context.Context, accessToken string) (oauth2.Authorization, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	e, ok := s.access[accessToken]
	if !ok {
		return oauth2.Authorization{}, ErrNotFound
	}
	return e.auth.Clone(), nil
}

func (s *MemoryStore) ReadRefreshToken(_ context.Context, value string) (*RefreshRecord, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	e, ok := s.refresh[value]
	if !ok {
		return nil, ErrNotFound
	}
	return &RefreshRecord{
		Token:         e.token,
		Authorization: e.auth.Clone(),
		AccessToken:   e.accessToken,
	}, nil
}

func (s *MemoryStore) RotateRefreshToken(_ context.Context, oldRefresh string, token *oauth2.AccessToken, auth oauth2.Authorization) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	old, ok := s.refresh[oldRefresh]
	if !ok {
		return ErrNotFound
	}
	delete(s.refresh, oldRefresh)
	delete(s.access, old.accessToken)
	s.put(token, auth)
	return nil
}

func (s *MemoryStore) ReplaceAccessToken(_ context.Context, token *oauth2.AccessToken, auth oauth2.Authorization) error {
	if token.RefreshToken == nil {
		return fmt.Errorf("[MemoryStore.ReplaceAccessToken] access token carries no refresh token")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	current, ok := s.refresh[token.RefreshToken.Value]
	if !ok {
		return ErrNotFound
	}
	delete(s.access, current.accessToken)
	s.put(token, auth)
	return nil
}

func (s *MemoryStore) RevokeAccessToken(_ context.Context, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.access[value]; !ok {
		return ErrNotFound
	}
	delete(s.access, value)
	return nil
}

func (s *MemoryStore) RevokeRefreshToken(_ context.Context, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	e, ok := s.refresh[value]
	if !ok {
		return ErrNotFound
	}
	delete(s.refresh, value)
	delete(s.access, e.accessToken)
	return nil
}

func (s *MemoryStore) FindByClientAndUser(_ context.Context, clientID, username string) ([]*oauth2.AccessToken, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	var out []*oauth2.AccessToken
	for _, e := range s.access {
		if e.auth.ClientID != clientID || e.auth.Principal == nil || e.auth.Principal.Username != username {
			continue
		}
		out = append(out, e.token.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out, nil
}

// put must be called with the write lock held.
func (s *MemoryStore) put(token *oauth2.AccessToken, auth oauth2.Authorization) {
	stored := token.Clone()
	s.access[stored.Value] = accessEntry{token: stored, auth: auth.Clone()}
	if stored.RefreshToken != nil {
		s.refresh[stored.RefreshToken.Value] = refreshEntry{
			token:       *stored.RefreshToken,
			auth:        auth.Clone(),
			accessToken: stored.Value,
		}
	}
}
