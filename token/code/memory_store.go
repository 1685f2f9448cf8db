package code

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore holds codes for a single process.
type MemoryStore struct {
	codes   map[string]AuthorizationCode
	nowFunc func() time.Time
	lock    sync.Mutex
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		codes:   make(map[string]AuthorizationCode),
		nowFunc: now,
	}
}

func (s *MemoryStore) Store(_ context.Context, code AuthorizationCode) error {
	if code.Code == "" {
		return fmt.Errorf("[MemoryStore.Store] empty code")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, exists := s.codes[code.Code]; exists {
		return fmt.Errorf("[MemoryStore.Store] code already issued")
	}
	s.codes[code.Code] = code
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, code string) (AuthorizationCode, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	ac, ok := s.codes[code]
	if !ok {
		return AuthorizationCode{}, ErrNotFound
	}
	delete(s.codes, code)
	if s.nowFunc().After(ac.ExpiresAt) {
		return AuthorizationCode{}, ErrExpired
	}
	return ac, nil
}

// Purge drops expired codes that were never redeemed.
func (s *MemoryStore) Purge() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	now := s.nowFunc()
	removed := 0
	for k, ac := range s.codes {
		if now.After(ac.ExpiresAt) {
			delete(s.codes, k)
			removed++
		}
	}
	return removed
}
