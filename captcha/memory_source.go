package captcha

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

var (
	_ Source = (*MemorySource)(nil)
	_ Keeper = (*MemorySource)(nil)
)

// MemorySource keeps challenges in a process local TTL cache.
type MemorySource struct {
	cache *cache.Cache
	// go-cache has no get-and-delete, the lock makes the pair atomic.
	lock sync.Mutex
}

func NewMemorySource(cleanupInterval time.Duration) *MemorySource {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	return &MemorySource{cache: cache.New(DefaultTTL, cleanupInterval)}
}

func (s *MemorySource) Put(_ context.Context, key, code string, ttl time.Duration) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.cache.Set(key, code, ttl)
	return nil
}

func (s *MemorySource) FetchAndInvalidate(_ context.Context, key string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	v, ok := s.cache.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	s.cache.Delete(key)
	code, _ := v.(string)
	return code, nil
}
