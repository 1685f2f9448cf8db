package code

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces code keys in a shared redis.
const DefaultKeyPrefix = "oauth:code:"

// RedisClient is the subset of *redis.Client the store uses.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

var _ Store = (*RedisStore)(nil)

// RedisStore shares codes between engine instances. Redemption uses GETDEL so only
// one instance can read a code.
type RedisStore struct {
	client  RedisClient
	prefix  string
	nowFunc func() time.Time
}

func NewRedisStore(client RedisClient, prefix string, now func() time.Time) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, prefix: prefix, nowFunc: now}
}

func (s *RedisStore) Store(ctx context.Context, code AuthorizationCode) error {
	ttl := code.ExpiresAt.Sub(s.nowFunc())
	if ttl <= 0 {
		return fmt.Errorf("[RedisStore.Store] code already expired")
	}
	payload, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("[RedisStore.Store] marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+code.Code, payload, ttl).Err(); err != nil {
		return fmt.Errorf("[RedisStore.Store] set: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, code string) (AuthorizationCode, error) {
	raw, err := s.client.GetDel(ctx, s.prefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return AuthorizationCode{}, ErrNotFound
	}
	if err != nil {
		return AuthorizationCode{}, fmt.Errorf("[RedisStore.Consume] getdel: %w", err)
	}
	var ac AuthorizationCode
	if err := json.Unmarshal([]byte(raw), &ac); err != nil {
		return AuthorizationCode{}, fmt.Errorf("[RedisStore.Consume] unmarshal: %w", err)
	}
	if s.nowFunc().After(ac.ExpiresAt) {
		return AuthorizationCode{}, ErrExpired
	}
	return ac, nil
}
