package captcha

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix is the redis namespace challenges are written under.
const DefaultKeyPrefix = "blade:auth::blade:captcha:"

// RedisClient is the subset of *redis.Client the source uses.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

var (
	_ Source = (*RedisSource)(nil)
	_ Keeper = (*RedisSource)(nil)
)

// RedisSource reads challenges written by the captcha endpoint into redis.
type RedisSource struct {
	client RedisClient
	prefix string
}

func NewRedisSource(client RedisClient, prefix string) *RedisSource {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisSource{client: client, prefix: prefix}
}

func (s *RedisSource) Put(ctx context.Context, key, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, code, ttl).Err(); err != nil {
		return fmt.Errorf("[RedisSource.Put] set: %w", err)
	}
	return nil
}

func (s *RedisSource) FetchAndInvalidate(ctx context.Context, key string) (string, error) {
	code, err := s.client.GetDel(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("[RedisSource.FetchAndInvalidate] getdel: %w", err)
	}
	return code, nil
}
