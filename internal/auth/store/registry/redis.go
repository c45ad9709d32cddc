package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"meridian/internal/platform/redis"
)

// RedisRegistry is the production Registry. Expiry is native Redis TTL, so
// no sweep job is needed; GETDEL gives the atomic single-use consumption
// that pending MFA challenges require.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed registry.
func NewRedis(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func (r *RedisRegistry) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("registry set %q: %w", key, err)
	}
	return nil
}

func (r *RedisRegistry) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("registry exists %q: %w", key, err)
	}
	return n > 0, nil
}

func (r *RedisRegistry) GetDel(ctx context.Context, key string) (string, error) {
	value, err := r.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("registry getdel %q: %w", key, err)
	}
	return value, nil
}

func (r *RedisRegistry) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("registry delete %q: %w", key, err)
	}
	return nil
}
