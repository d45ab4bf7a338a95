// Package cache provides the Redis-backed lock used to serialize
// reconciliation passes per network.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bazaar-service/bazaar_service/internal/infrastructure/config"
)

// NewClient connects to Redis and verifies the connection.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Lock is a best-effort advisory lock on Redis SET NX with a TTL. The TTL
// bounds how long a crashed pass can block its network.
type Lock struct {
	client *redis.Client
}

// NewLock creates a lock backed by the given Redis client.
func NewLock(client *redis.Client) *Lock {
	return &Lock{client: client}
}

// releaseScript deletes the lock only while the caller's token still owns
// it. Without the ownership check, a holder that outlived its TTL would
// delete the lock a successor acquired in the meantime.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// Acquire takes the lock, returning an ownership token and false when
// another holder has it.
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("setnx %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lock when the token still owns it. Releasing a lock
// that expired, or was re-acquired by another holder, is a no-op.
func (l *Lock) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
