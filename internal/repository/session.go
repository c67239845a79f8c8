package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atinyakov/BikeGuard/internal/common"
)

// RedisSessionRepository maps session tokens to account ids in Redis.
// Expiry is delegated to the key TTL, which is set once at creation and
// never extended.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository creates a RedisSessionRepository using client.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Create stores token → accountID with an absolute lifetime of ttl.
func (r *RedisSessionRepository) Create(ctx context.Context, token, accountID string, ttl time.Duration) error {
	ok, err := r.client.SetNX(ctx, sessionKey(token), accountID, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis create session failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("session token collision")
	}
	return nil
}

// Get returns the account id bound to token, or common.ErrNotFound when the
// session does not exist or has expired.
func (r *RedisSessionRepository) Get(ctx context.Context, token string) (string, error) {
	val, err := r.client.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get session failed: %w", err)
	}
	return val, nil
}

// Delete removes token. Deleting an unknown token is not an error.
func (r *RedisSessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("redis delete session failed: %w", err)
	}
	return nil
}
