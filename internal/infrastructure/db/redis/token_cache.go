package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mardens/authgate/internal/core/domain"
	"github.com/mardens/authgate/internal/core/ports"
)

const tokenKeyPrefix = "authgate:token:"

// TokenCache stores users for recently validated tokens.
// Key format: authgate:token:<sha256(token)>
type TokenCache struct {
	client redis.Cmdable
}

var _ ports.TokenCache = (*TokenCache)(nil)

// NewTokenCache creates a TokenCache on top of the given Redis client.
func NewTokenCache(client redis.Cmdable) *TokenCache {
	return &TokenCache{client: client}
}

// Get returns the cached user for token, or (nil, nil) on a miss.
func (c *TokenCache) Get(ctx context.Context, token string) (*domain.User, error) {
	raw, err := c.client.Get(ctx, c.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("token cache get: %w", err)
	}

	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("token cache decode: %w", err)
	}
	return &u, nil
}

// Set caches user for token until ttl elapses.
func (c *TokenCache) Set(ctx context.Context, token string, user *domain.User, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("token cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(token), raw, ttl).Err(); err != nil {
		return fmt.Errorf("token cache set: %w", err)
	}
	return nil
}

func (c *TokenCache) key(token string) string {
	return tokenKeyPrefix + domain.TokenFingerprint(token)
}
