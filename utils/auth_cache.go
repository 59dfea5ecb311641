package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// AuthEntry is the cached authorization state of a user.
type AuthEntry struct {
	UserID            string     `json:"userId"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Photo             string     `json:"photo"`
	Role              string     `json:"role"`
	PasswordChangedAt *time.Time `json:"passwordChangedAt,omitempty"`
	CachedAt          time.Time  `json:"cachedAt"`
}

// AuthCache stores AuthEntry values keyed by user id.
type AuthCache interface {
	Get(ctx context.Context, userID string) (*AuthEntry, error)
	Set(ctx context.Context, entry AuthEntry) error
	Evict(ctx context.Context, userID string) error
}

type redisAuthCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAuthCache(client *redis.Client) AuthCache {
	return &redisAuthCache{client: client, ttl: AuthCacheTTL}
}

// Get returns nil without error on a cache miss.
func (r *redisAuthCache) Get(ctx context.Context, userID string) (*AuthEntry, error) {
	data, err := r.client.Get(ctx, AuthCachePrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read auth cache: %w", err)
	}
	var entry AuthEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth entry: %w", err)
	}
	return &entry, nil
}

func (r *redisAuthCache) Set(ctx context.Context, entry AuthEntry) error {
	entry.CachedAt = time.Now()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal auth entry: %w", err)
	}
	if err := r.client.Set(ctx, AuthCachePrefix+entry.UserID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save auth entry: %w", err)
	}
	return nil
}

func (r *redisAuthCache) Evict(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, AuthCachePrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to evict auth entry: %w", err)
	}
	return nil
}
