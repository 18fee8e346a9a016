// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache stores short-lived provider tokens.
type TokenCache interface {
	// Get returns the cached token and whether it was present.
	Get(context context.Context, key string) (string, bool, error)

	// Set stores a token until ttl elapses.
	Set(context context.Context, key, token string, ttl time.Duration) error
}

// RedisTokenCache implements [TokenCache] using Redis.
type RedisTokenCache struct {
	client *redis.Client
}

// NewRedisTokenCache creates a new Redis-backed [TokenCache].
func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

/*
Get reads a token.

Returns:
  - string: The token, empty when absent
  - bool: Whether the key existed
  - error: Connectivity errors
*/
func (cache *RedisTokenCache) Get(context context.Context, key string) (string, bool, error) {
	token, err := cache.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis_token_cache_get_failed: %w", err)
	}

	return token, true, nil
}

// Set stores a token with its TTL.
func (cache *RedisTokenCache) Set(context context.Context, key, token string, ttl time.Duration) error {
	if err := cache.client.Set(context, key, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis_token_cache_set_failed: %w", err)
	}
	return nil
}
