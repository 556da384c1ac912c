package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/authmodel/cache"
)

// TokenStore implements cache.TokenStore using Redis. Entries are JSON
// strings with a Redis expiry.
type TokenStore struct {
	client redis.UniversalClient
	prefix string
}

// NewTokenStore creates a new [TokenStore] instance.
func NewTokenStore(client redis.UniversalClient, prefix string) *TokenStore {
	return &TokenStore{
		client: client,
		prefix: prefix,
	}
}

func (r *TokenStore) redisKey(key string) string {
	return fmt.Sprintf("%s:token:%s", r.prefix, key)
}

// Set implements cache.TokenStore.
func (r *TokenStore) Set(ctx context.Context, key string, entry *cache.TokenEntry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal token entry: %w", err)
	}
	if err := r.client.Set(ctx, r.redisKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set token in Redis: %w", err)
	}
	return nil
}

// Get implements cache.TokenStore.
func (r *TokenStore) Get(ctx context.Context, key string) (*cache.TokenEntry, error) {
	data, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get token from Redis: %w", err)
	}

	var entry cache.TokenEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token entry: %w", err)
	}
	return &entry, nil
}

// Delete implements cache.TokenStore.
func (r *TokenStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete token from Redis: %w", err)
	}
	return nil
}

// Clear removes all tokens under the prefix.
func (r *TokenStore) Clear(ctx context.Context) error {
	return r.scan(ctx, func(keys []string) error {
		return r.client.Del(ctx, keys...).Err()
	})
}

// Count returns the number of tokens under the prefix.
func (r *TokenStore) Count(ctx context.Context) int {
	var count int
	err := r.scan(ctx, func(keys []string) error {
		count += len(keys)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("Error counting cached tokens")
	}
	return count
}

func (r *TokenStore) scan(ctx context.Context, fn func(keys []string) error) error {
	pattern := r.redisKey("*")
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan token keys: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

var _ cache.TokenStore = (*TokenStore)(nil)
