package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryTokenStore implements TokenStore using ttlcache. Entries are
// copied on the way in and out.
type MemoryTokenStore struct {
	cache *ttlcache.Cache[string, *TokenEntry]
}

// NewMemoryTokenStore creates a new in-memory token store with automatic
// cleanup. Call Close to stop the cleanup goroutine.
func NewMemoryTokenStore(capacity uint64) *MemoryTokenStore {
	opts := []ttlcache.Option[string, *TokenEntry]{
		ttlcache.WithDisableTouchOnHit[string, *TokenEntry](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, *TokenEntry](capacity))
	}
	cache := ttlcache.New(opts...)

	go cache.Start()

	return &MemoryTokenStore{cache: cache}
}

// Set implements TokenStore.Set.
func (s *MemoryTokenStore) Set(_ context.Context, key string, entry *TokenEntry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.cache.Set(key, entry.clone(), ttl)
	return nil
}

// Get implements TokenStore.Get.
func (s *MemoryTokenStore) Get(_ context.Context, key string) (*TokenEntry, error) {
	item := s.cache.Get(key)
	if item == nil || item.IsExpired() {
		return nil, ErrCacheMiss
	}
	return item.Value().clone(), nil
}

// Delete implements TokenStore.Delete.
func (s *MemoryTokenStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Clear removes all tokens from the cache.
func (s *MemoryTokenStore) Clear(_ context.Context) error {
	s.cache.DeleteAll()
	return nil
}

// Count counts the number of tokens in the cache.
func (s *MemoryTokenStore) Count(_ context.Context) int {
	return s.cache.Len()
}

// Close stops the cleanup goroutine.
func (s *MemoryTokenStore) Close() error {
	s.cache.Stop()
	return nil
}

var _ TokenStore = (*MemoryTokenStore)(nil)
