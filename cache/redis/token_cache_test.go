package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/authmodel/cache"
	"go.pilab.hu/authmodel/domain"
)

func newTestStore(t *testing.T) *TokenStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not reachable: %v", err)
	}

	store := NewTokenStore(client, "authmodel-test-"+time.Now().Format("150405.000000"))
	t.Cleanup(func() { _ = store.Clear(context.Background()) })
	return store
}

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	entry := &cache.TokenEntry{Access: &domain.AccessToken{
		AccessToken:          "at-1",
		AccessTokenExpiresAt: expires,
		Scope:                "profile",
		Client:               domain.ClientSnapshot{ID: "c1", Grants: []string{"password"}},
		User:                 domain.UserSnapshot{ID: "u1", Username: "alice"},
	}}
	key := cache.Key(cache.KindAccess, "at-1")

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, store.Set(ctx, key, entry, time.Minute))
	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, entry.Access.Client, got.Access.Client)
	assert.True(t, expires.Equal(got.Access.AccessTokenExpiresAt))
	assert.Equal(t, 1, store.Count(ctx))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
