package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/authmodel/domain"
)

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore(0)
	defer store.Close()

	entry := &TokenEntry{Refresh: &domain.RefreshToken{RefreshToken: "rt-1", Scope: "profile"}}
	key := Key(KindRefresh, "rt-1")

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, store.Set(ctx, key, entry, time.Minute))
	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, entry, got)
	assert.NotSame(t, entry.Refresh, got.Refresh)

	require.NoError(t, store.Set(ctx, "short", entry, 10*time.Millisecond))
	assert.Eventually(t, func() bool {
		_, err := store.Get(ctx, "short")
		return err == ErrCacheMiss
	}, time.Second, 5*time.Millisecond)

	// A non-positive ttl stores nothing.
	require.NoError(t, store.Set(ctx, "never", entry, 0))
	_, err = store.Get(ctx, "never")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, store.Set(ctx, key, entry, time.Minute))
	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Count(ctx))
}
