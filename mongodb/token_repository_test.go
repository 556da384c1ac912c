package mongodb_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/authmodel/domain"
	"go.pilab.hu/authmodel/mongodb"
)

func tokenSpec(t time.Time) domain.TokenSpec {
	return domain.TokenSpec{
		AccessToken:           "at-1",
		AccessTokenExpiresAt:  t.Add(30 * time.Minute),
		RefreshToken:          "rt-1",
		RefreshTokenExpiresAt: t.Add(24 * time.Hour),
		Scope:                 "profile",
	}
}

func TestTokenRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	repo, err := mongodb.NewTokenRepository(db)
	require.NoError(t, err)

	client, user := sampleClient(), sampleUser()
	spec := tokenSpec(now())

	saved, err := repo.SaveToken(ctx, client, user, spec)
	require.NoError(t, err)
	assert.Equal(t, spec.AccessToken, saved.AccessToken)
	assert.Equal(t, spec.RefreshToken, saved.RefreshToken)
	assert.Equal(t, client.Snapshot(), saved.Client)
	assert.Equal(t, user.Snapshot(), saved.User)

	access, err := repo.GetAccessToken(ctx, "at-1")
	require.NoError(t, err)
	assert.Equal(t, "profile", access.Scope)
	assert.True(t, spec.AccessTokenExpiresAt.Equal(access.AccessTokenExpiresAt))
	assert.Equal(t, client.Snapshot(), access.Client)
	assert.Equal(t, user.Snapshot(), access.User)
	assert.NotEmpty(t, access.PairID)

	refresh, err := repo.GetRefreshToken(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, access.PairID, refresh.PairID)
	assert.Equal(t, access.Client, refresh.Client)
	assert.Equal(t, access.User, refresh.User)
}

func TestTokenRepository_SnapshotIndependence(t *testing.T) {
	ctx := context.Background()
	repo, err := mongodb.NewTokenRepository(newFakeDB())
	require.NoError(t, err)

	client, user := sampleClient(), sampleUser()
	want := client.Snapshot()
	wantUser := user.Snapshot()

	saved, err := repo.SaveToken(ctx, client, user, tokenSpec(now()))
	require.NoError(t, err)

	// Mutate what the caller still holds.
	client.Name = "Renamed"
	client.Scope = "everything"
	client.Grants[0] = "password"
	client.RedirectURIs[0] = "https://evil.example.com"
	user.Scope = "admin"

	assert.Equal(t, want, saved.Client)
	assert.Equal(t, wantUser, saved.User)

	access, err := repo.GetAccessToken(ctx, "at-1")
	require.NoError(t, err)
	assert.Equal(t, want, access.Client)
	assert.Equal(t, wantUser, access.User)
}

func TestTokenRepository_WithoutRefreshToken(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	repo, err := mongodb.NewTokenRepository(db)
	require.NoError(t, err)

	spec := tokenSpec(now())
	spec.RefreshToken = ""

	saved, err := repo.SaveToken(ctx, sampleClient(), sampleUser(), spec)
	require.NoError(t, err)
	assert.Empty(t, saved.RefreshToken)
	assert.True(t, saved.RefreshTokenExpiresAt.IsZero())
	assert.Equal(t, 1, db.C(mongodb.AccessTokensCollection).Len())
	assert.Equal(t, 0, db.C(mongodb.RefreshTokensCollection).Len())
}

func TestTokenRepository_RejectsIncompleteInput(t *testing.T) {
	ctx := context.Background()
	repo, err := mongodb.NewTokenRepository(newFakeDB())
	require.NoError(t, err)

	_, err = repo.SaveToken(ctx, nil, sampleUser(), tokenSpec(now()))
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	spec := tokenSpec(now())
	spec.AccessToken = ""
	_, err = repo.SaveToken(ctx, sampleClient(), sampleUser(), spec)
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)
}

func TestTokenRepository_AccessFailureSkipsRefresh(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	repo, err := mongodb.NewTokenRepository(db)
	require.NoError(t, err)

	boom := errors.New("connection reset")
	db.C(mongodb.AccessTokensCollection).FailInsert(boom)

	_, err = repo.SaveToken(ctx, sampleClient(), sampleUser(), tokenSpec(now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, db.C(mongodb.RefreshTokensCollection).Len())
}

func TestTokenRepository_DuplicateToken(t *testing.T) {
	ctx := context.Background()
	repo, err := mongodb.NewTokenRepository(newFakeDB())
	require.NoError(t, err)

	_, err = repo.SaveToken(ctx, sampleClient(), sampleUser(), tokenSpec(now()))
	require.NoError(t, err)

	_, err = repo.SaveToken(ctx, sampleClient(), sampleUser(), tokenSpec(now()))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestTokenRepository_BestEffortRefreshFailure(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	repo, err := mongodb.NewTokenRepository(db)
	require.NoError(t, err)

	db.C(mongodb.RefreshTokensCollection).FailInsert(errors.New("write concern timeout"))

	_, err = repo.SaveToken(ctx, sampleClient(), sampleUser(), tokenSpec(now()))
	require.Error(t, err)

	// The access token of the pair stays behind.
	access, err := repo.GetAccessToken(ctx, "at-1")
	require.NoError(t, err)
	assert.NotEmpty(t, access.PairID)
}

func TestTokenRepository_TransactionalPair(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	repo, err := mongodb.NewTokenRepository(db, mongodb.WithPairedWrites(mongodb.PairedWritesTransactional))
	require.NoError(t, err)

	t.Run("commits both", func(t *testing.T) {
		_, err := repo.SaveToken(ctx, sampleClient(), sampleUser(), tokenSpec(now()))
		require.NoError(t, err)
		assert.Equal(t, 1, db.Transactions())
		assert.Equal(t, 1, db.C(mongodb.AccessTokensCollection).Len())
		assert.Equal(t, 1, db.C(mongodb.RefreshTokensCollection).Len())
	})

	t.Run("rolls back access token", func(t *testing.T) {
		db.C(mongodb.RefreshTokensCollection).FailInsert(errors.New("write conflict"))
		defer db.C(mongodb.RefreshTokensCollection).FailInsert(nil)

		spec := tokenSpec(now())
		spec.AccessToken, spec.RefreshToken = "at-2", "rt-2"
		_, err := repo.SaveToken(ctx, sampleClient(), sampleUser(), spec)
		require.Error(t, err)

		_, err = repo.GetAccessToken(ctx, "at-2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, 1, db.C(mongodb.AccessTokensCollection).Len())
	})
}

func TestTokenRepository_TransactionalNeedsTransactor(t *testing.T) {
	_, err := mongodb.NewTokenRepository(newFakeDB().WithoutTransactions(),
		mongodb.WithPairedWrites(mongodb.PairedWritesTransactional))
	assert.Error(t, err)

	_, err = mongodb.NewTokenRepository(newFakeDB(), mongodb.WithPairedWrites("sometimes"))
	assert.Error(t, err)
}

func TestTokenRepository_NotFoundAndInfraErrors(t *testing.T) {
	ctx := context.Background()
	db := newFakeDB()
	repo, err := mongodb.NewTokenRepository(db)
	require.NoError(t, err)

	_, err = repo.GetAccessToken(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetRefreshToken(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	boom := errors.New("server selection timeout")
	db.C(mongodb.AccessTokensCollection).FailFind(boom)
	_, err = repo.GetAccessToken(ctx, "missing")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	db.C(mongodb.AccessTokensCollection).FailDelete(boom)
	_, err = repo.RevokeAccessToken(ctx, &domain.AccessToken{AccessToken: "missing"})
	assert.ErrorIs(t, err, boom)
}

func TestTokenRepository_IdempotentRevoke(t *testing.T) {
	ctx := context.Background()
	repo, err := mongodb.NewTokenRepository(newFakeDB())
	require.NoError(t, err)

	_, err = repo.SaveToken(ctx, sampleClient(), sampleUser(), tokenSpec(now()))
	require.NoError(t, err)

	access, err := repo.GetAccessToken(ctx, "at-1")
	require.NoError(t, err)

	revoked, err := repo.RevokeAccessToken(ctx, access)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.RevokeAccessToken(ctx, access)
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = repo.RevokeAccessToken(ctx, nil)
	require.NoError(t, err)
	assert.False(t, revoked)

	// The refresh token is independent of its access token.
	refresh, err := repo.GetRefreshToken(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "rt-1", refresh.RefreshToken)
}

func TestTokenRepository_RefreshScenario(t *testing.T) {
	ctx := context.Background()
	repo, err := mongodb.NewTokenRepository(newFakeDB())
	require.NoError(t, err)

	client, user := sampleClient(), sampleUser()
	_, err = repo.SaveToken(ctx, client, user, tokenSpec(now()))
	require.NoError(t, err)

	access, err := repo.GetAccessToken(ctx, "at-1")
	require.NoError(t, err)
	refresh, err := repo.GetRefreshToken(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, access.Client, refresh.Client)
	assert.Equal(t, access.User, refresh.User)

	revoked, err := repo.RevokeRefreshToken(ctx, refresh)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = repo.GetRefreshToken(ctx, "rt-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTokenRepository_ConcurrentRevoke(t *testing.T) {
	ctx := context.Background()
	repo, err := mongodb.NewTokenRepository(newFakeDB())
	require.NoError(t, err)

	_, err = repo.SaveToken(ctx, sampleClient(), sampleUser(), tokenSpec(now()))
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.RevokeRefreshToken(ctx, &domain.RefreshToken{RefreshToken: "rt-1"})
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
