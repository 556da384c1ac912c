package mongodb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/authmodel/domain"
	"go.pilab.hu/authmodel/mongodb"
)

func TestScopeRepository(t *testing.T) {
	ctx := context.Background()
	repo := mongodb.NewScopeRepository(newFakeDB())

	scopes, err := repo.ListScopes(ctx)
	require.NoError(t, err)
	assert.Empty(t, scopes)

	require.NoError(t, repo.AddScope(ctx, domain.Scope{Name: "profile", Description: "Basic profile"}))
	require.NoError(t, repo.AddScope(ctx, domain.Scope{Name: "admin"}))

	assert.ErrorIs(t, repo.AddScope(ctx, domain.Scope{Name: "admin"}), domain.ErrDuplicate)
	assert.ErrorIs(t, repo.AddScope(ctx, domain.Scope{Name: "two words"}), domain.ErrInvalidRecord)

	scopes, err = repo.ListScopes(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Scope{
		{Name: "profile", Description: "Basic profile"},
		{Name: "admin"},
	}, scopes)
}
