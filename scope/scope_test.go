package scope_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/authmodel/domain"
	"go.pilab.hu/authmodel/scope"
)

func TestIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want string
	}{
		{"keeps order of a", "c b a", "a b c", "c b a"},
		{"drops tokens missing from b", "profile email admin", "admin profile", "profile admin"},
		{"empty a", "", "profile", ""},
		{"empty b", "profile", "", ""},
		{"collapses whitespace", "  profile   admin ", "admin profile", "profile admin"},
		{"no substring matches", "pro file", "profile", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scope.Intersect(tt.a, tt.b))
		})
	}
}

func TestIntersectNeverAddsTokens(t *testing.T) {
	pairs := [][2]string{
		{"a b c", "c d"},
		{"x", "x y z"},
		{"admin profile read", "read write admin"},
	}
	for _, p := range pairs {
		inA := scope.NewSet(p[0])
		for _, s := range strings.Fields(scope.Intersect(p[0], p[1])) {
			assert.True(t, inA.Has(s), "%q not in %q", s, p[0])
		}
	}
}

func TestResolve(t *testing.T) {
	system := scope.SetOf("profile", "admin")

	t.Run("no requested scope uses user within client", func(t *testing.T) {
		got := scope.Resolve(system, "profile admin", "profile", nil)
		assert.Equal(t, "profile", got)
	})

	t.Run("client without system scope", func(t *testing.T) {
		got := scope.Resolve(system, "client:read", "profile admin", nil)
		assert.Equal(t, "", got)
	})

	t.Run("requested scope outside client scope", func(t *testing.T) {
		got := scope.Resolve(scope.SetOf("profile", "admin", "client:read"), "client:read", "admin", scope.Requested("admin"))
		assert.Equal(t, "", got)
	})

	t.Run("requested scope outside system scopes", func(t *testing.T) {
		got := scope.Resolve(system, "profile admin", "profile admin", scope.Requested("email"))
		assert.Equal(t, "", got)
	})

	t.Run("empty requested scope is not absent", func(t *testing.T) {
		got := scope.Resolve(system, "profile admin", "profile admin", scope.Requested(""))
		assert.Equal(t, "", got)
	})

	t.Run("requested narrows result", func(t *testing.T) {
		got := scope.Resolve(system, "profile admin", "admin profile", scope.Requested("admin"))
		assert.Equal(t, "admin", got)
	})

	t.Run("result follows user order", func(t *testing.T) {
		got := scope.Resolve(system, "profile admin", "admin profile", nil)
		assert.Equal(t, "admin profile", got)
	})
}

func TestResolveStaysWithinUserScope(t *testing.T) {
	system := scope.SetOf("a", "b", "c", "d")
	users := []string{"", "a", "b c", "d a", "x y"}
	clients := []string{"a b c d", "c", "b d"}
	requests := []*string{nil, scope.Requested("a b"), scope.Requested("d"), scope.Requested("")}

	for _, u := range users {
		userSet := scope.NewSet(u)
		for _, c := range clients {
			for _, r := range requests {
				for _, s := range strings.Fields(scope.Resolve(system, c, u, r)) {
					assert.True(t, userSet.Has(s), "scope %q granted outside user scope %q", s, u)
				}
			}
		}
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		required string
		want     bool
	}{
		{"empty token scope", "", "profile", false},
		{"whitespace token scope", "   ", "profile", false},
		{"admin with empty required", "admin", "", true},
		{"admin with disjoint required", "admin", "billing", true},
		{"admin among others", "profile admin", "nothing", true},
		{"token subset of required", "profile", "profile email", true},
		{"token superset of required", "profile email", "profile", false},
		{"exact match", "read write", "write read", true},
		{"non-admin with empty required", "profile", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scope.Verify(tt.token, tt.required))
		})
	}
}

func TestResolverValidate(t *testing.T) {
	r := scope.NewResolver(scope.NewStaticCatalog("profile", "admin"))
	ctx := context.Background()

	client := &domain.Client{Scope: "profile admin"}
	user := &domain.User{Scope: "profile"}

	got, err := r.Validate(ctx, client, user, nil)
	require.NoError(t, err)
	assert.Equal(t, "profile", got)

	got, err = r.Validate(ctx, nil, user, nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
