// Package scope resolves which scopes a client/user/request combination may
// be granted and checks token scopes against the scopes an operation needs.
package scope

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"go.pilab.hu/authmodel/domain"
)

// Admin is the scope that passes every Verify check.
const Admin = "admin"

// Intersect returns the tokens of a that also appear in b, in the order of
// a, joined with single spaces.
func Intersect(a, b string) string {
	return IntersectSet(a, NewSet(b))
}

// IntersectSet is Intersect with a prepared membership set.
func IntersectSet(a string, b Set) string {
	var out []string
	for _, s := range strings.Fields(a) {
		if b.Has(s) {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

// Set is a membership set of scope tokens.
type Set map[string]struct{}

// NewSet splits a space-separated scope string into a Set.
func NewSet(scope string) Set {
	return SetOf(strings.Fields(scope)...)
}

// SetOf builds a Set from individual scope tokens.
func SetOf(scopes ...string) Set {
	set := make(Set, len(scopes))
	for _, s := range scopes {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// Has reports whether s is in the set.
func (s Set) Has(scope string) bool {
	_, ok := s[scope]
	return ok
}

// Requested wraps a requested scope string for Validate. A nil requested
// scope means the request carried none.
func Requested(scope string) *string {
	return &scope
}

// Resolver computes the valid scope for a client, user and requested scope
// against the system scope catalog.
type Resolver struct {
	catalog Catalog
}

// NewResolver creates a Resolver over the given catalog.
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Validate returns the space-separated scope the request may be granted, or
// "" when nothing is valid. An error is returned only when the catalog
// cannot be loaded.
func (r *Resolver) Validate(ctx context.Context, client *domain.Client, user *domain.User, requested *string) (string, error) {
	if client == nil || user == nil {
		return "", nil
	}

	system, err := r.catalog.SystemScopes(ctx)
	if err != nil {
		return "", err
	}

	return Resolve(system, client.Scope, user.Scope, requested), nil
}

// Resolve is the catalog-free core of Validate.
func Resolve(system Set, clientScope, userScope string, requested *string) string {
	clientValid := IntersectSet(clientScope, system)
	if clientValid == "" {
		log.Debug().Str("client_scope", clientScope).Msg("client carries no system scope")
		return ""
	}

	if requested == nil {
		return Intersect(userScope, clientValid)
	}

	requestValid := IntersectSet(*requested, system)
	if requestValid == "" {
		log.Debug().Str("requested", *requested).Msg("requested scope not in system scopes")
		return ""
	}

	clientFiltered := Intersect(clientValid, requestValid)
	if clientFiltered == "" {
		log.Debug().Str("client_scope", clientScope).Str("requested", *requested).Msg("client scope not in requested scope")
		return ""
	}

	return Intersect(userScope, clientFiltered)
}

// Verify reports whether a token carrying tokenScope may perform an
// operation that accepts required. A token holding the admin scope always
// passes; otherwise every token scope must be acceptable to the operation.
func Verify(tokenScope, required string) bool {
	granted := strings.Fields(tokenScope)
	if len(granted) == 0 {
		return false
	}

	for _, s := range granted {
		if s == Admin {
			return true
		}
	}

	accepted := NewSet(required)
	for _, s := range granted {
		if !accepted.Has(s) {
			return false
		}
	}
	return true
}
