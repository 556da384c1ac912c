package scope

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.pilab.hu/authmodel/domain"
)

// Catalog supplies the set of scopes the system recognizes.
type Catalog interface {
	SystemScopes(ctx context.Context) (Set, error)
}

// StaticCatalog is a fixed, configuration-supplied catalog.
type StaticCatalog struct {
	scopes Set
}

// NewStaticCatalog creates a catalog from the given scope tokens. Entries
// may themselves be space-separated lists.
func NewStaticCatalog(scopes ...string) *StaticCatalog {
	return &StaticCatalog{scopes: NewSet(strings.Join(scopes, " "))}
}

// SystemScopes implements Catalog.
func (c *StaticCatalog) SystemScopes(context.Context) (Set, error) {
	return c.scopes, nil
}

const catalogKey = "system"

// CachedCatalog loads the catalog from a ScopeRepository and keeps it for a
// TTL.
type CachedCatalog struct {
	repo  domain.ScopeRepository
	cache *ttlcache.Cache[string, Set]
}

// NewCachedCatalog creates a CachedCatalog. A ttl <= 0 defaults to one
// minute.
func NewCachedCatalog(repo domain.ScopeRepository, ttl time.Duration) *CachedCatalog {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedCatalog{
		repo: repo,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, Set](ttl),
			ttlcache.WithDisableTouchOnHit[string, Set](),
		),
	}
}

// SystemScopes implements Catalog.
func (c *CachedCatalog) SystemScopes(ctx context.Context) (Set, error) {
	if item := c.cache.Get(catalogKey); item != nil && !item.IsExpired() {
		return item.Value(), nil
	}

	scopes, err := c.repo.ListScopes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load system scopes: %w", err)
	}

	set := make(Set, len(scopes))
	for _, s := range scopes {
		if s.Name != "" {
			set[s.Name] = struct{}{}
		}
	}
	c.cache.Set(catalogKey, set, ttlcache.DefaultTTL)
	return set, nil
}

// Invalidate drops the cached catalog so the next call reloads it.
func (c *CachedCatalog) Invalidate() {
	c.cache.Delete(catalogKey)
}
