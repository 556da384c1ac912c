package cache

import (
	"context"
	"errors"
	"time"

	"go.pilab.hu/authmodel/domain"
)

// ErrCacheMiss is returned by TokenStore.Get when nothing is cached.
var ErrCacheMiss = errors.New("token not cached")

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// TokenEntry is a cached token record. Exactly one record is set, or
// Revoked marks a token revoked through this cache.
type TokenEntry struct {
	Access  *domain.AccessToken  `json:"access,omitempty"`
	Refresh *domain.RefreshToken `json:"refresh,omitempty"`
	Revoked bool                 `json:"revoked,omitempty"`
}

// Key returns the cache key of a token of the given kind.
func Key(kind, token string) string {
	return kind + ":" + HashToken(token)
}

// TokenStore is a TTL key/value store for token records.
type TokenStore interface {
	Set(ctx context.Context, key string, entry *TokenEntry, ttl time.Duration) error
	Get(ctx context.Context, key string) (*TokenEntry, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) int
}

// clone returns a copy that shares no slices with e.
func (e *TokenEntry) clone() *TokenEntry {
	out := &TokenEntry{Revoked: e.Revoked}
	if e.Access != nil {
		a := *e.Access
		a.Client = cloneSnapshot(a.Client)
		out.Access = &a
	}
	if e.Refresh != nil {
		r := *e.Refresh
		r.Client = cloneSnapshot(r.Client)
		out.Refresh = &r
	}
	return out
}

func cloneSnapshot(s domain.ClientSnapshot) domain.ClientSnapshot {
	if s.Grants != nil {
		s.Grants = append([]string(nil), s.Grants...)
	}
	if s.RedirectURIs != nil {
		s.RedirectURIs = append([]string(nil), s.RedirectURIs...)
	}
	return s
}
