package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.pilab.hu/authmodel/domain"
)

// TokenRepository is a read-through cache in front of another
// domain.TokenRepository. A record is cached for at most ttl and never
// past its own expiry. A revoke leaves a marker for ttl after the backing
// delete; lookups answer not found from it and fills never replace it.
type TokenRepository struct {
	next  domain.TokenRepository
	store TokenStore
	ttl   time.Duration
	now   func() time.Time

	// mu orders fills against revocation markers.
	mu sync.Mutex
}

// NewTokenRepository wraps next with store.
func NewTokenRepository(next domain.TokenRepository, store TokenStore, ttl time.Duration) *TokenRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &TokenRepository{next: next, store: store, ttl: ttl, now: time.Now}
}

// SaveToken implements domain.TokenRepository. Nothing is cached on write.
func (r *TokenRepository) SaveToken(ctx context.Context, client *domain.Client, user *domain.User, spec domain.TokenSpec) (*domain.Token, error) {
	return r.next.SaveToken(ctx, client, user, spec)
}

// GetAccessToken implements domain.TokenRepository.
func (r *TokenRepository) GetAccessToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	key := Key(KindAccess, token)
	if entry := r.lookup(ctx, key); entry != nil {
		if entry.Revoked {
			return nil, fmt.Errorf("access token: %w", domain.ErrNotFound)
		}
		if entry.Access != nil {
			return entry.Access, nil
		}
	}

	record, err := r.next.GetAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, key, &TokenEntry{Access: record}, record.AccessTokenExpiresAt)
	return record, nil
}

// GetRefreshToken implements domain.TokenRepository.
func (r *TokenRepository) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	key := Key(KindRefresh, token)
	if entry := r.lookup(ctx, key); entry != nil {
		if entry.Revoked {
			return nil, fmt.Errorf("refresh token: %w", domain.ErrNotFound)
		}
		if entry.Refresh != nil {
			return entry.Refresh, nil
		}
	}

	record, err := r.next.GetRefreshToken(ctx, token)
	if err != nil {
		return nil, err
	}
	r.fill(ctx, key, &TokenEntry{Refresh: record}, record.RefreshTokenExpiresAt)
	return record, nil
}

// RevokeAccessToken implements domain.TokenRepository.
func (r *TokenRepository) RevokeAccessToken(ctx context.Context, token *domain.AccessToken) (bool, error) {
	revoked, err := r.next.RevokeAccessToken(ctx, token)
	if err != nil {
		return false, err
	}
	if token != nil {
		r.markRevoked(ctx, Key(KindAccess, token.AccessToken))
	}
	return revoked, nil
}

// RevokeRefreshToken implements domain.TokenRepository.
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, token *domain.RefreshToken) (bool, error) {
	revoked, err := r.next.RevokeRefreshToken(ctx, token)
	if err != nil {
		return false, err
	}
	if token != nil {
		r.markRevoked(ctx, Key(KindRefresh, token.RefreshToken))
	}
	return revoked, nil
}

func (r *TokenRepository) lookup(ctx context.Context, key string) *TokenEntry {
	entry, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			log.Warn().Err(err).Str("key", key).Msg("Token cache read failed")
		}
		return nil
	}
	return entry
}

func (r *TokenRepository) fill(ctx context.Context, key string, entry *TokenEntry, expiresAt time.Time) {
	ttl := r.ttl
	if left := expiresAt.Sub(r.now()); left < ttl {
		ttl = left
	}
	if ttl <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// The backing read may have happened before a revoke that has since
	// left its marker.
	current, err := r.store.Get(ctx, key)
	switch {
	case err == nil && current.Revoked:
		return
	case err != nil && !errors.Is(err, ErrCacheMiss):
		log.Warn().Err(err).Str("key", key).Msg("Token cache read failed, not filling")
		return
	}
	if err := r.store.Set(ctx, key, entry, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Token cache write failed")
	}
}

func (r *TokenRepository) markRevoked(ctx context.Context, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Set(ctx, key, &TokenEntry{Revoked: true}, r.ttl); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Token cache revocation marker failed")
		if err := r.store.Delete(ctx, key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Token cache eviction failed")
		}
	}
}

var _ domain.TokenRepository = (*TokenRepository)(nil)
