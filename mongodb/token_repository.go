package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.pilab.hu/authmodel/domain"
)

// PairedWrites selects how SaveToken writes an access/refresh pair.
type PairedWrites string

const (
	// PairedWritesBestEffort inserts the access token, then the refresh
	// token. A failed second insert leaves the access token in place.
	PairedWritesBestEffort PairedWrites = "best-effort"
	// PairedWritesTransactional inserts both inside one transaction.
	PairedWritesTransactional PairedWrites = "transactional"
)

// TokenRepository stores access and refresh tokens with embedded client
// and user snapshots.
type TokenRepository struct {
	accessTokens  Collection
	refreshTokens Collection
	tx            Transactor
	mode          PairedWrites
	now           func() time.Time
}

// TokenOption configures a TokenRepository.
type TokenOption func(*TokenRepository)

// WithPairedWrites sets the pair write mode. The default is best-effort.
func WithPairedWrites(mode PairedWrites) TokenOption {
	return func(r *TokenRepository) {
		if mode != "" {
			r.mode = mode
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) TokenOption {
	return func(r *TokenRepository) {
		r.now = now
	}
}

// NewTokenRepository creates a TokenRepository. Transactional writes
// require conn to implement Transactor.
func NewTokenRepository(conn Connector, opts ...TokenOption) (*TokenRepository, error) {
	r := &TokenRepository{
		accessTokens:  conn.Collection(AccessTokensCollection),
		refreshTokens: conn.Collection(RefreshTokensCollection),
		mode:          PairedWritesBestEffort,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	switch r.mode {
	case PairedWritesBestEffort:
	case PairedWritesTransactional:
		tx, ok := conn.(Transactor)
		if !ok {
			return nil, errors.New("transactional paired writes need a connector that supports transactions")
		}
		r.tx = tx
	default:
		return nil, fmt.Errorf("unknown paired write mode %q", r.mode)
	}
	return r, nil
}

// SaveToken persists the access token and, when the spec carries one, the
// refresh token. Both share a pairId. The refresh token is never written
// if the access token could not be.
func (r *TokenRepository) SaveToken(ctx context.Context, client *domain.Client, user *domain.User, spec domain.TokenSpec) (*domain.Token, error) {
	if client == nil || user == nil {
		return nil, fmt.Errorf("%w: a token needs a client and a user", domain.ErrInvalidRecord)
	}
	if spec.AccessToken == "" {
		return nil, fmt.Errorf("%w: access token value cannot be empty", domain.ErrInvalidRecord)
	}

	clientSnap := client.Snapshot()
	userSnap := user.Snapshot()
	now := r.now().UTC()
	pairID := uuid.NewString()

	access := tokenDocument{
		Token:     spec.AccessToken,
		Scope:     spec.Scope,
		ExpiresAt: spec.AccessTokenExpiresAt,
		Client:    newClientSnapshotDocument(clientSnap),
		User:      newUserSnapshotDocument(userSnap),
		PairID:    pairID,
		CreatedAt: now,
	}
	var refresh *tokenDocument
	if spec.RefreshToken != "" {
		refresh = &tokenDocument{
			Token:     spec.RefreshToken,
			Scope:     spec.Scope,
			ExpiresAt: spec.RefreshTokenExpiresAt,
			Client:    access.Client,
			User:      access.User,
			PairID:    pairID,
			CreatedAt: now,
		}
	}

	write := func(ctx context.Context) error {
		if _, err := r.accessTokens.InsertOne(ctx, access); err != nil {
			log.Error().Err(err).Str("token_ref", redact(spec.AccessToken)).Msg("Error saving access token")
			return insertError("access token", err)
		}
		if refresh == nil {
			return nil
		}
		if _, err := r.refreshTokens.InsertOne(ctx, refresh); err != nil {
			if r.tx == nil {
				log.Error().Err(err).Str("pair_id", pairID).
					Msg("Refresh token not saved, access token of the pair remains")
			}
			return insertError("refresh token", err)
		}
		return nil
	}

	var err error
	if r.tx != nil {
		err = r.tx.WithTransaction(ctx, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		return nil, err
	}

	log.Debug().Str("pair_id", pairID).Str("client_id", clientSnap.ID).Str("user_id", userSnap.ID).
		Bool("refresh", refresh != nil).Msg("Token saved")

	token := &domain.Token{
		AccessToken:          spec.AccessToken,
		AccessTokenExpiresAt: spec.AccessTokenExpiresAt,
		Scope:                spec.Scope,
		Client:               clientSnap,
		User:                 userSnap,
	}
	if refresh != nil {
		token.RefreshToken = spec.RefreshToken
		token.RefreshTokenExpiresAt = spec.RefreshTokenExpiresAt
	}
	return token, nil
}

// GetAccessToken returns the stored access token record.
func (r *TokenRepository) GetAccessToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	doc, err := r.find(ctx, r.accessTokens, "access token", token)
	if err != nil {
		return nil, err
	}
	return doc.toAccessToken(), nil
}

// GetRefreshToken returns the stored refresh token record.
func (r *TokenRepository) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	doc, err := r.find(ctx, r.refreshTokens, "refresh token", token)
	if err != nil {
		return nil, err
	}
	return doc.toRefreshToken(), nil
}

func (r *TokenRepository) find(ctx context.Context, coll Collection, kind, token string) (*tokenDocument, error) {
	if token == "" {
		return nil, fmt.Errorf("%s: %w", kind, domain.ErrNotFound)
	}

	var doc tokenDocument
	if err := coll.FindOne(ctx, bson.M{"token": token}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", kind, domain.ErrNotFound)
		}
		log.Error().Err(err).Str("token_ref", redact(token)).Msgf("Error retrieving %s", kind)
		return nil, fmt.Errorf("failed to retrieve %s: %w", kind, err)
	}
	return &doc, nil
}

// RevokeAccessToken deletes the access token and reports whether a record
// was removed by this call.
func (r *TokenRepository) RevokeAccessToken(ctx context.Context, token *domain.AccessToken) (bool, error) {
	if token == nil {
		return false, nil
	}
	return r.revoke(ctx, r.accessTokens, "access token", token.AccessToken)
}

// RevokeRefreshToken deletes the refresh token and reports whether a
// record was removed by this call.
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, token *domain.RefreshToken) (bool, error) {
	if token == nil {
		return false, nil
	}
	return r.revoke(ctx, r.refreshTokens, "refresh token", token.RefreshToken)
}

func (r *TokenRepository) revoke(ctx context.Context, coll Collection, kind, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	result, err := coll.DeleteOne(ctx, bson.M{"token": token})
	if err != nil {
		log.Error().Err(err).Str("token_ref", redact(token)).Msgf("Error revoking %s", kind)
		return false, fmt.Errorf("failed to revoke %s: %w", kind, err)
	}
	revoked := result.DeletedCount == 1
	log.Debug().Str("token_ref", redact(token)).Bool("revoked", revoked).Msgf("Revoke %s", kind)
	return revoked, nil
}

var _ domain.TokenRepository = (*TokenRepository)(nil)
