package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.pilab.hu/authmodel/domain"
)

// AuthCodeRepository stores single-use authorization codes. Expired codes
// are not removed here; callers check AuthorizationCode.Expired.
type AuthCodeRepository struct {
	codes Collection
	now   func() time.Time
}

func NewAuthCodeRepository(conn Connector) *AuthCodeRepository {
	return &AuthCodeRepository{
		codes: conn.Collection(CodesCollection),
		now:   time.Now,
	}
}

func (r *AuthCodeRepository) SaveAuthorizationCode(ctx context.Context, client *domain.Client, user *domain.User, spec domain.CodeSpec) (*domain.AuthorizationCode, error) {
	if client == nil || user == nil {
		return nil, fmt.Errorf("%w: an authorization code needs a client and a user", domain.ErrInvalidRecord)
	}
	if spec.AuthorizationCode == "" {
		return nil, fmt.Errorf("%w: auth code value cannot be empty", domain.ErrInvalidRecord)
	}

	clientSnap := client.Snapshot()
	userSnap := user.Snapshot()
	doc := codeDocument{
		Code:        spec.AuthorizationCode,
		Scope:       spec.Scope,
		RedirectURI: spec.RedirectURI,
		ExpiresAt:   spec.ExpiresAt,
		Client:      newClientSnapshotDocument(clientSnap),
		User:        newUserSnapshotDocument(userSnap),
		CreatedAt:   r.now().UTC(),
	}

	if _, err := r.codes.InsertOne(ctx, doc); err != nil {
		log.Error().Err(err).Str("code_ref", redact(spec.AuthorizationCode)).Msg("Error saving authorization code")
		return nil, insertError("authorization code", err)
	}

	log.Debug().Str("code_ref", redact(spec.AuthorizationCode)).Str("user_id", userSnap.ID).Msg("Authorization code saved")

	return &domain.AuthorizationCode{
		Code:        doc.Code,
		ExpiresAt:   doc.ExpiresAt,
		RedirectURI: doc.RedirectURI,
		Scope:       doc.Scope,
		Client:      clientSnap,
		User:        userSnap,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

func (r *AuthCodeRepository) GetAuthorizationCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code: %w", domain.ErrNotFound)
	}

	var doc codeDocument
	if err := r.codes.FindOne(ctx, bson.M{"code": code}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("authorization code: %w", domain.ErrNotFound)
		}
		log.Error().Err(err).Str("code_ref", redact(code)).Msg("Error retrieving authorization code")
		return nil, fmt.Errorf("failed to retrieve authorization code: %w", err)
	}
	return doc.toDomain(), nil
}

// RevokeAuthorizationCode deletes the code. It reports true only for the
// call that removed the record.
func (r *AuthCodeRepository) RevokeAuthorizationCode(ctx context.Context, code *domain.AuthorizationCode) (bool, error) {
	if code == nil || code.Code == "" {
		return false, nil
	}

	result, err := r.codes.DeleteOne(ctx, bson.M{"code": code.Code})
	if err != nil {
		log.Error().Err(err).Str("code_ref", redact(code.Code)).Msg("Error revoking authorization code")
		return false, fmt.Errorf("failed to revoke authorization code: %w", err)
	}
	return result.DeletedCount == 1, nil
}

var _ domain.AuthorizationCodeRepository = (*AuthCodeRepository)(nil)
