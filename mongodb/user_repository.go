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
	"go.pilab.hu/authmodel/internal/auth"
)

// UserRepository resolves resource owners and checks their credentials.
// Users and credentials may live in a different database than tokens.
type UserRepository struct {
	users       Collection
	credentials Collection
	verifier    auth.PasswordVerifier
	now         func() time.Time
}

// NewUserRepository creates a UserRepository over the user database.
func NewUserRepository(conn Connector, verifier auth.PasswordVerifier) *UserRepository {
	return &UserRepository{
		users:       conn.Collection(UsersCollection),
		credentials: conn.Collection(CredentialsCollection),
		verifier:    verifier,
		now:         time.Now,
	}
}

// GetUser returns the user when the password matches its credential.
// An unknown user, a missing credential and a wrong password all end in
// domain.ErrNotFound, and all of them cost one password comparison.
func (r *UserRepository) GetUser(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := r.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = r.verifier.Verify(password, nil)
			log.Debug().Str("username", username).Msg("Login for unknown user")
		}
		return nil, err
	}

	var doc credentialDocument
	err = r.credentials.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			_ = r.verifier.Verify(password, nil)
			log.Warn().Str("username", username).Str("user_id", user.ID).Msg("User has no credential")
			return nil, fmt.Errorf("credential for %s: %w", username, domain.ErrNotFound)
		}
		log.Error().Err(err).Str("username", username).Msg("Error retrieving credential")
		return nil, fmt.Errorf("failed to retrieve credential: %w", err)
	}

	if err := r.verifier.Verify(password, doc.toDomain()); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			log.Info().Str("username", username).Msg("Invalid password")
			return nil, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
		}
		log.Error().Err(err).Str("username", username).Msg("Password verification failed")
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	return user, nil
}

// GetUserFromClient returns the user a client is registered to.
func (r *UserRepository) GetUserFromClient(ctx context.Context, client *domain.Client) (*domain.User, error) {
	if client == nil || client.User == nil || client.User.Username == "" {
		return nil, fmt.Errorf("client owner: %w", domain.ErrNotFound)
	}
	return r.GetUserByUsername(ctx, client.User.Username)
}

// GetUserByUsername returns the user without checking any credential.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
		}
		log.Error().Err(err).Str("username", username).Msg("Error retrieving user")
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return doc.toDomain(), nil
}

// CreateUser stores a user and its credential and sets user.ID. When the
// credential cannot be stored the user document is removed again.
func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User, password domain.PasswordHash) error {
	if user == nil || user.Username == "" {
		return fmt.Errorf("%w: username cannot be empty", domain.ErrInvalidRecord)
	}

	now := r.now().UTC()
	id := NewObjectID()
	_, err := r.users.InsertOne(ctx, userDocument{
		ID:        id,
		Username:  user.Username,
		Scope:     user.Scope,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("Error creating user")
		return insertError("user", err)
	}

	_, err = r.credentials.InsertOne(ctx, credentialDocument{
		Username: user.Username,
		Password: passwordDocument{
			Algorithm: password.Algorithm,
			Salt:      password.Salt,
			Hash:      password.Hash,
		},
	})
	if err != nil {
		if _, delErr := r.users.DeleteOne(ctx, bson.M{"_id": id}); delErr != nil {
			log.Error().Err(delErr).Str("username", user.Username).Msg("Failed to remove user without credential")
		}
		return insertError("credential", err)
	}

	user.ID = id.Hex()
	log.Info().Str("username", user.Username).Str("id", user.ID).Msg("User created")
	return nil
}

var _ domain.UserRepository = (*UserRepository)(nil)
