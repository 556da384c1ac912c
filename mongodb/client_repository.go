package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.pilab.hu/authmodel/domain"
)

// ClientRepository reads and provisions OAuth2 clients.
type ClientRepository struct {
	clients Collection

	defaultAccessLifetime  time.Duration
	defaultRefreshLifetime time.Duration
	now                    func() time.Time
}

// ClientOption configures a ClientRepository.
type ClientOption func(*ClientRepository)

// WithDefaultLifetimes sets the token lifetimes reported for clients whose
// document carries none.
func WithDefaultLifetimes(access, refresh time.Duration) ClientOption {
	return func(r *ClientRepository) {
		r.defaultAccessLifetime = access
		r.defaultRefreshLifetime = refresh
	}
}

// NewClientRepository creates a ClientRepository over conn.
func NewClientRepository(conn Connector, opts ...ClientOption) *ClientRepository {
	r := &ClientRepository{
		clients: conn.Collection(ClientsCollection),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetClient finds a client by id, matching the secret as well when one is
// given. The secret is never part of the returned value.
func (r *ClientRepository) GetClient(ctx context.Context, clientID, clientSecret string) (*domain.Client, error) {
	filter := bson.M{"clientId": clientID}
	if clientSecret != "" {
		filter["clientSecret"] = clientSecret
	}

	var doc clientDocument
	if err := r.clients.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Debug().Str("client_id", clientID).Bool("with_secret", clientSecret != "").Msg("Client not found")
			return nil, fmt.Errorf("client %s: %w", clientID, domain.ErrNotFound)
		}
		log.Error().Err(err).Str("client_id", clientID).Msg("Error retrieving client")
		return nil, fmt.Errorf("failed to retrieve client: %w", err)
	}

	client := doc.toDomain()
	if client.AccessTokenLifetime == 0 {
		client.AccessTokenLifetime = r.defaultAccessLifetime
	}
	if client.RefreshTokenLifetime == 0 {
		client.RefreshTokenLifetime = r.defaultRefreshLifetime
	}
	return client, nil
}

// CreateClient stores a new client with its secret and sets client.ID.
func (r *ClientRepository) CreateClient(ctx context.Context, client *domain.Client, secret string) error {
	if client == nil || client.ClientID == "" {
		return fmt.Errorf("%w: client id cannot be empty", domain.ErrInvalidRecord)
	}
	// name carries a unique index, so an empty name would be taken once.
	if strings.TrimSpace(client.Name) == "" {
		return fmt.Errorf("%w: client name cannot be empty", domain.ErrInvalidRecord)
	}

	now := r.now().UTC()
	id := NewObjectID()
	doc := clientDocument{
		ID:                   id,
		ClientID:             client.ClientID,
		ClientSecret:         secret,
		Name:                 client.Name,
		Scope:                client.Scope,
		Grants:               client.Grants,
		RedirectURIs:         client.RedirectURIs,
		AccessTokenLifetime:  int64(client.AccessTokenLifetime / time.Second),
		RefreshTokenLifetime: int64(client.RefreshTokenLifetime / time.Second),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if client.User != nil {
		doc.User = &ownerDocument{ID: storedID(client.User.ID), Username: client.User.Username}
	}

	if _, err := r.clients.InsertOne(ctx, doc); err != nil {
		log.Error().Err(err).Str("client_id", client.ClientID).Msg("Error creating client")
		return insertError("client", err)
	}

	client.ID = id.Hex()
	log.Info().Str("client_id", client.ClientID).Str("id", client.ID).Msg("Client created")
	return nil
}

var _ domain.ClientRepository = (*ClientRepository)(nil)
