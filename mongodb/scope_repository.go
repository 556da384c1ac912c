package mongodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.pilab.hu/authmodel/domain"
)

// ScopeRepository manages the system scope catalog.
type ScopeRepository struct {
	scopes Collection
}

func NewScopeRepository(conn Connector) *ScopeRepository {
	return &ScopeRepository{scopes: conn.Collection(ScopesCollection)}
}

// ListScopes returns every catalog entry ordered by name.
func (r *ScopeRepository) ListScopes(ctx context.Context) ([]domain.Scope, error) {
	cursor, err := r.scopes.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		log.Error().Err(err).Msg("Error listing scopes")
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []scopeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode scopes: %w", err)
	}

	scopes := make([]domain.Scope, 0, len(docs))
	for _, d := range docs {
		scopes = append(scopes, domain.Scope{Name: d.Name, Description: d.Description})
	}
	return scopes, nil
}

// AddScope inserts a catalog entry.
func (r *ScopeRepository) AddScope(ctx context.Context, scope domain.Scope) error {
	if scope.Name == "" || strings.ContainsAny(scope.Name, " \t\r\n") {
		return fmt.Errorf("%w: scope name must be a single non-empty token", domain.ErrInvalidRecord)
	}
	if _, err := r.scopes.InsertOne(ctx, scopeDocument{Name: scope.Name, Description: scope.Description}); err != nil {
		return insertError("scope", err)
	}
	log.Info().Str("scope", scope.Name).Msg("Scope added")
	return nil
}

var _ domain.ScopeRepository = (*ScopeRepository)(nil)
