package mongodb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func uniqueIndex(field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
}

// oauthIndexes lists the indexes of the OAuth database. There are no TTL
// indexes: expired tokens and codes stay until revoked.
var oauthIndexes = map[string][]mongo.IndexModel{
	ClientsCollection: {uniqueIndex("clientId"), uniqueIndex("name")},
	AccessTokensCollection: {
		uniqueIndex("token"),
		{Keys: bson.D{{Key: "pairId", Value: 1}}},
	},
	RefreshTokensCollection: {
		uniqueIndex("token"),
		{Keys: bson.D{{Key: "pairId", Value: 1}}},
	},
	CodesCollection:  {uniqueIndex("code")},
	ScopesCollection: {uniqueIndex("name")},
}

var userIndexes = map[string][]mongo.IndexModel{
	UsersCollection:       {uniqueIndex("username")},
	CredentialsCollection: {uniqueIndex("username")},
}

// EnsureIndexes creates the indexes of both databases. oauth and users may
// be the same database.
func EnsureIndexes(ctx context.Context, oauth, users *Database) error {
	if err := createIndexes(ctx, oauth, oauthIndexes); err != nil {
		return err
	}
	return createIndexes(ctx, users, userIndexes)
}

func createIndexes(ctx context.Context, db *Database, indexes map[string][]mongo.IndexModel) error {
	for name, models := range indexes {
		if _, err := db.Mongo().Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			log.Error().Err(err).Str("collection", name).Msg("Error creating indexes")
			return fmt.Errorf("failed to create indexes for %s: %w", name, err)
		}
		log.Info().Str("collection", name).Int("count", len(models)).Msg("Indexes ensured")
	}
	return nil
}
