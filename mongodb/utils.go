package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.pilab.hu/authmodel/cache"
	"go.pilab.hu/authmodel/domain"
)

// NewObjectID generates a new MongoDB ObjectID.
func NewObjectID() primitive.ObjectID {
	return primitive.NewObjectID()
}

// idString renders a decoded _id, which may be an ObjectID or a plain
// string depending on who provisioned the document.
func idString(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// redact returns a short, stable reference to a secret for log lines.
func redact(secret string) string {
	return cache.HashToken(secret)[:12]
}

func insertError(what string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s already exists: %w: %w", what, domain.ErrDuplicate, err)
	}
	return fmt.Errorf("failed to save %s: %w", what, err)
}

// storedID converts a domain id back to the form it is stored in.
func storedID(id string) interface{} {
	if id == "" {
		return nil
	}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}
