package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

// Collection is the subset of *mongo.Collection the repositories use.
type Collection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// Connector hands out collections of one database. Repositories receive a
// Connector instead of owning a connection.
type Connector interface {
	Collection(name string) Collection
}

// Transactor runs fn inside a multi-document transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Connection owns the pooled *mongo.Client. It is created once by the
// process bootstrap and closed on shutdown.
type Connection struct {
	client *mongo.Client
}

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri string) (*Connection, error) {
	if uri == "" {
		return nil, errors.New("mongodb uri must be provided")
	}

	log.Info().Msg("Initializing MongoDB client")
	clientOptions := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetMonitor(otelmongo.NewMonitor())

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB primary: %w", err)
	}

	log.Info().Msg("MongoDB client initialized successfully.")
	return &Connection{client: client}, nil
}

// Database returns a Connector for the named database.
func (c *Connection) Database(name string) *Database {
	return &Database{db: c.client.Database(name)}
}

// Ping sends a ping to the primary. This is useful for health checks.
func (c *Connection) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(pingCtx, readpref.Primary())
}

// Close disconnects the client.
func (c *Connection) Close(ctx context.Context) error {
	log.Info().Msg("Closing MongoDB connection.")
	if err := c.client.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("Error closing MongoDB connection")
		return err
	}
	return nil
}

// Database is a Connector and Transactor over one *mongo.Database.
type Database struct {
	db *mongo.Database
}

// NewDatabase wraps an existing *mongo.Database.
func NewDatabase(db *mongo.Database) *Database {
	return &Database{db: db}
}

// Collection implements Connector.
func (d *Database) Collection(name string) Collection {
	return d.db.Collection(name)
}

// Mongo returns the underlying database handle.
func (d *Database) Mongo() *mongo.Database {
	return d.db
}

// WithTransaction implements Transactor. It needs a replica set or a
// sharded cluster.
func (d *Database) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := d.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

var (
	_ Connector  = (*Database)(nil)
	_ Transactor = (*Database)(nil)
)
