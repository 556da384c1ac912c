package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.pilab.hu/authmodel/mongodb"
)

// FakeDatabase is an in-memory mongodb.Connector and mongodb.Transactor.
// Collections are created on first use. A failed transaction restores
// every collection to its state before the transaction.
type FakeDatabase struct {
	mu           sync.Mutex
	collections  map[string]*FakeCollection
	transactions int
}

func NewFakeDatabase() *FakeDatabase {
	return &FakeDatabase{collections: make(map[string]*FakeCollection)}
}

// Collection implements mongodb.Connector.
func (d *FakeDatabase) Collection(name string) mongodb.Collection {
	return d.C(name)
}

// C returns the named collection with its test helpers.
func (d *FakeDatabase) C(name string) *FakeCollection {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.collections[name]
	if !ok {
		c = &FakeCollection{name: name}
		d.collections[name] = c
	}
	return c
}

// WithTransaction implements mongodb.Transactor.
func (d *FakeDatabase) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	d.mu.Lock()
	d.transactions++
	saved := make(map[*FakeCollection][]bson.Raw, len(d.collections))
	for _, c := range d.collections {
		saved[c] = c.snapshot()
	}
	d.mu.Unlock()

	if err := fn(ctx); err != nil {
		for c, docs := range saved {
			c.restore(docs)
		}
		return err
	}
	return nil
}

// Transactions returns how many transactions were started.
func (d *FakeDatabase) Transactions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transactions
}

// WithoutTransactions hides the Transactor side of d.
func (d *FakeDatabase) WithoutTransactions() mongodb.Connector {
	return plainConnector{d}
}

type plainConnector struct {
	d *FakeDatabase
}

func (p plainConnector) Collection(name string) mongodb.Collection {
	return p.d.Collection(name)
}

// FakeCollection keeps documents as marshalled BSON. Filters are matched
// by equality on every filter key; dotted keys address nested fields.
// Unique fields reject a second document with the same value using a
// duplicate key write exception, like a unique index does.
type FakeCollection struct {
	mu     sync.Mutex
	name   string
	docs   []bson.Raw
	unique []string

	findErr   error
	insertErr error
	deleteErr error
}

// Unique declares unique fields.
func (c *FakeCollection) Unique(fields ...string) *FakeCollection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unique = append(c.unique, fields...)
	return c
}

// FailFind makes every FindOne and Find return err until cleared with nil.
func (c *FakeCollection) FailFind(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.findErr = err
}

// FailInsert makes every InsertOne return err until cleared with nil.
func (c *FakeCollection) FailInsert(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertErr = err
}

// FailDelete makes every DeleteOne return err until cleared with nil.
func (c *FakeCollection) FailDelete(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteErr = err
}

// Len returns the number of stored documents.
func (c *FakeCollection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

// Docs returns a copy of the stored documents.
func (c *FakeCollection) Docs() []bson.Raw {
	return c.snapshot()
}

// Seed inserts documents, ignoring injected failures.
func (c *FakeCollection) Seed(docs ...interface{}) error {
	for _, doc := range docs {
		c.mu.Lock()
		err := c.insert(doc)
		c.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *FakeCollection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findErr != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, c.findErr, nil)
	}
	for _, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return mongo.NewSingleResultFromDocument(bson.D{}, err, nil)
		}
		if ok {
			return mongo.NewSingleResultFromDocument(toD(doc), nil, nil)
		}
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (c *FakeCollection) Find(_ context.Context, filter interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findErr != nil {
		return nil, c.findErr
	}
	var found []interface{}
	for _, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, toD(doc))
		}
	}
	return mongo.NewCursorFromDocuments(found, nil, nil)
}

func (c *FakeCollection) InsertOne(_ context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.insertErr != nil {
		return nil, c.insertErr
	}
	if err := c.insert(document); err != nil {
		return nil, err
	}
	id := c.docs[len(c.docs)-1].Lookup("_id")
	return &mongo.InsertOneResult{InsertedID: id}, nil
}

func (c *FakeCollection) DeleteOne(_ context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deleteErr != nil {
		return nil, c.deleteErr
	}
	for i, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			c.docs = append(c.docs[:i:i], c.docs[i+1:]...)
			return &mongo.DeleteResult{DeletedCount: 1}, nil
		}
	}
	return &mongo.DeleteResult{DeletedCount: 0}, nil
}

// insert must be called with c.mu held.
func (c *FakeCollection) insert(document interface{}) error {
	raw, err := bson.Marshal(document)
	if err != nil {
		return err
	}

	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return err
	}
	if _, err := bson.Raw(raw).LookupErr("_id"); err != nil {
		d = append(bson.D{{Key: "_id", Value: primitive.NewObjectID()}}, d...)
		if raw, err = bson.Marshal(d); err != nil {
			return err
		}
	}

	for _, field := range append([]string{"_id"}, c.unique...) {
		value, err := bson.Raw(raw).LookupErr(strings.Split(field, ".")...)
		if err != nil {
			continue
		}
		for _, existing := range c.docs {
			other, err := existing.LookupErr(strings.Split(field, ".")...)
			if err == nil && other.Equal(value) {
				return duplicateKey(c.name, field)
			}
		}
	}

	c.docs = append(c.docs, raw)
	return nil
}

func (c *FakeCollection) snapshot() []bson.Raw {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]bson.Raw, len(c.docs))
	copy(out, c.docs)
	return out
}

func (c *FakeCollection) restore(docs []bson.Raw) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = docs
}

func matches(doc bson.Raw, filter interface{}) (bool, error) {
	raw, err := bson.Marshal(filter)
	if err != nil {
		return false, fmt.Errorf("unsupported filter: %w", err)
	}
	elems, err := bson.Raw(raw).Elements()
	if err != nil {
		return false, err
	}
	for _, e := range elems {
		got, err := doc.LookupErr(strings.Split(e.Key(), ".")...)
		if err != nil || !got.Equal(e.Value()) {
			return false, nil
		}
	}
	return true, nil
}

func toD(doc bson.Raw) bson.D {
	var d bson.D
	_ = bson.Unmarshal(doc, &d)
	return d
}

func duplicateKey(collection, field string) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{
			Index:   0,
			Code:    11000,
			Message: fmt.Sprintf("E11000 duplicate key error collection: %s index: %s_1", collection, field),
		}},
	}
}

var (
	_ mongodb.Connector  = (*FakeDatabase)(nil)
	_ mongodb.Transactor = (*FakeDatabase)(nil)
	_ mongodb.Collection = (*FakeCollection)(nil)
)
