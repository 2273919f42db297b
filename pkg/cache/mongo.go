package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/wayfinder/pkg/buildinfo"
)

// DefaultMongoCollection is used when no collection name is configured.
const DefaultMongoCollection = "wayfinder_cache"

// MongoCache stores entries as documents keyed by _id. A TTL index on
// expires_at lets the server reap expired entries; Get also checks expiry
// since the reaper runs only once a minute.
type MongoCache struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// mongoEntry is the envelope as a document. ExpiresAt is a pointer so
// entries without expiry carry no field for the TTL index to act on.
type mongoEntry struct {
	Key       string     `bson:"_id"`
	Version   int        `bson:"v"`
	StoredAt  time.Time  `bson:"stored_at"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	Data      []byte     `bson:"data"`
}

func (m mongoEntry) entry() entry {
	e := entry{Version: m.Version, Key: m.Key, StoredAt: m.StoredAt, Data: m.Data}
	if m.ExpiresAt != nil {
		e.ExpiresAt = *m.ExpiresAt
	}
	return e
}

// NewMongoCache connects to uri and ensures the expiry index exists.
func NewMongoCache(ctx context.Context, uri, database, collection string) (Cache, error) {
	if uri == "" || database == "" {
		return nil, fmt.Errorf("mongo cache: uri and database are required")
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName(buildinfo.UserAgent()))
	if err != nil {
		return nil, fmt.Errorf("mongo cache: connect: %w", err)
	}
	err = connectBackoff.ping(ctx, "mongo", func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo cache: create ttl index: %w", err)
	}
	return &MongoCache{client: client, coll: coll, now: time.Now}, nil
}

// Get returns the payload stored under key. Documents written by another
// format version are deleted and reported as misses.
func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc mongoEntry
	err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data, err := doc.entry().check(key, c.now())
	if errors.Is(err, errStale) {
		_ = c.Delete(ctx, key)
	}
	if err != nil {
		return nil, false, nil
	}
	return data, true, nil
}

// Set upserts the entry for key.
func (c *MongoCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := newEntry(key, data, ttl, c.now())
	doc := mongoEntry{Key: key, Version: e.Version, StoredAt: e.StoredAt, Data: e.Data}
	if !e.ExpiresAt.IsZero() {
		doc.ExpiresAt = &e.ExpiresAt
	}
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

// Delete removes a value from MongoDB.
func (c *MongoCache) Delete(ctx context.Context, key string) error {
	_, err := c.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

// Close disconnects the client.
func (c *MongoCache) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

var _ Cache = (*MongoCache)(nil)
