package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoIDField = "_id"

// MongoConfig holds configuration for the MongoDB backend
type MongoConfig struct {
	URI      string
	Database string
}

// MongoStorage maps each collection to a MongoDB collection keyed by string _id
type MongoStorage struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStorage connects to MongoDB. Connect is lazy; Ping verifies reachability.
func NewMongoStorage(ctx context.Context, cfg MongoConfig) (*MongoStorage, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetBSONOptions(&options.BSONOptions{
			// Nested documents decode as maps, not ordered bson.D pairs
			DefaultDocumentM: true,
		})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return &MongoStorage{client: client, db: client.Database(cfg.Database)}, nil
}

// NewID allocates a random identifier
func (s *MongoStorage) NewID(collection string) string {
	return uuid.NewString()
}

// List returns every document with the Mongo _id stripped
func (s *MongoStorage) List(ctx context.Context, collection string) ([]Document, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	var rows []bson.M
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}

	result := make([]Document, 0, len(rows))
	for _, row := range rows {
		delete(row, mongoIDField)
		result = append(result, fromBSON(row))
	}
	return result, nil
}

// Set upserts doc with _id = id
func (s *MongoStorage) Set(ctx context.Context, collection, id string, doc Document) error {
	row := bson.M{}
	for k, v := range doc {
		row[k] = v
	}
	row[mongoIDField] = id

	_, err := s.db.Collection(collection).ReplaceOne(ctx,
		bson.M{mongoIDField: id}, row, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update applies $set with the given fields
func (s *MongoStorage) Update(ctx context.Context, collection, id string, fields Document) error {
	coll := s.db.Collection(collection)
	filter := bson.M{mongoIDField: id}

	if len(fields) == 0 {
		// $set with an empty document is rejected by the server
		n, err := coll.CountDocuments(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to look up %s/%s: %w", collection, id, err)
		}
		if n == 0 {
			return &ErrNotFound{Collection: collection, ID: id}
		}
		return nil
	}

	set := bson.M{}
	for k, v := range fields {
		if k == mongoIDField {
			continue
		}
		set[k] = v
	}

	res, err := coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return &ErrNotFound{Collection: collection, ID: id}
	}
	return nil
}

// Ping checks if the storage backend is available
func (s *MongoStorage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return nil
}

// Close disconnects the client
func (s *MongoStorage) Close() error {
	return s.client.Disconnect(context.Background())
}

// fromBSON converts driver container types into plain maps and slices
func fromBSON(m bson.M) Document {
	doc := make(Document, len(m))
	for k, v := range m {
		doc[k] = fromBSONValue(v)
	}
	return doc
}

func fromBSONValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return map[string]any(fromBSON(t))
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromBSONValue(e)
		}
		return out
	case bson.D:
		return map[string]any(fromBSON(t.Map()))
	case int32:
		return int64(t)
	default:
		return v
	}
}
