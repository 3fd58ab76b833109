package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phylotangle/phylotangle/pkg/errors"
)

// MongoStore is a MongoDB-backed tree store for the HTTP service,
// where multiple instances share one collection of named trees.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB at uri and uses the "trees"
// collection in the given database. The connection is verified with a
// ping before returning.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection("trees")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, idx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create name index: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// Save stores entry, upserting when overwrite is true.
func (s *MongoStore) Save(ctx context.Context, entry Entry, overwrite bool) error {
	if err := errors.ValidateTreeName(entry.Name); err != nil {
		return err
	}

	if !overwrite {
		_, err := s.coll.InsertOne(ctx, entry)
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, entry.Name)
		}
		return err
	}

	filter := bson.M{"name": entry.Name}
	update := bson.M{"$set": entry}
	_, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Get returns the entry stored under name.
func (s *MongoStore) Get(ctx context.Context, name string) (*Entry, error) {
	if err := errors.ValidateTreeName(name); err != nil {
		return nil, err
	}

	var entry Entry
	err := s.coll.FindOne(ctx, bson.M{"name": name}).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns all stored entries sorted by name.
func (s *MongoStore) List(ctx context.Context) ([]Entry, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes the entry stored under name.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if err := errors.ValidateTreeName(name); err != nil {
		return err
	}

	res, err := s.coll.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
