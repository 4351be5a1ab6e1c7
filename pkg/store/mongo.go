package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/layout"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "warren"
	DefaultMongoCollection = "layouts"
)

// MongoConfig configures [NewMongoStore].
type MongoConfig struct {
	URI        string
	Database   string        // Defaults to DefaultMongoDatabase
	Collection string        // Defaults to DefaultMongoCollection
	Timeout    time.Duration // Server selection timeout, 0 for the driver default
}

// MongoStore keeps one document per layout.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures the
// created_at index exists.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts.SetServerSelectionTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongodb")
	}

	db := cfg.Database
	if db == "" {
		db = DefaultMongoDatabase
	}
	name := cfg.Collection
	if name == "" {
		name = DefaultMongoCollection
	}
	coll := client.Database(db).Collection(name)

	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create index")
	}

	return &MongoStore{client: client, coll: coll, now: time.Now}, nil
}

// Save implements [Store].
func (s *MongoStore) Save(ctx context.Context, l *layout.Layout) (string, error) {
	if l == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "save: layout is nil")
	}
	if l.ID != "" {
		if err := errors.ValidateLayoutID(l.ID); err != nil {
			return "", err
		}
	}

	rec := newRecord(l, s.now())
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": l.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "save layout %s", l.ID)
	}
	return l.ID, nil
}

// Load implements [Store].
func (s *MongoStore) Load(ctx context.Context, id string) (*layout.Layout, error) {
	if err := errors.ValidateLayoutID(id); err != nil {
		return nil, err
	}

	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "layout %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load layout %s", id)
	}
	return &rec.Layout, nil
}

// List implements [Store].
func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"_id": 1, "seed": 1, "complete": 1, "room_count": 1, "created_at": 1})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list layouts")
	}
	out := []Summary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode layouts")
	}
	return out, nil
}

// Delete implements [Store].
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateLayoutID(id); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete layout %s", id)
	}
	return nil
}

// Close implements [Store].
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
