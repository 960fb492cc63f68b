// Package mongo provides a MongoDB-backed document store. Each collection
// maps to a Mongo collection; bodies are stored as native sub-documents.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/muses-project/progress/pkg/domain/progress"
	"github.com/muses-project/progress/pkg/storage"
)

const opTimeout = 5 * time.Second

// Store persists documents in one Mongo database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ storage.DocumentStore = (*Store)(nil)

type record struct {
	ID        string    `bson:"_id"`
	Status    string    `bson:"status"`
	Owner     string    `bson:"owner"`
	UpdatedAt time.Time `bson:"updated_at"`
	Body      bson.D    `bson:"body"`
}

// Open connects to uri and pings the server.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" || database == "" {
		return nil, fmt.Errorf("mongo uri and database are required")
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Get(ctx context.Context, collection, id string) (*storage.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var rec record
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s %s: %w", collection, id, progress.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", collection, id, err)
	}
	return toDocument(&rec)
}

func (s *Store) Insert(ctx context.Context, collection string, doc *storage.Document) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	rec, err := toRecord(doc)
	if err != nil {
		return "", err
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%s %s already exists", collection, doc.ID)
		}
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return doc.ID, nil
}

func (s *Store) Edit(ctx context.Context, collection string, doc *storage.Document) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rec, err := toRecord(doc)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": doc.ID}, rec)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", collection, doc.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", collection, doc.ID, progress.ErrNotFound)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, collection string, filter storage.Filter) ([]*storage.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := s.db.Collection(collection).Find(ctx, toFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var out []*storage.Document
	for cursor.Next(ctx) {
		var rec record
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		doc, err := toDocument(&rec)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, collection string, filter storage.Filter) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := s.db.Collection(collection).CountDocuments(ctx, toFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return int(n), nil
}

func toFilter(f storage.Filter) bson.M {
	m := bson.M{}
	if f.Status != "" {
		m["status"] = f.Status
	}
	if f.Owner != "" {
		m["owner"] = f.Owner
	}
	return m
}

func toRecord(doc *storage.Document) (*record, error) {
	var body bson.D
	if err := bson.UnmarshalExtJSON(doc.Body, false, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", progress.ErrInvalidDocument, err)
	}
	doc.UpdatedAt = time.Now().UTC()
	return &record{
		ID:        doc.ID,
		Status:    doc.Status,
		Owner:     doc.Owner,
		UpdatedAt: doc.UpdatedAt,
		Body:      body,
	}, nil
}

func toDocument(rec *record) (*storage.Document, error) {
	body, err := bson.MarshalExtJSON(rec.Body, false, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", progress.ErrInvalidDocument, err)
	}
	return &storage.Document{
		ID:        rec.ID,
		Status:    rec.Status,
		Owner:     rec.Owner,
		Body:      body,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}
