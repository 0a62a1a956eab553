package snapshot

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	terrors "github.com/matzehuels/treeize/pkg/errors"
)

// MongoOptions configures [NewMongoStore].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// Default database and collection names.
const (
	DefaultMongoDatabase   = "treeize"
	DefaultMongoCollection = "documents"
)

// MongoStore keeps documents in a MongoDB collection keyed by _id.
type MongoStore[T any] struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewMongoStore connects and pings the primary.
func NewMongoStore[T any](ctx context.Context, opts MongoOptions) (*MongoStore[T], error) {
	if opts.Database == "" {
		opts.Database = DefaultMongoDatabase
	}
	if opts.Collection == "" {
		opts.Collection = DefaultMongoCollection
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(opts.Timeout))
	if err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeStoreUnavailable, err, "connect to mongo")
	}
	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, terrors.Wrap(terrors.ErrCodeStoreUnavailable, err, "ping mongo")
	}
	return &MongoStore[T]{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		now:    time.Now,
	}, nil
}

// Get loads a document.
func (s *MongoStore[T]) Get(ctx context.Context, id string) (*Document[T], error) {
	if err := terrors.ValidateDocumentID(id); err != nil {
		return nil, err
	}
	var doc Document[T]
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeStoreUnavailable, err, "find document %s", id)
	}
	return &doc, nil
}

// Put upserts a document.
func (s *MongoStore[T]) Put(ctx context.Context, doc *Document[T]) error {
	if err := terrors.ValidateDocumentID(doc.ID); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	doc.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return terrors.Wrap(terrors.ErrCodeStoreUnavailable, err, "store document %s", doc.ID)
	}
	return nil
}

// Delete removes a document.
func (s *MongoStore[T]) Delete(ctx context.Context, id string) error {
	if err := terrors.ValidateDocumentID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return terrors.Wrap(terrors.ErrCodeStoreUnavailable, err, "delete document %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// List summarises every document, newest first.
func (s *MongoStore[T]) List(ctx context.Context) ([]Summary, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeStoreUnavailable, err, "list documents")
	}
	defer cur.Close(ctx)

	var out []Summary
	for cur.Next(ctx) {
		var doc Document[T]
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		out = append(out, doc.Summary())
	}
	if err := cur.Err(); err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeStoreUnavailable, err, "list documents")
	}
	sortSummaries(out)
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore[T]) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store[struct{}] = (*MongoStore[struct{}])(nil)
