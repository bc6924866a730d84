// shared/mongodb/docstore.go
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
)

// Transaction error labels that mark an attempt as safe to retry.
const (
	labelTransientTransaction = "TransientTransactionError"
	labelUnknownCommitResult  = "UnknownTransactionCommitResult"
)

// DocStore implements docstore.Store on MongoDB. Transactions need a replica
// set or sharded cluster.
type DocStore struct {
	client      *Client
	collections map[string]string
	maxAttempts int
}

var _ docstore.Store = (*DocStore)(nil)

// NewDocStore wraps client. collections maps logical collection names to
// physical ones; unmapped names are used as-is.
func NewDocStore(client *Client, collections map[string]string, maxAttempts int) *DocStore {
	return &DocStore{client: client, collections: collections, maxAttempts: maxAttempts}
}

func (s *DocStore) coll(name string) *mongo.Collection {
	if physical, ok := s.collections[name]; ok && physical != "" {
		return s.client.Collection(physical)
	}
	return s.client.Collection(name)
}

// Get, Set, Update, Delete and Find join the active transaction when ctx is a
// mongo.SessionContext.

func (s *DocStore) Get(ctx context.Context, collection, id string, out any) error {
	raw, err := s.coll(collection).FindOne(ctx, bson.M{docstore.IDField: id}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
		}
		return fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	if err := docstore.Decode(raw, id, out); err != nil {
		return &docstore.DecodeError{Collection: collection, ID: id, Err: err}
	}
	return nil
}

func (s *DocStore) Set(ctx context.Context, collection, id string, doc any) error {
	body, err := docstore.Encode(doc)
	if err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll(collection).ReplaceOne(ctx, bson.M{docstore.IDField: id}, body, opts); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *DocStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	set := bson.M{}
	for k, v := range fields {
		if k != docstore.IDField {
			set[k] = v
		}
	}
	res, err := s.coll(collection).UpdateOne(ctx, bson.M{docstore.IDField: id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return nil
}

func (s *DocStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.coll(collection).DeleteOne(ctx, bson.M{docstore.IDField: id})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return nil
}

func (s *DocStore) Find(ctx context.Context, collection string, filter *docstore.Filter, out any) error {
	query := bson.M{}
	if filter != nil {
		query[filter.Field] = filter.Value
	}
	opts := options.Find().SetSort(bson.D{{Key: docstore.IDField, Value: 1}})
	cursor, err := s.coll(collection).Find(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var records []docstore.Record
	for cursor.Next(ctx) {
		id, ok := cursor.Current.Lookup(docstore.IDField).StringValueOK()
		if !ok {
			return &docstore.DecodeError{Collection: collection, ID: "?", Err: fmt.Errorf("non-string _id")}
		}
		body := make(bson.Raw, len(cursor.Current))
		copy(body, cursor.Current)
		records = append(records, docstore.Record{ID: id, Body: body})
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("cursor error on %s: %w", collection, err)
	}
	return docstore.DecodeAll(collection, records, out)
}

// RunTransaction runs fn inside a session transaction. The whole attempt is
// rerun only for TransientTransactionError; an unknown commit result retries
// the commit alone, since fn may already have been applied.
func (s *DocStore) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	return docstore.Retry(ctx, s.maxAttempts, isTransient, func() error {
		return s.runOnce(ctx, fn)
	})
}

func (s *DocStore) runOnce(ctx context.Context, fn docstore.TxFunc) error {
	session, err := s.client.RawClient().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start MongoDB session: %w", err)
	}
	defer session.EndSession(context.Background())

	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(); err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}
		if err := fn(sc, s); err != nil {
			if abortErr := session.AbortTransaction(context.Background()); abortErr != nil {
				return errors.Join(err, fmt.Errorf("failed to abort transaction: %w", abortErr))
			}
			return err
		}
		return s.commit(sc, session)
	})
}

type committer interface {
	CommitTransaction(ctx context.Context) error
}

// commit retries CommitTransaction while the server reports an unknown
// result. Commits are idempotent within a session.
func (s *DocStore) commit(ctx context.Context, c committer) error {
	return docstore.Retry(ctx, s.maxAttempts, isUnknownCommitResult, func() error {
		return c.CommitTransaction(ctx)
	})
}

func isTransient(err error) bool {
	return hasLabel(err, labelTransientTransaction)
}

func isUnknownCommitResult(err error) bool {
	return hasLabel(err, labelUnknownCommitResult)
}

func hasLabel(err error, label string) bool {
	var serverErr mongo.ServerError
	return errors.As(err, &serverErr) && serverErr.HasErrorLabel(label)
}

func (s *DocStore) NewID() string { return uuid.NewString() }

// Close disconnects the underlying client.
func (s *DocStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
