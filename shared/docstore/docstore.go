// Package docstore defines the document store abstraction the league core is
// written against, plus an in-memory implementation.
package docstore

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a transaction could not be committed within
	// the configured number of attempts.
	ErrConflict = errors.New("transaction conflict")
)

// DecodeError reports a stored document that could not be decoded into the
// requested shape.
type DecodeError struct {
	Collection string
	ID         string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s/%s: %v", e.Collection, e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Filter selects documents whose Field equals Value. A nil *Filter selects all
// documents of a collection.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) *Filter {
	return &Filter{Field: field, Value: value}
}

// Session is the set of document operations available both outside and
// inside a transaction.
type Session interface {
	// Get decodes the document into out. Returns ErrNotFound when absent.
	Get(ctx context.Context, collection, id string, out any) error
	// Set writes doc under id, replacing any existing document.
	Set(ctx context.Context, collection, id string, doc any) error
	// Update sets the given fields on an existing document. Returns ErrNotFound when absent.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes the document. Returns ErrNotFound when absent.
	Delete(ctx context.Context, collection, id string) error
	// Find decodes every matching document into out, which must be a pointer
	// to a slice. Results are ordered by id.
	Find(ctx context.Context, collection string, filter *Filter, out any) error
}

// TxFunc is the body of a transaction. It must only use the given Session.
type TxFunc func(ctx context.Context, s Session) error

// Store is a document store with atomic multi-document transactions.
type Store interface {
	Session
	// RunTransaction runs fn atomically. Writes made through the session are
	// discarded when fn returns an error. Conflicts are retried a bounded
	// number of times before ErrConflict is returned.
	RunTransaction(ctx context.Context, fn TxFunc) error
	// NewID allocates a fresh document id.
	NewID() string
	Close(ctx context.Context) error
}
