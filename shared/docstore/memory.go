// shared/docstore/memory.go
package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// MemoryStore keeps bson-encoded documents in process memory. Transactions
// hold the store's write lock for their whole duration and stage writes in an
// overlay that is applied only when the body returns nil.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]bson.Raw
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]bson.Raw)}
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return (&memoryTx{store: m}).Get(ctx, collection, id, out)
}

func (m *MemoryStore) Find(ctx context.Context, collection string, filter *Filter, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return (&memoryTx{store: m}).Find(ctx, collection, filter, out)
}

func (m *MemoryStore) Set(ctx context.Context, collection, id string, doc any) error {
	return m.RunTransaction(ctx, func(ctx context.Context, s Session) error {
		return s.Set(ctx, collection, id, doc)
	})
}

func (m *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return m.RunTransaction(ctx, func(ctx context.Context, s Session) error {
		return s.Update(ctx, collection, id, fields)
	})
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	return m.RunTransaction(ctx, func(ctx context.Context, s Session) error {
		return s.Delete(ctx, collection, id)
	})
}

// RunTransaction never conflicts: transactions are serialized by the lock.
func (m *MemoryStore) RunTransaction(ctx context.Context, fn TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{store: m, staged: make(map[string]map[string]bson.Raw)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for coll, docs := range tx.staged {
		target, ok := m.collections[coll]
		if !ok {
			target = make(map[string]bson.Raw)
			m.collections[coll] = target
		}
		for id, body := range docs {
			if body == nil {
				delete(target, id)
			} else {
				target[id] = body
			}
		}
	}
	return nil
}

func (m *MemoryStore) NewID() string { return uuid.NewString() }

func (m *MemoryStore) Close(context.Context) error { return nil }

// memoryTx reads through its staged overlay to the committed data. A nil
// staged body marks a deletion. With a nil overlay it is a read-only view.
type memoryTx struct {
	store  *MemoryStore
	staged map[string]map[string]bson.Raw
}

func (tx *memoryTx) lookup(collection, id string) (bson.Raw, bool) {
	if docs, ok := tx.staged[collection]; ok {
		if body, ok := docs[id]; ok {
			return body, body != nil
		}
	}
	body, ok := tx.store.collections[collection][id]
	return body, ok
}

func (tx *memoryTx) stage(collection, id string, body bson.Raw) error {
	if tx.staged == nil {
		return fmt.Errorf("docstore: write outside of a transaction")
	}
	docs, ok := tx.staged[collection]
	if !ok {
		docs = make(map[string]bson.Raw)
		tx.staged[collection] = docs
	}
	docs[id] = body
	return nil
}

func (tx *memoryTx) Get(_ context.Context, collection, id string, out any) error {
	body, ok := tx.lookup(collection, id)
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err := Decode(body, id, out); err != nil {
		return &DecodeError{Collection: collection, ID: id, Err: err}
	}
	return nil
}

func (tx *memoryTx) Set(_ context.Context, collection, id string, doc any) error {
	body, err := EncodeRaw(doc)
	if err != nil {
		return err
	}
	return tx.stage(collection, id, body)
}

func (tx *memoryTx) Update(_ context.Context, collection, id string, fields map[string]any) error {
	body, ok := tx.lookup(collection, id)
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	updated, err := ApplyFields(body, fields)
	if err != nil {
		return &DecodeError{Collection: collection, ID: id, Err: err}
	}
	return tx.stage(collection, id, updated)
}

func (tx *memoryTx) Delete(_ context.Context, collection, id string) error {
	if _, ok := tx.lookup(collection, id); !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return tx.stage(collection, id, nil)
}

func (tx *memoryTx) Find(_ context.Context, collection string, filter *Filter, out any) error {
	ids := make(map[string]struct{})
	for id := range tx.store.collections[collection] {
		ids[id] = struct{}{}
	}
	for id := range tx.staged[collection] {
		ids[id] = struct{}{}
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	var records []Record
	for _, id := range sorted {
		body, ok := tx.lookup(collection, id)
		if !ok {
			continue
		}
		match, err := Matches(body, filter)
		if err != nil {
			return err
		}
		if match {
			records = append(records, Record{ID: id, Body: body})
		}
	}
	return DecodeAll(collection, records, out)
}
