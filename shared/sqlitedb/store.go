// shared/sqlitedb/store.go
package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements docstore.Store. Bodies are relaxed extended JSON so that
// json_extract can filter on top-level fields.
type Store struct {
	db          *sql.DB
	maxAttempts int
}

var _ docstore.Store = (*Store)(nil)

func newStore(db *sql.DB, maxAttempts int) *Store {
	return &Store{db: db, maxAttempts: maxAttempts}
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	return session{q: s.db}.Get(ctx, collection, id, out)
}

func (s *Store) Find(ctx context.Context, collection string, filter *docstore.Filter, out any) error {
	return session{q: s.db}.Find(ctx, collection, filter, out)
}

func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Session) error {
		return tx.Set(ctx, collection, id, doc)
	})
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Session) error {
		return tx.Update(ctx, collection, id, fields)
	})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Session) error {
		return tx.Delete(ctx, collection, id)
	})
}

// RunTransaction retries attempts that fail with SQLITE_BUSY or SQLITE_LOCKED.
func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	return docstore.Retry(ctx, s.maxAttempts, isBusy, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if err := fn(ctx, session{q: tx}); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				return errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

func (s *Store) NewID() string { return uuid.NewString() }

func (s *Store) Close(context.Context) error { return s.db.Close() }

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	// libSQL reports lock contention as plain text.
	return err != nil && strings.Contains(err.Error(), "database is locked")
}

type session struct {
	q querier
}

func (s session) load(ctx context.Context, collection, id string) (bson.Raw, error) {
	var body string
	err := s.q.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	raw, err := fromJSON(body)
	if err != nil {
		return nil, &docstore.DecodeError{Collection: collection, ID: id, Err: err}
	}
	return raw, nil
}

func (s session) store(ctx context.Context, collection, id string, raw bson.Raw) error {
	body, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body`,
		collection, id, string(body))
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s session) Get(ctx context.Context, collection, id string, out any) error {
	raw, err := s.load(ctx, collection, id)
	if err != nil {
		return err
	}
	if err := docstore.Decode(raw, id, out); err != nil {
		return &docstore.DecodeError{Collection: collection, ID: id, Err: err}
	}
	return nil
}

func (s session) Set(ctx context.Context, collection, id string, doc any) error {
	raw, err := docstore.EncodeRaw(doc)
	if err != nil {
		return err
	}
	return s.store(ctx, collection, id, raw)
}

func (s session) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := s.load(ctx, collection, id)
	if err != nil {
		return err
	}
	updated, err := docstore.ApplyFields(raw, fields)
	if err != nil {
		return fmt.Errorf("failed to apply update to %s/%s: %w", collection, id, err)
	}
	return s.store(ctx, collection, id, updated)
}

func (s session) Delete(ctx context.Context, collection, id string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM documents WHERE collection = ? AND id = ?", collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return nil
}

// Find narrows with json_extract and then confirms each row with the same
// bson equality the other backends use, so type mismatches never match.
func (s session) Find(ctx context.Context, collection string, filter *docstore.Filter, out any) error {
	query := "SELECT id, body FROM documents WHERE collection = ?"
	args := []any{collection}
	if filter != nil {
		if !fieldName.MatchString(filter.Field) {
			return fmt.Errorf("invalid filter field %q", filter.Field)
		}
		if v, ok := sqlValue(filter.Value); ok {
			query += fmt.Sprintf(" AND json_extract(body, '$.%s') = ?", filter.Field)
			args = append(args, v)
		}
	}
	query += " ORDER BY id"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var records []docstore.Record
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return fmt.Errorf("failed to scan %s row: %w", collection, err)
		}
		raw, err := fromJSON(body)
		if err != nil {
			return &docstore.DecodeError{Collection: collection, ID: id, Err: err}
		}
		ok, err := docstore.Matches(raw, filter)
		if err != nil {
			return err
		}
		if ok {
			records = append(records, docstore.Record{ID: id, Body: raw})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate %s rows: %w", collection, err)
	}
	return docstore.DecodeAll(collection, records, out)
}

func fromJSON(body string) (bson.Raw, error) {
	var d bson.D
	if err := bson.UnmarshalExtJSON([]byte(body), false, &d); err != nil {
		return nil, err
	}
	return bson.Marshal(d)
}

// sqlValue converts scalar filter values to driver arguments. Other values
// skip the SQL predicate and rely on the bson comparison alone.
func sqlValue(v any) (any, bool) {
	switch x := v.(type) {
	case string, int, int32, int64, float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return nil, false
	}
}
