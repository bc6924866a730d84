// Package docstoretest holds a behavioural test suite every docstore.Store
// implementation must pass.
package docstoretest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
)

const widgets = "widgets"

type widget struct {
	ID    string `bson:"_id,omitempty"`
	Kind  string `bson:"kind"`
	Count int64  `bson:"count"`
}

// RunSuite runs the suite. newStore must return an empty store for each call.
func RunSuite(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Run("SetThenGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, widgets, "w1", widget{Kind: "gear", Count: 2}))

		var got widget
		require.NoError(t, s.Get(ctx, widgets, "w1", &got))
		assert.Equal(t, widget{ID: "w1", Kind: "gear", Count: 2}, got)
	})

	t.Run("IDIsNotStoredAsField", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, widgets, "w1", widget{ID: "other", Kind: "gear"}))

		var got widget
		require.NoError(t, s.Get(ctx, widgets, "w1", &got))
		assert.Equal(t, "w1", got.ID)

		var missing widget
		assert.ErrorIs(t, s.Get(ctx, widgets, "other", &missing), docstore.ErrNotFound)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		var got widget
		err := s.Get(context.Background(), widgets, "nope", &got)
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("SetReplaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, widgets, "w1", widget{Kind: "gear", Count: 2}))
		require.NoError(t, s.Set(ctx, widgets, "w1", widget{Kind: "cog", Count: 5}))

		var got widget
		require.NoError(t, s.Get(ctx, widgets, "w1", &got))
		assert.Equal(t, "cog", got.Kind)
		assert.EqualValues(t, 5, got.Count)
	})

	t.Run("UpdateFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, widgets, "w1", widget{Kind: "gear", Count: 2}))
		require.NoError(t, s.Update(ctx, widgets, "w1", map[string]any{"count": int64(7)}))

		var got widget
		require.NoError(t, s.Get(ctx, widgets, "w1", &got))
		assert.Equal(t, "gear", got.Kind)
		assert.EqualValues(t, 7, got.Count)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(context.Background(), widgets, "nope", map[string]any{"count": int64(1)})
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, widgets, "w1", widget{Kind: "gear"}))
		require.NoError(t, s.Delete(ctx, widgets, "w1"))

		var got widget
		assert.ErrorIs(t, s.Get(ctx, widgets, "w1", &got), docstore.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, widgets, "w1"), docstore.ErrNotFound)
	})

	t.Run("FindEqualsAndAll", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, widgets, "c", widget{Kind: "gear", Count: 1}))
		require.NoError(t, s.Set(ctx, widgets, "a", widget{Kind: "gear", Count: 2}))
		require.NoError(t, s.Set(ctx, widgets, "b", widget{Kind: "cog", Count: 3}))

		var gears []widget
		require.NoError(t, s.Find(ctx, widgets, docstore.Eq("kind", "gear"), &gears))
		require.Len(t, gears, 2)
		assert.Equal(t, "a", gears[0].ID)
		assert.Equal(t, "c", gears[1].ID)

		var all []widget
		require.NoError(t, s.Find(ctx, widgets, nil, &all))
		require.Len(t, all, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

		var none []widget
		require.NoError(t, s.Find(ctx, widgets, docstore.Eq("kind", "sprocket"), &none))
		assert.Empty(t, none)
	})

	t.Run("FindEmptyCollection", func(t *testing.T) {
		s := newStore(t)
		var all []widget
		require.NoError(t, s.Find(context.Background(), "empty", nil, &all))
		assert.Empty(t, all)
	})

	t.Run("TransactionCommits", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, widgets, "w1", widget{Kind: "gear", Count: 1}))

		err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Session) error {
			var w widget
			if err := tx.Get(ctx, widgets, "w1", &w); err != nil {
				return err
			}
			if err := tx.Update(ctx, widgets, "w1", map[string]any{"count": w.Count + 1}); err != nil {
				return err
			}
			if err := tx.Set(ctx, widgets, "w2", widget{Kind: "cog"}); err != nil {
				return err
			}
			// reads inside the transaction observe its own writes
			var w2 widget
			return tx.Get(ctx, widgets, "w2", &w2)
		})
		require.NoError(t, err)

		var got widget
		require.NoError(t, s.Get(ctx, widgets, "w1", &got))
		assert.EqualValues(t, 2, got.Count)
		require.NoError(t, s.Get(ctx, widgets, "w2", &got))
		assert.Equal(t, "cog", got.Kind)
	})

	t.Run("TransactionRollsBack", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, widgets, "w1", widget{Kind: "gear", Count: 1}))

		boom := errors.New("boom")
		err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Session) error {
			if err := tx.Update(ctx, widgets, "w1", map[string]any{"count": int64(99)}); err != nil {
				return err
			}
			if err := tx.Set(ctx, widgets, "w2", widget{Kind: "cog"}); err != nil {
				return err
			}
			if err := tx.Delete(ctx, widgets, "w1"); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		var got widget
		require.NoError(t, s.Get(ctx, widgets, "w1", &got))
		assert.EqualValues(t, 1, got.Count)
		assert.ErrorIs(t, s.Get(ctx, widgets, "w2", &got), docstore.ErrNotFound)
	})

	t.Run("NewIDIsUnique", func(t *testing.T) {
		s := newStore(t)
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id := s.NewID()
			require.NotEmpty(t, id)
			require.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	})

	t.Run("DecodeErrorOnShapeMismatch", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, widgets, "w1", map[string]any{"kind": "gear", "count": "lots"}))

		var got widget
		err := s.Get(ctx, widgets, "w1", &got)
		var decodeErr *docstore.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "w1", decodeErr.ID)

		var all []widget
		err = s.Find(ctx, widgets, nil, &all)
		require.ErrorAs(t, err, &decodeErr)
	})
}
