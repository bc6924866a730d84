// Package ledger maintains the per-group team counts. It is the only writer
// of group records, and its mutators must run inside a docstore transaction
// together with the team write they account for.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/Ftotnem/LEAGUE-SERVICES/league/store"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/metrics"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

type Ledger struct {
	store   docstore.Store
	metrics metrics.Metrics
}

func New(s docstore.Store, m metrics.Metrics) *Ledger {
	return &Ledger{store: s, metrics: m}
}

// Increment adds one team to the group, creating the record at count 1.
func (l *Ledger) Increment(ctx context.Context, s docstore.Session, groupID string) error {
	groups := store.NewGroupStore(s)
	g, err := groups.Get(ctx, groupID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		err = groups.Create(ctx, models.Group{ID: groupID, Count: 1})
	case err == nil:
		err = groups.SetCount(ctx, groupID, g.Count+1)
	}
	if err != nil {
		return fmt.Errorf("failed to increment group %s: %w", groupID, err)
	}
	l.metrics.IncLedgerOps(metrics.OpIncrement)
	return nil
}

// Decrement removes one team from the group and deletes the record when the
// count reaches zero. A missing group is left alone.
func (l *Ledger) Decrement(ctx context.Context, s docstore.Session, groupID string) error {
	groups := store.NewGroupStore(s)
	g, err := groups.Get(ctx, groupID)
	if errors.Is(err, models.ErrNotFound) {
		log.Warn("Decrement of unknown group ignored", "group", groupID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to decrement group %s: %w", groupID, err)
	}

	count := max(0, g.Count-1)
	if count == 0 {
		err = groups.Delete(ctx, groupID)
	} else {
		err = groups.SetCount(ctx, groupID, count)
	}
	if err != nil {
		return fmt.Errorf("failed to decrement group %s: %w", groupID, err)
	}
	l.metrics.IncLedgerOps(metrics.OpDecrement)
	return nil
}

// Move accounts for a team changing group. Equal groups are a no-op.
func (l *Ledger) Move(ctx context.Context, s docstore.Session, from, to string) error {
	if from == to {
		return nil
	}
	if err := l.Decrement(ctx, s, from); err != nil {
		return err
	}
	return l.Increment(ctx, s, to)
}

// Get returns one group's count.
func (l *Ledger) Get(ctx context.Context, groupID string) (models.Group, error) {
	return store.NewGroupStore(l.store).Get(ctx, groupID)
}

// List returns every group ordered by id.
func (l *Ledger) List(ctx context.Context) ([]models.Group, error) {
	return store.NewGroupStore(l.store).List(ctx)
}
