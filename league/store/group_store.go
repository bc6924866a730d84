// league/store/group_store.go
package store

import (
	"context"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

// GroupStore reads and writes group count records. Only the ledger writes.
type GroupStore struct {
	s docstore.Session
}

func NewGroupStore(s docstore.Session) *GroupStore {
	return &GroupStore{s: s}
}

func (gs *GroupStore) Get(ctx context.Context, id string) (models.Group, error) {
	var g models.Group
	if err := gs.s.Get(ctx, GroupsCollection, id, &g); err != nil {
		return models.Group{}, translate(err, "group", id)
	}
	if g.Count < 0 {
		return models.Group{}, models.Validationf("group %s has a negative count %d", id, g.Count)
	}
	return g, nil
}

// Create writes a new group record.
func (gs *GroupStore) Create(ctx context.Context, g models.Group) error {
	return translate(gs.s.Set(ctx, GroupsCollection, g.ID, g), "group", g.ID)
}

// SetCount updates the count of an existing group.
func (gs *GroupStore) SetCount(ctx context.Context, id string, count int64) error {
	return translate(gs.s.Update(ctx, GroupsCollection, id, map[string]any{"count": count}), "group", id)
}

func (gs *GroupStore) Delete(ctx context.Context, id string) error {
	return translate(gs.s.Delete(ctx, GroupsCollection, id), "group", id)
}

// List returns every group ordered by id.
func (gs *GroupStore) List(ctx context.Context) ([]models.Group, error) {
	groups := []models.Group{}
	if err := gs.s.Find(ctx, GroupsCollection, nil, &groups); err != nil {
		return nil, translate(err, "groups", "")
	}
	return groups, nil
}
