// league/store/team_store.go
package store

import (
	"context"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

// TeamStore reads and writes team records.
type TeamStore struct {
	s docstore.Session
}

func NewTeamStore(s docstore.Session) *TeamStore {
	return &TeamStore{s: s}
}

// Get returns the team or an ErrNotFound kind.
func (ts *TeamStore) Get(ctx context.Context, id string) (models.Team, error) {
	var team models.Team
	if err := ts.s.Get(ctx, TeamsCollection, id, &team); err != nil {
		return models.Team{}, translate(err, "team", id)
	}
	if err := team.Validate(); err != nil {
		return models.Team{}, err
	}
	return team, nil
}

// Put writes the team under its id. The id itself is not stored as a field.
func (ts *TeamStore) Put(ctx context.Context, team models.Team) error {
	return translate(ts.s.Set(ctx, TeamsCollection, team.ID, team), "team", team.ID)
}

func (ts *TeamStore) Delete(ctx context.Context, id string) error {
	return translate(ts.s.Delete(ctx, TeamsCollection, id), "team", id)
}

// List returns every team ordered by id.
func (ts *TeamStore) List(ctx context.Context) ([]models.Team, error) {
	return ts.find(ctx, nil)
}

// ListByGroup returns the teams of one group ordered by id.
func (ts *TeamStore) ListByGroup(ctx context.Context, group string) ([]models.Team, error) {
	return ts.find(ctx, docstore.Eq("group", group))
}

func (ts *TeamStore) find(ctx context.Context, filter *docstore.Filter) ([]models.Team, error) {
	teams := []models.Team{}
	if err := ts.s.Find(ctx, TeamsCollection, filter, &teams); err != nil {
		return nil, translate(err, "teams", "")
	}
	for _, t := range teams {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return teams, nil
}
