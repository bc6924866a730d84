// league/store/match_store.go
package store

import (
	"context"
	"sort"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

// MatchStore reads and writes match records.
type MatchStore struct {
	s docstore.Session
}

func NewMatchStore(s docstore.Session) *MatchStore {
	return &MatchStore{s: s}
}

func (ms *MatchStore) Get(ctx context.Context, id string) (models.Match, error) {
	var m models.Match
	if err := ms.s.Get(ctx, MatchesCollection, id, &m); err != nil {
		return models.Match{}, translate(err, "match", id)
	}
	if err := m.Validate(); err != nil {
		return models.Match{}, err
	}
	return m, nil
}

// Put writes the match under its id. The id itself is not stored as a field.
func (ms *MatchStore) Put(ctx context.Context, m models.Match) error {
	return translate(ms.s.Set(ctx, MatchesCollection, m.ID, m), "match", m.ID)
}

func (ms *MatchStore) Delete(ctx context.Context, id string) error {
	return translate(ms.s.Delete(ctx, MatchesCollection, id), "match", id)
}

// List returns every match ordered by id.
func (ms *MatchStore) List(ctx context.Context) ([]models.Match, error) {
	return ms.find(ctx, nil)
}

// ByTeam returns the matches where the team plays on either side, ordered by
// id with no duplicates.
func (ms *MatchStore) ByTeam(ctx context.Context, teamID string) ([]models.Match, error) {
	asA, err := ms.find(ctx, docstore.Eq("teamA", teamID))
	if err != nil {
		return nil, err
	}
	asB, err := ms.find(ctx, docstore.Eq("teamB", teamID))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(asA)+len(asB))
	out := make([]models.Match, 0, len(asA)+len(asB))
	for _, m := range append(asA, asB...) {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (ms *MatchStore) find(ctx context.Context, filter *docstore.Filter) ([]models.Match, error) {
	matches := []models.Match{}
	if err := ms.s.Find(ctx, MatchesCollection, filter, &matches); err != nil {
		return nil, translate(err, "matches", "")
	}
	for _, m := range matches {
		if err := m.Validate(); err != nil {
			return nil, err
		}
	}
	return matches, nil
}
