// league/service/match_service.go
package service

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/Ftotnem/LEAGUE-SERVICES/league/store"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/metrics"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

// MatchPolicy tunes match validation.
type MatchPolicy struct {
	// RequireSameGroup rejects matches between teams of different groups.
	RequireSameGroup bool
}

// MatchService records matches between registered teams.
type MatchService struct {
	store   docstore.Store
	cache   LeaderboardCache
	metrics metrics.Metrics
	policy  MatchPolicy
}

func NewMatchService(s docstore.Store, c LeaderboardCache, m metrics.Metrics, policy MatchPolicy) *MatchService {
	return &MatchService{store: s, cache: c, metrics: m, policy: policy}
}

// Validate checks the input and the referenced teams without writing.
func (ms *MatchService) Validate(ctx context.Context, in models.MatchInput) (models.Match, error) {
	m, err := in.ToMatch()
	if err == nil {
		err = ms.checkTeams(ctx, ms.store, m)
	}
	if err != nil {
		ms.rejected(err)
		return models.Match{}, err
	}
	return m, nil
}

// checkTeams requires both teams to exist and, under the strict policy, to
// share a group.
func (ms *MatchService) checkTeams(ctx context.Context, s docstore.Session, m models.Match) error {
	teams := store.NewTeamStore(s)
	a, err := teams.Get(ctx, m.TeamA)
	if errors.Is(err, models.ErrNotFound) {
		return models.NotFoundf("teamA %s not found", m.TeamA)
	}
	if err != nil {
		return err
	}
	b, err := teams.Get(ctx, m.TeamB)
	if errors.Is(err, models.ErrNotFound) {
		return models.NotFoundf("teamB %s not found", m.TeamB)
	}
	if err != nil {
		return err
	}
	if ms.policy.RequireSameGroup && a.Group != b.Group {
		return models.Validationf("teams %s and %s are not in the same group", a.ID, b.ID)
	}
	return nil
}

func (ms *MatchService) rejected(err error) {
	if errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrNotFound) {
		ms.metrics.IncMatchRejected()
	}
}

// Upsert validates and writes the match. With an id the match must already
// exist; without one a new id is allocated. Writing the same input twice
// leaves the same record.
func (ms *MatchService) Upsert(ctx context.Context, in models.MatchInput) (models.Match, error) {
	m, err := in.ToMatch()
	if err != nil {
		ms.rejected(err)
		return models.Match{}, err
	}

	created := m.ID == ""
	var saved models.Match
	err = ms.store.RunTransaction(ctx, func(ctx context.Context, s docstore.Session) error {
		if err := ms.checkTeams(ctx, s, m); err != nil {
			return err
		}
		matches := store.NewMatchStore(s)
		out := m
		if created {
			out.ID = ms.store.NewID()
		} else if _, err := matches.Get(ctx, out.ID); err != nil {
			return err
		}
		if err := matches.Put(ctx, out); err != nil {
			return err
		}
		saved = out
		return nil
	})
	if err != nil {
		ms.rejected(err)
		return models.Match{}, err
	}

	invalidate(ctx, ms.cache)
	op := metrics.OpUpdate
	if created {
		op = metrics.OpCreate
	}
	ms.metrics.IncMatchWrites(op)
	log.Info("Match recorded", "id", saved.ID, "teamA", saved.TeamA, "teamB", saved.TeamB,
		"score", []int{saved.ScoreA, saved.ScoreB})
	return saved, nil
}

func (ms *MatchService) Get(ctx context.Context, id string) (models.Match, error) {
	return store.NewMatchStore(ms.store).Get(ctx, id)
}

// List returns every match ordered by id. No matches is an empty slice.
func (ms *MatchService) List(ctx context.Context) ([]models.Match, error) {
	return store.NewMatchStore(ms.store).List(ctx)
}

func (ms *MatchService) Delete(ctx context.Context, id string) error {
	err := ms.store.RunTransaction(ctx, func(ctx context.Context, s docstore.Session) error {
		return store.NewMatchStore(s).Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	invalidate(ctx, ms.cache)
	ms.metrics.IncMatchWrites(metrics.OpDelete)
	log.Info("Match deleted", "id", id)
	return nil
}

// FindByTeam returns the matches in which the team played on either side.
func (ms *MatchService) FindByTeam(ctx context.Context, teamID string) ([]models.Match, error) {
	if teamID == "" {
		return nil, models.Validationf("teamId is required")
	}
	return store.NewMatchStore(ms.store).ByTeam(ctx, teamID)
}
