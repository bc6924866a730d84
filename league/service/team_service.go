// league/service/team_service.go
package service

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Ftotnem/LEAGUE-SERVICES/league/ledger"
	"github.com/Ftotnem/LEAGUE-SERVICES/league/store"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/metrics"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

// TeamService registers teams and keeps the group ledger in step with them.
type TeamService struct {
	store   docstore.Store
	ledger  *ledger.Ledger
	cache   LeaderboardCache
	metrics metrics.Metrics
	now     func() time.Time
}

func NewTeamService(s docstore.Store, l *ledger.Ledger, c LeaderboardCache, m metrics.Metrics) *TeamService {
	return &TeamService{store: s, ledger: l, cache: c, metrics: m, now: time.Now}
}

// Upsert creates the team when it has no id and updates it otherwise. An
// update of an unknown id fails with ErrNotFound. The previously stored group
// is what the ledger moves the team out of.
func (ts *TeamService) Upsert(ctx context.Context, team models.Team) (models.Team, error) {
	if err := team.Validate(); err != nil {
		return models.Team{}, err
	}

	// Every backend keeps dates at millisecond precision.
	team.RegisteredAt = team.RegisteredAt.UTC().Truncate(time.Millisecond)

	created := team.ID == ""
	var saved models.Team
	err := ts.store.RunTransaction(ctx, func(ctx context.Context, s docstore.Session) error {
		teams := store.NewTeamStore(s)
		t := team

		if created {
			t.ID = ts.store.NewID()
			if t.RegisteredAt.IsZero() {
				t.RegisteredAt = ts.now().UTC().Truncate(time.Millisecond)
			}
			if err := teams.Put(ctx, t); err != nil {
				return err
			}
			if err := ts.ledger.Increment(ctx, s, t.Group); err != nil {
				return err
			}
		} else {
			prev, err := teams.Get(ctx, t.ID)
			if err != nil {
				return err
			}
			if t.RegisteredAt.IsZero() {
				t.RegisteredAt = prev.RegisteredAt
			}
			if err := teams.Put(ctx, t); err != nil {
				return err
			}
			if err := ts.ledger.Move(ctx, s, prev.Group, t.Group); err != nil {
				return err
			}
		}
		saved = t
		return nil
	})
	if err != nil {
		return models.Team{}, err
	}

	invalidate(ctx, ts.cache)
	if created {
		ts.metrics.IncTeamWrites(metrics.OpCreate)
		log.Info("Team created", "id", saved.ID, "group", saved.Group)
	} else {
		ts.metrics.IncTeamWrites(metrics.OpUpdate)
		log.Info("Team updated", "id", saved.ID, "group", saved.Group)
	}
	return saved, nil
}

func (ts *TeamService) Get(ctx context.Context, id string) (models.Team, error) {
	return store.NewTeamStore(ts.store).Get(ctx, id)
}

// List returns every team ordered by id. No teams is an empty slice.
func (ts *TeamService) List(ctx context.Context) ([]models.Team, error) {
	return store.NewTeamStore(ts.store).List(ctx)
}

// ListByGroup returns the teams registered in one group ordered by id.
func (ts *TeamService) ListByGroup(ctx context.Context, group string) ([]models.Team, error) {
	return store.NewTeamStore(ts.store).ListByGroup(ctx, group)
}

// Delete removes the team and releases its group slot. Its matches are kept.
func (ts *TeamService) Delete(ctx context.Context, id string) error {
	err := ts.store.RunTransaction(ctx, func(ctx context.Context, s docstore.Session) error {
		teams := store.NewTeamStore(s)
		t, err := teams.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := teams.Delete(ctx, id); err != nil {
			return err
		}
		return ts.ledger.Decrement(ctx, s, t.Group)
	})
	if err != nil {
		return err
	}

	invalidate(ctx, ts.cache)
	ts.metrics.IncTeamWrites(metrics.OpDelete)
	log.Info("Team deleted", "id", id)
	return nil
}
