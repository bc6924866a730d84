// league/service/stats_service.go
package service

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Ftotnem/LEAGUE-SERVICES/league/stats"
	"github.com/Ftotnem/LEAGUE-SERVICES/league/store"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/metrics"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

// StatsService loads teams and matches and hands them to the stats engine.
type StatsService struct {
	store   docstore.Store
	cache   LeaderboardCache
	metrics metrics.Metrics
}

func NewStatsService(s docstore.Store, c LeaderboardCache, m metrics.Metrics) *StatsService {
	return &StatsService{store: s, cache: c, metrics: m}
}

// TeamStats computes one team's record. Unknown teams are ErrNotFound.
func (ss *StatsService) TeamStats(ctx context.Context, teamID string) (models.TeamStat, error) {
	team, err := store.NewTeamStore(ss.store).Get(ctx, teamID)
	if err != nil {
		return models.TeamStat{}, err
	}
	matches, err := store.NewMatchStore(ss.store).ByTeam(ctx, teamID)
	if err != nil {
		return models.TeamStat{}, err
	}
	return stats.ComputeTeamStat(team, matches), nil
}

// Leaderboard serves the cached snapshot when present and recomputes it otherwise.
func (ss *StatsService) Leaderboard(ctx context.Context) (models.Leaderboard, error) {
	board, ok, err := ss.cache.Get(ctx)
	if err != nil {
		log.Warn("Leaderboard cache read failed, recomputing", "err", err)
	}
	if ok {
		ss.metrics.IncCacheHits()
		return board, nil
	}
	ss.metrics.IncCacheMisses()
	return ss.Refresh(ctx)
}

// Refresh recomputes the leaderboard and caches it unless a write
// invalidated the cache while it was being computed.
func (ss *StatsService) Refresh(ctx context.Context) (models.Leaderboard, error) {
	gen, genErr := ss.cache.Generation(ctx)
	if genErr != nil {
		log.Warn("Failed to read leaderboard generation, result will not be cached", "err", genErr)
	}
	board, err := ss.compute(ctx)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return board, nil
	}
	stored, err := ss.cache.SetIfCurrent(ctx, gen, board)
	switch {
	case err != nil:
		log.Warn("Failed to cache leaderboard", "err", err)
	case !stored:
		log.Debug("Leaderboard changed while computing, snapshot not cached", "generation", gen)
	}
	return board, nil
}

// Group returns one group's standings. Unknown groups are ErrNotFound.
func (ss *StatsService) Group(ctx context.Context, groupID string) ([]models.TeamStat, error) {
	board, err := ss.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	standings, ok := board[groupID]
	if !ok {
		return nil, models.NotFoundf("group %s not found", groupID)
	}
	return standings, nil
}

// compute reads teams and matches in one transaction so both come from the
// same point in time.
func (ss *StatsService) compute(ctx context.Context) (models.Leaderboard, error) {
	start := time.Now()
	var (
		teams   []models.Team
		matches []models.Match
	)
	err := ss.store.RunTransaction(ctx, func(ctx context.Context, s docstore.Session) error {
		var err error
		if teams, err = store.NewTeamStore(s).List(ctx); err != nil {
			return err
		}
		matches, err = store.NewMatchStore(s).List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	board := stats.ComputeLeaderboard(teams, matches)
	ss.metrics.ObserveLeaderboardDuration(time.Since(start).Seconds())
	return board, nil
}
