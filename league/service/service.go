// Package service holds the league's business operations. Every write that
// touches more than one record runs in a single docstore transaction.
package service

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

// LeaderboardCache is the snapshot store consulted by StatsService and
// invalidated by every successful write.
type LeaderboardCache interface {
	Get(ctx context.Context) (models.Leaderboard, bool, error)
	// Generation is advanced by every Invalidate.
	Generation(ctx context.Context) (int64, error)
	// SetIfCurrent stores board only if the generation is still gen.
	SetIfCurrent(ctx context.Context, gen int64, board models.Leaderboard) (bool, error)
	Invalidate(ctx context.Context) error
}

// invalidate drops the cached leaderboard. Failures only cost staleness
// until the snapshot TTL expires.
func invalidate(ctx context.Context, cache LeaderboardCache) {
	if err := cache.Invalidate(ctx); err != nil {
		log.Warn("Failed to invalidate leaderboard cache", "err", err)
	}
}
