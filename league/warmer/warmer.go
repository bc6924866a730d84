// league/warmer/warmer.go
package warmer

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/metrics"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
	sharedredis "github.com/Ftotnem/LEAGUE-SERVICES/shared/redis"
)

// Refresher recomputes and caches the leaderboard.
type Refresher interface {
	Refresh(ctx context.Context) (models.Leaderboard, error)
}

// Assigner elects the instance responsible for a cluster-wide task.
type Assigner interface {
	IsResponsible(key string) (bool, error)
}

// LeaderboardWarmer periodically recomputes the cached leaderboard so reads
// rarely pay for a miss. Only the instance that owns WarmerTaskKey on the
// consistent hash ring does the work.
type LeaderboardWarmer struct {
	refresher Refresher
	assigner  Assigner
	metrics   metrics.Metrics
	interval  time.Duration
	timeout   time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewLeaderboardWarmer builds a warmer. A nil assigner means this instance is
// always responsible.
func NewLeaderboardWarmer(r Refresher, a Assigner, m metrics.Metrics, interval, timeout time.Duration) *LeaderboardWarmer {
	ctx, cancel := context.WithCancel(context.Background())
	return &LeaderboardWarmer{
		refresher: r,
		assigner:  a,
		metrics:   m,
		interval:  interval,
		timeout:   timeout,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start runs the warm loop until Stop is called. Run it in a goroutine.
func (w *LeaderboardWarmer) Start() {
	log.Info("Leaderboard warmer starting", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			log.Info("Leaderboard warmer shutting down")
			return
		case <-ticker.C:
			w.warmOnce()
		}
	}
}

func (w *LeaderboardWarmer) Stop() {
	w.cancel()
}

// warmOnce refreshes the leaderboard if this instance owns the task and
// reports whether it did.
func (w *LeaderboardWarmer) warmOnce() bool {
	if w.assigner != nil {
		owner, err := w.assigner.IsResponsible(sharedredis.WarmerTaskKey)
		if err != nil {
			log.Error("Failed to check warmer ownership", "key", sharedredis.WarmerTaskKey, "err", err)
			return false
		}
		if !owner {
			return false
		}
	}

	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()
	board, err := w.refresher.Refresh(ctx)
	if err != nil {
		log.Error("Leaderboard warm failed", "err", err)
		return false
	}
	w.metrics.IncWarmerRuns()
	log.Debug("Leaderboard warmed", "groups", len(board))
	return true
}
