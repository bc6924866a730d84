package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ftotnem/LEAGUE-SERVICES/league/cache"
	"github.com/Ftotnem/LEAGUE-SERVICES/league/ledger"
	"github.com/Ftotnem/LEAGUE-SERVICES/league/service"
	"github.com/Ftotnem/LEAGUE-SERVICES/league/store"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/config"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/metrics"
	redisu "github.com/Ftotnem/LEAGUE-SERVICES/shared/redis"
)

// leagueEnv is the service graph wired directly over the document store.
type leagueEnv struct {
	docs    docstore.Store
	ledger  *ledger.Ledger
	teams   *service.TeamService
	matches *service.MatchService
	stats   *service.StatsService
	closers []func()
}

func (e *leagueEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func (o *cliOptions) loadConfig() (*config.LeagueServiceConfig, error) {
	if o.envFile != "" {
		config.LoadDotEnv(o.envFile)
	} else {
		config.LoadDotEnv()
	}
	cfg, err := config.LoadLeagueServiceConfig()
	if err != nil {
		return nil, err
	}
	if o.backend != "" {
		cfg.Store.Backend = o.backend
	}
	if o.sqlitePath != "" {
		cfg.Store.SQLitePath = o.sqlitePath
	}
	return cfg, nil
}

// openEnv opens the configured store. When Redis is configured the live
// service's leaderboard snapshot is invalidated by writes made here.
func (o *cliOptions) openEnv(ctx context.Context) (*leagueEnv, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	docs, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	env := &leagueEnv{docs: docs}
	env.closers = append(env.closers, func() { _ = docs.Close(context.Background()) })

	var lbCache service.LeaderboardCache = cache.Nop{}
	if len(cfg.RedisAddrs) > 0 {
		rdb, err := redisu.NewUniversalClient(ctx, cfg.RedisAddrs, cfg.RedisPassword)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.closers = append(env.closers, func() { _ = rdb.Close() })
		lbCache = cache.NewRedisCache(rdb, cfg.LeaderboardCacheTTL)
	}

	m := metrics.NewService(prometheus.NewRegistry())
	env.ledger = ledger.New(docs, m)
	env.teams = service.NewTeamService(docs, env.ledger, lbCache, m)
	env.matches = service.NewMatchService(docs, lbCache, m, service.MatchPolicy{RequireSameGroup: cfg.RequireSameGroup})
	env.stats = service.NewStatsService(docs, lbCache, m)
	return env, nil
}
