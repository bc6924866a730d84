// league/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	leagueapi "github.com/Ftotnem/LEAGUE-SERVICES/league/api"
	"github.com/Ftotnem/LEAGUE-SERVICES/league/cache"
	"github.com/Ftotnem/LEAGUE-SERVICES/league/ledger"
	"github.com/Ftotnem/LEAGUE-SERVICES/league/service"
	"github.com/Ftotnem/LEAGUE-SERVICES/league/store"
	"github.com/Ftotnem/LEAGUE-SERVICES/league/warmer"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/api"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/cluster"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/config"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/metrics"
	redisu "github.com/Ftotnem/LEAGUE-SERVICES/shared/redis"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/registry"
)

const serviceVersion = "0.3.0"

func main() {
	startedAt := time.Now()

	// --- 1. Load Configuration ---
	config.LoadDotEnv()
	cfg, err := config.LoadLeagueServiceConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", "err", err)
	}

	// --- 2. Logging ---
	log.SetFormatter(log.JSONFormatter)
	log.SetReportTimestamp(true)
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("Unknown LOG_LEVEL, keeping info", "level", cfg.LogLevel)
	}

	ctx := context.Background()

	// --- 3. Open the document store ---
	docs, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal("Failed to open document store", "backend", cfg.Store.Backend, "err", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := docs.Close(closeCtx); err != nil {
			log.Error("Failed to close document store", "err", err)
		}
	}()

	// --- 4. Metrics ---
	m := metrics.NewService()

	// --- 5. Redis: leaderboard cache, registry and cluster assignment ---
	var (
		leaderboardCache service.LeaderboardCache = cache.Nop{}
		assigner         warmer.Assigner
		redisClient      redis.UniversalClient
	)
	if len(cfg.RedisAddrs) > 0 {
		redisClient, err = redisu.NewUniversalClient(ctx, cfg.RedisAddrs, cfg.RedisPassword)
		if err != nil {
			log.Fatal("Failed to connect to Redis", "err", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", "err", err)
			}
		}()

		leaderboardCache = cache.NewRedisCache(redisClient, cfg.LeaderboardCacheTTL)

		registrar := registry.NewServiceRegistrar(redisClient, registry.LeagueServiceType, serviceVersion, &cfg.CommonConfig)
		registrar.Start()
		defer registrar.Stop()

		registryClient := registry.NewRegistryClient(redisClient, cfg.HeartbeatTTL)
		assignments := cluster.NewServiceAssignmentManager(registryClient, registrar.GetServiceID(), registry.LeagueServiceType, cfg.HeartbeatInterval)
		go assignments.Start()
		defer assignments.Stop()
		assigner = assignments
	} else {
		log.Warn("REDIS_ADDRS is empty, running without leaderboard cache and service registry")
	}

	// --- 6. Business logic ---
	groupLedger := ledger.New(docs, m)
	teamService := service.NewTeamService(docs, groupLedger, leaderboardCache, m)
	matchService := service.NewMatchService(docs, leaderboardCache, m, service.MatchPolicy{RequireSameGroup: cfg.RequireSameGroup})
	statsService := service.NewStatsService(docs, leaderboardCache, m)

	// --- 7. Leaderboard warmer ---
	if cfg.LeaderboardWarmInterval > 0 {
		w := warmer.NewLeaderboardWarmer(statsService, assigner, m, cfg.LeaderboardWarmInterval, cfg.LeaderboardWarmInterval)
		go w.Start()
		defer w.Stop()
	}

	// --- 8. HTTP server ---
	handlers := leagueapi.NewLeagueAPIHandlers(teamService, matchService, statsService, groupLedger, metrics.NewMetricsHandler())
	baseServer := api.NewBaseServer(cfg.ListenAddr, log.Default())
	handlers.RegisterRoutes(baseServer.Router)

	go func() {
		if err := baseServer.Start(); err != nil {
			log.Fatal("HTTP server failed", "err", err)
		}
	}()
	m.SetStartupTime(time.Since(startedAt).Seconds())
	log.Info("League service ready",
		"addr", cfg.ListenAddr, "backend", cfg.Store.Backend, "sameGroup", cfg.RequireSameGroup)

	// --- 9. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server graceful shutdown failed", "err", err)
	}
	log.Info("Server gracefully stopped")
}
