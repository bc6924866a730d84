package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// Service holds the league's Prometheus collectors.
type Service struct {
	TeamWrites          *prometheus.CounterVec
	MatchWrites         *prometheus.CounterVec
	MatchRejected       prometheus.Counter
	LedgerOps           *prometheus.CounterVec
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
	LeaderboardDuration prometheus.Histogram
	WarmerRuns          prometheus.Counter
	StartupTimeSeconds  prometheus.Gauge
}

// NewService creates and registers the collectors.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		TeamWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "league_team_writes_total",
			Help: "Team writes by operation.",
		}, []string{"op"}),
		MatchWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "league_match_writes_total",
			Help: "Match writes by operation.",
		}, []string{"op"}),
		MatchRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_match_rejected_total",
			Help: "Matches rejected by validation.",
		}),
		LedgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "league_group_ledger_ops_total",
			Help: "Group ledger mutations by operation.",
		}, []string{"op"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_leaderboard_cache_hits_total",
			Help: "Leaderboard reads served from the Redis snapshot.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_leaderboard_cache_misses_total",
			Help: "Leaderboard reads that had to be recomputed.",
		}),
		LeaderboardDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "league_leaderboard_compute_duration_seconds",
			Help:    "Time spent loading data and computing the leaderboard.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		WarmerRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_leaderboard_warmer_runs_total",
			Help: "Leaderboard warmer refreshes performed by this instance.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "league_startup_time_seconds",
			Help: "Time taken for the service to start up.",
		}),
	}

	reg.MustRegister(
		s.TeamWrites,
		s.MatchWrites,
		s.MatchRejected,
		s.LedgerOps,
		s.CacheHits,
		s.CacheMisses,
		s.LeaderboardDuration,
		s.WarmerRuns,
		s.StartupTimeSeconds,
	)
	return s
}

func (s *Service) IncTeamWrites(op string)  { s.TeamWrites.WithLabelValues(op).Inc() }
func (s *Service) IncMatchWrites(op string) { s.MatchWrites.WithLabelValues(op).Inc() }
func (s *Service) IncMatchRejected()        { s.MatchRejected.Inc() }
func (s *Service) IncLedgerOps(op string)   { s.LedgerOps.WithLabelValues(op).Inc() }
func (s *Service) IncCacheHits()            { s.CacheHits.Inc() }
func (s *Service) IncCacheMisses()          { s.CacheMisses.Inc() }
func (s *Service) IncWarmerRuns()           { s.WarmerRuns.Inc() }

func (s *Service) ObserveLeaderboardDuration(seconds float64) {
	s.LeaderboardDuration.Observe(seconds)
}

func (s *Service) SetStartupTime(seconds float64) {
	s.StartupTimeSeconds.Set(seconds)
}
