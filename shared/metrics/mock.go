package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu            sync.Mutex
	teamWrites    map[string]int
	matchWrites   map[string]int
	ledgerOps     map[string]int
	matchRejected int
	cacheHits     int
	cacheMisses   int
	durations     []float64
	warmerRuns    int
	startupTime   float64
}

var _ Metrics = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{
		teamWrites:  make(map[string]int),
		matchWrites: make(map[string]int),
		ledgerOps:   make(map[string]int),
	}
}

func (m *Mock) IncTeamWrites(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teamWrites[op]++
}

func (m *Mock) IncMatchWrites(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchWrites[op]++
}

func (m *Mock) IncMatchRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchRejected++
}

func (m *Mock) IncLedgerOps(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledgerOps[op]++
}

func (m *Mock) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

func (m *Mock) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheMisses++
}

func (m *Mock) ObserveLeaderboardDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = append(m.durations, seconds)
}

func (m *Mock) IncWarmerRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warmerRuns++
}

func (m *Mock) SetStartupTime(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = seconds
}

func (m *Mock) TeamWrites(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teamWrites[op]
}

func (m *Mock) MatchWrites(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchWrites[op]
}

func (m *Mock) LedgerOps(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledgerOps[op]
}

func (m *Mock) MatchRejected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchRejected
}

func (m *Mock) CacheHits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheHits
}

func (m *Mock) CacheMisses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheMisses
}

func (m *Mock) WarmerRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warmerRuns
}

// LeaderboardComputations returns how many durations were observed.
func (m *Mock) LeaderboardComputations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.durations)
}
