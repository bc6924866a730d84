package metrics

// Metrics decouples the league components from the Prometheus implementation.
type Metrics interface {
	IncTeamWrites(op string)
	IncMatchWrites(op string)
	IncMatchRejected()
	IncLedgerOps(op string)
	IncCacheHits()
	IncCacheMisses()
	ObserveLeaderboardDuration(seconds float64)
	IncWarmerRuns()
	SetStartupTime(seconds float64)
}

// Write and ledger operation labels.
const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpIncrement = "increment"
	OpDecrement = "decrement"
	OpReconcile = "reconcile"
)
