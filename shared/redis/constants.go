// shared/redis/constants.go
package redis

const (
	// LeaderboardSnapshotKey holds the msgpack-encoded leaderboard snapshot.
	// The braces pin it to one cluster slot.
	LeaderboardSnapshotKey = "leaderboard:{snapshot}:"
	// LeaderboardGenerationKey counts invalidations. It shares the snapshot's slot
	// so both can be used in one MULTI.
	LeaderboardGenerationKey = "leaderboard:{snapshot}:generation"
	// WarmerTaskKey is hashed onto the ring to elect the instance that warms the leaderboard.
	WarmerTaskKey = "leaderboard-warmer"
)
