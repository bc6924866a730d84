// shared/models/stats.go
package models

import (
	"sort"
	"time"
)

// TeamStat is derived from the matches touching a team. It is never persisted.
type TeamStat struct {
	TeamID       string    `json:"teamId" msgpack:"teamId"`
	Group        string    `json:"group" msgpack:"group"`
	RegisteredAt time.Time `json:"registeredAt" msgpack:"registeredAt"`
	TotalMatches int       `json:"totalMatches" msgpack:"totalMatches"`
	Wins         int       `json:"wins" msgpack:"wins"`
	Losses       int       `json:"losses" msgpack:"losses"`
	Draws        int       `json:"draws" msgpack:"draws"`
	Points       int       `json:"points" msgpack:"points"`
	AltPoints    int       `json:"altPoints" msgpack:"altPoints"`
}

// Leaderboard maps a group label to its ordered standings.
type Leaderboard map[string][]TeamStat

// Groups returns the group labels in ascending order.
func (l Leaderboard) Groups() []string {
	groups := make([]string, 0, len(l))
	for g := range l {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
