// shared/models/match.go
package models

import (
	"encoding/json"
	"math"
)

// Match is a played match between two distinct teams.
type Match struct {
	ID     string `bson:"_id,omitempty" json:"id"`
	TeamA  string `bson:"teamA" json:"teamA"`
	TeamB  string `bson:"teamB" json:"teamB"`
	ScoreA int    `bson:"scoreA" json:"scoreA"`
	ScoreB int    `bson:"scoreB" json:"scoreB"`
}

// Validate checks the shape of a stored or decoded match.
func (m Match) Validate() error {
	if m.TeamA == "" || m.TeamB == "" {
		return Validationf("match %q is missing a team reference", m.ID)
	}
	if m.TeamA == m.TeamB {
		return Validationf("match %q has team %s on both sides", m.ID, m.TeamA)
	}
	if m.ScoreA < 0 || m.ScoreB < 0 {
		return Validationf("match %q has a negative score", m.ID)
	}
	return nil
}

// MatchInput is an unvalidated match as received from a caller. Scores are
// kept loosely typed so that non-numeric input can be rejected explicitly.
type MatchInput struct {
	ID     string `json:"id,omitempty"`
	TeamA  string `json:"teamA"`
	TeamB  string `json:"teamB"`
	ScoreA any    `json:"scoreA"`
	ScoreB any    `json:"scoreB"`
}

// ToMatch converts the input into a Match, rejecting non-integral or negative
// scores and self-matches. It performs no reads.
func (in MatchInput) ToMatch() (Match, error) {
	if in.TeamA == "" || in.TeamB == "" {
		return Match{}, Validationf("teamA and teamB are required")
	}
	scoreA, err := parseScore("scoreA", in.ScoreA)
	if err != nil {
		return Match{}, err
	}
	scoreB, err := parseScore("scoreB", in.ScoreB)
	if err != nil {
		return Match{}, err
	}
	if in.TeamA == in.TeamB {
		return Match{}, Validationf("a team cannot play against itself (%s)", in.TeamA)
	}
	return Match{ID: in.ID, TeamA: in.TeamA, TeamB: in.TeamB, ScoreA: scoreA, ScoreB: scoreB}, nil
}

func parseScore(side string, v any) (int, error) {
	var n int64
	switch s := v.(type) {
	case int:
		n = int64(s)
	case int32:
		n = int64(s)
	case int64:
		n = s
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) || s != math.Trunc(s) {
			return 0, Validationf("%s must be a whole number, got %v", side, s)
		}
		if s > math.MaxInt32 || s < math.MinInt32 {
			return 0, Validationf("%s is out of range", side)
		}
		n = int64(s)
	case json.Number:
		i, err := s.Int64()
		if err != nil {
			return 0, Validationf("%s must be a whole number, got %q", side, s.String())
		}
		n = i
	case nil:
		return 0, Validationf("%s is required", side)
	default:
		return 0, Validationf("%s must be numeric, got %T", side, v)
	}
	if n < 0 {
		return 0, Validationf("%s must not be negative, got %d", side, n)
	}
	if n > math.MaxInt32 {
		return 0, Validationf("%s is out of range", side)
	}
	return int(n), nil
}
