// Package stats derives standings from match records. Every function here is
// pure and safe for concurrent use.
package stats

import (
	"sort"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

// Points awarded per result under the primary and alternative schemes.
const (
	WinPoints     = 3
	DrawPoints    = 1
	LossPoints    = 0
	WinAltPoints  = 5
	DrawAltPoints = 3
	LossAltPoints = 1
)

// Result is a match outcome from one team's point of view.
type Result int

const (
	Loss Result = iota
	Draw
	Win
)

func (r Result) String() string {
	switch r {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "loss"
	}
}

// Classify returns the outcome of m for teamID and whether the team played in it.
func Classify(m models.Match, teamID string) (Result, bool) {
	var own, opp int
	switch teamID {
	case m.TeamA:
		own, opp = m.ScoreA, m.ScoreB
	case m.TeamB:
		own, opp = m.ScoreB, m.ScoreA
	default:
		return Loss, false
	}
	switch {
	case own > opp:
		return Win, true
	case own == opp:
		return Draw, true
	default:
		return Loss, true
	}
}

type tally struct{ models.TeamStat }

func (s *tally) add(r Result) {
	s.TotalMatches++
	switch r {
	case Win:
		s.Wins++
		s.Points += WinPoints
		s.AltPoints += WinAltPoints
	case Draw:
		s.Draws++
		s.Points += DrawPoints
		s.AltPoints += DrawAltPoints
	default:
		s.Losses++
		s.Points += LossPoints
		s.AltPoints += LossAltPoints
	}
}

// ComputeTeamStat totals the matches that reference team. Matches that do
// not involve the team are ignored.
func ComputeTeamStat(team models.Team, matches []models.Match) models.TeamStat {
	t := tally{models.TeamStat{
		TeamID:       team.ID,
		Group:        team.Group,
		RegisteredAt: team.RegisteredAt,
	}}
	for _, m := range matches {
		if r, ok := Classify(m, team.ID); ok {
			t.add(r)
		}
	}
	return t.TeamStat
}

// ComputeLeaderboard builds one stat per team, grouped by group label, each
// group ordered by SortStandings.
func ComputeLeaderboard(teams []models.Team, matches []models.Match) models.Leaderboard {
	byTeam := make(map[string][]models.Match, len(teams))
	for _, m := range matches {
		byTeam[m.TeamA] = append(byTeam[m.TeamA], m)
		if m.TeamB != m.TeamA {
			byTeam[m.TeamB] = append(byTeam[m.TeamB], m)
		}
	}

	board := make(models.Leaderboard)
	for _, team := range teams {
		board[team.Group] = append(board[team.Group], ComputeTeamStat(team, byTeam[team.ID]))
	}
	for g := range board {
		SortStandings(board[g])
	}
	return board
}

// SortStandings orders stats in place: points desc, altPoints desc, earlier
// registration first, then team id.
func SortStandings(stats []models.TeamStat) {
	sort.SliceStable(stats, func(i, j int) bool { return Less(stats[i], stats[j]) })
}

// Less reports whether a ranks above b.
func Less(a, b models.TeamStat) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.AltPoints != b.AltPoints {
		return a.AltPoints > b.AltPoints
	}
	if !a.RegisteredAt.Equal(b.RegisteredAt) {
		return a.RegisteredAt.Before(b.RegisteredAt)
	}
	return a.TeamID < b.TeamID
}
