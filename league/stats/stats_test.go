package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

var base = time.Date(2024, 9, 29, 8, 0, 0, 0, time.UTC)

func team(id, group string, offset time.Duration) models.Team {
	return models.Team{ID: id, Group: group, RegisteredAt: base.Add(offset)}
}

func TestComputeTeamStat_WinAndLoss(t *testing.T) {
	a := team("A", "1", 0)
	b := team("B", "1", 5*time.Minute)
	matches := []models.Match{{ID: "m1", TeamA: "A", TeamB: "B", ScoreA: 2, ScoreB: 1}}

	statA := ComputeTeamStat(a, matches)
	assert.Equal(t, models.TeamStat{
		TeamID: "A", Group: "1", RegisteredAt: a.RegisteredAt,
		TotalMatches: 1, Wins: 1, Points: 3, AltPoints: 5,
	}, statA)

	statB := ComputeTeamStat(b, matches)
	assert.Equal(t, 1, statB.TotalMatches)
	assert.Equal(t, 1, statB.Losses)
	assert.Equal(t, 0, statB.Points)
	assert.Equal(t, 1, statB.AltPoints)
}

func TestComputeTeamStat_Draw(t *testing.T) {
	stat := ComputeTeamStat(team("A", "1", 0), []models.Match{{TeamA: "B", TeamB: "A", ScoreA: 0, ScoreB: 0}})
	assert.Equal(t, 1, stat.Draws)
	assert.Equal(t, 1, stat.Points)
	assert.Equal(t, 3, stat.AltPoints)
}

func TestComputeTeamStat_SideIsRespected(t *testing.T) {
	// A plays as teamB and wins
	stat := ComputeTeamStat(team("A", "1", 0), []models.Match{{TeamA: "B", TeamB: "A", ScoreA: 1, ScoreB: 4}})
	assert.Equal(t, 1, stat.Wins)
	assert.Equal(t, 3, stat.Points)
}

func TestComputeTeamStat_IgnoresUnrelatedMatches(t *testing.T) {
	matches := []models.Match{
		{TeamA: "A", TeamB: "B", ScoreA: 1, ScoreB: 1},
		{TeamA: "C", TeamB: "D", ScoreA: 3, ScoreB: 0},
	}
	stat := ComputeTeamStat(team("A", "1", 0), matches)
	assert.Equal(t, 1, stat.TotalMatches)
}

func TestComputeTeamStat_NoMatches(t *testing.T) {
	stat := ComputeTeamStat(team("A", "1", 0), nil)
	assert.Equal(t, models.TeamStat{TeamID: "A", Group: "1", RegisteredAt: base}, stat)
}

func TestComputeTeamStat_TotalsAreConsistent(t *testing.T) {
	matches := []models.Match{
		{TeamA: "A", TeamB: "B", ScoreA: 2, ScoreB: 1},
		{TeamA: "C", TeamB: "A", ScoreA: 2, ScoreB: 2},
		{TeamA: "A", TeamB: "D", ScoreA: 0, ScoreB: 5},
		{TeamA: "E", TeamB: "A", ScoreA: 0, ScoreB: 1},
	}
	s := ComputeTeamStat(team("A", "1", 0), matches)
	assert.Equal(t, s.Wins+s.Losses+s.Draws, s.TotalMatches)
	assert.Equal(t, 4, s.TotalMatches)
	assert.Equal(t, 3*s.Wins+s.Draws, s.Points)
	assert.Equal(t, 5*s.Wins+3*s.Draws+s.Losses, s.AltPoints)
}

func TestClassify(t *testing.T) {
	m := models.Match{TeamA: "A", TeamB: "B", ScoreA: 3, ScoreB: 1}

	r, ok := Classify(m, "A")
	assert.True(t, ok)
	assert.Equal(t, Win, r)

	r, ok = Classify(m, "B")
	assert.True(t, ok)
	assert.Equal(t, Loss, r)

	_, ok = Classify(m, "C")
	assert.False(t, ok)
	assert.Equal(t, "draw", Draw.String())
}

func TestSortStandings_RegistrationBreaksTies(t *testing.T) {
	x := models.TeamStat{TeamID: "X", Points: 4, AltPoints: 9, RegisteredAt: base}
	y := models.TeamStat{TeamID: "Y", Points: 4, AltPoints: 9, RegisteredAt: base.Add(5 * time.Minute)}

	standings := []models.TeamStat{y, x}
	SortStandings(standings)
	assert.Equal(t, []string{"X", "Y"}, ids(standings))
}

func TestSortStandings_Ordering(t *testing.T) {
	standings := []models.TeamStat{
		{TeamID: "low", Points: 1, AltPoints: 10, RegisteredAt: base},
		{TeamID: "alt", Points: 4, AltPoints: 8, RegisteredAt: base},
		{TeamID: "top", Points: 6, AltPoints: 2, RegisteredAt: base.Add(time.Hour)},
		{TeamID: "alt2", Points: 4, AltPoints: 9, RegisteredAt: base.Add(time.Hour)},
		{TeamID: "b", Points: 0, AltPoints: 0, RegisteredAt: base},
		{TeamID: "a", Points: 0, AltPoints: 0, RegisteredAt: base},
	}
	SortStandings(standings)
	assert.Equal(t, []string{"top", "alt2", "alt", "low", "a", "b"}, ids(standings))
}

func TestComputeLeaderboard(t *testing.T) {
	teams := []models.Team{
		team("A", "1", 0),
		team("B", "1", 5*time.Minute),
		team("C", "1", 10*time.Minute),
		team("D", "2", 15*time.Minute),
	}
	matches := []models.Match{
		{ID: "m1", TeamA: "A", TeamB: "B", ScoreA: 0, ScoreB: 1},
		{ID: "m2", TeamA: "B", TeamB: "C", ScoreA: 2, ScoreB: 2},
	}

	board := ComputeLeaderboard(teams, matches)
	require.Equal(t, []string{"1", "2"}, board.Groups())
	assert.Equal(t, []string{"B", "C", "A"}, ids(board["1"]))
	assert.Equal(t, 4, board["1"][0].Points)
	assert.Equal(t, 2, board["1"][0].TotalMatches)

	require.Len(t, board["2"], 1)
	assert.Equal(t, 0, board["2"][0].TotalMatches)
}

func TestComputeLeaderboard_Empty(t *testing.T) {
	assert.Empty(t, ComputeLeaderboard(nil, nil))
}

func ids(stats []models.TeamStat) []string {
	out := make([]string, len(stats))
	for i, s := range stats {
		out[i] = s.TeamID
	}
	return out
}
