package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ftotnem/LEAGUE-SERVICES/league/ledger"
	"github.com/Ftotnem/LEAGUE-SERVICES/league/store"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/metrics"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

var reg0800 = time.Date(2024, 9, 29, 8, 0, 0, 0, time.UTC)

// fakeCache records invalidations and serves whatever was last stored. It
// keeps a generation counter the way the Redis cache does.
type fakeCache struct {
	mu            sync.Mutex
	board         models.Leaderboard
	gen           int64
	invalidated   int
	getErr        error
	invalidateErr error
	// beforeSet runs once, just before the next SetIfCurrent compares generations.
	beforeSet func()
}

func (c *fakeCache) Get(context.Context) (models.Leaderboard, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	return c.board, c.board != nil, nil
}

func (c *fakeCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *fakeCache) SetIfCurrent(_ context.Context, gen int64, b models.Leaderboard) (bool, error) {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false, nil
	}
	c.board = b
	return true, nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.gen++
	c.board = nil
	return c.invalidateErr
}

type testEnv struct {
	store   *docstore.MemoryStore
	ledger  *ledger.Ledger
	cache   *fakeCache
	metrics *metrics.Mock
	teams   *TeamService
	matches *MatchService
	stats   *StatsService
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()
	s := docstore.NewMemoryStore()
	m := metrics.NewMock()
	c := &fakeCache{}
	l := ledger.New(s, m)
	return &testEnv{
		store:   s,
		ledger:  l,
		cache:   c,
		metrics: m,
		teams:   NewTeamService(s, l, c, m),
		matches: NewMatchService(s, c, m, MatchPolicy{RequireSameGroup: true}),
		stats:   NewStatsService(s, c, m),
	}
}

func (e *testEnv) groupCount(t *testing.T, id string) int64 {
	t.Helper()
	g, err := e.ledger.Get(context.Background(), id)
	if errors.Is(err, models.ErrNotFound) {
		return 0
	}
	require.NoError(t, err)
	return g.Count
}

func (e *testEnv) mustCreate(t *testing.T, name, group string, reg time.Time) models.Team {
	t.Helper()
	team, err := e.teams.Upsert(context.Background(), models.Team{Name: name, Group: group, RegisteredAt: reg})
	require.NoError(t, err)
	return team
}

// assertLedgerMatchesTeams checks that every group count equals its number of
// teams and that no zero-count group exists.
func (e *testEnv) assertLedgerMatchesTeams(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	teams, err := e.teams.List(ctx)
	require.NoError(t, err)
	want := map[string]int64{}
	for _, tm := range teams {
		want[tm.Group]++
	}
	groups, err := e.ledger.List(ctx)
	require.NoError(t, err)
	got := map[string]int64{}
	for _, g := range groups {
		assert.Positive(t, g.Count, "group %s", g.ID)
		got[g.ID] = g.Count
	}
	assert.Equal(t, want, got)
}

func TestTeamLifecycle_Scenarios(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	// create A and B in group 1
	a := env.mustCreate(t, "A", "1", reg0800)
	b := env.mustCreate(t, "B", "1", reg0800.Add(5*time.Minute))
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.EqualValues(t, 2, env.groupCount(t, "1"))

	// A vs B 2-1
	_, err := env.matches.Upsert(ctx, models.MatchInput{TeamA: a.ID, TeamB: b.ID, ScoreA: 2, ScoreB: 1})
	require.NoError(t, err)
	statA, err := env.stats.TeamStats(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, statA.TotalMatches)
	assert.Equal(t, 1, statA.Wins)
	assert.Equal(t, 3, statA.Points)
	assert.Equal(t, 5, statA.AltPoints)
	statB, err := env.stats.TeamStats(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, statB.Losses)
	assert.Equal(t, 0, statB.Points)
	assert.Equal(t, 1, statB.AltPoints)

	// move A to group 2
	a.Group = "2"
	_, err = env.teams.Upsert(ctx, a)
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.groupCount(t, "1"))
	assert.EqualValues(t, 1, env.groupCount(t, "2"))

	// delete B
	require.NoError(t, env.teams.Delete(ctx, b.ID))
	_, err = env.ledger.Get(ctx, "1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// non-numeric score
	before, err := env.matches.List(ctx)
	require.NoError(t, err)
	_, err = env.matches.Upsert(ctx, models.MatchInput{TeamA: a.ID, TeamB: b.ID, ScoreA: "two", ScoreB: 1})
	assert.ErrorIs(t, err, models.ErrValidation)
	after, err := env.matches.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	env.assertLedgerMatchesTeams(t)
}

func TestTeamUpsert_UpdateKeepsRegistrationAndGroupCount(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	a := env.mustCreate(t, "A", "1", reg0800)

	updated, err := env.teams.Upsert(ctx, models.Team{ID: a.ID, Name: "Renamed", Group: "1"})
	require.NoError(t, err)
	assert.Equal(t, reg0800, updated.RegisteredAt)
	assert.EqualValues(t, 1, env.groupCount(t, "1"))

	got, err := env.teams.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, 1, env.metrics.TeamWrites(metrics.OpUpdate))
}

func TestTeamUpsert_CreateStampsRegistration(t *testing.T) {
	env := setupServices(t)
	env.teams.now = func() time.Time { return reg0800.Add(1500 * time.Microsecond) }

	team, err := env.teams.Upsert(context.Background(), models.Team{Group: "1"})
	require.NoError(t, err)
	assert.Equal(t, reg0800.Add(time.Millisecond), team.RegisteredAt)
}

func TestTeamUpsert_UnknownIDHasNoSideEffects(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	_, err := env.teams.Upsert(ctx, models.Team{ID: "ghost", Group: "1"})
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, "team ghost not found", err.Error())

	teams, err := env.teams.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, teams)
	groups, err := env.ledger.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.Equal(t, 0, env.cache.invalidated)
}

func TestTeamUpsert_EmptyGroupRejected(t *testing.T) {
	env := setupServices(t)
	_, err := env.teams.Upsert(context.Background(), models.Team{Name: "nogroup"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestTeamDelete_Missing(t *testing.T) {
	env := setupServices(t)
	err := env.teams.Delete(context.Background(), "42")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTeamWrites_InvalidateCache(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	a := env.mustCreate(t, "A", "1", reg0800)
	require.NoError(t, env.teams.Delete(ctx, a.ID))
	assert.Equal(t, 2, env.cache.invalidated)
}

func TestTeamWrites_CacheFailureDoesNotFailWrite(t *testing.T) {
	env := setupServices(t)
	env.cache.invalidateErr = errors.New("redis down")
	_, err := env.teams.Upsert(context.Background(), models.Team{Group: "1"})
	assert.NoError(t, err)
}

func TestGroupLedger_ConcurrentUpserts(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan string, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			team, err := env.teams.Upsert(ctx, models.Team{Group: fmt.Sprint(i % 3)})
			assert.NoError(t, err)
			ids <- team.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	var moved sync.WaitGroup
	i := 0
	for id := range ids {
		moved.Add(1)
		go func(id string, group string) {
			defer moved.Done()
			_, err := env.teams.Upsert(ctx, models.Team{ID: id, Group: group})
			assert.NoError(t, err)
		}(id, fmt.Sprint(i%4))
		i++
	}
	moved.Wait()

	env.assertLedgerMatchesTeams(t)
}

func TestMatchUpsert_Validation(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	a := env.mustCreate(t, "A", "1", reg0800)
	b := env.mustCreate(t, "B", "1", reg0800)
	c := env.mustCreate(t, "C", "2", reg0800)

	tests := []struct {
		name    string
		input   models.MatchInput
		kind    error
		message string
	}{
		{"negative", models.MatchInput{TeamA: a.ID, TeamB: b.ID, ScoreA: -1, ScoreB: 0}, models.ErrValidation, "scoreA must not be negative"},
		{"self", models.MatchInput{TeamA: a.ID, TeamB: a.ID, ScoreA: 1, ScoreB: 0}, models.ErrValidation, "cannot play against itself"},
		{"missing teamA", models.MatchInput{TeamA: "x", TeamB: b.ID, ScoreA: 1, ScoreB: 0}, models.ErrNotFound, "teamA x not found"},
		{"missing teamB", models.MatchInput{TeamA: a.ID, TeamB: "y", ScoreA: 1, ScoreB: 0}, models.ErrNotFound, "teamB y not found"},
		{"cross group", models.MatchInput{TeamA: a.ID, TeamB: c.ID, ScoreA: 1, ScoreB: 0}, models.ErrValidation, "not in the same group"},
		{"unknown id", models.MatchInput{ID: "nope", TeamA: a.ID, TeamB: b.ID, ScoreA: 1, ScoreB: 0}, models.ErrNotFound, "match nope not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.matches.Upsert(ctx, tt.input)
			require.ErrorIs(t, err, tt.kind)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	all, err := env.matches.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, len(tests), env.metrics.MatchRejected())
}

func TestMatchUpsert_CrossGroupAllowedWhenPolicyRelaxed(t *testing.T) {
	env := setupServices(t)
	env.matches = NewMatchService(env.store, env.cache, env.metrics, MatchPolicy{})
	a := env.mustCreate(t, "A", "1", reg0800)
	c := env.mustCreate(t, "C", "2", reg0800)

	_, err := env.matches.Upsert(context.Background(), models.MatchInput{TeamA: a.ID, TeamB: c.ID, ScoreA: 1, ScoreB: 1})
	assert.NoError(t, err)
}

func TestMatchUpsert_IdempotentWithID(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	a := env.mustCreate(t, "A", "1", reg0800)
	b := env.mustCreate(t, "B", "1", reg0800)

	first, err := env.matches.Upsert(ctx, models.MatchInput{TeamA: a.ID, TeamB: b.ID, ScoreA: 1, ScoreB: 0})
	require.NoError(t, err)

	in := models.MatchInput{ID: first.ID, TeamA: a.ID, TeamB: b.ID, ScoreA: 3, ScoreB: 3}
	second, err := env.matches.Upsert(ctx, in)
	require.NoError(t, err)
	third, err := env.matches.Upsert(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, second, third)

	all, err := env.matches.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 3, all[0].ScoreA)
	assert.Equal(t, 2, env.metrics.MatchWrites(metrics.OpUpdate))
}

func TestMatchValidate_DoesNotWrite(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	a := env.mustCreate(t, "A", "1", reg0800)
	b := env.mustCreate(t, "B", "1", reg0800)

	m, err := env.matches.Validate(ctx, models.MatchInput{TeamA: a.ID, TeamB: b.ID, ScoreA: 0, ScoreB: 0})
	require.NoError(t, err)
	assert.Equal(t, a.ID, m.TeamA)

	all, err := env.matches.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMatchFindByTeamAndDelete(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	a := env.mustCreate(t, "A", "1", reg0800)
	b := env.mustCreate(t, "B", "1", reg0800)
	c := env.mustCreate(t, "C", "1", reg0800)

	m1, err := env.matches.Upsert(ctx, models.MatchInput{TeamA: a.ID, TeamB: b.ID, ScoreA: 1, ScoreB: 0})
	require.NoError(t, err)
	_, err = env.matches.Upsert(ctx, models.MatchInput{TeamA: c.ID, TeamB: a.ID, ScoreA: 1, ScoreB: 0})
	require.NoError(t, err)
	_, err = env.matches.Upsert(ctx, models.MatchInput{TeamA: b.ID, TeamB: c.ID, ScoreA: 1, ScoreB: 0})
	require.NoError(t, err)

	forA, err := env.matches.FindByTeam(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, forA, 2)

	_, err = env.matches.FindByTeam(ctx, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	none, err := env.matches.FindByTeam(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, env.matches.Delete(ctx, m1.ID))
	assert.ErrorIs(t, env.matches.Delete(ctx, m1.ID), models.ErrNotFound)
	_, err = env.matches.Get(ctx, m1.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStats_LeaderboardUsesCache(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	x := env.mustCreate(t, "X", "1", reg0800)
	y := env.mustCreate(t, "Y", "1", reg0800.Add(5*time.Minute))
	z := env.mustCreate(t, "Z", "1", reg0800.Add(10*time.Minute))

	// X and Y tie on 4 points and 8 altPoints, X registered first
	for _, in := range []models.MatchInput{
		{TeamA: x.ID, TeamB: z.ID, ScoreA: 2, ScoreB: 0},
		{TeamA: y.ID, TeamB: z.ID, ScoreA: 1, ScoreB: 0},
		{TeamA: x.ID, TeamB: y.ID, ScoreA: 1, ScoreB: 1},
	} {
		_, err := env.matches.Upsert(ctx, in)
		require.NoError(t, err)
	}

	board, err := env.stats.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board["1"], 3)
	assert.Equal(t, 4, board["1"][0].Points)
	assert.Equal(t, 8, board["1"][0].AltPoints)
	assert.Equal(t, []string{x.ID, y.ID, z.ID}, []string{board["1"][0].TeamID, board["1"][1].TeamID, board["1"][2].TeamID})
	assert.Equal(t, 1, env.metrics.CacheMisses())

	_, err = env.stats.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, env.metrics.CacheHits())
	assert.Equal(t, 1, env.metrics.LeaderboardComputations())

	// a write drops the snapshot
	_, err = env.matches.Upsert(ctx, models.MatchInput{TeamA: z.ID, TeamB: y.ID, ScoreA: 5, ScoreB: 0})
	require.NoError(t, err)
	board, err = env.stats.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, y.ID, board["1"][0].TeamID) // a loss still adds an altPoint
	assert.Equal(t, 9, board["1"][0].AltPoints)
	assert.Equal(t, 2, env.metrics.CacheMisses())
}

func TestStats_CacheReadFailureFallsBack(t *testing.T) {
	env := setupServices(t)
	env.cache.getErr = errors.New("redis down")
	env.mustCreate(t, "A", "1", reg0800)

	board, err := env.stats.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.Len(t, board["1"], 1)
}

func TestStats_GroupAndMissing(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.mustCreate(t, "A", "1", reg0800)

	standings, err := env.stats.Group(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, standings, 1)

	_, err = env.stats.Group(ctx, "9")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = env.stats.TeamStats(ctx, "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStats_DeletedTeamDropsFromLeaderboard(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	a := env.mustCreate(t, "A", "1", reg0800)
	b := env.mustCreate(t, "B", "1", reg0800)
	_, err := env.matches.Upsert(ctx, models.MatchInput{TeamA: a.ID, TeamB: b.ID, ScoreA: 0, ScoreB: 3})
	require.NoError(t, err)
	require.NoError(t, env.teams.Delete(ctx, b.ID))

	board, err := env.stats.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board["1"], 1)
	assert.Equal(t, a.ID, board["1"][0].TeamID)
	// the survivor keeps its record against the removed team
	assert.Equal(t, 1, board["1"][0].Losses)
	assert.Equal(t, 1, board["1"][0].TotalMatches)
}

func TestStats_WriteDuringRefreshIsNotMasked(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	a := env.mustCreate(t, "A", "1", reg0800)
	b := env.mustCreate(t, "B", "1", reg0800.Add(5*time.Minute))

	env.cache.beforeSet = func() {
		_, err := env.matches.Upsert(ctx, models.MatchInput{TeamA: a.ID, TeamB: b.ID, ScoreA: 2, ScoreB: 0})
		require.NoError(t, err)
	}
	stale, err := env.stats.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stale["1"][0].Points)

	board, err := env.stats.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board["1"], 2)
	assert.Equal(t, a.ID, board["1"][0].TeamID)
	assert.Equal(t, 3, board["1"][0].Points)
	assert.Equal(t, 2, env.metrics.CacheMisses())
}

// conflictStore fails every transaction the way an exhausted retry does.
type conflictStore struct{ *docstore.MemoryStore }

func (conflictStore) RunTransaction(context.Context, docstore.TxFunc) error {
	return fmt.Errorf("%w after 3 attempts: write conflict", docstore.ErrConflict)
}

func TestTeamUpsert_ConflictSurfaces(t *testing.T) {
	s := conflictStore{docstore.NewMemoryStore()}
	m := metrics.NewMock()
	ts := NewTeamService(s, ledger.New(s, m), &fakeCache{}, m)

	_, err := ts.Upsert(context.Background(), models.Team{Group: "1"})
	assert.ErrorIs(t, err, docstore.ErrConflict)
	assert.Equal(t, 0, m.TeamWrites(metrics.OpCreate))
}

func TestTeamRecordFields(t *testing.T) {
	env := setupServices(t)
	a := env.mustCreate(t, "A", "1", reg0800)

	var raw map[string]any
	require.NoError(t, env.store.Get(context.Background(), store.TeamsCollection, a.ID, &raw))
	assert.Equal(t, a.ID, raw["_id"])
	assert.ElementsMatch(t, []string{"_id", "name", "registeredAt", "group"}, keys(raw))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
