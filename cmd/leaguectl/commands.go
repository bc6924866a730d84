package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/service"
)

var seedEpoch = time.Date(2024, 9, 29, 8, 0, 0, 0, time.UTC)

// seedMatches pairs seed teams by index, always inside one group.
var seedMatches = []struct {
	a, b           int
	scoreA, scoreB int
}{
	{0, 1, 2, 1},
	{2, 3, 1, 1},
	{4, 5, 0, 3},
	{6, 7, 2, 2},
	{8, 9, 1, 0},
	{10, 11, 3, 4},
}

func newSeedCmd(opts *cliOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Register twelve sample teams in two groups and six matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := opts.openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			existing, err := env.teams.List(ctx)
			if err != nil {
				return err
			}
			if len(existing) > 0 && !force {
				return fmt.Errorf("store already holds %d teams, pass --force to seed anyway", len(existing))
			}

			teams := make([]models.Team, 0, 12)
			for i := 0; i < 12; i++ {
				group := "1"
				if i >= 6 {
					group = "2"
				}
				team, err := env.teams.Upsert(ctx, models.Team{
					Name:         string(rune('A' + i)),
					Group:        group,
					RegisteredAt: seedEpoch.Add(time.Duration(i) * 5 * time.Minute),
				})
				if err != nil {
					return fmt.Errorf("failed to seed team %c: %w", 'A'+i, err)
				}
				teams = append(teams, team)
			}
			for _, sm := range seedMatches {
				_, err := env.matches.Upsert(ctx, models.MatchInput{
					TeamA:  teams[sm.a].ID,
					TeamB:  teams[sm.b].ID,
					ScoreA: sm.scoreA,
					ScoreB: sm.scoreB,
				})
				if err != nil {
					return fmt.Errorf("failed to seed match %s vs %s: %w", teams[sm.a].Name, teams[sm.b].Name, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d teams and %d matches\n", len(teams), len(seedMatches))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Seed even if teams already exist")
	return cmd
}

func newReconcileCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recount every group from the team records and repair drift",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := opts.openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			report, err := env.ledger.Reconcile(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, report)
			}
			if len(report.Fixed) == 0 {
				fmt.Fprintf(out, "Checked %d groups, no drift\n", report.Checked)
				return nil
			}
			t := newTable("GROUP", "STORED", "ACTUAL")
			for _, d := range report.Fixed {
				t.Row(d.Group, strconv.FormatInt(d.Stored, 10), strconv.FormatInt(d.Actual, 10))
			}
			fmt.Fprintf(out, "Checked %d groups, repaired %d\n%s\n", report.Checked, len(report.Fixed), t)
			return nil
		},
	}
}

func newLeaderboardCmd(opts *cliOptions) *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the standings of every group",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			board, err := opts.leaderboard(ctx, group)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, board)
			}
			for _, g := range board.Groups() {
				t := newTable("#", "TEAM", "P", "W", "D", "L", "PTS", "ALT", "REGISTERED")
				for i, s := range board[g] {
					t.Row(strconv.Itoa(i+1), s.TeamID, strconv.Itoa(s.TotalMatches),
						strconv.Itoa(s.Wins), strconv.Itoa(s.Draws), strconv.Itoa(s.Losses),
						strconv.Itoa(s.Points), strconv.Itoa(s.AltPoints), s.RegisteredAt.UTC().Format(time.RFC3339))
				}
				fmt.Fprintf(out, "Group %s\n%s\n", g, t)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Only print this group")
	return cmd
}

func (o *cliOptions) leaderboard(ctx context.Context, group string) (models.Leaderboard, error) {
	if o.url != "" {
		board, err := service.NewLeagueClient(o.url).Leaderboard(ctx)
		if err != nil {
			return nil, err
		}
		if group == "" {
			return board, nil
		}
		standings, ok := board[group]
		if !ok {
			return nil, models.NotFoundf("group %s not found", group)
		}
		return models.Leaderboard{group: standings}, nil
	}

	env, err := o.openEnv(ctx)
	if err != nil {
		return nil, err
	}
	defer env.Close()
	if group == "" {
		return env.stats.Leaderboard(ctx)
	}
	standings, err := env.stats.Group(ctx, group)
	if err != nil {
		return nil, err
	}
	return models.Leaderboard{group: standings}, nil
}

func newStatsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats TEAM_ID",
		Short: "Print one team's record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				stat models.TeamStat
				err  error
			)
			if opts.url != "" {
				stat, err = service.NewLeagueClient(opts.url).TeamStats(ctx, args[0])
			} else {
				var env *leagueEnv
				env, err = opts.openEnv(ctx)
				if err != nil {
					return err
				}
				defer env.Close()
				stat, err = env.stats.TeamStats(ctx, args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, stat)
			}
			t := newTable("TEAM", "GROUP", "P", "W", "D", "L", "PTS", "ALT").
				Row(stat.TeamID, stat.Group, strconv.Itoa(stat.TotalMatches), strconv.Itoa(stat.Wins),
					strconv.Itoa(stat.Draws), strconv.Itoa(stat.Losses), strconv.Itoa(stat.Points), strconv.Itoa(stat.AltPoints))
			fmt.Fprintln(out, t)
			return nil
		},
	}
}

func newGroupsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Print the group ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				groups []models.Group
				err    error
			)
			if opts.url != "" {
				groups, err = service.NewLeagueClient(opts.url).Groups(ctx)
			} else {
				var env *leagueEnv
				env, err = opts.openEnv(ctx)
				if err != nil {
					return err
				}
				defer env.Close()
				groups, err = env.ledger.List(ctx)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, groups)
			}
			t := newTable("GROUP", "TEAMS")
			for _, g := range groups {
				t.Row(g.ID, strconv.FormatInt(g.Count, 10))
			}
			fmt.Fprintln(out, t)
			return nil
		},
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
