// shared/service/leagueclient.go
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/api"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

// LeagueServiceClient talks to the league service HTTP API.
type LeagueServiceClient struct {
	apiClient *api.Client
}

func NewLeagueClient(baseURL string) *LeagueServiceClient {
	return &LeagueServiceClient{
		apiClient: api.NewClient(baseURL, api.NewDefaultHTTPClient()),
	}
}

// TeamRequest mirrors the body accepted by POST and PUT /teams.
type TeamRequest struct {
	Name         string    `json:"name,omitempty"`
	Group        string    `json:"group"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func (c *LeagueServiceClient) Health(ctx context.Context) error {
	var out map[string]string
	if err := c.apiClient.Get(ctx, "/health", &out); err != nil {
		return fmt.Errorf("league service health check failed: %w", err)
	}
	return nil
}

func (c *LeagueServiceClient) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := c.apiClient.Get(ctx, "/teams", &teams); err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// GetTeam returns api.ErrNotFound when the team does not exist.
func (c *LeagueServiceClient) GetTeam(ctx context.Context, id string) (models.Team, error) {
	var team models.Team
	err := c.apiClient.GetQuery(ctx, "/teams", url.Values{"id": {id}}, &team)
	if err != nil {
		return models.Team{}, wrapLookup(err, "team", id)
	}
	return team, nil
}

func (c *LeagueServiceClient) CreateTeam(ctx context.Context, req TeamRequest) (models.Team, error) {
	var team models.Team
	if err := c.apiClient.Post(ctx, "/teams", req, &team); err != nil {
		return models.Team{}, fmt.Errorf("failed to create team in group %q: %w", req.Group, err)
	}
	return team, nil
}

func (c *LeagueServiceClient) UpdateTeam(ctx context.Context, id string, req TeamRequest) (models.Team, error) {
	var team models.Team
	if err := c.apiClient.Put(ctx, "/teams?"+url.Values{"id": {id}}.Encode(), req, &team); err != nil {
		return models.Team{}, wrapLookup(err, "team", id)
	}
	return team, nil
}

func (c *LeagueServiceClient) DeleteTeam(ctx context.Context, id string) error {
	if err := c.apiClient.Delete(ctx, "/teams?"+url.Values{"id": {id}}.Encode()); err != nil {
		return wrapLookup(err, "team", id)
	}
	return nil
}

// RecordMatch creates a match, or replaces it when in.ID is set.
func (c *LeagueServiceClient) RecordMatch(ctx context.Context, in models.MatchInput) (models.Match, error) {
	var match models.Match
	var err error
	if in.ID == "" {
		err = c.apiClient.Post(ctx, "/matches", in, &match)
	} else {
		err = c.apiClient.Put(ctx, "/matches?"+url.Values{"id": {in.ID}}.Encode(), in, &match)
	}
	if err != nil {
		return models.Match{}, fmt.Errorf("failed to record match %s vs %s: %w", in.TeamA, in.TeamB, err)
	}
	return match, nil
}

func (c *LeagueServiceClient) MatchesByTeam(ctx context.Context, teamID string) ([]models.Match, error) {
	var matches []models.Match
	if err := c.apiClient.GetQuery(ctx, "/matches/by-team", url.Values{"teamId": {teamID}}, &matches); err != nil {
		return nil, fmt.Errorf("failed to find matches for team %s: %w", teamID, err)
	}
	return matches, nil
}

func (c *LeagueServiceClient) TeamStats(ctx context.Context, teamID string) (models.TeamStat, error) {
	var stat models.TeamStat
	if err := c.apiClient.GetQuery(ctx, "/matches/team-stats", url.Values{"teamId": {teamID}}, &stat); err != nil {
		return models.TeamStat{}, wrapLookup(err, "team", teamID)
	}
	return stat, nil
}

func (c *LeagueServiceClient) Leaderboard(ctx context.Context) (models.Leaderboard, error) {
	board := models.Leaderboard{}
	if err := c.apiClient.Get(ctx, "/matches/team-stats", &board); err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	return board, nil
}

func (c *LeagueServiceClient) Groups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := c.apiClient.Get(ctx, "/groups", &groups); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func wrapLookup(err error, entity, id string) error {
	if errors.Is(err, api.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}
	return fmt.Errorf("league service request for %s %s failed: %w", entity, id, err)
}
