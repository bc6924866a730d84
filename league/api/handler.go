// league/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/Ftotnem/LEAGUE-SERVICES/league/ledger"
	"github.com/Ftotnem/LEAGUE-SERVICES/league/service"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/api"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
)

const requestTimeout = 5 * time.Second

// LeagueAPIHandlers exposes the league services over HTTP.
type LeagueAPIHandlers struct {
	Teams   *service.TeamService
	Matches *service.MatchService
	Stats   *service.StatsService
	Ledger  *ledger.Ledger
	Metrics http.Handler
}

func NewLeagueAPIHandlers(ts *service.TeamService, ms *service.MatchService, ss *service.StatsService, l *ledger.Ledger, metricsHandler http.Handler) *LeagueAPIHandlers {
	return &LeagueAPIHandlers{
		Teams:   ts,
		Matches: ms,
		Stats:   ss,
		Ledger:  l,
		Metrics: metricsHandler,
	}
}

// TeamRequest is the body of POST and PUT /teams.
type TeamRequest struct {
	Name         string    `json:"name,omitempty"`
	Group        string    `json:"group"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func (lah *LeagueAPIHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", lah.HealthHandler).Methods("GET")
	if lah.Metrics != nil {
		router.Handle("/metrics", lah.Metrics).Methods("GET")
	}

	router.HandleFunc("/teams", lah.GetTeamsHandler).Methods("GET")
	router.HandleFunc("/teams", lah.CreateTeamHandler).Methods("POST")
	router.HandleFunc("/teams", lah.UpdateTeamHandler).Methods("PUT")
	router.HandleFunc("/teams", lah.DeleteTeamHandler).Methods("DELETE")

	router.HandleFunc("/matches/by-team", lah.MatchesByTeamHandler).Methods("GET")
	router.HandleFunc("/matches/team-stats", lah.TeamStatsHandler).Methods("GET")
	router.HandleFunc("/matches", lah.GetMatchesHandler).Methods("GET")
	router.HandleFunc("/matches", lah.CreateMatchHandler).Methods("POST")
	router.HandleFunc("/matches", lah.UpdateMatchHandler).Methods("PUT")
	router.HandleFunc("/matches", lah.DeleteMatchHandler).Methods("DELETE")

	router.HandleFunc("/groups", lah.GroupsHandler).Methods("GET")
}

func (lah *LeagueAPIHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetTeamsHandler returns one team when ?id= is given, the teams of one
// group for ?group=, otherwise all teams.
// GET /teams[?id=|?group=]
func (lah *LeagueAPIHandlers) GetTeamsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if id := r.URL.Query().Get("id"); id != "" {
		team, err := lah.Teams.Get(ctx, id)
		if err != nil {
			writeServiceError(w, err, "Failed to retrieve team")
			return
		}
		api.WriteJSON(w, http.StatusOK, team)
		return
	}

	var (
		teams []models.Team
		err   error
	)
	if group := r.URL.Query().Get("group"); group != "" {
		teams, err = lah.Teams.ListByGroup(ctx, group)
	} else {
		teams, err = lah.Teams.List(ctx)
	}
	if err != nil {
		writeServiceError(w, err, "Failed to list teams")
		return
	}
	api.WriteJSON(w, http.StatusOK, teams)
}

// POST /teams
func (lah *LeagueAPIHandlers) CreateTeamHandler(w http.ResponseWriter, r *http.Request) {
	var req TeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	team, err := lah.Teams.Upsert(ctx, models.Team{Name: req.Name, Group: req.Group, RegisteredAt: req.RegisteredAt})
	if err != nil {
		writeServiceError(w, err, "Failed to create team")
		return
	}
	api.WriteJSON(w, http.StatusCreated, team)
}

// PUT /teams?id=
func (lah *LeagueAPIHandlers) UpdateTeamHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "id")
	if !ok {
		return
	}
	var req TeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	team, err := lah.Teams.Upsert(ctx, models.Team{ID: id, Name: req.Name, Group: req.Group, RegisteredAt: req.RegisteredAt})
	if err != nil {
		writeServiceError(w, err, "Failed to update team")
		return
	}
	api.WriteJSON(w, http.StatusOK, team)
}

// DELETE /teams?id=
func (lah *LeagueAPIHandlers) DeleteTeamHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := lah.Teams.Delete(ctx, id); err != nil {
		writeServiceError(w, err, "Failed to delete team")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /matches[?id=]
func (lah *LeagueAPIHandlers) GetMatchesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if id := r.URL.Query().Get("id"); id != "" {
		match, err := lah.Matches.Get(ctx, id)
		if err != nil {
			writeServiceError(w, err, "Failed to retrieve match")
			return
		}
		api.WriteJSON(w, http.StatusOK, match)
		return
	}

	matches, err := lah.Matches.List(ctx)
	if err != nil {
		writeServiceError(w, err, "Failed to list matches")
		return
	}
	api.WriteJSON(w, http.StatusOK, matches)
}

// GET /matches/by-team?teamId=
func (lah *LeagueAPIHandlers) MatchesByTeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID, ok := requireID(w, r, "teamId")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	matches, err := lah.Matches.FindByTeam(ctx, teamID)
	if err != nil {
		writeServiceError(w, err, "Failed to find matches")
		return
	}
	api.WriteJSON(w, http.StatusOK, matches)
}

// POST /matches
func (lah *LeagueAPIHandlers) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeMatchInput(w, r)
	if !ok {
		return
	}
	// The id of a new match is always allocated by the store.
	in.ID = ""

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	match, err := lah.Matches.Upsert(ctx, in)
	if err != nil {
		writeServiceError(w, err, "Failed to create match")
		return
	}
	api.WriteJSON(w, http.StatusCreated, match)
}

// PUT /matches?id=
func (lah *LeagueAPIHandlers) UpdateMatchHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "id")
	if !ok {
		return
	}
	in, ok := decodeMatchInput(w, r)
	if !ok {
		return
	}
	in.ID = id

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	match, err := lah.Matches.Upsert(ctx, in)
	if err != nil {
		writeServiceError(w, err, "Failed to update match")
		return
	}
	api.WriteJSON(w, http.StatusOK, match)
}

// DELETE /matches?id=
func (lah *LeagueAPIHandlers) DeleteMatchHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := lah.Matches.Delete(ctx, id); err != nil {
		writeServiceError(w, err, "Failed to delete match")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TeamStatsHandler returns a single TeamStat for ?teamId=, or the whole
// leaderboard keyed by group.
// GET /matches/team-stats[?teamId=]
func (lah *LeagueAPIHandlers) TeamStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if teamID := r.URL.Query().Get("teamId"); teamID != "" {
		stat, err := lah.Stats.TeamStats(ctx, teamID)
		if err != nil {
			writeServiceError(w, err, "Failed to compute team stats")
			return
		}
		api.WriteJSON(w, http.StatusOK, stat)
		return
	}

	board, err := lah.Stats.Leaderboard(ctx)
	if err != nil {
		writeServiceError(w, err, "Failed to compute leaderboard")
		return
	}
	api.WriteJSON(w, http.StatusOK, board)
}

// GET /groups
func (lah *LeagueAPIHandlers) GroupsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	groups, err := lah.Ledger.List(ctx)
	if err != nil {
		writeServiceError(w, err, "Failed to list groups")
		return
	}
	api.WriteJSON(w, http.StatusOK, groups)
}

func requireID(w http.ResponseWriter, r *http.Request, param string) (string, bool) {
	id := r.URL.Query().Get(param)
	if id == "" {
		api.WriteBadRequest(w, param+" query parameter is required")
		return "", false
	}
	return id, true
}

// decodeMatchInput keeps numbers as json.Number so that fractional or
// oversized scores reach validation instead of being silently truncated.
func decodeMatchInput(w http.ResponseWriter, r *http.Request) (models.MatchInput, bool) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var in models.MatchInput
	if err := dec.Decode(&in); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return models.MatchInput{}, false
	}
	return in, true
}

// writeServiceError maps the league error kinds onto status codes.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		api.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrNotFound):
		api.WriteNotFound(w, err.Error())
	default:
		log.Error(fallback, "err", err)
		api.WriteInternalServerError(w, fallback)
	}
}
