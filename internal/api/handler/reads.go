package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/squadsync/internal/api/respond"
	"github.com/albapepper/squadsync/internal/cache"
)

// serveCached serves key from the cache, or runs load, encodes its result
// and caches it.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, load func(ctx context.Context) (any, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		respond.Cached(w, r, data, etag, cache.TTLReference, true)
		return
	}

	v, err := load(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("encode %s: %w", key, err))
		return
	}

	etag := h.cache.Set(key, data, cache.TTLReference)
	respond.Cached(w, r, data, etag, cache.TTLReference, false)
}

// ListCompetitions returns every stored competition.
// @Summary List competitions
// @Tags competitions
// @Produce json
// @Success 200 {array} model.Competition
// @Router /api/v1/competitions [get]
func (h *Handler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "competitions", func(ctx context.Context) (any, error) {
		return h.store.Competitions(ctx)
	})
}

// GetCompetition returns a competition with its teams, players and coaches.
// @Summary Competition graph
// @Tags competitions
// @Produce json
// @Param code path string true "League code, e.g. PL"
// @Success 200 {object} model.Competition
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/competitions/{code} [get]
func (h *Handler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	h.serveCached(w, r, "competition:"+code, func(ctx context.Context) (any, error) {
		return h.store.CompetitionGraph(ctx, code)
	})
}

// ListTeams returns every stored team.
// @Summary List teams
// @Tags teams
// @Produce json
// @Success 200 {array} model.Team
// @Router /api/v1/teams [get]
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "teams", func(ctx context.Context) (any, error) {
		return h.store.Teams(ctx)
	})
}

// GetTeam returns a team with its players, coaches and competitions.
// @Summary Team detail
// @Tags teams
// @Produce json
// @Param name path string true "Team name"
// @Success 200 {object} model.Team
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/teams/{name} [get]
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	h.serveCached(w, r, "team:"+name, func(ctx context.Context) (any, error) {
		return h.store.TeamByName(ctx, name)
	})
}

// ListPlayers returns every stored player.
// @Summary List players
// @Tags people
// @Produce json
// @Success 200 {array} model.Player
// @Router /api/v1/players [get]
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "players", func(ctx context.Context) (any, error) {
		return h.store.Players(ctx)
	})
}

// ListCoaches returns every stored coach.
// @Summary List coaches
// @Tags people
// @Produce json
// @Success 200 {array} model.Coach
// @Router /api/v1/coaches [get]
func (h *Handler) ListCoaches(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "coaches", func(ctx context.Context) (any, error) {
		return h.store.Coaches(ctx)
	})
}

// LeaguePlayers returns the players of a league, optionally one team.
// @Summary Players by league
// @Tags people
// @Produce json
// @Param code path string true "League code"
// @Param team query string false "Restrict to one team name"
// @Success 200 {array} model.Player
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/competitions/{code}/players [get]
func (h *Handler) LeaguePlayers(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	team := r.URL.Query().Get("team")
	h.serveCached(w, r, "competition:"+code+":players:"+team, func(ctx context.Context) (any, error) {
		return h.store.PlayersByLeague(ctx, code, team)
	})
}

// LeagueCoaches returns the coaches of a league, optionally one team.
// @Summary Coaches by league
// @Tags people
// @Produce json
// @Param code path string true "League code"
// @Param team query string false "Restrict to one team name"
// @Success 200 {array} model.Coach
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/competitions/{code}/coaches [get]
func (h *Handler) LeagueCoaches(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	team := r.URL.Query().Get("team")
	h.serveCached(w, r, "competition:"+code+":coaches:"+team, func(ctx context.Context) (any, error) {
		return h.store.CoachesByLeague(ctx, code, team)
	})
}
