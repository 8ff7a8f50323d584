package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/squadsync/internal/api/respond"
	"github.com/albapepper/squadsync/internal/seed"
)

// startImport runs (or joins) the import of code. Imports run under the
// server context so a disconnecting client does not abort a shared run.
func (h *Handler) startImport(code string) <-chan singleflightResult {
	out := make(chan singleflightResult, 1)
	ch := h.imports.DoChan(code, func() (any, error) {
		report, err := h.importer.Import(h.ctx, code)
		if err != nil {
			return nil, err
		}
		n := h.cache.Flush()
		h.logger.Info("Cache flushed after import", "league", code, "entries", n)
		return report, nil
	})
	go func() {
		res := <-ch
		report, _ := res.Val.(*seed.Report)
		out <- singleflightResult{report: report, err: res.Err, shared: res.Shared}
	}()
	return out
}

type singleflightResult struct {
	report *seed.Report
	err    error
	shared bool
}

// ImportAccepted acknowledges a background import. Progress is read from
// StatusURL once the run has started.
type ImportAccepted struct {
	LeagueCode string `json:"leagueCode"`
	Status     string `json:"status"`
	StatusURL  string `json:"statusUrl"`
}

// ImportLeague imports a league from the upstream source.
// @Summary Import a league
// @Description Fetches the competition, its teams and their squads and reconciles them into the store.
// @Description With async=true the import runs in the background and 202 acknowledges it; poll /api/v1/imports/status.
// @Tags imports
// @Produce json
// @Param leagueCode path string true "League code, e.g. PL"
// @Param async query bool false "Run in the background"
// @Success 200 {object} model.Competition
// @Success 202 {object} handler.ImportAccepted
// @Failure 404 {object} respond.ErrorResponse
// @Failure 429 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Failure 504 {object} respond.ErrorResponse
// @Router /api/v1/imports/{leagueCode} [post]
func (h *Handler) ImportLeague(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "leagueCode")))
	if code == "" {
		respond.Error(w, r, http.StatusBadRequest, "INVALID_LEAGUE", "League code is required", "")
		return
	}

	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	done := h.startImport(code)

	if async {
		go func() {
			res := <-done
			if res.err != nil {
				h.logger.Warn("Background import failed", "league", code, "error", res.err)
			}
		}()
		respond.Object(w, http.StatusAccepted, ImportAccepted{
			LeagueCode: code,
			Status:     "accepted",
			StatusURL:  "/api/v1/imports/status",
		})
		return
	}

	select {
	case res := <-done:
		if res.err != nil {
			writeError(w, r, h.logger, res.err)
			return
		}
		if res.report.RunID != "" {
			w.Header().Set("X-Import-Run-Id", res.report.RunID)
		}
		if res.shared {
			w.Header().Set("X-Import-Shared", "true")
		}
		respond.Object(w, http.StatusOK, res.report.Competition)
	case <-r.Context().Done():
		h.logger.Info("Client left before import finished", "league", code)
	}
}

// ImportStatus returns the tracker snapshot.
// @Summary Import status
// @Tags imports
// @Produce json
// @Success 200 {object} status.ImportStatus
// @Router /api/v1/imports/status [get]
func (h *Handler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	respond.Object(w, http.StatusOK, h.tracker.Status())
}
