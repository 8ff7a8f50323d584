package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/squadsync/internal/api/handler"
	"github.com/albapepper/squadsync/internal/api/respond"
	"github.com/albapepper/squadsync/internal/cache"
	"github.com/albapepper/squadsync/internal/config"
	"github.com/albapepper/squadsync/internal/db/sqlite"
	"github.com/albapepper/squadsync/internal/model"
	"github.com/albapepper/squadsync/internal/provider"
	"github.com/albapepper/squadsync/internal/seed"
	"github.com/albapepper/squadsync/internal/status"
	"github.com/albapepper/squadsync/internal/store"
)

type fakeImporter struct {
	mu     sync.Mutex
	codes  []string
	report *seed.Report
	err    error
	called chan string
}

func (f *fakeImporter) Import(_ context.Context, code string) (*seed.Report, error) {
	f.mu.Lock()
	f.codes = append(f.codes, code)
	f.mu.Unlock()
	if f.called != nil {
		f.called <- code
	}
	return f.report, f.err
}

type testServer struct {
	router   http.Handler
	store    store.Store
	cache    *cache.Cache
	importer *fakeImporter
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(context.Background(), sqlite.MemoryPath, logger)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	c := cache.New(true)
	t.Cleanup(c.Close)

	if cfg == nil {
		cfg = &config.Config{CORSAllowOrigins: []string{"*"}}
	}
	im := &fakeImporter{}
	router := NewRouter(context.Background(), cfg, Deps{
		Store:    st,
		Cache:    c,
		Importer: im,
		Tracker:  status.NewTracker(),
		Logger:   logger,
	})
	return &testServer{router: router, store: st, cache: c, importer: im}
}

func (s *testServer) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// seedLeague stores PL with Arsenal (two players, one coach) and Chelsea
// (no people).
func seedLeague(t *testing.T, st store.Store) {
	t.Helper()
	err := st.RunInTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		comp := &model.Competition{Name: "Premier League", Code: "PL", AreaName: "England"}
		if err := tx.CreateCompetition(ctx, comp); err != nil {
			return err
		}
		for _, name := range []string{"Arsenal FC", "Chelsea FC"} {
			team := &model.Team{Name: name, AreaName: "England"}
			if err := tx.CreateTeam(ctx, team); err != nil {
				return err
			}
			if err := tx.LinkTeam(ctx, comp.ID, team.ID); err != nil {
				return err
			}
			if name != "Arsenal FC" {
				continue
			}
			for _, p := range []string{"Bukayo Saka", "Declan Rice"} {
				if err := tx.CreatePlayer(ctx, &model.Player{TeamID: team.ID, Name: p, Position: "Midfield", Nationality: "England"}); err != nil {
					return err
				}
			}
			if err := tx.CreateCoach(ctx, &model.Coach{TeamID: team.ID, Name: "Mikel Arteta", Nationality: "Spain"}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) respond.ErrorResponse {
	t.Helper()
	var body respond.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRoot_And_Health(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"squadsync"`)
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))

	rec = s.do(t, http.MethodGet, "/health/db", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connected"`)

	rec = s.do(t, http.MethodGet, "/health/cache", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetCompetition_CachedWithETag(t *testing.T) {
	s := newTestServer(t, nil)
	seedLeague(t, s.store)

	rec := s.do(t, http.MethodGet, "/api/v1/competitions/pl", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	var comp model.Competition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comp))
	assert.Equal(t, "PL", comp.Code)
	require.Len(t, comp.Teams, 2)

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = s.do(t, http.MethodGet, "/api/v1/competitions/PL", nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = s.do(t, http.MethodGet, "/api/v1/competitions/PL", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestGetCompetition_NotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/competitions/XX", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Error.Code)
}

func TestListEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	seedLeague(t, s.store)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/competitions", 1},
		{"/api/v1/teams", 2},
		{"/api/v1/players", 2},
		{"/api/v1/coaches", 1},
		{"/api/v1/competitions/PL/players", 2},
		{"/api/v1/competitions/PL/players?team=Chelsea%20FC", 0},
		{"/api/v1/competitions/PL/coaches?team=Arsenal%20FC", 1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			var items []json.RawMessage
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
			assert.Len(t, items, tt.want)
		})
	}
}

func TestGetTeam(t *testing.T) {
	s := newTestServer(t, nil)
	seedLeague(t, s.store)

	rec := s.do(t, http.MethodGet, "/api/v1/teams/Arsenal%20FC", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var team model.Team
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &team))
	assert.Len(t, team.Players, 2)
	assert.Len(t, team.Coaches, 1)
	require.Len(t, team.Competitions, 1)
	assert.Equal(t, "PL", team.Competitions[0].Code)

	rec = s.do(t, http.MethodGet, "/api/v1/teams/Nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportLeague_Sync(t *testing.T) {
	s := newTestServer(t, nil)
	s.importer.report = &seed.Report{
		RunID:       "run-1",
		Competition: &model.Competition{ID: 1, Name: "Premier League", Code: "PL"},
		Duration:    time.Second,
	}
	s.cache.Set("competitions", []byte(`[]`), time.Hour)

	rec := s.do(t, http.MethodPost, "/api/v1/imports/pl", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "run-1", rec.Header().Get("X-Import-Run-Id"))
	assert.Equal(t, []string{"PL"}, s.importer.codes)

	var comp model.Competition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comp))
	assert.Equal(t, "Premier League", comp.Name)

	_, _, ok := s.cache.Get("competitions")
	assert.False(t, ok, "cache must be flushed after a successful import")
}

func TestImportLeague_ErrorMapping(t *testing.T) {
	retryAfter := 30
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", &provider.UpstreamError{Path: "/competitions/XX", StatusCode: 404, Message: "not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"rate limited", &provider.RateLimitedError{Path: "/teams/57", RetryAfter: &retryAfter}, http.StatusTooManyRequests, "UPSTREAM_RATE_LIMITED"},
		{"upstream", &provider.UpstreamError{Path: "/competitions/PL", StatusCode: 500, Message: "boom"}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"decode", &provider.DecodeError{Path: "/competitions/PL", Err: errors.New("bad json")}, http.StatusBadGateway, "UPSTREAM_DECODE"},
		{"transport", &provider.TransportError{Path: "/competitions/PL", Err: errors.New("dial")}, http.StatusGatewayTimeout, "UPSTREAM_UNREACHABLE"},
		{"other", errors.New("disk full"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			s.importer.err = tt.err

			rec := s.do(t, http.MethodPost, "/api/v1/imports/PL", nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Error.Code)
			if tt.wantStatus == http.StatusTooManyRequests {
				assert.Equal(t, "30", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestImportLeague_Async(t *testing.T) {
	s := newTestServer(t, nil)
	s.importer.called = make(chan string, 1)
	s.importer.report = &seed.Report{Competition: &model.Competition{Code: "SA"}}

	rec := s.do(t, http.MethodPost, "/api/v1/imports/sa?async=true", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body handler.ImportAccepted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SA", body.LeagueCode)
	assert.Equal(t, "accepted", body.Status)
	assert.Equal(t, "/api/v1/imports/status", body.StatusURL)

	select {
	case code := <-s.importer.called:
		assert.Equal(t, "SA", code)
	case <-time.After(2 * time.Second):
		t.Fatal("background import never started")
	}
}

func TestImportStatus(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/imports/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var st status.ImportStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.False(t, st.IsImporting)
	assert.Equal(t, status.PhaseIdle, st.Phase)
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, &config.Config{
		CORSAllowOrigins:  []string{"*"},
		RateLimitEnabled:  true,
		RateLimitRequests: 2,
		RateLimitWindow:   time.Hour,
	})

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil).Code)

	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
}
