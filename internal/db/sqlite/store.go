// Package sqlite provides a SQLite-backed entity store on modernc.org/sqlite.
// It backs single-node deployments and the importer tests.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/albapepper/squadsync/internal/db/migrate"
	"github.com/albapepper/squadsync/internal/model"
	"github.com/albapepper/squadsync/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// maxFileConns bounds the pool of a file-backed store. SQLite still admits a
// single writer; the other connections serve reads.
const maxFileConns = 4

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists the entity graph in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens a SQLite store and applies embedded migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != MemoryPath {
		// WAL lets readers see the last commit while an import holds the
		// write transaction open between paced squad requests.
		dsn = filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" +
			"&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == MemoryPath {
		// Each connection would get its own private database.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(maxFileConns)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrations fs: %w", err)
	}
	if _, err := migrate.Up(ctx, goose.DialectSQLite3, sqlDB, sub, logger); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.sqlDB.PingContext(ctx) }

func (s *Store) Close() { _ = s.sqlDB.Close() }

// RunInTx commits if fn returns nil and rolls back otherwise.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, &sqliteTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// -------------------------------------------------------------------------
// Reader
// -------------------------------------------------------------------------

func (s *Store) Competitions(ctx context.Context) ([]model.Competition, error) {
	out, err := queryCompetitions(ctx, s.sqlDB, "SELECT id, name, code, area_name FROM competitions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	for i := range out {
		out[i].Teams = []model.Team{}
	}
	return out, nil
}

func (s *Store) Teams(ctx context.Context) ([]model.Team, error) {
	out, err := queryTeams(ctx, s.sqlDB, "SELECT "+teamColumns+" FROM teams t ORDER BY t.id")
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return out, nil
}

func (s *Store) Players(ctx context.Context) ([]model.Player, error) {
	out, err := queryPlayers(ctx, s.sqlDB, "SELECT "+playerColumns+" FROM players ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return out, nil
}

func (s *Store) Coaches(ctx context.Context) ([]model.Coach, error) {
	out, err := queryCoaches(ctx, s.sqlDB, "SELECT "+coachColumns+" FROM coaches ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list coaches: %w", err)
	}
	return out, nil
}

func (s *Store) CompetitionGraph(ctx context.Context, code string) (*model.Competition, error) {
	return competitionGraph(ctx, s.sqlDB, code)
}

func (s *Store) TeamByName(ctx context.Context, name string) (*model.Team, error) {
	t, err := teamByName(ctx, s.sqlDB, name)
	if err != nil {
		return nil, err
	}
	teams := []model.Team{*t}
	if err := attachPeople(ctx, s.sqlDB, teams); err != nil {
		return nil, err
	}
	return &teams[0], nil
}

func (s *Store) PlayersByLeague(ctx context.Context, code, teamName string) ([]model.Player, error) {
	c, err := competitionGraph(ctx, s.sqlDB, code)
	if err != nil {
		return nil, err
	}
	players := []model.Player{}
	for _, t := range c.Teams {
		if teamName == "" || t.Name == teamName {
			players = append(players, t.Players...)
		}
	}
	return players, nil
}

func (s *Store) CoachesByLeague(ctx context.Context, code, teamName string) ([]model.Coach, error) {
	c, err := competitionGraph(ctx, s.sqlDB, code)
	if err != nil {
		return nil, err
	}
	coaches := []model.Coach{}
	for _, t := range c.Teams {
		if teamName == "" || t.Name == teamName {
			coaches = append(coaches, t.Coaches...)
		}
	}
	if len(coaches) > 0 || teamName == "" {
		return coaches, nil
	}

	coaches, err = queryCoaches(ctx, s.sqlDB,
		`SELECT c.id, c.team_id, c.name, c.date_of_birth, c.nationality
		   FROM coaches c JOIN teams t ON t.id = c.team_id
		  WHERE t.name = ? ORDER BY c.id`, teamName)
	if err != nil {
		return nil, fmt.Errorf("coaches by team name: %w", err)
	}
	return coaches, nil
}

// -------------------------------------------------------------------------
// Shared queries
// -------------------------------------------------------------------------

const (
	teamColumns   = "t.id, t.name, t.tla, t.short_name, t.area_name, t.address"
	playerColumns = "id, team_id, name, position, date_of_birth, nationality"
	coachColumns  = "id, team_id, name, date_of_birth, nationality"
)

func competitionByCode(ctx context.Context, q queryer, code string) (*model.Competition, error) {
	var c model.Competition
	err := q.QueryRowContext(ctx,
		"SELECT id, name, code, area_name FROM competitions WHERE code = ?", code,
	).Scan(&c.ID, &c.Name, &c.Code, &c.AreaName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("competition by code: %w", err)
	}

	c.Teams, err = queryTeams(ctx, q,
		`SELECT `+teamColumns+` FROM teams t
		   JOIN competition_teams ct ON ct.team_id = t.id
		  WHERE ct.competition_id = ? ORDER BY t.id`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("competition teams: %w", err)
	}
	return &c, nil
}

func competitionGraph(ctx context.Context, q queryer, code string) (*model.Competition, error) {
	c, err := competitionByCode(ctx, q, code)
	if err != nil {
		return nil, err
	}
	if err := attachPeople(ctx, q, c.Teams); err != nil {
		return nil, err
	}
	return c, nil
}

func teamByName(ctx context.Context, q queryer, name string) (*model.Team, error) {
	teams, err := queryTeams(ctx, q, "SELECT "+teamColumns+" FROM teams t WHERE t.name = ?", name)
	if err != nil {
		return nil, fmt.Errorf("team by name: %w", err)
	}
	if len(teams) == 0 {
		return nil, store.ErrNotFound
	}
	t := teams[0]

	t.Competitions, err = queryCompetitions(ctx, q,
		`SELECT c.id, c.name, c.code, c.area_name FROM competitions c
		   JOIN competition_teams ct ON ct.competition_id = c.id
		  WHERE ct.team_id = ? ORDER BY c.id`, t.ID)
	if err != nil {
		return nil, fmt.Errorf("team competitions: %w", err)
	}
	return &t, nil
}

// attachPeople loads players and coaches for every team in two queries.
func attachPeople(ctx context.Context, q queryer, teams []model.Team) error {
	if len(teams) == 0 {
		return nil
	}
	ids := make([]any, len(teams))
	index := make(map[int64]int, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
		index[t.ID] = i
	}
	in := placeholders(len(ids))

	players, err := queryPlayers(ctx, q,
		"SELECT "+playerColumns+" FROM players WHERE team_id IN ("+in+") ORDER BY team_id, id", ids...)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	for _, p := range players {
		t := &teams[index[p.TeamID]]
		t.Players = append(t.Players, p)
	}

	coaches, err := queryCoaches(ctx, q,
		"SELECT "+coachColumns+" FROM coaches WHERE team_id IN ("+in+") ORDER BY team_id, id", ids...)
	if err != nil {
		return fmt.Errorf("load coaches: %w", err)
	}
	for _, c := range coaches {
		t := &teams[index[c.TeamID]]
		t.Coaches = append(t.Coaches, c)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// -------------------------------------------------------------------------
// Row scanners
// -------------------------------------------------------------------------

func queryCompetitions(ctx context.Context, q queryer, query string, args ...any) ([]model.Competition, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Competition{}
	for rows.Next() {
		var c model.Competition
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.AreaName); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func queryTeams(ctx context.Context, q queryer, query string, args ...any) ([]model.Team, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Team{}
	for rows.Next() {
		t := model.Team{Players: []model.Player{}, Coaches: []model.Coach{}}
		if err := rows.Scan(&t.ID, &t.Name, &t.TLA, &t.ShortName, &t.AreaName, &t.Address); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func queryPlayers(ctx context.Context, q queryer, query string, args ...any) ([]model.Player, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Player{}
	for rows.Next() {
		var (
			p   model.Player
			dob sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.TeamID, &p.Name, &p.Position, &dob, &p.Nationality); err != nil {
			return nil, err
		}
		p.DateOfBirth = fromNull(dob)
		out = append(out, p)
	}
	return out, rows.Err()
}

func queryCoaches(ctx context.Context, q queryer, query string, args ...any) ([]model.Coach, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Coach{}
	for rows.Next() {
		var (
			c   model.Coach
			dob sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.TeamID, &c.Name, &dob, &c.Nationality); err != nil {
			return nil, err
		}
		c.DateOfBirth = fromNull(dob)
		out = append(out, c)
	}
	return out, rows.Err()
}

func fromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func toNull(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// mapWriteErr turns a unique violation into store.ErrConflict.
func mapWriteErr(op string, err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%s: %w", op, store.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
