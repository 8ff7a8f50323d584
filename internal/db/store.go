package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/squadsync/internal/model"
	"github.com/albapepper/squadsync/internal/store"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements store.Store on Postgres.
type Store struct {
	pool *Pool
}

var _ store.Store = (*Store)(nil)

// NewStore wraps an open pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.HealthCheck(ctx) }

func (s *Store) Close() { s.pool.Close() }

// RunInTx runs fn inside a read-committed transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

// -------------------------------------------------------------------------
// Reader
// -------------------------------------------------------------------------

func (s *Store) Competitions(ctx context.Context) ([]model.Competition, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name, code, area_name FROM competitions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanCompetition)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	for i := range out {
		out[i].Teams = []model.Team{}
	}
	return out, nil
}

func (s *Store) Teams(ctx context.Context) ([]model.Team, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+teamColumns+" FROM teams t ORDER BY t.id")
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanTeam)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return out, nil
}

func (s *Store) Players(ctx context.Context) ([]model.Player, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+playerColumns+" FROM players ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanPlayer)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return out, nil
}

func (s *Store) Coaches(ctx context.Context) ([]model.Coach, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+coachColumns+" FROM coaches ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list coaches: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanCoach)
	if err != nil {
		return nil, fmt.Errorf("list coaches: %w", err)
	}
	return out, nil
}

func (s *Store) CompetitionGraph(ctx context.Context, code string) (*model.Competition, error) {
	return competitionGraph(ctx, s.pool, code)
}

func (s *Store) TeamByName(ctx context.Context, name string) (*model.Team, error) {
	t, err := teamByName(ctx, s.pool, name)
	if err != nil {
		return nil, err
	}
	teams := []model.Team{*t}
	if err := attachPeople(ctx, s.pool, teams); err != nil {
		return nil, err
	}
	return &teams[0], nil
}

func (s *Store) PlayersByLeague(ctx context.Context, code, teamName string) ([]model.Player, error) {
	c, err := competitionGraph(ctx, s.pool, code)
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
	c, err := competitionGraph(ctx, s.pool, code)
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

	rows, err := s.pool.Query(ctx, stmtCoachesByTeamName, teamName)
	if err != nil {
		return nil, fmt.Errorf("coaches by team name: %w", err)
	}
	coaches, err = pgx.CollectRows(rows, scanCoach)
	if err != nil {
		return nil, fmt.Errorf("coaches by team name: %w", err)
	}
	return coaches, nil
}

// -------------------------------------------------------------------------
// Shared queries
// -------------------------------------------------------------------------

func competitionByCode(ctx context.Context, q querier, code string) (*model.Competition, error) {
	rows, err := q.Query(ctx, stmtCompetitionByCode, code)
	if err != nil {
		return nil, fmt.Errorf("competition by code: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCompetition)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("competition by code: %w", err)
	}

	rows, err = q.Query(ctx, stmtCompetitionTeams, c.ID)
	if err != nil {
		return nil, fmt.Errorf("competition teams: %w", err)
	}
	c.Teams, err = pgx.CollectRows(rows, scanTeam)
	if err != nil {
		return nil, fmt.Errorf("competition teams: %w", err)
	}
	return &c, nil
}

func competitionGraph(ctx context.Context, q querier, code string) (*model.Competition, error) {
	c, err := competitionByCode(ctx, q, code)
	if err != nil {
		return nil, err
	}
	if err := attachPeople(ctx, q, c.Teams); err != nil {
		return nil, err
	}
	return c, nil
}

func teamByName(ctx context.Context, q querier, name string) (*model.Team, error) {
	rows, err := q.Query(ctx, stmtTeamByName, name)
	if err != nil {
		return nil, fmt.Errorf("team by name: %w", err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTeam)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("team by name: %w", err)
	}

	rows, err = q.Query(ctx, stmtTeamCompetitions, t.ID)
	if err != nil {
		return nil, fmt.Errorf("team competitions: %w", err)
	}
	t.Competitions, err = pgx.CollectRows(rows, scanCompetition)
	if err != nil {
		return nil, fmt.Errorf("team competitions: %w", err)
	}
	return &t, nil
}

// attachPeople loads players and coaches for every team in two queries.
func attachPeople(ctx context.Context, q querier, teams []model.Team) error {
	if len(teams) == 0 {
		return nil
	}
	ids := make([]int64, len(teams))
	index := make(map[int64]int, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
		index[t.ID] = i
	}

	rows, err := q.Query(ctx, stmtPlayersByTeamIDs, ids)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	players, err := pgx.CollectRows(rows, scanPlayer)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	for _, p := range players {
		t := &teams[index[p.TeamID]]
		t.Players = append(t.Players, p)
	}

	rows, err = q.Query(ctx, stmtCoachesByTeamIDs, ids)
	if err != nil {
		return fmt.Errorf("load coaches: %w", err)
	}
	coaches, err := pgx.CollectRows(rows, scanCoach)
	if err != nil {
		return fmt.Errorf("load coaches: %w", err)
	}
	for _, c := range coaches {
		t := &teams[index[c.TeamID]]
		t.Coaches = append(t.Coaches, c)
	}
	return nil
}

// -------------------------------------------------------------------------
// Row scanners
// -------------------------------------------------------------------------

func scanCompetition(row pgx.CollectableRow) (model.Competition, error) {
	var c model.Competition
	err := row.Scan(&c.ID, &c.Name, &c.Code, &c.AreaName)
	return c, err
}

func scanTeam(row pgx.CollectableRow) (model.Team, error) {
	t := model.Team{Players: []model.Player{}, Coaches: []model.Coach{}}
	err := row.Scan(&t.ID, &t.Name, &t.TLA, &t.ShortName, &t.AreaName, &t.Address)
	return t, err
}

func scanPlayer(row pgx.CollectableRow) (model.Player, error) {
	var p model.Player
	err := row.Scan(&p.ID, &p.TeamID, &p.Name, &p.Position, &p.DateOfBirth, &p.Nationality)
	return p, err
}

func scanCoach(row pgx.CollectableRow) (model.Coach, error) {
	var c model.Coach
	err := row.Scan(&c.ID, &c.TeamID, &c.Name, &c.DateOfBirth, &c.Nationality)
	return c, err
}

// mapWriteErr turns a unique violation into store.ErrConflict.
func mapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, store.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
