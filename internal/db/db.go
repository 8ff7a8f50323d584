// Package db provides the Postgres entity store: a pgxpool-based connection
// pool with prepared statement registration, health checking and goose
// migrations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/squadsync/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, stmtHealthCheck).Scan(&n)
}

// Prepared statement names.
const (
	stmtHealthCheck = "health_check"

	stmtCompetitionByCode = "competition_by_code"
	stmtInsertCompetition = "insert_competition"
	stmtCompetitionTeams  = "competition_teams"

	stmtTeamByName        = "team_by_name"
	stmtInsertTeam        = "insert_team"
	stmtLinkTeam          = "link_team"
	stmtTeamCompetitions  = "team_competitions"
	stmtPlayersByTeamIDs  = "players_by_team_ids"
	stmtCoachesByTeamIDs  = "coaches_by_team_ids"
	stmtPlayerByName      = "player_by_name"
	stmtInsertPlayer      = "insert_player"
	stmtCoachByName       = "coach_by_name"
	stmtInsertCoach       = "insert_coach"
	stmtCountCoaches      = "count_coaches"
	stmtCoachesByTeamName = "coaches_by_team_name"
)

const (
	teamColumns   = "t.id, t.name, t.tla, t.short_name, t.area_name, t.address"
	playerColumns = "id, team_id, name, position, date_of_birth, nationality"
	coachColumns  = "id, team_id, name, date_of_birth, nationality"
)

// registerPreparedStatements registers all statements the store uses.
// Prepared statements eliminate parse overhead on every request and are
// visible to transactions started from the same connection.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		stmtHealthCheck: "SELECT 1",

		// Competitions
		stmtCompetitionByCode: "SELECT id, name, code, area_name FROM competitions WHERE code = $1",
		stmtInsertCompetition: "INSERT INTO competitions (name, code, area_name) VALUES ($1, $2, $3) RETURNING id",
		stmtCompetitionTeams: "SELECT " + teamColumns + " FROM teams t JOIN competition_teams ct ON ct.team_id = t.id " +
			"WHERE ct.competition_id = $1 ORDER BY t.id",

		// Teams
		stmtTeamByName: "SELECT " + teamColumns + " FROM teams t WHERE t.name = $1",
		stmtInsertTeam: "INSERT INTO teams (name, tla, short_name, area_name, address) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		stmtLinkTeam:   "INSERT INTO competition_teams (competition_id, team_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		stmtTeamCompetitions: "SELECT c.id, c.name, c.code, c.area_name FROM competitions c " +
			"JOIN competition_teams ct ON ct.competition_id = c.id WHERE ct.team_id = $1 ORDER BY c.id",

		// People
		stmtPlayersByTeamIDs:  "SELECT " + playerColumns + " FROM players WHERE team_id = ANY($1) ORDER BY team_id, id",
		stmtCoachesByTeamIDs:  "SELECT " + coachColumns + " FROM coaches WHERE team_id = ANY($1) ORDER BY team_id, id",
		stmtPlayerByName:      "SELECT " + playerColumns + " FROM players WHERE team_id = $1 AND name = $2",
		stmtInsertPlayer:      "INSERT INTO players (team_id, name, position, date_of_birth, nationality) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		stmtCoachByName:       "SELECT " + coachColumns + " FROM coaches WHERE team_id = $1 AND name = $2",
		stmtInsertCoach:       "INSERT INTO coaches (team_id, name, date_of_birth, nationality) VALUES ($1, $2, $3, $4) RETURNING id",
		stmtCountCoaches:      "SELECT count(*) FROM coaches WHERE team_id = $1",
		stmtCoachesByTeamName: "SELECT c.id, c.team_id, c.name, c.date_of_birth, c.nationality FROM coaches c JOIN teams t ON t.id = c.team_id WHERE t.name = $1 ORDER BY c.id",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
