package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/albapepper/squadsync/internal/model"
	"github.com/albapepper/squadsync/internal/store"
)

type sqliteTx struct {
	tx    *sql.Tx
	depth int
}

var _ store.Tx = (*sqliteTx)(nil)

func (t *sqliteTx) CompetitionByCode(ctx context.Context, code string) (*model.Competition, error) {
	return competitionByCode(ctx, t.tx, code)
}

func (t *sqliteTx) CreateCompetition(ctx context.Context, c *model.Competition) error {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO competitions (name, code, area_name) VALUES (?, ?, ?)",
		c.Name, c.Code, c.AreaName)
	if err != nil {
		return mapWriteErr("insert competition", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert competition: %w", err)
	}
	if c.Teams == nil {
		c.Teams = []model.Team{}
	}
	return nil
}

func (t *sqliteTx) TeamByName(ctx context.Context, name string) (*model.Team, error) {
	return teamByName(ctx, t.tx, name)
}

func (t *sqliteTx) CreateTeam(ctx context.Context, team *model.Team) error {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO teams (name, tla, short_name, area_name, address) VALUES (?, ?, ?, ?, ?)",
		team.Name, team.TLA, team.ShortName, team.AreaName, team.Address)
	if err != nil {
		return mapWriteErr("insert team", err)
	}
	if team.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

func (t *sqliteTx) LinkTeam(ctx context.Context, competitionID, teamID int64) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO competition_teams (competition_id, team_id) VALUES (?, ?)",
		competitionID, teamID)
	if err != nil {
		return fmt.Errorf("link team: %w", err)
	}
	return nil
}

func (t *sqliteTx) SaveCompetitionTeams(ctx context.Context, c *model.Competition) error {
	for _, team := range c.Teams {
		if err := t.LinkTeam(ctx, c.ID, team.ID); err != nil {
			return fmt.Errorf("save competition teams: %w", err)
		}
	}
	return nil
}

func (t *sqliteTx) PlayerByName(ctx context.Context, teamID int64, name string) (*model.Player, error) {
	players, err := queryPlayers(ctx, t.tx,
		"SELECT "+playerColumns+" FROM players WHERE team_id = ? AND name = ?", teamID, name)
	if err != nil {
		return nil, fmt.Errorf("player by name: %w", err)
	}
	if len(players) == 0 {
		return nil, store.ErrNotFound
	}
	return &players[0], nil
}

func (t *sqliteTx) CreatePlayer(ctx context.Context, p *model.Player) error {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO players (team_id, name, position, date_of_birth, nationality) VALUES (?, ?, ?, ?, ?)",
		p.TeamID, p.Name, p.Position, toNull(p.DateOfBirth), p.Nationality)
	if err != nil {
		return mapWriteErr("insert player", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (t *sqliteTx) CoachByName(ctx context.Context, teamID int64, name string) (*model.Coach, error) {
	coaches, err := queryCoaches(ctx, t.tx,
		"SELECT "+coachColumns+" FROM coaches WHERE team_id = ? AND name = ?", teamID, name)
	if err != nil {
		return nil, fmt.Errorf("coach by name: %w", err)
	}
	if len(coaches) == 0 {
		return nil, store.ErrNotFound
	}
	return &coaches[0], nil
}

func (t *sqliteTx) CreateCoach(ctx context.Context, c *model.Coach) error {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO coaches (team_id, name, date_of_birth, nationality) VALUES (?, ?, ?, ?)",
		c.TeamID, c.Name, toNull(c.DateOfBirth), c.Nationality)
	if err != nil {
		return mapWriteErr("insert coach", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert coach: %w", err)
	}
	return nil
}

func (t *sqliteTx) CountCoaches(ctx context.Context, teamID int64) (int, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, "SELECT count(*) FROM coaches WHERE team_id = ?", teamID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count coaches: %w", err)
	}
	return n, nil
}

func (t *sqliteTx) CompetitionGraph(ctx context.Context, code string) (*model.Competition, error) {
	return competitionGraph(ctx, t.tx, code)
}

// Savepoint names are unique per nesting depth.
func (t *sqliteTx) Savepoint(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	name := fmt.Sprintf("sp_%d", t.depth+1)
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}

	if err := fn(ctx, &sqliteTx{tx: t.tx, depth: t.depth + 1}); err != nil {
		// ROLLBACK TO leaves the savepoint open; RELEASE closes it.
		cleanup := context.WithoutCancel(ctx)
		_, rbErr := t.tx.ExecContext(cleanup, "ROLLBACK TO "+name)
		_, relErr := t.tx.ExecContext(cleanup, "RELEASE "+name)
		if rbErr != nil || relErr != nil {
			return errors.Join(err, rbErr, relErr)
		}
		return err
	}

	if _, err := t.tx.ExecContext(ctx, "RELEASE "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}
