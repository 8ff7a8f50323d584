package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/squadsync/internal/model"
	"github.com/albapepper/squadsync/internal/store"
)

// pgTx implements store.Tx over a pgx transaction. Nested pgx transactions
// are savepoints.
type pgTx struct {
	tx pgx.Tx
}

var _ store.Tx = (*pgTx)(nil)

func (t *pgTx) CompetitionByCode(ctx context.Context, code string) (*model.Competition, error) {
	return competitionByCode(ctx, t.tx, code)
}

func (t *pgTx) CreateCompetition(ctx context.Context, c *model.Competition) error {
	err := t.tx.QueryRow(ctx, stmtInsertCompetition, c.Name, c.Code, c.AreaName).Scan(&c.ID)
	if err != nil {
		return mapWriteErr("insert competition", err)
	}
	if c.Teams == nil {
		c.Teams = []model.Team{}
	}
	return nil
}

func (t *pgTx) TeamByName(ctx context.Context, name string) (*model.Team, error) {
	return teamByName(ctx, t.tx, name)
}

func (t *pgTx) CreateTeam(ctx context.Context, team *model.Team) error {
	err := t.tx.QueryRow(ctx, stmtInsertTeam,
		team.Name, team.TLA, team.ShortName, team.AreaName, team.Address,
	).Scan(&team.ID)
	if err != nil {
		return mapWriteErr("insert team", err)
	}
	return nil
}

func (t *pgTx) LinkTeam(ctx context.Context, competitionID, teamID int64) error {
	if _, err := t.tx.Exec(ctx, stmtLinkTeam, competitionID, teamID); err != nil {
		return fmt.Errorf("link team: %w", err)
	}
	return nil
}

func (t *pgTx) SaveCompetitionTeams(ctx context.Context, c *model.Competition) error {
	batch := &pgx.Batch{}
	for _, team := range c.Teams {
		batch.Queue(stmtLinkTeam, c.ID, team.ID)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save competition teams: %w", err)
	}
	return nil
}

func (t *pgTx) PlayerByName(ctx context.Context, teamID int64, name string) (*model.Player, error) {
	rows, err := t.tx.Query(ctx, stmtPlayerByName, teamID, name)
	if err != nil {
		return nil, fmt.Errorf("player by name: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPlayer)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("player by name: %w", err)
	}
	return &p, nil
}

func (t *pgTx) CreatePlayer(ctx context.Context, p *model.Player) error {
	err := t.tx.QueryRow(ctx, stmtInsertPlayer,
		p.TeamID, p.Name, p.Position, p.DateOfBirth, p.Nationality,
	).Scan(&p.ID)
	if err != nil {
		return mapWriteErr("insert player", err)
	}
	return nil
}

func (t *pgTx) CoachByName(ctx context.Context, teamID int64, name string) (*model.Coach, error) {
	rows, err := t.tx.Query(ctx, stmtCoachByName, teamID, name)
	if err != nil {
		return nil, fmt.Errorf("coach by name: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCoach)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("coach by name: %w", err)
	}
	return &c, nil
}

func (t *pgTx) CreateCoach(ctx context.Context, c *model.Coach) error {
	err := t.tx.QueryRow(ctx, stmtInsertCoach,
		c.TeamID, c.Name, c.DateOfBirth, c.Nationality,
	).Scan(&c.ID)
	if err != nil {
		return mapWriteErr("insert coach", err)
	}
	return nil
}

func (t *pgTx) CountCoaches(ctx context.Context, teamID int64) (int, error) {
	var n int
	if err := t.tx.QueryRow(ctx, stmtCountCoaches, teamID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count coaches: %w", err)
	}
	return n, nil
}

func (t *pgTx) CompetitionGraph(ctx context.Context, code string) (*model.Competition, error) {
	return competitionGraph(ctx, t.tx, code)
}

func (t *pgTx) Savepoint(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return pgx.BeginFunc(ctx, t.tx, func(sp pgx.Tx) error {
		return fn(ctx, &pgTx{tx: sp})
	})
}
