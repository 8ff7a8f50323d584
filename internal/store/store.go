// Package store defines the persistence contract for the entity graph.
//
// Two backends implement it: internal/db (Postgres over pgxpool) and
// internal/db/sqlite (embedded, used by tests and single-node deployments).
// All writes happen through a Tx handed out by Store.RunInTx; the import
// pipeline is the only writer.
package store

import (
	"context"
	"errors"

	"github.com/albapepper/squadsync/internal/model"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a create violates a natural-key constraint.
var ErrConflict = errors.New("already exists")

// Tx is the write-side view of the store inside one transaction.
type Tx interface {
	// CompetitionByCode loads the competition and its linked teams (without
	// their players or coaches).
	CompetitionByCode(ctx context.Context, code string) (*model.Competition, error)
	// CreateCompetition inserts c and sets c.ID.
	CreateCompetition(ctx context.Context, c *model.Competition) error

	// TeamByName loads the team and its linked competitions.
	TeamByName(ctx context.Context, name string) (*model.Team, error)
	// CreateTeam inserts t and sets t.ID. It does not write links.
	CreateTeam(ctx context.Context, t *model.Team) error
	// LinkTeam associates a team with a competition. Linking twice is a no-op.
	LinkTeam(ctx context.Context, competitionID, teamID int64) error
	// SaveCompetitionTeams persists every association in c.Teams.
	SaveCompetitionTeams(ctx context.Context, c *model.Competition) error

	PlayerByName(ctx context.Context, teamID int64, name string) (*model.Player, error)
	CreatePlayer(ctx context.Context, p *model.Player) error

	CoachByName(ctx context.Context, teamID int64, name string) (*model.Coach, error)
	CreateCoach(ctx context.Context, c *model.Coach) error
	CountCoaches(ctx context.Context, teamID int64) (int, error)

	// CompetitionGraph loads competition -> teams -> players and coaches.
	CompetitionGraph(ctx context.Context, code string) (*model.Competition, error)

	// Savepoint runs fn in a nested transaction. If fn returns an error only
	// the work done inside fn is rolled back.
	Savepoint(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Reader serves the query side.
type Reader interface {
	Competitions(ctx context.Context) ([]model.Competition, error)
	Teams(ctx context.Context) ([]model.Team, error)
	Players(ctx context.Context) ([]model.Player, error)
	Coaches(ctx context.Context) ([]model.Coach, error)

	CompetitionGraph(ctx context.Context, code string) (*model.Competition, error)
	// TeamByName loads the team with its players, coaches and competitions.
	TeamByName(ctx context.Context, name string) (*model.Team, error)
	// PlayersByLeague returns the players of every team in the competition,
	// or of the single team named teamName when it is non-empty.
	PlayersByLeague(ctx context.Context, code, teamName string) ([]model.Player, error)
	// CoachesByLeague is PlayersByLeague for coaches. When a named team
	// yields no coaches through the competition, coaches are looked up by
	// team name alone.
	CoachesByLeague(ctx context.Context, code, teamName string) ([]model.Coach, error)
}

// Store is a transactional entity store.
type Store interface {
	Reader

	// RunInTx commits if fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
	Close()
}
