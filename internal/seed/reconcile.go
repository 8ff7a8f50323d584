package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/albapepper/squadsync/internal/model"
	"github.com/albapepper/squadsync/internal/provider"
	"github.com/albapepper/squadsync/internal/store"
)

// Role is the classification of a squad record.
type Role int

const (
	RolePlayer Role = iota
	RoleCoach
	RoleUnclassified
)

func (r Role) String() string {
	switch r {
	case RolePlayer:
		return "player"
	case RoleCoach:
		return "coach"
	default:
		return "unclassified"
	}
}

// Classify maps an upstream role string to a Role. A missing role means
// player; matching is case-insensitive substring.
func Classify(role string) Role {
	upper := strings.ToUpper(role)
	switch {
	case upper == "" || strings.Contains(upper, "PLAYER"):
		return RolePlayer
	case strings.Contains(upper, "COACH"), strings.Contains(upper, "MANAGER"):
		return RoleCoach
	default:
		return RoleUnclassified
	}
}

// Reconciler finds or creates entities by natural key inside a transaction.
// Existing entities are returned unchanged: the first write wins.
type Reconciler struct {
	logger *slog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{logger: logger}
}

// Competition finds the competition by code or creates it with no teams.
func (r *Reconciler) Competition(ctx context.Context, tx store.Tx, p provider.Competition, res *Result) (*model.Competition, error) {
	c, err := tx.CompetitionByCode(ctx, p.Code)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	c = &model.Competition{
		Name:     p.Name,
		Code:     p.Code,
		AreaName: p.AreaName,
		Teams:    []model.Team{},
	}
	if err := tx.CreateCompetition(ctx, c); err != nil {
		return nil, err
	}
	res.CompetitionsCreated++
	r.logger.Info("Created competition", "code", c.Code, "name", c.Name)
	return c, nil
}

// Team finds the team by name or creates it, then makes sure the team and
// the competition reference each other both in the store and in memory.
func (r *Reconciler) Team(ctx context.Context, tx store.Tx, p provider.Team, comp *model.Competition, res *Result) (*model.Team, error) {
	team, err := tx.TeamByName(ctx, p.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		team = &model.Team{
			Name:      p.Name,
			TLA:       p.TLA,
			ShortName: p.ShortName,
			AreaName:  p.AreaName,
			Address:   p.Address,
			Players:   []model.Player{},
			Coaches:   []model.Coach{},
		}
		if err := tx.CreateTeam(ctx, team); err != nil {
			return nil, err
		}
		res.TeamsCreated++
	case err != nil:
		return nil, err
	}

	if !team.InCompetition(comp.ID) {
		if err := tx.LinkTeam(ctx, comp.ID, team.ID); err != nil {
			return nil, err
		}
		ref := *comp
		ref.Teams = nil
		team.Competitions = append(team.Competitions, ref)
		res.TeamsLinked++
	}
	if !comp.HasTeam(team.ID) {
		ref := *team
		ref.Competitions = nil
		comp.Teams = append(comp.Teams, ref)
	}
	return team, nil
}

// Player finds the player by (name, team) or creates it.
func (r *Reconciler) Player(ctx context.Context, tx store.Tx, p provider.Person, team *model.Team, res *Result) (*model.Player, error) {
	existing, err := tx.PlayerByName(ctx, team.ID, p.Name)
	if err == nil {
		res.PlayersExisting++
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	player := &model.Player{
		TeamID:      team.ID,
		Name:        p.Name,
		Position:    orUnknown(p.Position),
		DateOfBirth: optional(p.DateOfBirth),
		Nationality: orUnknown(p.Nationality),
	}
	if err := tx.CreatePlayer(ctx, player); err != nil {
		return nil, err
	}
	res.PlayersCreated++
	return player, nil
}

// Coach finds the coach by (name, team) or creates it.
func (r *Reconciler) Coach(ctx context.Context, tx store.Tx, p provider.Person, team *model.Team, res *Result) (*model.Coach, error) {
	existing, err := tx.CoachByName(ctx, team.ID, p.Name)
	if err == nil {
		res.CoachesExisting++
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	coach := &model.Coach{
		TeamID:      team.ID,
		Name:        p.Name,
		DateOfBirth: optional(p.DateOfBirth),
		Nationality: orUnknown(p.Nationality),
	}
	if err := tx.CreateCoach(ctx, coach); err != nil {
		return nil, err
	}
	res.CoachesCreated++
	return coach, nil
}

// Squad reconciles every member in payload order, then the top-level coach,
// then applies the coach-presence policy. The returned Result covers only
// this squad so the caller can discard it if the work is rolled back.
func (r *Reconciler) Squad(ctx context.Context, tx store.Tx, squad provider.Squad, team *model.Team) (Result, error) {
	var res Result
	coachFound := false

	for _, m := range squad.Members {
		switch Classify(m.Role) {
		case RolePlayer:
			if _, err := r.Player(ctx, tx, m, team, &res); err != nil {
				return res, fmt.Errorf("reconcile player %q: %w", m.Name, err)
			}
		case RoleCoach:
			if _, err := r.Coach(ctx, tx, m, team, &res); err != nil {
				return res, fmt.Errorf("reconcile coach %q: %w", m.Name, err)
			}
			coachFound = true
		default:
			r.logger.Warn("Dropping squad member with unrecognised role",
				"team", team.Name, "name", m.Name, "role", m.Role)
			res.MembersDropped++
		}
	}

	if squad.Coach != nil && squad.Coach.Name != "" {
		if _, err := r.Coach(ctx, tx, *squad.Coach, team, &res); err != nil {
			return res, fmt.Errorf("reconcile head coach %q: %w", squad.Coach.Name, err)
		}
		coachFound = true
	}

	if err := r.EnsureCoach(ctx, tx, team, coachFound, &res); err != nil {
		return res, err
	}
	return res, nil
}

// EnsureCoach creates the "Coach of <team>" placeholder when this run found
// no coach and the team has none persisted.
func (r *Reconciler) EnsureCoach(ctx context.Context, tx store.Tx, team *model.Team, found bool, res *Result) error {
	if found {
		return nil
	}
	n, err := tx.CountCoaches(ctx, team.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	placeholder := provider.Person{Name: model.PlaceholderCoachName(team.Name)}
	if _, err := r.Coach(ctx, tx, placeholder, team, res); err != nil {
		return fmt.Errorf("create placeholder coach: %w", err)
	}
	res.PlaceholderCoaches++
	r.logger.Info("Created placeholder coach", "team", team.Name)
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return model.Unknown
	}
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
