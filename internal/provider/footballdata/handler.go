package footballdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/albapepper/squadsync/internal/provider"
)

// Handler fetches and normalizes football-data.org payloads into canonical
// provider types. The getter is usually a provider.Retrier wrapping a Client.
type Handler struct {
	getter provider.Getter
	logger *slog.Logger
}

// NewHandler creates a Handler over getter.
func NewHandler(getter provider.Getter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{getter: getter, logger: logger}
}

// -------------------------------------------------------------------------
// Raw upstream shapes
// -------------------------------------------------------------------------

type fdArea struct {
	Name string `json:"name"`
}

type fdCompetition struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Area fdArea `json:"area"`
}

type fdTeam struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	TLA       string `json:"tla"`
	Address   string `json:"address"`
	Area      fdArea `json:"area"`
}

type fdTeamsResponse struct {
	Count int      `json:"count"`
	Teams []fdTeam `json:"teams"`
}

type fdPerson struct {
	Name        string `json:"name"`
	Position    string `json:"position"`
	DateOfBirth string `json:"dateOfBirth"`
	Nationality string `json:"nationality"`
	Role        string `json:"role"`
}

type fdTeamDetail struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Coach *fdPerson  `json:"coach"`
	Squad []fdPerson `json:"squad"`
}

// -------------------------------------------------------------------------
// Accessors
// -------------------------------------------------------------------------

// Competition fetches competition metadata by code (e.g. "PL").
func (h *Handler) Competition(ctx context.Context, code string) (provider.Competition, error) {
	path := "/competitions/" + url.PathEscape(code)
	var raw fdCompetition
	if err := h.fetch(ctx, path, &raw); err != nil {
		return provider.Competition{}, err
	}
	if raw.Name == "" {
		return provider.Competition{}, &provider.DecodeError{Path: path, Err: errors.New("competition name missing")}
	}
	c := provider.Competition{
		Name:     raw.Name,
		Code:     raw.Code,
		AreaName: raw.Area.Name,
	}
	if c.Code == "" {
		c.Code = strings.ToUpper(code)
	}
	return c, nil
}

// CompetitionTeams fetches the participating teams of a competition in
// upstream order.
func (h *Handler) CompetitionTeams(ctx context.Context, code string) ([]provider.Team, error) {
	path := "/competitions/" + url.PathEscape(code) + "/teams"
	var raw fdTeamsResponse
	if err := h.fetch(ctx, path, &raw); err != nil {
		return nil, err
	}

	teams := make([]provider.Team, 0, len(raw.Teams))
	for i, t := range raw.Teams {
		if t.Name == "" || t.ID == 0 {
			return nil, &provider.DecodeError{Path: path, Err: fmt.Errorf("team %d: id or name missing", i)}
		}
		teams = append(teams, provider.Team{
			ExternalID: t.ID,
			Name:       t.Name,
			TLA:        t.TLA,
			ShortName:  t.ShortName,
			AreaName:   t.Area.Name,
			Address:    t.Address,
		})
	}
	h.logger.Debug("Decoded competition teams", "code", code, "count", len(teams))
	return teams, nil
}

// Squad fetches a team's head coach and squad list. A coach object without
// a name is treated as absent.
func (h *Handler) Squad(ctx context.Context, teamID int) (provider.Squad, error) {
	path := fmt.Sprintf("/teams/%d", teamID)
	var raw fdTeamDetail
	if err := h.fetch(ctx, path, &raw); err != nil {
		return provider.Squad{}, err
	}

	var squad provider.Squad
	if raw.Coach != nil && raw.Coach.Name != "" {
		coach := toPerson(*raw.Coach)
		squad.Coach = &coach
	}
	squad.Members = make([]provider.Person, 0, len(raw.Squad))
	for i, m := range raw.Squad {
		if m.Name == "" {
			return provider.Squad{}, &provider.DecodeError{Path: path, Err: fmt.Errorf("squad member %d: name missing", i)}
		}
		squad.Members = append(squad.Members, toPerson(m))
	}
	return squad, nil
}

func (h *Handler) fetch(ctx context.Context, path string, dst any) error {
	body, err := h.getter.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &provider.DecodeError{Path: path, Err: err}
	}
	return nil
}

func toPerson(p fdPerson) provider.Person {
	return provider.Person{
		Name:        p.Name,
		Role:        p.Role,
		Position:    p.Position,
		DateOfBirth: p.DateOfBirth,
		Nationality: p.Nationality,
	}
}
