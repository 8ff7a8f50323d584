// Package model defines the persisted entity graph: competitions, teams and
// the players and coaches each team owns.
//
// Entities are identified across imports by natural keys (competition code,
// team name, and (name, team) for people). Upstream numeric IDs are never
// stored.
package model

// Competition is a league or cup. Teams is a non-owning association.
type Competition struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	AreaName string `json:"areaName"`
	Teams    []Team `json:"teams"`
}

// HasTeam reports whether the team with the given ID is already associated.
func (c *Competition) HasTeam(teamID int64) bool {
	for _, t := range c.Teams {
		if t.ID == teamID {
			return true
		}
	}
	return false
}

// Team exclusively owns its players and coaches.
type Team struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	TLA          string        `json:"tla,omitempty"`
	ShortName    string        `json:"shortName,omitempty"`
	AreaName     string        `json:"areaName,omitempty"`
	Address      string        `json:"address,omitempty"`
	Players      []Player      `json:"players"`
	Coaches      []Coach       `json:"coaches"`
	Competitions []Competition `json:"competitions,omitempty"`
}

// InCompetition reports whether the team is linked to the competition.
func (t *Team) InCompetition(competitionID int64) bool {
	for _, c := range t.Competitions {
		if c.ID == competitionID {
			return true
		}
	}
	return false
}

// Player belongs to exactly one team.
type Player struct {
	ID          int64   `json:"id"`
	TeamID      int64   `json:"teamId"`
	Name        string  `json:"name"`
	Position    string  `json:"position"`
	DateOfBirth *string `json:"dateOfBirth"` // "YYYY-MM-DD"
	Nationality string  `json:"nationality"`
}

// Coach belongs to exactly one team.
type Coach struct {
	ID          int64   `json:"id"`
	TeamID      int64   `json:"teamId"`
	Name        string  `json:"name"`
	DateOfBirth *string `json:"dateOfBirth"`
	Nationality string  `json:"nationality"`
}

// Unknown is stored for missing nationality and position values.
const Unknown = "Unknown"

// PlaceholderCoachName is the name given to a synthesized coach for a team
// whose squad data carried no coach.
func PlaceholderCoachName(teamName string) string {
	return "Coach of " + teamName
}
