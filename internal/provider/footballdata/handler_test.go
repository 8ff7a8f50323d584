package footballdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/squadsync/internal/provider"
)

// stubGetter serves canned bodies by path.
type stubGetter map[string]string

func (s stubGetter) Get(_ context.Context, path string) ([]byte, error) {
	body, ok := s[path]
	if !ok {
		return nil, &provider.UpstreamError{Path: path, StatusCode: 404, Message: "not found"}
	}
	return []byte(body), nil
}

func TestHandler_Competition(t *testing.T) {
	h := NewHandler(stubGetter{
		"/competitions/PL": `{"id":2021,"name":"Premier League","code":"PL","area":{"id":2072,"name":"England"}}`,
	}, quietLogger())

	c, err := h.Competition(context.Background(), "PL")
	require.NoError(t, err)
	assert.Equal(t, provider.Competition{Name: "Premier League", Code: "PL", AreaName: "England"}, c)
}

func TestHandler_CompetitionMissingName(t *testing.T) {
	h := NewHandler(stubGetter{"/competitions/PL": `{"code":"PL"}`}, quietLogger())

	_, err := h.Competition(context.Background(), "PL")
	var de *provider.DecodeError
	require.ErrorAs(t, err, &de)
}

func TestHandler_CompetitionNotFound(t *testing.T) {
	h := NewHandler(stubGetter{}, quietLogger())

	_, err := h.Competition(context.Background(), "XX")
	require.ErrorIs(t, err, provider.ErrNotFound)
}

func TestHandler_CompetitionTeams(t *testing.T) {
	h := NewHandler(stubGetter{
		"/competitions/PL/teams": `{"count":2,"teams":[
			{"id":57,"name":"Arsenal FC","shortName":"Arsenal","tla":"ARS","address":"75 Drayton Park London N5 1BU","area":{"name":"England"}},
			{"id":61,"name":"Chelsea FC","shortName":"Chelsea","tla":"CHE","address":"Fulham Road London SW6 1HS","area":{"name":"England"}}
		]}`,
	}, quietLogger())

	teams, err := h.CompetitionTeams(context.Background(), "PL")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, 57, teams[0].ExternalID)
	assert.Equal(t, "Arsenal FC", teams[0].Name)
	assert.Equal(t, "ARS", teams[0].TLA)
	assert.Equal(t, "England", teams[0].AreaName)
	assert.Equal(t, "Chelsea FC", teams[1].Name)
}

func TestHandler_CompetitionTeamsBadJSON(t *testing.T) {
	h := NewHandler(stubGetter{"/competitions/PL/teams": `{"teams":`}, quietLogger())

	_, err := h.CompetitionTeams(context.Background(), "PL")
	var de *provider.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "/competitions/PL/teams", de.Path)
}

func TestHandler_Squad(t *testing.T) {
	h := NewHandler(stubGetter{
		"/teams/57": `{"id":57,"name":"Arsenal FC",
			"coach":{"id":1,"name":"Mikel Arteta","dateOfBirth":"1982-03-26","nationality":"Spain"},
			"squad":[
				{"id":10,"name":"Bukayo Saka","position":"Right Winger","dateOfBirth":"2001-09-05","nationality":"England","role":"PLAYER"},
				{"id":11,"name":"Kai Havertz","position":"Centre-Forward","nationality":"Germany"}
			]}`,
	}, quietLogger())

	squad, err := h.Squad(context.Background(), 57)
	require.NoError(t, err)
	require.NotNil(t, squad.Coach)
	assert.Equal(t, "Mikel Arteta", squad.Coach.Name)
	assert.Equal(t, "1982-03-26", squad.Coach.DateOfBirth)
	require.Len(t, squad.Members, 2)
	assert.Equal(t, "PLAYER", squad.Members[0].Role)
	assert.Empty(t, squad.Members[1].Role)
	assert.Empty(t, squad.Members[1].DateOfBirth)
}

func TestHandler_SquadNullCoach(t *testing.T) {
	h := NewHandler(stubGetter{
		"/teams/5": `{"id":5,"coach":{"id":null,"name":null},"squad":[]}`,
	}, quietLogger())

	squad, err := h.Squad(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, squad.Coach)
	assert.Empty(t, squad.Members)
}

func TestHandler_SquadMemberWithoutName(t *testing.T) {
	h := NewHandler(stubGetter{
		"/teams/5": `{"squad":[{"position":"Goalkeeper"}]}`,
	}, quietLogger())

	_, err := h.Squad(context.Background(), 5)
	var de *provider.DecodeError
	require.ErrorAs(t, err, &de)
}
