package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/squadsync/internal/model"
	"github.com/albapepper/squadsync/internal/provider"
	"github.com/albapepper/squadsync/internal/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		role string
		want Role
	}{
		{"", RolePlayer},
		{"PLAYER", RolePlayer},
		{"player", RolePlayer},
		{"COACH", RoleCoach},
		{"ASSISTANT_COACH_2", RoleCoach},
		{"Manager", RoleCoach},
		{"REFEREE", RoleUnclassified},
		{"PHYSIO", RoleUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.role))
		})
	}
}

func TestReconciler_TeamLinksBothWays(t *testing.T) {
	st := newTestStore(t)
	r := NewReconciler(quietLogger())
	ctx := context.Background()

	err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var res Result
		pl, err := r.Competition(ctx, tx, provider.Competition{Name: "Premier League", Code: "PL"}, &res)
		require.NoError(t, err)
		cl, err := r.Competition(ctx, tx, provider.Competition{Name: "Champions League", Code: "CL"}, &res)
		require.NoError(t, err)

		team, err := r.Team(ctx, tx, provider.Team{Name: "Arsenal FC"}, pl, &res)
		require.NoError(t, err)
		again, err := r.Team(ctx, tx, provider.Team{Name: "Arsenal FC"}, cl, &res)
		require.NoError(t, err)

		assert.Equal(t, team.ID, again.ID)
		assert.True(t, again.InCompetition(pl.ID))
		assert.True(t, again.InCompetition(cl.ID))
		assert.True(t, pl.HasTeam(team.ID))
		assert.True(t, cl.HasTeam(team.ID))
		assert.Equal(t, 2, res.CompetitionsCreated)
		assert.Equal(t, 1, res.TeamsCreated)
		assert.Equal(t, 2, res.TeamsLinked)
		return nil
	})
	require.NoError(t, err)

	team, err := st.TeamByName(ctx, "Arsenal FC")
	require.NoError(t, err)
	assert.Len(t, team.Competitions, 2)
}

func TestReconciler_FirstWriteWins(t *testing.T) {
	st := newTestStore(t)
	r := NewReconciler(quietLogger())
	ctx := context.Background()

	err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var res Result
		comp, err := r.Competition(ctx, tx, provider.Competition{Name: "Premier League", Code: "PL"}, &res)
		require.NoError(t, err)
		team, err := r.Team(ctx, tx, provider.Team{Name: "Arsenal FC"}, comp, &res)
		require.NoError(t, err)

		first, err := r.Player(ctx, tx, provider.Person{Name: "Bukayo Saka", Position: "Right Winger"}, team, &res)
		require.NoError(t, err)
		second, err := r.Player(ctx, tx, provider.Person{Name: "Bukayo Saka", Position: "Left Winger"}, team, &res)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Right Winger", second.Position)
		assert.Equal(t, 1, res.PlayersCreated)
		assert.Equal(t, 1, res.PlayersExisting)
		return nil
	})
	require.NoError(t, err)
}

func TestReconciler_EnsureCoach(t *testing.T) {
	st := newTestStore(t)
	r := NewReconciler(quietLogger())
	ctx := context.Background()

	err := st.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var res Result
		comp, err := r.Competition(ctx, tx, provider.Competition{Name: "Ligue 1", Code: "FL1"}, &res)
		require.NoError(t, err)
		team, err := r.Team(ctx, tx, provider.Team{Name: "Lille OSC"}, comp, &res)
		require.NoError(t, err)

		require.NoError(t, r.EnsureCoach(ctx, tx, team, true, &res))
		n, err := tx.CountCoaches(ctx, team.ID)
		require.NoError(t, err)
		assert.Zero(t, n)

		require.NoError(t, r.EnsureCoach(ctx, tx, team, false, &res))
		require.NoError(t, r.EnsureCoach(ctx, tx, team, false, &res))
		coach, err := tx.CoachByName(ctx, team.ID, model.PlaceholderCoachName("Lille OSC"))
		require.NoError(t, err)
		assert.Equal(t, model.Unknown, coach.Nationality)
		assert.Equal(t, 1, res.PlaceholderCoaches)
		return nil
	})
	require.NoError(t, err)
}

func TestResult_Summary(t *testing.T) {
	r := Result{TeamsCreated: 2, PlayersCreated: 3, PlayersExisting: 1, CoachesCreated: 1}
	r.Add(Result{MembersDropped: 1, Errors: []string{"x"}})

	assert.Equal(t,
		"competitions=0 teams=2 links=0 players=3/4 coaches=1/1 placeholders=0 dropped=1 errors=1",
		r.Summary())
}
