package status

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	ts := time.Date(2024, 8, 17, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestTracker_Idle(t *testing.T) {
	s := NewTracker().Status()

	assert.False(t, s.IsImporting)
	assert.Nil(t, s.LeagueCode)
	assert.Nil(t, s.LastUpdated)
	assert.Nil(t, s.Error)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker()
	tr.SetClock(fixedClock())

	runID := tr.Start("PL", 2)
	s := tr.Status()
	require.NotNil(t, s.LeagueCode)
	assert.Equal(t, "PL", *s.LeagueCode)
	assert.True(t, s.IsImporting)
	assert.Equal(t, 2, s.TotalTeams)
	assert.Equal(t, runID, s.RunID)
	assert.Equal(t, PhaseImporting, s.Phase)

	tr.Advance(0)
	assert.Equal(t, 0, tr.Status().Progress)
	tr.Advance(1)
	assert.Equal(t, 50, tr.Status().Progress)

	tr.Complete()
	s = tr.Status()
	assert.False(t, s.IsImporting)
	assert.Equal(t, 100, s.Progress)
	assert.Equal(t, 1, s.TeamsProcessed)
	assert.Equal(t, 2, s.TotalTeams)
	assert.Nil(t, s.Error)
	assert.Equal(t, PhaseComplete, s.Phase)
}

func TestTracker_Rounding(t *testing.T) {
	tr := NewTracker()
	tr.Start("BL1", 3)

	tr.Advance(1)
	assert.Equal(t, 33, tr.Status().Progress)
	tr.Advance(2)
	assert.Equal(t, 67, tr.Status().Progress)
}

func TestTracker_ZeroTeams(t *testing.T) {
	tr := NewTracker()
	tr.Start("XX", 0)
	tr.Advance(0)

	assert.Equal(t, 0, tr.Status().Progress)
}

func TestTracker_FailKeepsProgress(t *testing.T) {
	tr := NewTracker()
	tr.Start("PL", 4)
	tr.Advance(2)
	tr.Fail("upstream unavailable")

	s := tr.Status()
	assert.False(t, s.IsImporting)
	assert.Equal(t, 50, s.Progress)
	require.NotNil(t, s.Error)
	assert.Equal(t, "upstream unavailable", *s.Error)
	assert.Equal(t, PhaseFailed, s.Phase)
}

func TestTracker_StartOverwrites(t *testing.T) {
	tr := NewTracker()
	first := tr.Start("PL", 4)
	tr.Fail("boom")
	second := tr.Start("SA", 3)

	s := tr.Status()
	assert.NotEqual(t, first, second)
	assert.Equal(t, "SA", *s.LeagueCode)
	assert.Nil(t, s.Error)
	assert.Equal(t, 0, s.Progress)
}

func TestTracker_StatusIsACopy(t *testing.T) {
	tr := NewTracker()
	tr.Start("PL", 2)

	s := tr.Status()
	*s.LeagueCode = "mutated"

	assert.Equal(t, "PL", *tr.Status().LeagueCode)
}

func TestTracker_ConcurrentReaders(t *testing.T) {
	tr := NewTracker()
	tr.Start("PL", 100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := 0
			for j := 0; j < 200; j++ {
				p := tr.Status().Progress
				assert.GreaterOrEqual(t, p, last)
				last = p
			}
		}()
	}
	for i := 0; i <= 100; i++ {
		tr.Advance(i)
	}
	wg.Wait()
}
