// Package status tracks the progress of the current (or most recent) league
// import. There is one tracker per process; it is created in main and
// injected into the importer and the HTTP handlers.
package status

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase represents the lifecycle phase of an import.
type Phase string

const (
	// PhaseIdle means no import has run since the process started
	PhaseIdle Phase = "Idle"

	// PhaseImporting means an import is in progress
	PhaseImporting Phase = "Importing"

	// PhaseComplete means the last import finished successfully
	PhaseComplete Phase = "Complete"

	// PhaseFailed means the last import failed
	PhaseFailed Phase = "Failed"
)

// ImportStatus is a point-in-time snapshot of the tracker.
type ImportStatus struct {
	// IsImporting is true between Start and Complete/Fail
	IsImporting bool `json:"isImporting"`

	// LeagueCode is the competition being (or last) imported
	LeagueCode *string `json:"leagueCode"`

	// Progress is teamsProcessed/totalTeams as a rounded percentage
	Progress int `json:"progress"`

	TeamsProcessed int `json:"teamsProcessed"`
	TotalTeams     int `json:"totalTeams"`

	// LastUpdated is the time of the last state change
	LastUpdated *time.Time `json:"lastUpdated"`

	// Error holds the failure message of the last import, if it failed
	Error *string `json:"error"`

	// RunID identifies the import started by the last Start
	RunID string `json:"runId,omitempty"`

	Phase Phase `json:"phase"`
}

// Tracker holds the import status. A later Start overwrites the state of an
// earlier import.
type Tracker struct {
	mu     sync.RWMutex
	status ImportStatus
	now    func() time.Time
}

// NewTracker creates an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{
		status: ImportStatus{Phase: PhaseIdle},
		now:    time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Start resets the tracker for a new import of totalTeams teams and returns
// the run ID.
func (t *Tracker) Start(leagueCode string, totalTeams int) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := t.now()
	code := leagueCode
	t.status = ImportStatus{
		IsImporting:    true,
		LeagueCode:     &code,
		Progress:       0,
		TeamsProcessed: 0,
		TotalTeams:     totalTeams,
		LastUpdated:    &ts,
		RunID:          uuid.NewString(),
		Phase:          PhaseImporting,
	}
	return t.status.RunID
}

// Advance records that teamsProcessed teams are done.
func (t *Tracker) Advance(teamsProcessed int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := t.now()
	t.status.TeamsProcessed = teamsProcessed
	t.status.Progress = percent(teamsProcessed, t.status.TotalTeams)
	t.status.LastUpdated = &ts
}

// Complete marks the import finished. TeamsProcessed is left as last
// advanced.
func (t *Tracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := t.now()
	t.status.IsImporting = false
	t.status.Progress = 100
	t.status.LastUpdated = &ts
	t.status.Phase = PhaseComplete
}

// Fail marks the import failed. Progress is kept.
func (t *Tracker) Fail(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := t.now()
	t.status.IsImporting = false
	t.status.Error = &msg
	t.status.LastUpdated = &ts
	t.status.Phase = PhaseFailed
}

// Status returns a copy of the current state.
func (t *Tracker) Status() ImportStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.status
	if s.LeagueCode != nil {
		code := *s.LeagueCode
		s.LeagueCode = &code
	}
	if s.LastUpdated != nil {
		ts := *s.LastUpdated
		s.LastUpdated = &ts
	}
	if s.Error != nil {
		msg := *s.Error
		s.Error = &msg
	}
	return s
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
