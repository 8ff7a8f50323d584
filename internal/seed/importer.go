package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/albapepper/squadsync/internal/metrics"
	"github.com/albapepper/squadsync/internal/model"
	"github.com/albapepper/squadsync/internal/provider"
	"github.com/albapepper/squadsync/internal/status"
	"github.com/albapepper/squadsync/internal/store"
)

const (
	// DefaultTeamLimit caps how many teams of a competition are imported.
	DefaultTeamLimit = 5
	// DefaultRequestDelay is the pause before each squad request, sized for
	// the 10 requests/minute free tier.
	DefaultRequestDelay = 6 * time.Second
	// NoDelay disables the pause before squad requests.
	NoDelay time.Duration = -1
)

// Source is the typed upstream the importer reads from.
type Source interface {
	Competition(ctx context.Context, code string) (provider.Competition, error)
	CompetitionTeams(ctx context.Context, code string) ([]provider.Team, error)
	Squad(ctx context.Context, teamID int) (provider.Squad, error)
}

// SquadError is a failure confined to one team's squad. It is recorded and
// the import moves on to the next team.
type SquadError struct {
	Team string
	Err  error
}

func (e *SquadError) Error() string {
	return fmt.Sprintf("process squad for %s: %v", e.Team, e.Err)
}

func (e *SquadError) Unwrap() error { return e.Err }

// Options tunes an Importer. Zero values select the defaults.
type Options struct {
	TeamLimit int
	// RequestDelay is the pause before each squad request. Zero selects
	// DefaultRequestDelay; any negative value (NoDelay) disables it.
	RequestDelay time.Duration
	// Sleep implements the inter-request delay; provider.Sleep when nil.
	Sleep   provider.SleepFunc
	Metrics *metrics.Metrics
}

// Report is the outcome of a successful import.
type Report struct {
	RunID       string
	Competition *model.Competition
	Result      Result
	Duration    time.Duration
}

// DelayOption converts a configured delay, where zero means "no pause",
// into an Options.RequestDelay.
func DelayOption(d time.Duration) time.Duration {
	if d <= 0 {
		return NoDelay
	}
	return d
}

// Importer runs league imports: sequential upstream fetches reconciled into
// the store inside one transaction per league. At most one import runs at a
// time; later callers wait their turn.
type Importer struct {
	// running is a one-slot semaphore held for the whole of Import.
	running chan struct{}

	store      store.Store
	source     Source
	tracker    *status.Tracker
	reconciler *Reconciler
	logger     *slog.Logger
	metrics    *metrics.Metrics

	teamLimit int
	delay     time.Duration
	sleep     provider.SleepFunc
}

// NewImporter wires an importer.
func NewImporter(st store.Store, src Source, tracker *status.Tracker, logger *slog.Logger, opts Options) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TeamLimit <= 0 {
		opts.TeamLimit = DefaultTeamLimit
	}
	switch {
	case opts.RequestDelay == 0:
		opts.RequestDelay = DefaultRequestDelay
	case opts.RequestDelay < 0:
		opts.RequestDelay = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = provider.Sleep
	}
	return &Importer{
		running:    make(chan struct{}, 1),
		store:      st,
		source:     src,
		tracker:    tracker,
		reconciler: NewReconciler(logger),
		logger:     logger,
		metrics:    opts.Metrics,
		teamLimit:  opts.TeamLimit,
		delay:      opts.RequestDelay,
		sleep:      opts.Sleep,
	}
}

// Tracker returns the status tracker this importer reports to.
func (im *Importer) Tracker() *status.Tracker { return im.tracker }

// ImportLeague imports one competition and returns the persisted graph.
func (im *Importer) ImportLeague(ctx context.Context, code string) (*model.Competition, error) {
	report, err := im.Import(ctx, code)
	if err != nil {
		return nil, err
	}
	return report.Competition, nil
}

// Import imports one competition and returns the graph with counts.
//
// The competition is fetched before the transaction opens. Everything after
// runs in one transaction; each squad runs in its own savepoint so a failed
// squad only loses its own work.
func (im *Importer) Import(ctx context.Context, code string) (*Report, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("league code is required")
	}
	if err := im.acquire(ctx); err != nil {
		return nil, err
	}
	defer func() { <-im.running }()

	start := time.Now()
	log := im.logger.With("league", code)

	log.Info("Importing league")

	payload, err := im.source.Competition(ctx, code)
	if err != nil {
		return nil, im.fail(log, start, fmt.Errorf("fetch competition %s: %w", code, err))
	}

	report := &Report{}
	err = im.store.RunInTx(ctx, func(ctx context.Context, tx store.Tx) error {
		comp, err := im.reconciler.Competition(ctx, tx, payload, &report.Result)
		if err != nil {
			return fmt.Errorf("reconcile competition: %w", err)
		}

		teams, err := im.source.CompetitionTeams(ctx, code)
		if err != nil {
			return fmt.Errorf("fetch teams for %s: %w", code, err)
		}
		if len(teams) > im.teamLimit {
			teams = teams[:im.teamLimit]
		}
		report.RunID = im.tracker.Start(code, len(teams))
		log.Info("Processing teams", "total", len(teams), "run_id", report.RunID)

		for i, t := range teams {
			im.tracker.Advance(i)
			im.metrics.SetProgress(im.tracker.Status().Progress)

			team, err := im.reconciler.Team(ctx, tx, t, comp, &report.Result)
			if err != nil {
				return fmt.Errorf("reconcile team %s: %w", t.Name, err)
			}

			if im.delay > 0 {
				if err := im.sleep(ctx, im.delay); err != nil {
					return err
				}
			}

			squadRes, err := im.processSquad(ctx, tx, t.ExternalID, team)
			if err == nil {
				report.Result.Add(squadRes)
				log.Debug("Squad processed", "team", team.Name,
					"players", squadRes.PlayersCreated, "coaches", squadRes.CoachesCreated)
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			squadErr := &SquadError{Team: team.Name, Err: err}
			log.Error("Squad processing failed", "team", team.Name, "error", err)
			report.Result.AddError(squadErr.Error())
			im.metrics.SquadFailed()

			var placeholder Result
			err = tx.Savepoint(ctx, func(ctx context.Context, sp store.Tx) error {
				return im.reconciler.EnsureCoach(ctx, sp, team, false, &placeholder)
			})
			if err != nil {
				return fmt.Errorf("ensure coach for %s: %w", team.Name, err)
			}
			report.Result.Add(placeholder)
		}

		if err := tx.SaveCompetitionTeams(ctx, comp); err != nil {
			return err
		}

		report.Competition, err = tx.CompetitionGraph(ctx, comp.Code)
		if err != nil {
			return fmt.Errorf("load competition graph: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, im.fail(log, start, err)
	}

	im.tracker.Complete()
	report.Duration = time.Since(start)
	im.recordSuccess(report)
	log.Info("League import complete",
		"duration", report.Duration.Round(time.Millisecond),
		"summary", report.Result.Summary())
	return report, nil
}

// acquire takes the import slot, waiting for a running import to finish.
// A free slot is taken even when ctx is already done, so the import itself
// observes and records the cancellation.
func (im *Importer) acquire(ctx context.Context) error {
	select {
	case im.running <- struct{}{}:
		return nil
	default:
	}
	im.logger.Info("Waiting for running import to finish")
	select {
	case im.running <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running import: %w", ctx.Err())
	}
}

// processSquad fetches a squad and reconciles it inside a savepoint.
func (im *Importer) processSquad(ctx context.Context, tx store.Tx, externalID int, team *model.Team) (Result, error) {
	squad, err := im.source.Squad(ctx, externalID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch squad: %w", err)
	}

	var res Result
	err = tx.Savepoint(ctx, func(ctx context.Context, sp store.Tx) error {
		var err error
		res, err = im.reconciler.Squad(ctx, sp, squad, team)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (im *Importer) fail(log *slog.Logger, start time.Time, err error) error {
	im.tracker.Fail(err.Error())
	im.metrics.ImportFinished("failure", time.Since(start))
	log.Error("League import failed", "error", err)
	return err
}

func (im *Importer) recordSuccess(r *Report) {
	im.metrics.SetProgress(100)
	im.metrics.EntitiesCreated("competition", r.Result.CompetitionsCreated)
	im.metrics.EntitiesCreated("team", r.Result.TeamsCreated)
	im.metrics.EntitiesCreated("player", r.Result.PlayersCreated)
	im.metrics.EntitiesCreated("coach", r.Result.CoachesCreated)
	im.metrics.MembersDropped(r.Result.MembersDropped)
	im.metrics.ImportFinished("success", r.Duration)
}
