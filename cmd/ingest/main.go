// Command ingest is the squadsync ingestion CLI.
//
// Usage:
//
//	squadsync-ingest import PL --team-limit 5 --delay 6s
//	squadsync-ingest migrate
//	squadsync-ingest show PL
//	squadsync-ingest refresh
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/squadsync/internal/config"
	"github.com/albapepper/squadsync/internal/db"
	"github.com/albapepper/squadsync/internal/maintenance"
	"github.com/albapepper/squadsync/internal/provider/footballdata"
	"github.com/albapepper/squadsync/internal/seed"
	"github.com/albapepper/squadsync/internal/status"
	"github.com/albapepper/squadsync/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "squadsync-ingest",
		Short:        "squadsync ingestion CLI",
		SilenceUsage: true,
	}

	root.AddCommand(importCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(showCmd())
	root.AddCommand(refreshCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// import command
// --------------------------------------------------------------------------

func importCmd() *cobra.Command {
	var (
		teamLimit int
		delay     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "import <LEAGUE>",
		Short: "Import a league, its teams and their squads from football-data.org",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
				if cfg.FootballDataAPIToken == "" {
					return fmt.Errorf("FOOTBALL_DATA_API_TOKEN is required")
				}
				if cmd.Flags().Changed("team-limit") {
					cfg.ImportTeamLimit = teamLimit
				}
				if cmd.Flags().Changed("delay") {
					cfg.ImportRequestDelay = delay
				}

				importer := newImporter(cfg, st)
				report, err := importer.Import(ctx, strings.ToUpper(args[0]))
				if err != nil {
					return err
				}

				logger.Info("Import finished",
					"league", report.Competition.Code,
					"run_id", report.RunID,
					"duration", report.Duration.Round(time.Second))
				for _, e := range report.Result.Errors {
					logger.Error("import error", "error", e)
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.Result.Summary())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&teamLimit, "team-limit", seed.DefaultTeamLimit, "Maximum number of teams to import")
	cmd.Flags().DurationVar(&delay, "delay", seed.DefaultRequestDelay, "Pause before each squad request (0 disables it)")
	return cmd
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if cfg.Backend() == config.BackendPostgres {
				version, err := db.Migrate(ctx, cfg.DatabaseURL, logger)
				if err != nil {
					return err
				}
				logger.Info("Schema up to date", "version", version)
				return nil
			}

			// The embedded backend migrates on open.
			st, err := db.Open(ctx, cfg, logger)
			if err != nil {
				return err
			}
			st.Close()
			logger.Info("Schema up to date", "path", cfg.SQLitePath())
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// show command
// --------------------------------------------------------------------------

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <LEAGUE>",
		Short: "Print a stored competition with its teams, players and coaches as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
				comp, err := st.CompetitionGraph(ctx, strings.ToUpper(args[0]))
				if err != nil {
					return fmt.Errorf("load %s: %w", args[0], err)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(comp)
			})
		},
	}
}

// --------------------------------------------------------------------------
// refresh command
// --------------------------------------------------------------------------

func refreshCmd() *cobra.Command {
	var leagues []string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-import every configured league once (REFRESH_LEAGUES)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg *config.Config, st store.Store) error {
				if len(leagues) == 0 {
					leagues = cfg.RefreshLeagues
				}
				if len(leagues) == 0 {
					return fmt.Errorf("no leagues given and REFRESH_LEAGUES is empty")
				}
				return maintenance.RefreshLeagues(ctx, newImporter(cfg, st), leagues, nil, logger)
			})
		},
	}
	cmd.Flags().StringSliceVar(&leagues, "leagues", nil, "League codes (defaults to REFRESH_LEAGUES)")
	return cmd
}

// --------------------------------------------------------------------------
// helpers
// --------------------------------------------------------------------------

func newImporter(cfg *config.Config, st store.Store) *seed.Importer {
	return seed.NewImporter(st, footballdata.NewSource(cfg, logger, nil), status.NewTracker(), logger, seed.Options{
		TeamLimit:    cfg.ImportTeamLimit,
		RequestDelay: seed.DelayOption(cfg.ImportRequestDelay),
	})
}

func withStore(fn func(ctx context.Context, cfg *config.Config, st store.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	return fn(ctx, cfg, st)
}
