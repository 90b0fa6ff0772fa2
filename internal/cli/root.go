// Package cli implements the knolstudy command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/conorfennell/knolstudy/internal/analytics"
	"github.com/conorfennell/knolstudy/internal/config"
	"github.com/conorfennell/knolstudy/internal/importer"
	"github.com/conorfennell/knolstudy/internal/sm2"
	"github.com/conorfennell/knolstudy/internal/storage"
	"github.com/conorfennell/knolstudy/internal/study"
)

// app holds the services shared by all commands.
type app struct {
	cfg       *config.Config
	db        *storage.DB
	engine    *sm2.Params
	study     *study.Service
	analytics *analytics.Service
	importer  *importer.Importer
}

func newApp(cfg *config.Config) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	slog.Debug("database opened", "driver", cfg.DB.Driver)

	engine := sm2.DefaultParams()
	engine.Location = loc
	policy := study.Policy{
		NewCardDivisor: cfg.Study.NewCardDivisor,
		BackfillNew:    cfg.Study.BackfillNew,
		DefaultLimit:   cfg.Study.DefaultLimit,
		MaxLimit:       cfg.Study.MaxLimit,
		MaxRetries:     cfg.Review.MaxRetries,
	}
	svc := study.NewService(db, engine, policy)
	return &app{
		cfg:       cfg,
		db:        db,
		engine:    engine,
		study:     svc,
		analytics: analytics.NewService(db, engine),
		importer:  importer.New(svc, db, cfg.Import.ReposDir),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:   "knolstudy",
		Short: "Spaced repetition study server for markdown flashcards",
		Long: `knolstudy schedules flashcards with the SM-2 algorithm, builds study
sessions from due and new cards and reports study streaks and retention.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			slog.SetDefault(cfg.Log.NewLogger(cmd.ErrOrStderr()))
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	// withApp opens the services for the duration of one command.
	withApp := func(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd, args, a)
		}
	}

	root.AddCommand(
		newServeCmd(withApp),
		newDecksCmd(withApp),
		newImportCmd(withApp),
		newSyncCmd(withApp),
		newDueCmd(withApp),
		newStatsCmd(withApp),
	)
	return root
}

type runner func(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func ownerFlag(cmd *cobra.Command, owner *string) {
	cmd.Flags().StringVar(owner, "owner", "", "user whose data the command acts on")
	cmd.MarkFlagRequired("owner")
}
