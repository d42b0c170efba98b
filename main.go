package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what PersistentPreRunE builds for every subcommand.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "hotwork",
		Short:         "Hazard classification and compliance reconciliation for hot-work permits",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
			}
			if a.logFormat != "" {
				cfg.Log.Format = a.logFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg

			a.logger, err = NewLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "json or console")

	root.AddCommand(a.serveCmd(), a.planCmd(), a.reconcileCmd())
	return root
}

func (a *app) phraseBooks() (*PhraseBookCache, error) {
	return NewPhraseBookCache(a.cfg.Phrases.File, a.logger)
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			books, err := a.phraseBooks()
			if err != nil {
				return err
			}
			defer books.Close()

			// Start file watcher in background
			go books.WatchFiles(ctx)

			srv := NewServer(books, a.logger)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(fmt.Sprintf(":%d", a.cfg.Server.Port))
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
}

func (a *app) planCmd() *cobra.Command {
	var req PlanRequest

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the equipment and questionnaire plan for a job",
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := a.phraseBooks()
			if err != nil {
				return err
			}
			defer books.Close()

			book, err := books.Get()
			if err != nil {
				a.logger.Warn("phrase book unavailable, using fallback", zap.Error(err))
			}

			job := Job{Number: req.Number, Date: req.Date, WorkType: req.WorkType}
			if job.WorkType != "" && !IsHotWork(job.WorkType) {
				a.logger.Warn("work type is not hot work, the filler would skip this job",
					zap.String("work_type", job.WorkType))
			}

			plan := NewPlanner(book).BuildPlan(req.Description, req.Characteristics)
			fmt.Fprint(cmd.OutOrStdout(), plan.Report(job, req.Description, req.Characteristics))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Description, "description", "", "job description")
	cmd.Flags().StringVar(&req.Characteristics, "characteristics", "", "job characteristics")
	cmd.Flags().StringVar(&req.WorkType, "work-type", "", "work type label, e.g. TRABALHO A QUENTE")
	cmd.Flags().StringVar(&req.Number, "job", "", "job number")
	cmd.Flags().StringVar(&req.Date, "date", "", "permit date")
	return cmd
}

func (a *app) reconcileCmd() *cobra.Command {
	var (
		snapshotPath string
		apply        bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a saved form snapshot against its plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := LoadSnapshot(snapshotPath)
			if err != nil {
				return err
			}

			books, err := a.phraseBooks()
			if err != nil {
				return err
			}
			defer books.Close()

			book, err := books.Get()
			if err != nil {
				a.logger.Warn("phrase book unavailable, using fallback", zap.Error(err))
			}

			form := NewMemoryForm(snap)
			ex := NewExecutor(NewPlanner(book), a.logger, !apply)
			outcome, err := ex.Run(cmd.Context(), form, snap.Job)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outcome.Report != "" {
				fmt.Fprint(out, outcome.Report)
			}
			fmt.Fprint(out, outcome.Summary())

			if asJSON {
				resp := ReconcileResponse{Outcome: outcome, Actions: outcome.Actions(), Summary: outcome.Summary()}
				if apply {
					result := form.Snapshot()
					resp.Snapshot = &result
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "form snapshot JSON file")
	cmd.Flags().BoolVar(&apply, "apply", false, "apply the actions to the in-memory form")
	cmd.Flags().BoolVar(&asJSON, "json", false, "also print the outcome as JSON")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}
