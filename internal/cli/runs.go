package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/statkeys/internal/annotate"
	"github.com/roach88/statkeys/internal/catalog"
	"github.com/roach88/statkeys/internal/statkey"
	"github.com/roach88/statkeys/internal/store"
)

// recordRun stores res in the catalog database and prunes old runs.
func recordRun(cmd *cobra.Command, p *project, res *annotate.Result, dbPath string) (string, error) {
	ctx := cmd.Context()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return "", fmt.Errorf("create database dir: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run, err := st.WriteRun(ctx, store.Run{
		Release:        p.cfg.Release,
		TagSource:      p.tagInfo.Source,
		TagHash:        p.tagInfo.Hash,
		CategorySource: p.catInfo.Source,
		CategoryHash:   p.catInfo.Hash,
	}, res)
	if err != nil {
		return "", err
	}

	pruned, err := st.Prune(ctx, p.cfg.KeepRuns)
	if err != nil {
		return "", err
	}
	if pruned > 0 {
		slog.Debug("pruned old runs", "count", pruned, "keep", p.cfg.KeepRuns)
	}
	return run.ID, nil
}

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	RunID    string
	Tag      string
	Super    string
	Sub      string
	Key      string
}

// RunReport describes a recorded run.
type RunReport struct {
	ID          string          `json:"id"`
	StartedAt   string          `json:"started_at"`
	Release     string          `json:"release,omitempty"`
	Annotated   int             `json:"annotated"`
	Skipped     int             `json:"skipped"`
	Keys        []string        `json:"keys,omitempty"`
	Entry       *annotate.Entry `json:"entry,omitempty"`
	SkippedKeys []store.Warning `json:"skipped_keys,omitempty"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Query recorded catalog runs",
		Long: `List catalog runs recorded by build, or show one run.

A single run is shown when --run, --tag, --super or --key is given; it
defaults to the latest run and lists the keys that run skipped.

Examples:
  statkeys runs
  statkeys runs --tag disk-io
  statkeys runs --super Disk --sub Transfers
  statkeys runs --run 0190b6c2-... --key node.3.disk.7.reads`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "catalog database path (overrides config)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show this run instead of the latest")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "list keys of the run carrying this tag")
	cmd.Flags().StringVar(&opts.Super, "super", "", "list keys of the run in this category")
	cmd.Flags().StringVar(&opts.Sub, "sub", "", "narrow --super to a sub category")
	cmd.Flags().StringVar(&opts.Key, "key", "", "show the recorded annotation of one key")

	return cmd
}

func (o *RunsOptions) single() bool {
	return o.RunID != "" || o.Tag != "" || o.Super != "" || o.Key != ""
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return fail(formatter, ExitCommandError, "loading configuration", err)
	}
	dbPath := cfg.Database
	if opts.Database != "" {
		dbPath = opts.Database
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fail(formatter, ExitCommandError, "opening catalog database", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return dbFail(formatter, "opening catalog database", err)
	}
	defer st.Close()

	if !opts.single() {
		runs, err := st.Runs(ctx)
		if err != nil {
			return dbFail(formatter, "listing runs", err)
		}
		reports := make([]RunReport, len(runs))
		for i, r := range runs {
			reports[i] = newRunReport(r)
		}
		return outputRuns(formatter, reports)
	}

	var run store.Run
	if opts.RunID != "" {
		run, err = st.ReadRun(ctx, opts.RunID)
	} else {
		run, err = st.LatestRun(ctx)
	}
	if errors.Is(err, sql.ErrNoRows) {
		msg := "no runs recorded in " + dbPath
		if opts.RunID != "" {
			msg = fmt.Sprintf("run %s not found in %s", opts.RunID, dbPath)
		}
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, ErrCodeNotFound+": "+msg)
	}
	if err != nil {
		return dbFail(formatter, "reading run", err)
	}

	report := newRunReport(run)
	switch {
	case opts.Key != "":
		canonical, kerr := statkey.Canonicalize(opts.Key)
		if kerr != nil {
			return fail(formatter, ExitCommandError, "invalid key", kerr)
		}
		report.Entry, err = st.ReadEntry(ctx, run.ID, canonical)
		if errors.Is(err, sql.ErrNoRows) {
			msg := fmt.Sprintf("key %s not recorded in run %s", canonical, run.ID)
			_ = formatter.Error(ErrCodeNotFound, msg, nil)
			return NewExitError(ExitCommandError, ErrCodeNotFound+": "+msg)
		}
	case opts.Tag != "":
		report.Keys, err = st.KeysByTag(ctx, run.ID, opts.Tag)
	case opts.Super != "":
		super := opts.Super
		if super == catalog.DefaultCategory {
			super = ""
		}
		report.Keys, err = st.KeysByCategory(ctx, run.ID, super, opts.Sub)
	}
	if err != nil {
		return dbFail(formatter, "querying keys", err)
	}

	if report.SkippedKeys, err = st.ReadWarnings(ctx, run.ID); err != nil {
		return dbFail(formatter, "reading skipped keys", err)
	}
	return outputRuns(formatter, []RunReport{report})
}

// dbFail reports a catalog database error.
func dbFail(formatter *OutputFormatter, message string, err error) error {
	_ = formatter.Error(ErrCodeDatabase, message+": "+err.Error(), nil)
	return WrapExitError(ExitCommandError, ErrCodeDatabase+": "+message, err)
}

func newRunReport(r store.Run) RunReport {
	return RunReport{
		ID:        r.ID,
		StartedAt: r.StartedAt.Format(time.RFC3339),
		Release:   r.Release,
		Annotated: r.Annotated,
		Skipped:   r.Skipped,
	}
}

func outputRuns(formatter *OutputFormatter, reports []RunReport) error {
	if formatter.IsJSON() {
		return formatter.Success(reports)
	}

	w := formatter.Writer
	if len(reports) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	for _, r := range reports {
		fmt.Fprintf(w, "%s  %s  annotated=%d skipped=%d", r.ID, r.StartedAt, r.Annotated, r.Skipped)
		if r.Release != "" {
			fmt.Fprintf(w, " release=%s", r.Release)
		}
		fmt.Fprintln(w)
		for _, k := range r.Keys {
			fmt.Fprintf(w, "  %s\n", k)
		}
		if e := r.Entry; e != nil {
			category := e.CategoryLabel()
			if category == "" {
				category = catalog.DefaultCategory
			}
			fmt.Fprintf(w, "  %s [%s] %v\n", e.Canonical, category, e.Tags)
			for _, inst := range e.Instances {
				fmt.Fprintf(w, "    %s\n", inst)
			}
		}
		for _, sk := range r.SkippedKeys {
			fmt.Fprintf(w, "  ! %s: %s\n", sk.Key, sk.Reason)
		}
	}
	return nil
}
