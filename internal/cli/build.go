package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/statkeys/internal/annotate"
	"github.com/roach88/statkeys/internal/catalog"
	"github.com/roach88/statkeys/internal/metrics"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	RuleFlags
	Keys        string
	Workers     int
	Output      string
	Database    string
	NoDatabase  bool
	Host        string
	Release     string
	MetricsFile string
}

// BuildReport is the output of the build command.
type BuildReport struct {
	RunID         string        `json:"run_id,omitempty"`
	Annotated     int           `json:"annotated"`
	Skipped       int           `json:"skipped"`
	CanonicalKeys int           `json:"canonical_keys"`
	Tags          int           `json:"tags"`
	Output        []string      `json:"output"`
	Database      string        `json:"database,omitempty"`
	MetricsFile   string        `json:"metrics_file,omitempty"`
	Rules         []ruleSummary `json:"rules"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Annotate keys and write the key catalog",
		Long: `Annotate a key listing and write the browsable catalog.

Writes keys.js and keys.json to the output directory, records the run
in the catalog database and, when configured, writes Prometheus
metrics in textfile format. Links to the cluster are added only when a
host is configured. Malformed keys are reported and skipped.

Examples:
  statkeys build --keys keys.json
  statkeys build --keys keys.json --host 10.0.0.5 --release 9.4.0
  statkeys build --keys keys.json --no-db --out site/data`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, cmd)
		},
	}

	opts.RuleFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.Keys, "keys", "k", "", "key listing file, - for stdin (overrides config)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "annotation goroutines (overrides config)")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output directory (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "catalog database path (overrides config)")
	cmd.Flags().BoolVar(&opts.NoDatabase, "no-db", false, "do not record the run")
	cmd.Flags().StringVar(&opts.Host, "host", "", "cluster host for key links (overrides config)")
	cmd.Flags().StringVar(&opts.Release, "release", "", "cluster release recorded in the catalog (overrides config)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Prometheus textfile path (overrides config)")

	return cmd
}

func (o *BuildOptions) apply(p *project) {
	cfg := p.cfg
	if o.Output != "" {
		cfg.OutputDir = o.Output
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.Host != "" {
		host := o.Host
		cfg.Host = &host
	}
	if o.Release != "" {
		cfg.Release = o.Release
	}
	if o.MetricsFile != "" {
		cfg.MetricsFile = o.MetricsFile
	}
}

func runBuild(opts *BuildOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	p, err := loadProject(opts.RootOptions, &opts.RuleFlags, cmd)
	if err != nil {
		return fail(formatter, ExitCommandError, "loading rules", err)
	}
	opts.apply(p)
	cfg := p.cfg

	m := metrics.New()
	m.ObserveRules(p.tags)
	m.ObserveRules(p.categories)

	listing, err := readListing(cmd, opts.Keys, cfg)
	if err != nil {
		return failIO(formatter, ExitCommandError, ErrCodeReadFailed, "reading key listing", err)
	}
	listing.Tidy()

	res, elapsed, err := runPass(ctx, p.engine(opts.Workers), listing)
	if err != nil {
		_ = formatter.Error(ErrCodeAnnotateFail, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeAnnotateFail+": annotation aborted", err)
	}
	m.ObservePass(res, elapsed)

	ds, err := catalog.Build(catalog.Input{
		Result:     res,
		Listing:    listing,
		Tags:       p.tags,
		Categories: p.categories,
		Links:      cfg.LinkBuilder(),
		Release:    cfg.Release,
	})
	if err != nil {
		return fail(formatter, ExitCommandError, "building catalog", err)
	}
	if err := catalog.WriteDir(cfg.OutputDir, ds); err != nil {
		return failIO(formatter, ExitCommandError, ErrCodeWriteFailed, "writing catalog", err)
	}

	report := BuildReport{
		Annotated:     res.Annotated,
		Skipped:       res.Skipped,
		CanonicalKeys: res.Len(),
		Tags:          len(ds.Tags),
		Output: []string{
			filepath.Join(cfg.OutputDir, catalog.ScriptFile),
			filepath.Join(cfg.OutputDir, catalog.JSONFile),
		},
		Rules: []ruleSummary{
			summarizeRules(p.tags, p.tagInfo),
			summarizeRules(p.categories, p.catInfo),
		},
	}

	if !opts.NoDatabase && cfg.Database != "" {
		runID, err := recordRun(cmd, p, res, cfg.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, ErrCodeDatabase+": recording run", err)
		}
		report.RunID = runID
		report.Database = cfg.Database
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			return failIO(formatter, ExitCommandError, ErrCodeWriteFailed, "writing metrics", err)
		}
		report.MetricsFile = cfg.MetricsFile
	}

	return outputBuildReport(formatter, report, res.Warnings)
}

func outputBuildReport(formatter *OutputFormatter, report BuildReport, warnings []annotate.Warning) error {
	if formatter.IsJSON() {
		return formatter.SuccessWithWarnings(report, warningErrors(warnings))
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Built catalog of %d canonical key(s), %d tag(s)\n",
		report.CanonicalKeys, report.Tags)
	fmt.Fprintf(w, "  %d key(s) annotated, %d skipped\n", report.Annotated, report.Skipped)
	for _, r := range report.Rules {
		source := "parsed"
		if r.FromCache {
			source = "cached"
		}
		fmt.Fprintf(w, "  %s rules: %s (%d, %s)\n", r.Kind, r.Source, r.Rules, source)
	}
	for _, out := range report.Output {
		fmt.Fprintf(w, "  wrote %s\n", out)
	}
	if report.RunID != "" {
		fmt.Fprintf(w, "  recorded run %s in %s\n", report.RunID, report.Database)
	}
	if report.MetricsFile != "" {
		fmt.Fprintf(w, "  wrote metrics to %s\n", report.MetricsFile)
	}

	if len(warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range warnings {
			fmt.Fprintf(w, "  ! %s\n", warn.Error())
		}
	}
	return nil
}
