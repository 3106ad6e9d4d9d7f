package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/statkeys/internal/annotate"
	"github.com/roach88/statkeys/internal/config"
	"github.com/roach88/statkeys/internal/keylist"
	"github.com/roach88/statkeys/internal/rules"
)

// AnnotateOptions holds flags for the annotate command.
type AnnotateOptions struct {
	*RootOptions
	RuleFlags
	Keys    string // key listing path, "-" for stdin
	Workers int
	Entries bool // include every entry in the output
}

// AnnotateReport is the output of the annotate command.
type AnnotateReport struct {
	Annotated     int               `json:"annotated"`
	Skipped       int               `json:"skipped"`
	CanonicalKeys int               `json:"canonical_keys"`
	Stats         annotate.Stats    `json:"stats"`
	Elapsed       string            `json:"elapsed"`
	Entries       []*annotate.Entry `json:"entries,omitempty"`
}

// NewAnnotateCommand creates the annotate command.
func NewAnnotateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnnotateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Annotate statistics keys with tags and categories",
		Long: `Run one annotation pass over a key listing and summarize it.

The listing is the cluster's statistics keys document or a plain list
with one key per line. Malformed keys are reported and skipped; they
never fail the command.

Examples:
  statkeys annotate --keys keys.json
  statkeys annotate --keys - --entries --format json < keys.txt`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(opts, cmd)
		},
	}

	opts.RuleFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.Keys, "keys", "k", "", "key listing file, - for stdin (overrides config)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "annotation goroutines (overrides config)")
	cmd.Flags().BoolVar(&opts.Entries, "entries", false, "list every annotated key")

	return cmd
}

func runAnnotate(opts *AnnotateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, err := loadProject(opts.RootOptions, &opts.RuleFlags, cmd)
	if err != nil {
		return fail(formatter, ExitCommandError, "loading rules", err)
	}

	listing, err := readListing(cmd, opts.Keys, p.cfg)
	if err != nil {
		return failIO(formatter, ExitCommandError, ErrCodeReadFailed, "reading key listing", err)
	}

	res, elapsed, err := runPass(cmd.Context(), p.engine(opts.Workers), listing)
	if err != nil {
		_ = formatter.Error(ErrCodeAnnotateFail, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeAnnotateFail+": annotation aborted", err)
	}

	report := AnnotateReport{
		Annotated:     res.Annotated,
		Skipped:       res.Skipped,
		CanonicalKeys: res.Len(),
		Stats:         res.Stats,
		Elapsed:       elapsed.Round(time.Microsecond).String(),
	}
	if opts.Entries {
		for _, k := range res.Keys() {
			report.Entries = append(report.Entries, res.Entries[k])
		}
	}

	return outputAnnotateReport(formatter, report, res.Warnings)
}

// readListing reads the key listing named by flag, or by the configuration
// when flag is empty.
func readListing(cmd *cobra.Command, flag string, cfg *config.Config) (*keylist.Listing, error) {
	path := flag
	if path == "" {
		path = cfg.Keys
	}
	switch path {
	case "":
		return nil, fmt.Errorf("no key listing: use --keys or set keys in %s", config.DefaultFile)
	case "-":
		return keylist.Read(cmd.InOrStdin())
	default:
		return keylist.ReadFile(path)
	}
}

// runPass annotates the listing and times the pass.
func runPass(ctx context.Context, eng *annotate.Engine, listing *keylist.Listing) (*annotate.Result, time.Duration, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	res, err := eng.Annotate(ctx, listing.Names())
	return res, time.Since(start), err
}

// warningErrors converts skipped keys into CLI findings.
func warningErrors(warnings []annotate.Warning) []CLIError {
	out := make([]CLIError, len(warnings))
	for i, w := range warnings {
		out[i] = CLIError{Code: errorCode(w.Err), Message: w.Error()}
	}
	return out
}

func outputAnnotateReport(formatter *OutputFormatter, report AnnotateReport, warnings []annotate.Warning) error {
	if formatter.IsJSON() {
		return formatter.SuccessWithWarnings(report, warningErrors(warnings))
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Annotated %d key(s) into %d canonical key(s), %d skipped\n",
		report.Annotated, report.CanonicalKeys, report.Skipped)
	fmt.Fprintf(w, "  %d tag match(es), %d categorized, %d uncategorized\n",
		report.Stats.TagMatches, report.Stats.CategoryMatches, report.Stats.Uncategorized)

	for _, e := range report.Entries {
		category := e.CategoryLabel()
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(w, "  %s [%s] %v (%d instance(s))\n", e.Canonical, category, e.Tags, len(e.Instances))
	}

	if len(warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range warnings {
			fmt.Fprintf(w, "  ! %s\n", warn.Error())
		}
	}
	return nil
}

// ruleSummary names a loaded rule set for output.
type ruleSummary struct {
	Source    string     `json:"source"`
	Kind      rules.Kind `json:"kind"`
	Rules     int        `json:"rules"`
	FromCache bool       `json:"from_cache"`
}

func summarizeRules(set *rules.RuleSet, info rules.LoadInfo) ruleSummary {
	return ruleSummary{Source: info.Source, Kind: set.Kind, Rules: set.Len(), FromCache: info.FromCache}
}
