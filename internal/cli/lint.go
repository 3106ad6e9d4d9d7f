package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/statkeys/internal/annotate"
	"github.com/roach88/statkeys/internal/rules"
)

// LintOptions holds flags for the lint command.
type LintOptions struct {
	*RootOptions
	RuleFlags
	Keys    string
	Workers int
	Strict  bool
}

// LintFinding is one rule-quality finding.
type LintFinding struct {
	Code    string `json:"code"`
	Key     string `json:"key,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// LintReport is the output of the lint command.
type LintReport struct {
	Keys          int            `json:"keys"`
	Findings      []LintFinding  `json:"findings"`
	TagCounts     map[string]int `json:"tag_counts"`
	CategoryCount map[string]int `json:"category_counts"`
}

// NewLintCommand creates the lint command.
func NewLintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Report shadowed and unused rules against a key listing",
		Long: `Annotate a key listing and report rule-quality findings:

  E110  a category rule matched a key but lost to an earlier rule
  E111  a rule matched no key in the listing

Findings are informational unless --strict is set, which exits 1 when
any are found.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(opts, cmd)
		},
	}

	opts.RuleFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.Keys, "keys", "k", "", "key listing file, - for stdin (overrides config)")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "annotation goroutines (overrides config)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when findings are reported")

	return cmd
}

func runLint(opts *LintOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, err := loadProject(opts.RootOptions, &opts.RuleFlags, cmd)
	if err != nil {
		return fail(formatter, ExitCommandError, "loading rules", err)
	}
	listing, err := readListing(cmd, opts.Keys, p.cfg)
	if err != nil {
		return failIO(formatter, ExitCommandError, ErrCodeReadFailed, "reading key listing", err)
	}

	eng := p.engine(opts.Workers)
	res, _, err := runPass(cmd.Context(), eng, listing)
	if err != nil {
		_ = formatter.Error(ErrCodeAnnotateFail, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeAnnotateFail+": annotation aborted", err)
	}

	report := LintReport{
		Keys:          res.Len(),
		Findings:      lintFindings(eng, res),
		TagCounts:     annotate.TagCounts(res),
		CategoryCount: annotate.CategoryCounts(res),
	}

	if err := outputLintReport(formatter, report); err != nil {
		return err
	}
	if opts.Strict && len(report.Findings) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("lint reported %d finding(s)", len(report.Findings)))
	}
	return nil
}

// lintFindings lists shadowed category matches, then unused tag and
// category rules in declaration order.
func lintFindings(eng *annotate.Engine, res *annotate.Result) []LintFinding {
	findings := []LintFinding{}

	for _, c := range eng.Conflicts(res) {
		msg := fmt.Sprintf("shadowed by %s at %s", c.Winner.Category.Label(), c.Winner.Provenance)
		for _, r := range c.Shadowed {
			findings = append(findings, LintFinding{
				Code:    ErrCodeRuleShadow,
				Key:     c.Canonical,
				Rule:    r.String(),
				Message: msg,
			})
		}
	}

	for _, set := range []*rules.RuleSet{eng.TagRules(), eng.CategoryRules()} {
		for _, r := range annotate.UnusedRules(set, res) {
			findings = append(findings, LintFinding{
				Code:    ErrCodeRuleUnused,
				Rule:    r.String(),
				Message: "matches no key",
			})
		}
	}
	return findings
}

func outputLintReport(formatter *OutputFormatter, report LintReport) error {
	if formatter.IsJSON() {
		return formatter.Success(report)
	}

	w := formatter.Writer
	if len(report.Findings) == 0 {
		fmt.Fprintf(w, "✓ No findings across %d canonical key(s)\n", report.Keys)
		return nil
	}

	fmt.Fprintf(w, "%d finding(s) across %d canonical key(s)\n\n", len(report.Findings), report.Keys)
	for _, f := range report.Findings {
		if f.Key != "" {
			fmt.Fprintf(w, "  %s: %s: %s (%s)\n", f.Code, f.Key, f.Rule, f.Message)
		} else {
			fmt.Fprintf(w, "  %s: %s: %s\n", f.Code, f.Rule, f.Message)
		}
	}
	return nil
}
