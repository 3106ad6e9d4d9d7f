package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/statkeys/internal/annotate"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	RuleFlags
}

// RuleMatch is one matching rule in explain output.
type RuleMatch struct {
	Pattern string   `json:"pattern"`
	Labels  []string `json:"labels"`
	Source  string   `json:"source"`
	Winner  bool     `json:"winner,omitempty"`
}

// ExplainResult is the output of the explain command.
type ExplainResult struct {
	Key       string      `json:"key"`
	Canonical string      `json:"canonical"`
	Tags      []string    `json:"tags"`
	Category  string      `json:"category,omitempty"`
	TagRules  []RuleMatch `json:"tag_rules"`
	CatRules  []RuleMatch `json:"category_rules"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <key>",
		Short: "Show which rules match a key",
		Long: `Show every tag and category rule matching a key, with the file and
line each rule was declared on.

The first matching category rule decides the category; later matches
are listed as shadowed.

Examples:
  statkeys explain node.3.disk.7.reads`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	opts.RuleFlags.register(cmd)

	return cmd
}

func runExplain(opts *ExplainOptions, key string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	p, err := loadProject(opts.RootOptions, &opts.RuleFlags, cmd)
	if err != nil {
		return fail(formatter, ExitCommandError, "loading rules", err)
	}

	x, err := p.engine(1).Explain(key)
	if err != nil {
		return fail(formatter, ExitCommandError, "invalid key", err)
	}

	result := newExplainResult(x)
	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	printExplanation(formatter, result)
	return nil
}

func newExplainResult(x *annotate.Explanation) ExplainResult {
	result := ExplainResult{
		Key:       x.Key,
		Canonical: x.Canonical,
		Tags:      []string{},
		TagRules:  []RuleMatch{},
		CatRules:  []RuleMatch{},
	}

	seen := make(map[string]bool)
	for _, m := range x.Tags {
		result.TagRules = append(result.TagRules, newRuleMatch(m))
		for _, t := range m.Rule.Tags {
			if !seen[t] {
				seen[t] = true
				result.Tags = append(result.Tags, t)
			}
		}
	}
	for _, m := range x.Categories {
		result.CatRules = append(result.CatRules, newRuleMatch(m))
	}
	if c := x.Category(); c != nil {
		result.Category = c.Label()
	}
	return result
}

func newRuleMatch(m annotate.Match) RuleMatch {
	return RuleMatch{
		Pattern: m.Rule.Pattern.String(),
		Labels:  m.Rule.Labels(),
		Source:  m.Rule.Provenance.String(),
		Winner:  m.Winner,
	}
}

func printExplanation(formatter *OutputFormatter, r ExplainResult) {
	w := formatter.Writer
	fmt.Fprintf(w, "%s\n", r.Key)
	if r.Canonical != r.Key {
		fmt.Fprintf(w, "  canonical: %s\n", r.Canonical)
	}

	category := r.Category
	if category == "" {
		category = "(uncategorized)"
	}
	fmt.Fprintf(w, "  category:  %s\n", category)
	fmt.Fprintf(w, "  tags:      %v\n", r.Tags)

	if len(r.TagRules) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tag rules:")
		for _, m := range r.TagRules {
			fmt.Fprintf(w, "  %s -> %v  (%s)\n", m.Pattern, m.Labels, m.Source)
		}
	}
	if len(r.CatRules) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Category rules:")
		for _, m := range r.CatRules {
			mark := "shadowed"
			if m.Winner {
				mark = "winner"
			}
			fmt.Fprintf(w, "  %s -> %v  (%s, %s)\n", m.Pattern, m.Labels, m.Source, mark)
		}
	}
}
