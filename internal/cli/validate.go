package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/statkeys/internal/rules"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	RuleFlags
	Kind string
}

// ValidationError is a rule source that failed to parse.
type ValidationError struct {
	Source string `json:"source"`
	Line   int    `json:"line,omitempty"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
	Text   string `json:"text,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Sources []string          `json:"sources"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [rules...]",
		Short: "Check rule sources without writing caches",
		Long: `Parse rule sources and report the first syntax error of each.

Every source is checked even when an earlier one fails. Nothing is
written. Exits 1 when any source is invalid.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	opts.RuleFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Kind, "kind", string(rules.KindTag), "rule kind of positional sources (tag|category)")

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return fail(formatter, ExitCommandError, "loading configuration", err)
	}
	opts.RuleFlags.apply(cfg)

	sources, err := selectSources(args, opts.Kind, cfg.Rules.Tags, cfg.Rules.Categories)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidArg, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeInvalidArg+": invalid arguments", err)
	}

	result := ValidationResult{Valid: true}
	for _, src := range sources {
		formatter.VerboseLog("Validating %s rules: %s", src.kind, src.path)
		result.Sources = append(result.Sources, src.path)

		if _, err := rules.ParseFile(src.path, src.kind); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, toValidationError(src.path, err))
		}
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

func toValidationError(source string, err error) ValidationError {
	ve := ValidationError{Source: source, Code: errorCode(err), Reason: err.Error()}
	var syntaxErr *rules.SyntaxError
	if errors.As(err, &syntaxErr) {
		ve.Line = syntaxErr.Line
		ve.Reason = syntaxErr.Reason
		ve.Text = syntaxErr.Text
	}
	return ve
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d rule source(s) valid\n", len(result.Sources))
	return nil
}

// outputValidationErrors outputs every failed source.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.IsJSON() {
		errs := make([]CLIError, len(result.Errors))
		for i, e := range result.Errors {
			errs[i] = CLIError{Code: e.Code, Message: fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Reason)}
		}
		if err := formatter.Failure(result, errs); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", e.Source, e.Line)
		} else {
			fmt.Fprintf(formatter.Writer, "%s\n", e.Source)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", e.Code, e.Reason)
		if e.Text != "" {
			fmt.Fprintf(formatter.Writer, "  > %s\n", e.Text)
		}
		fmt.Fprintln(formatter.Writer)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
