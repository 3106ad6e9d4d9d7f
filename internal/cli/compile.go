package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/statkeys/internal/rules"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	RuleFlags
	Kind string // rule kind of positional sources
}

// CompiledSource summarizes one compiled rule source.
type CompiledSource struct {
	Source string     `json:"source"`
	Kind   rules.Kind `json:"kind"`
	Rules  int        `json:"rules"`
	Labels int        `json:"labels"`
	Cache  string     `json:"cache"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [rules...]",
		Short: "Compile rule sources and refresh their caches",
		Long: `Parse rule sources and write their compiled caches.

Without arguments the tag and category sources named by the project
configuration are compiled. Sources given as arguments are compiled
as --kind rules.

Examples:
  statkeys compile
  statkeys compile --kind category rules/key_cats.hexa`,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	opts.RuleFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Kind, "kind", string(rules.KindTag), "rule kind of positional sources (tag|category)")

	return cmd
}

// ruleSource pairs a source path with its kind.
type ruleSource struct {
	path string
	kind rules.Kind
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
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

	compiled := make([]CompiledSource, 0, len(sources))
	for _, src := range sources {
		formatter.VerboseLog("Compiling %s rules: %s", src.kind, src.path)

		data, err := os.ReadFile(src.path)
		if err != nil {
			return failIO(formatter, ExitCommandError, ErrCodeReadFailed, "reading rule source", err)
		}
		// Parse the bytes that are hashed so the cache cannot describe a
		// different revision of the source.
		set, err := rules.Parse(bytes.NewReader(data), src.path, src.kind)
		if err != nil {
			return fail(formatter, ExitFailure, "compiling "+src.path, err)
		}

		cachePath := rules.CachePath(src.path, cfg.CacheDir)
		if err := rules.WriteCache(cachePath, set, rules.SourceHash(data)); err != nil {
			return failIO(formatter, ExitCommandError, ErrCodeWriteFailed, "writing rule cache", err)
		}

		compiled = append(compiled, CompiledSource{
			Source: src.path,
			Kind:   src.kind,
			Rules:  set.Len(),
			Labels: len(set.Labels()),
			Cache:  cachePath,
		})
	}

	return outputCompileSuccess(formatter, compiled)
}

// selectSources returns the positional sources as kind, or the configured
// tag and category sources when there are none.
func selectSources(args []string, kind, tags, categories string) ([]ruleSource, error) {
	if len(args) == 0 {
		return []ruleSource{
			{path: tags, kind: rules.KindTag},
			{path: categories, kind: rules.KindCategory},
		}, nil
	}

	k := rules.Kind(kind)
	if !k.Valid() {
		return nil, fmt.Errorf("invalid rule kind %q: must be %q or %q", kind, rules.KindTag, rules.KindCategory)
	}
	sources := make([]ruleSource, len(args))
	for i, a := range args {
		sources[i] = ruleSource{path: a, kind: k}
	}
	return sources, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, compiled []CompiledSource) error {
	if formatter.IsJSON() {
		return formatter.Success(compiled)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d rule source(s)\n\n", len(compiled))
	for _, c := range compiled {
		fmt.Fprintf(formatter.Writer, "  %s (%s): %d rule(s), %d label(s) -> %s\n",
			c.Source, c.Kind, c.Rules, c.Labels, c.Cache)
	}
	return nil
}
