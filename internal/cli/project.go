package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/statkeys/internal/annotate"
	"github.com/roach88/statkeys/internal/config"
	"github.com/roach88/statkeys/internal/rules"
)

// RuleFlags selects rule sources and their cache, overriding the project
// configuration.
type RuleFlags struct {
	Tags       string
	Categories string
	CacheDir   string
	NoCache    bool
}

func (f *RuleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Tags, "tags", "", "tag rule source (overrides config)")
	cmd.Flags().StringVar(&f.Categories, "categories", "", "category rule source (overrides config)")
	cmd.Flags().StringVar(&f.CacheDir, "cache-dir", "", "rule cache directory (overrides config)")
	cmd.Flags().BoolVar(&f.NoCache, "no-cache", false, "always parse rule sources")
}

func (f *RuleFlags) apply(cfg *config.Config) {
	if f.Tags != "" {
		cfg.Rules.Tags = f.Tags
	}
	if f.Categories != "" {
		cfg.Rules.Categories = f.Categories
	}
	if f.CacheDir != "" {
		cfg.CacheDir = f.CacheDir
	}
}

// newFormatter returns the formatter for a command.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// loadConfig reads the project configuration. A missing default file
// yields the schema defaults; an explicitly named file must exist.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*config.Config, error) {
	if f := cmd.Flag("config"); f != nil && f.Changed {
		return config.Load(opts.ConfigPath)
	}
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultFile
	}
	return config.LoadOrDefault(path)
}

// project holds the configuration and rule sets a command works with.
type project struct {
	cfg        *config.Config
	tags       *rules.RuleSet
	categories *rules.RuleSet
	tagInfo    rules.LoadInfo
	catInfo    rules.LoadInfo
}

// loadProject reads the configuration, applies rule flag overrides and
// loads both rule sets.
func loadProject(opts *RootOptions, flags *RuleFlags, cmd *cobra.Command) (*project, error) {
	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return nil, err
	}
	flags.apply(cfg)

	p := &project{cfg: cfg}
	if p.tags, p.tagInfo, err = loadRuleSet(cfg.Rules.Tags, rules.KindTag, cfg.CacheDir, flags.NoCache); err != nil {
		return nil, err
	}
	if p.categories, p.catInfo, err = loadRuleSet(cfg.Rules.Categories, rules.KindCategory, cfg.CacheDir, flags.NoCache); err != nil {
		return nil, err
	}
	return p, nil
}

func loadRuleSet(path string, kind rules.Kind, cacheDir string, noCache bool) (*rules.RuleSet, rules.LoadInfo, error) {
	if noCache {
		set, err := rules.ParseFile(path, kind)
		return set, rules.LoadInfo{Source: path, Reason: "cache disabled"}, err
	}
	return rules.Load(path, kind, cacheDir)
}

// engine returns an annotation engine over the project's rules.
func (p *project) engine(workers int) *annotate.Engine {
	if workers <= 0 {
		workers = p.cfg.Workers
	}
	return annotate.New(p.tags, p.categories, annotate.WithWorkers(workers))
}
