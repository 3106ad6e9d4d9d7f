// Package config loads statkeys project configuration from CUE.
//
// A configuration file is unified with an embedded schema that supplies
// defaults and constraints:
//
//	rules: tags:       "rules/key_tags.hexa"
//	rules: categories: "rules/key_cats.hexa"
//	host:    "cluster.example.com"
//	workers: 4
//
// Relative paths are resolved against the directory of the file.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/statkeys/internal/link"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "statkeys.cue"

// Rules names the rule sources.
type Rules struct {
	Tags       string `json:"tags"`
	Categories string `json:"categories"`
}

// Config is the decoded project configuration.
type Config struct {
	Rules Rules  `json:"rules"`
	Keys  string `json:"keys,omitempty"`

	CacheDir  string `json:"cache_dir"`
	OutputDir string `json:"output_dir"`
	Database  string `json:"database"`
	KeepRuns  int    `json:"keep_runs"`

	APIVersion int      `json:"api_version"`
	Host       *string  `json:"host,omitempty"`
	Release    string   `json:"release"`
	Endpoints  []string `json:"endpoints"`

	Workers     int    `json:"workers"`
	MetricsFile string `json:"metrics_file"`
}

// Error is a configuration error with its CUE source position.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the schema defaults.
func Default() (*Config, error) {
	return decode(nil, "")
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := decode(data, path)
	if err != nil {
		return nil, err
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// LoadOrDefault loads path when it exists and returns the defaults when
// it does not.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default()
	}
	return Load(path)
}

func decode(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if data != nil {
		user := ctx.CompileBytes(data, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		v = v.Unify(user)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	return &cfg, nil
}

// resolve makes relative paths relative to dir.
func (c *Config) resolve(dir string) {
	for _, p := range []*string{
		&c.Rules.Tags,
		&c.Rules.Categories,
		&c.Keys,
		&c.CacheDir,
		&c.OutputDir,
		&c.Database,
		&c.MetricsFile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// LinkBuilder returns the link builder for the configured cluster.
func (c *Config) LinkBuilder() link.Builder {
	return link.Builder{
		APIVersion: c.APIVersion,
		Host:       c.Host,
		Endpoints:  c.Endpoints,
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &Error{Message: first.Error(), Pos: positions[0]}
	}
	return &Error{Message: first.Error()}
}
