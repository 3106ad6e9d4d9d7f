package rules

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/statkeys/internal/pattern"
)

// cacheVersion is bumped whenever the cache document layout changes.
const cacheVersion = 1

// hashDomain separates rule-source hashes from any other content hash.
const hashDomain = "statkeys/rules/v1"

// cacheDoc is the serialized form of a RuleSet.
type cacheDoc struct {
	Version      int          `yaml:"version"`
	Kind         Kind         `yaml:"kind"`
	Source       string       `yaml:"source"`
	SourceSHA256 string       `yaml:"source_sha256"`
	Rules        []cachedRule `yaml:"rules"`
}

type cachedRule struct {
	Pattern  string            `yaml:"pattern"`
	Tags     []string          `yaml:"tags,omitempty"`
	Category *Category         `yaml:"category,omitempty"`
	Attrs    map[string]string `yaml:"attrs,omitempty"`
	Line     int               `yaml:"line"`
}

// SourceHash returns the content hash recorded in caches for a rule source.
func SourceHash(data []byte) string {
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CachePath returns where the cache for source lives. An empty cacheDir
// places the cache next to the source.
func CachePath(source, cacheDir string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + ".rules.yaml"
	if cacheDir == "" {
		return filepath.Join(filepath.Dir(source), base)
	}
	return filepath.Join(cacheDir, base)
}

// WriteCache serializes set to path. The file is written to a temporary
// name first and renamed, so readers never observe a partial cache.
func WriteCache(path string, set *RuleSet, sourceHash string) error {
	doc := cacheDoc{
		Version:      cacheVersion,
		Kind:         set.Kind,
		Source:       set.Source,
		SourceSHA256: sourceHash,
		Rules:        make([]cachedRule, 0, len(set.Rules)),
	}
	for _, r := range set.Rules {
		doc.Rules = append(doc.Rules, cachedRule{
			Pattern:  r.Pattern.String(),
			Tags:     r.Tags,
			Category: r.Category,
			Attrs:    r.Attrs,
			Line:     r.Provenance.Line,
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode rule cache: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode rule cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write rule cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write rule cache: %w", err)
	}
	return nil
}

// errStale marks a cache that must not be used. It is never returned to
// callers of Load.
var errStale = errors.New("stale rule cache")

// readCache decodes the cache at path and rebuilds the rule set, provided
// the cache matches kind and sourceHash.
func readCache(path string, kind Kind, sourceHash string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc cacheDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", errStale, err)
	}

	switch {
	case doc.Version != cacheVersion:
		return nil, fmt.Errorf("%w: version %d, want %d", errStale, doc.Version, cacheVersion)
	case doc.Kind != kind:
		return nil, fmt.Errorf("%w: kind %q, want %q", errStale, doc.Kind, kind)
	case doc.SourceSHA256 != sourceHash:
		return nil, fmt.Errorf("%w: source content changed", errStale)
	}

	set := &RuleSet{Kind: doc.Kind, Source: doc.Source, Rules: make([]Rule, 0, len(doc.Rules))}
	for i, cr := range doc.Rules {
		p, err := pattern.Parse(cr.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %v", errStale, i, err)
		}
		rule := Rule{
			Kind:       doc.Kind,
			Pattern:    p,
			Tags:       cr.Tags,
			Category:   cr.Category,
			Attrs:      cr.Attrs,
			Provenance: Provenance{File: doc.Source, Line: cr.Line},
		}
		if kind == KindCategory && rule.Category == nil {
			return nil, fmt.Errorf("%w: rule %d has no category", errStale, i)
		}
		set.Rules = append(set.Rules, rule)
	}

	slog.Debug("rule cache decoded", "cache", path, "rules", len(set.Rules))
	return set, nil
}
