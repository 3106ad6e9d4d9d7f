package rules

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// LoadInfo describes how Load obtained a rule set.
type LoadInfo struct {
	Source    string
	CachePath string
	Hash      string
	FromCache bool
	// Reason explains why the cache was not used. Empty when FromCache.
	Reason string
}

// Load returns the rule set for the source at path, reusing the cache under
// cacheDir when it is fresh and rewriting it otherwise.
//
// A cache is fresh when it is not older than the source and records the
// SHA-256 of the current source content. Stale, missing or corrupt caches
// trigger a re-parse; a failure to write the new cache is logged and
// otherwise ignored. Syntax errors in the source are always returned.
func Load(path string, kind Kind, cacheDir string) (*RuleSet, LoadInfo, error) {
	info := LoadInfo{Source: path, CachePath: CachePath(path, cacheDir)}

	srcStat, err := os.Stat(path)
	if err != nil {
		return nil, info, fmt.Errorf("stat rule source: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, info, fmt.Errorf("read rule source: %w", err)
	}
	sum := SourceHash(data)
	info.Hash = sum

	set, reason := tryCache(info.CachePath, srcStat, kind, sum)
	if set != nil {
		info.FromCache = true
		// Provenance must name the source as the caller addressed it.
		set.Source = path
		for i := range set.Rules {
			set.Rules[i].Provenance.File = path
		}
		slog.Debug("rule set loaded from cache", "source", path, "cache", info.CachePath, "rules", set.Len())
		return set, info, nil
	}
	info.Reason = reason

	set, err = Parse(bytes.NewReader(data), path, kind)
	if err != nil {
		return nil, info, err
	}
	slog.Debug("rule source parsed", "source", path, "kind", kind, "rules", set.Len(), "cache_miss", reason)

	if err := WriteCache(info.CachePath, set, sum); err != nil {
		slog.Warn("rule cache not written", "cache", info.CachePath, "error", err)
	}
	return set, info, nil
}

// tryCache returns the cached rule set, or nil and the reason it could not
// be used. Staleness is a normal condition, not an error.
func tryCache(cachePath string, srcStat os.FileInfo, kind Kind, sum string) (*RuleSet, string) {
	cacheStat, err := os.Stat(cachePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "no cache"
	}
	if err != nil {
		return nil, err.Error()
	}
	if cacheStat.ModTime().Before(srcStat.ModTime()) {
		return nil, "source newer than cache"
	}

	set, err := readCache(cachePath, kind, sum)
	if err != nil {
		if !errors.Is(err, errStale) {
			slog.Warn("rule cache unreadable", "cache", cachePath, "error", err)
		}
		return nil, err.Error()
	}
	return set, ""
}
