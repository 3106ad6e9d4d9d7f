package store

import (
	"context"
	"fmt"

	"github.com/roach88/statkeys/internal/annotate"
	"github.com/roach88/statkeys/internal/rules"
)

// Warning is a stored malformed-key report.
type Warning struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

const runColumns = `id, started_at, release, tag_source, tag_hash, category_source, category_hash, annotated, skipped`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var (
		run     Run
		started string
	)
	err := row.Scan(
		&run.ID,
		&started,
		&run.Release,
		&run.TagSource,
		&run.TagHash,
		&run.CategorySource,
		&run.CategoryHash,
		&run.Annotated,
		&run.Skipped,
	)
	if err != nil {
		return Run{}, err
	}
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	return run, nil
}

// LatestRun returns the most recently started run.
// Returns sql.ErrNoRows if no run has been recorded.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`)
	return scanRun(row)
}

// ReadRun returns the run with the given id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// Runs returns every run, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// KeysByTag returns the canonical keys of a run carrying tag, sorted.
// Returns an empty slice (not nil) if none match.
func (s *Store) KeysByTag(ctx context.Context, runID, tag string) ([]string, error) {
	return s.queryKeys(ctx, `
		SELECT canonical
		FROM key_tags
		WHERE run_id = ? AND tag = ?
		ORDER BY canonical COLLATE BINARY ASC
	`, runID, tag)
}

// KeysByCategory returns the canonical keys of a run filed under super, and
// under sub when sub is non-empty, sorted. An empty super selects keys that
// matched no category rule.
func (s *Store) KeysByCategory(ctx context.Context, runID, super, sub string) ([]string, error) {
	if sub == "" {
		return s.queryKeys(ctx, `
			SELECT canonical
			FROM keys
			WHERE run_id = ? AND super = ?
			ORDER BY canonical COLLATE BINARY ASC
		`, runID, super)
	}
	return s.queryKeys(ctx, `
		SELECT canonical
		FROM keys
		WHERE run_id = ? AND super = ? AND sub = ?
		ORDER BY canonical COLLATE BINARY ASC
	`, runID, super, sub)
}

func (s *Store) queryKeys(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

// ReadEntry reassembles the annotation of one canonical key.
// Returns sql.ErrNoRows if the run has no such key.
func (s *Store) ReadEntry(ctx context.Context, runID, canonical string) (*annotate.Entry, error) {
	var super, sub, subsub, attrs string
	err := s.db.QueryRowContext(ctx, `
		SELECT super, sub, subsub, attrs
		FROM keys
		WHERE run_id = ? AND canonical = ?
	`, runID, canonical).Scan(&super, &sub, &subsub, &attrs)
	if err != nil {
		return nil, err
	}

	entry := &annotate.Entry{Canonical: canonical}
	if super != "" {
		entry.Category = &rules.Category{Super: super, Sub: sub, Subsub: subsub}
	}
	if entry.Attrs, err = unmarshalAttrs(attrs); err != nil {
		return nil, err
	}

	if entry.Tags, err = s.queryKeys(ctx, `
		SELECT tag
		FROM key_tags
		WHERE run_id = ? AND canonical = ?
		ORDER BY tag COLLATE BINARY ASC
	`, runID, canonical); err != nil {
		return nil, err
	}

	if entry.Instances, err = s.queryKeys(ctx, `
		SELECT instance
		FROM key_instances
		WHERE run_id = ? AND canonical = ?
		ORDER BY position ASC
	`, runID, canonical); err != nil {
		return nil, err
	}

	return entry, nil
}

// ReadWarnings returns the malformed keys skipped by a run, in input order.
func (s *Store) ReadWarnings(ctx context.Context, runID string) ([]Warning, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, reason
		FROM warnings
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	warnings := []Warning{}
	for rows.Next() {
		var w Warning
		if err := rows.Scan(&w.Key, &w.Reason); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		warnings = append(warnings, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warnings: %w", err)
	}
	return warnings, nil
}
