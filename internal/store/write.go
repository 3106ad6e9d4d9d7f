package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/statkeys/internal/annotate"
)

// Run describes one catalog generation.
type Run struct {
	ID        string
	StartedAt time.Time
	Release   string

	TagSource      string
	TagHash        string
	CategorySource string
	CategoryHash   string

	Annotated int
	Skipped   int
}

// WriteRun records res as a new run in a single transaction and returns the
// stored run. An empty run.ID is replaced by a fresh UUIDv7 and a zero
// StartedAt by the current time. Annotated and Skipped are taken from res.
func (s *Store) WriteRun(ctx context.Context, run Run, res *annotate.Result) (Run, error) {
	if res == nil {
		return Run{}, fmt.Errorf("write run: no annotation result")
	}
	if run.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return Run{}, fmt.Errorf("write run: generate id: %w", err)
		}
		run.ID = id.String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.StartedAt = run.StartedAt.UTC()
	run.Annotated = res.Annotated
	run.Skipped = res.Skipped

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, release, tag_source, tag_hash, category_source, category_hash, annotated, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTime(run.StartedAt),
		run.Release,
		run.TagSource,
		run.TagHash,
		run.CategorySource,
		run.CategoryHash,
		run.Annotated,
		run.Skipped,
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	keyStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO keys (run_id, canonical, super, sub, subsub, attrs)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("write run: prepare keys: %w", err)
	}
	defer keyStmt.Close()

	tagStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO key_tags (run_id, canonical, tag) VALUES (?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("write run: prepare tags: %w", err)
	}
	defer tagStmt.Close()

	instStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO key_instances (run_id, canonical, instance, position) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("write run: prepare instances: %w", err)
	}
	defer instStmt.Close()

	for _, canonical := range res.Keys() {
		entry := res.Entries[canonical]

		attrs, err := marshalAttrs(entry.Attrs)
		if err != nil {
			return Run{}, fmt.Errorf("write run: key %s: %w", canonical, err)
		}

		var super, sub, subsub string
		if entry.Category != nil {
			super, sub, subsub = entry.Category.Super, entry.Category.Sub, entry.Category.Subsub
		}

		if _, err := keyStmt.ExecContext(ctx, run.ID, canonical, super, sub, subsub, attrs); err != nil {
			return Run{}, fmt.Errorf("write run: key %s: %w", canonical, err)
		}
		for _, tag := range entry.Tags {
			if _, err := tagStmt.ExecContext(ctx, run.ID, canonical, tag); err != nil {
				return Run{}, fmt.Errorf("write run: key %s tag %s: %w", canonical, tag, err)
			}
		}
		for i, inst := range entry.Instances {
			if _, err := instStmt.ExecContext(ctx, run.ID, canonical, inst, i); err != nil {
				return Run{}, fmt.Errorf("write run: key %s instance %s: %w", canonical, inst, err)
			}
		}
	}

	for i, w := range res.Warnings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO warnings (run_id, position, key, reason) VALUES (?, ?, ?, ?)
		`, run.ID, i, w.Key, w.Err.Error())
		if err != nil {
			return Run{}, fmt.Errorf("write run: warning %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}

	slog.Debug("recorded catalog run",
		"run_id", run.ID,
		"keys", res.Len(),
		"warnings", len(res.Warnings))
	return run, nil
}

// Prune deletes all but the newest keep runs and returns how many were
// removed. keep below 1 is treated as 1.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM runs
		WHERE id NOT IN (
			SELECT id FROM runs
			ORDER BY started_at DESC, id DESC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return n, nil
}
