package annotate

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/statkeys/internal/rules"
	"github.com/roach88/statkeys/internal/statkey"
)

// minChunk keeps parallel work units large enough to outweigh scheduling.
const minChunk = 256

// Engine annotates keys with a fixed pair of rule sets.
type Engine struct {
	tags       *rules.RuleSet
	categories *rules.RuleSet
	workers    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the number of goroutines used per pass. Values below 2
// select the serial pass.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// New creates an Engine. Either rule set may be nil.
func New(tags, categories *rules.RuleSet, opts ...Option) *Engine {
	e := &Engine{
		tags:       tags,
		categories: categories,
		workers:    1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TagRules returns the tag rule set.
func (e *Engine) TagRules() *rules.RuleSet { return e.tags }

// CategoryRules returns the category rule set.
func (e *Engine) CategoryRules() *rules.RuleSet { return e.categories }

// outcome is the per-key result of a pass, before merging.
type outcome struct {
	key          string
	canonical    string
	tags         []string
	category     *rules.Category
	attrs        map[string]string
	tagMatches   int
	categoryRule bool
	err          error
}

// Annotate runs one full pass over keys.
//
// The returned error is non-nil only when ctx is cancelled during a
// parallel pass. Malformed keys never fail the pass; they are listed in
// Result.Warnings.
func (e *Engine) Annotate(ctx context.Context, keys []string) (*Result, error) {
	outcomes := make([]outcome, len(keys))

	if e.workers < 2 || len(keys) <= minChunk {
		for i, key := range keys {
			outcomes[i] = e.annotateKey(key)
		}
	} else if err := e.annotateParallel(ctx, keys, outcomes); err != nil {
		return nil, err
	}

	return merge(outcomes), nil
}

// annotateParallel fills outcomes using up to e.workers goroutines. Each
// goroutine owns a disjoint index range.
func (e *Engine) annotateParallel(ctx context.Context, keys []string, outcomes []outcome) error {
	chunk := (len(keys) + e.workers - 1) / e.workers
	if chunk < minChunk {
		chunk = minChunk
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for start := 0; start < len(keys); start += chunk {
		start := start
		end := min(start+chunk, len(keys))
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				outcomes[i] = e.annotateKey(keys[i])
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// Wait always cancels gctx.
	return ctx.Err()
}

// annotateKey evaluates every rule against one key.
func (e *Engine) annotateKey(key string) outcome {
	segments, err := statkey.Split(key)
	if err != nil {
		return outcome{key: key, err: err}
	}
	segments = statkey.CanonicalSegments(segments)

	o := outcome{
		key:       key,
		canonical: strings.Join(segments, statkey.Separator),
	}

	var tags []string
	if e.tags != nil {
		for _, r := range e.tags.Rules {
			if !r.Pattern.MatchSegments(segments) {
				continue
			}
			o.tagMatches++
			tags = append(tags, r.Tags...)
			for name, v := range r.Attrs {
				if o.attrs == nil {
					o.attrs = make(map[string]string)
				}
				o.attrs[name] = v
			}
		}
	}
	o.tags = dedupe(tags)

	if e.categories != nil {
		for _, r := range e.categories.Rules {
			if r.Pattern.MatchSegments(segments) {
				o.category = r.Category
				o.categoryRule = true
				break
			}
		}
	}

	return o
}

// merge folds per-key outcomes into a Result in input order.
func merge(outcomes []outcome) *Result {
	res := &Result{Entries: make(map[string]*Entry)}
	seen := make(map[string]struct{}, len(outcomes))

	for _, o := range outcomes {
		if o.err != nil {
			w := Warning{Key: o.key, Err: o.err}
			slog.Warn("skipping malformed key", "key", o.key, "error", o.err)
			res.Warnings = append(res.Warnings, w)
			res.Skipped++
			continue
		}
		res.Annotated++

		if _, dup := seen[o.key]; dup {
			continue
		}
		seen[o.key] = struct{}{}

		if entry, ok := res.Entries[o.canonical]; ok {
			entry.Instances = append(entry.Instances, o.key)
			continue
		}

		res.Entries[o.canonical] = &Entry{
			Canonical: o.canonical,
			Instances: []string{o.key},
			Tags:      o.tags,
			Category:  o.category,
			Attrs:     o.attrs,
		}
		res.Stats.TagMatches += o.tagMatches
		if o.categoryRule {
			res.Stats.CategoryMatches++
		} else {
			res.Stats.Uncategorized++
		}
	}

	slog.Debug("annotation pass complete",
		"annotated", res.Annotated,
		"skipped", res.Skipped,
		"canonical_keys", len(res.Entries))
	return res
}

// dedupe sorts tags and removes duplicates. It always returns a non-nil
// slice so serialized entries show an empty list.
func dedupe(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	sort.Strings(tags)
	out := tags[:1]
	for _, t := range tags[1:] {
		if t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}
