package annotate

import (
	"fmt"
	"sort"

	"github.com/roach88/statkeys/internal/rules"
	"github.com/roach88/statkeys/internal/statkey"
)

// Entry is the annotation of one canonical key.
type Entry struct {
	Canonical string `json:"canonical"`

	// Instances lists the distinct concrete keys that canonicalize to
	// Canonical, in input order.
	Instances []string `json:"instances"`

	// Tags is sorted and free of duplicates.
	Tags []string `json:"tags"`

	// Category is nil when no category rule matched.
	Category *rules.Category `json:"category,omitempty"`

	// Attrs holds extra attributes from matching tag rules.
	Attrs map[string]string `json:"attrs,omitempty"`
}

// HasTag reports whether the entry carries tag.
func (e *Entry) HasTag(tag string) bool {
	i := sort.SearchStrings(e.Tags, tag)
	return i < len(e.Tags) && e.Tags[i] == tag
}

// CategoryLabel returns the category label, or "" when uncategorized.
func (e *Entry) CategoryLabel() string {
	if e.Category == nil {
		return ""
	}
	return e.Category.Label()
}

// Warning reports an input key that was skipped.
type Warning struct {
	Key string
	Err error
}

func (w Warning) Error() string {
	return fmt.Sprintf("key %q skipped: %v", w.Key, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// Stats summarizes rule activity during a pass.
type Stats struct {
	TagMatches      int `json:"tag_matches"`
	CategoryMatches int `json:"category_matches"`
	Uncategorized   int `json:"uncategorized"`
}

// Result maps canonical keys to their annotations. It is built once per
// pass and not modified afterwards.
type Result struct {
	Entries  map[string]*Entry
	Warnings []Warning

	// Annotated counts input keys that were annotated, Skipped those that
	// were rejected.
	Annotated int
	Skipped   int

	Stats Stats
}

// Lookup returns the entry for a concrete or canonical key.
func (r *Result) Lookup(key string) (*Entry, bool) {
	canonical, err := statkey.Canonicalize(key)
	if err != nil {
		return nil, false
	}
	e, ok := r.Entries[canonical]
	return e, ok
}

// Keys returns the canonical keys in sorted order.
func (r *Result) Keys() []string {
	keys := make([]string, 0, len(r.Entries))
	for k := range r.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of canonical keys.
func (r *Result) Len() int {
	return len(r.Entries)
}
