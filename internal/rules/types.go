package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/statkeys/internal/pattern"
)

// Kind distinguishes tag rules from category rules.
type Kind string

const (
	// KindTag rules attach non-exclusive tags; a key accumulates all of them.
	KindTag Kind = "tag"

	// KindCategory rules assign an exclusive category; the first match wins.
	KindCategory Kind = "category"
)

// Valid reports whether k is a known rule kind.
func (k Kind) Valid() bool {
	return k == KindTag || k == KindCategory
}

// Provenance locates the source line a rule was declared on.
type Provenance struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
}

func (p Provenance) String() string {
	if p.File == "" {
		return fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Category is a node of the super/sub/subsub category hierarchy.
type Category struct {
	Super       string `json:"super" yaml:"super"`
	Sub         string `json:"sub,omitempty" yaml:"sub,omitempty"`
	Subsub      string `json:"subsub,omitempty" yaml:"subsub,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// CategorySeparator joins category path components into a label.
const CategorySeparator = "-"

// Path returns the non-empty components from super down.
func (c Category) Path() []string {
	path := []string{c.Super}
	if c.Sub != "" {
		path = append(path, c.Sub)
		if c.Subsub != "" {
			path = append(path, c.Subsub)
		}
	}
	return path
}

// Label returns the category path joined with CategorySeparator.
func (c Category) Label() string {
	return strings.Join(c.Path(), CategorySeparator)
}

// Rule maps one key pattern to a label.
type Rule struct {
	Kind    Kind
	Pattern pattern.Pattern

	// Tags holds the labels of a tag rule.
	Tags []string

	// Category holds the label of a category rule.
	Category *Category

	// Attrs are single-valued extra attributes copied onto matching keys.
	Attrs map[string]string

	Provenance Provenance
}

// Labels returns the tags of a tag rule or the category label of a
// category rule.
func (r Rule) Labels() []string {
	if r.Kind == KindCategory && r.Category != nil {
		return []string{r.Category.Label()}
	}
	return r.Tags
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s -> %s (%s)", r.Kind, r.Pattern, strings.Join(r.Labels(), ","), r.Provenance)
}

// RuleSet is an ordered list of rules of a single kind compiled from one
// source. It is not modified after construction and may be shared between
// goroutines.
type RuleSet struct {
	Kind   Kind
	Source string
	Rules  []Rule
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rules)
}

// Labels returns every distinct label, sorted.
func (s *RuleSet) Labels() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, r := range s.Rules {
		for _, l := range r.Labels() {
			seen[l] = struct{}{}
		}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Categories returns the distinct categories of a category rule set in
// declaration order.
func (s *RuleSet) Categories() []Category {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var cats []Category
	for _, r := range s.Rules {
		if r.Category == nil {
			continue
		}
		label := r.Category.Label()
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		cats = append(cats, *r.Category)
	}
	return cats
}
