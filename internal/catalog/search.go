package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/statkeys/internal/statkey"
)

// SearchTerms returns the case-folded words a user may type to find rec:
// the key segments, the whole key, description words, tags and extra
// attribute words. The result is sorted and free of duplicates.
func SearchTerms(rec *KeyRecord) []string {
	fold := cases.Fold()
	seen := make(map[string]struct{})
	add := func(s string) {
		if s = fold.String(s); s != "" {
			seen[s] = struct{}{}
		}
	}

	if rec.Key != "" {
		for _, seg := range strings.Split(rec.Key, statkey.Separator) {
			add(seg)
		}
		add(rec.Key)
	}
	for _, w := range strings.Fields(rec.Description) {
		add(w)
	}
	for _, tag := range rec.Tags {
		add(tag)
	}
	for _, v := range rec.XtraAttrs {
		for _, w := range strings.Fields(v) {
			add(w)
		}
	}

	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
