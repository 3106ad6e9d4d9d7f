package annotate

import (
	"strings"

	"github.com/roach88/statkeys/internal/rules"
	"github.com/roach88/statkeys/internal/statkey"
)

// Match is a rule that matched a key during Explain.
type Match struct {
	Rule rules.Rule

	// Winner is set on the category rule that decides the key's category.
	Winner bool
}

// Explanation lists every rule matching a key, with provenance.
type Explanation struct {
	Key        string
	Canonical  string
	Tags       []Match
	Categories []Match
}

// Category returns the winning category, or nil.
func (x *Explanation) Category() *rules.Category {
	for _, m := range x.Categories {
		if m.Winner {
			return m.Rule.Category
		}
	}
	return nil
}

// Shadowed returns the category rules that matched but lost to an earlier
// rule.
func (x *Explanation) Shadowed() []rules.Rule {
	var out []rules.Rule
	for _, m := range x.Categories {
		if !m.Winner {
			out = append(out, m.Rule)
		}
	}
	return out
}

// Explain evaluates key against every rule and reports all matches. Unlike
// Annotate it does not stop at the first category match.
func (e *Engine) Explain(key string) (*Explanation, error) {
	segments, err := statkey.Split(key)
	if err != nil {
		return nil, err
	}
	segments = statkey.CanonicalSegments(segments)

	x := &Explanation{
		Key:       key,
		Canonical: strings.Join(segments, statkey.Separator),
	}

	if e.tags != nil {
		for _, r := range e.tags.Rules {
			if r.Pattern.MatchSegments(segments) {
				x.Tags = append(x.Tags, Match{Rule: r})
			}
		}
	}
	if e.categories != nil {
		for _, r := range e.categories.Rules {
			if r.Pattern.MatchSegments(segments) {
				x.Categories = append(x.Categories, Match{Rule: r, Winner: len(x.Categories) == 0})
			}
		}
	}
	return x, nil
}

// Conflict is a key matched by more than one category rule. Reordering
// the rule source would change its category.
type Conflict struct {
	Canonical string
	Winner    rules.Rule
	Shadowed  []rules.Rule
}

// Conflicts reports every key of res that more than one category rule
// matches, sorted by canonical key.
func (e *Engine) Conflicts(res *Result) []Conflict {
	var out []Conflict
	for _, canonical := range res.Keys() {
		x, err := e.Explain(canonical)
		if err != nil || len(x.Categories) < 2 {
			continue
		}
		out = append(out, Conflict{
			Canonical: canonical,
			Winner:    x.Categories[0].Rule,
			Shadowed:  x.Shadowed(),
		})
	}
	return out
}

// TagCounts returns how many canonical keys carry each tag.
func TagCounts(res *Result) map[string]int {
	counts := make(map[string]int)
	for _, e := range res.Entries {
		for _, t := range e.Tags {
			counts[t]++
		}
	}
	return counts
}

// CategoryCounts returns how many canonical keys fall in each category
// label; uncategorized keys are counted under "".
func CategoryCounts(res *Result) map[string]int {
	counts := make(map[string]int)
	for _, e := range res.Entries {
		counts[e.CategoryLabel()]++
	}
	return counts
}

// UnusedRules returns the rules of set that matched no key of res, in
// declaration order.
func UnusedRules(set *rules.RuleSet, res *Result) []rules.Rule {
	if set == nil {
		return nil
	}
	keys := res.Keys()
	split := make([][]string, len(keys))
	for i, k := range keys {
		split[i] = strings.Split(k, statkey.Separator)
	}

	var unused []rules.Rule
	for _, r := range set.Rules {
		used := false
		for _, segs := range split {
			if r.Pattern.MatchSegments(segs) {
				used = true
				break
			}
		}
		if !used {
			unused = append(unused, r)
		}
	}
	return unused
}
