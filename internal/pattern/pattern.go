// Package pattern matches canonical statistics keys against rule patterns.
//
// A pattern uses the key syntax with one extra token: a segment consisting
// solely of "*" matches any single segment, including the placeholder "N".
// A "*" in last position matches one or more remaining segments, which lets
// a single rule cover a whole subtree:
//
//	a.*.c  matches a.1.c, a.foo.c        but not a.1.2.c
//	a.*    matches a.b, a.b.c, a.1.2.3   but not a
//
// Matching is exact string equality per segment and performs no
// normalization; callers pass canonical keys.
package pattern

import (
	"fmt"
	"strings"

	"github.com/roach88/statkeys/internal/statkey"
)

// Wildcard is the pattern segment that matches any key segment.
const Wildcard = "*"

// Pattern is a parsed rule pattern. The zero value matches nothing.
type Pattern struct {
	segments []string
}

// ParseError reports a malformed pattern.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %s", e.Text, e.Reason)
}

// Parse parses pattern text.
//
// Numeric literal segments are stored in canonical form: patterns are only
// ever compared against canonical keys, where an index can appear solely
// as the placeholder.
func Parse(text string) (Pattern, error) {
	if text == "" {
		return Pattern{}, &ParseError{Text: text, Reason: "empty pattern"}
	}

	segments := strings.Split(text, statkey.Separator)
	for i, seg := range segments {
		switch {
		case seg == "":
			return Pattern{}, &ParseError{Text: text, Reason: fmt.Sprintf("empty segment at position %d", i)}
		case seg != Wildcard && strings.Contains(seg, Wildcard):
			return Pattern{}, &ParseError{Text: text, Reason: fmt.Sprintf("partial wildcard %q at position %d", seg, i)}
		case strings.ContainsAny(seg, " \t"):
			return Pattern{}, &ParseError{Text: text, Reason: fmt.Sprintf("whitespace in segment at position %d", i)}
		case statkey.IsIndex(seg):
			segments[i] = statkey.Placeholder
		}
	}
	return Pattern{segments: segments}, nil
}

// MustParse is like Parse but panics on error. For tests and static tables.
func MustParse(text string) Pattern {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pattern text.
func (p Pattern) String() string {
	return strings.Join(p.segments, statkey.Separator)
}

// Segments returns a copy of the pattern segments.
func (p Pattern) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Trailing reports whether the pattern ends in a subtree wildcard.
func (p Pattern) Trailing() bool {
	return len(p.segments) > 0 && p.segments[len(p.segments)-1] == Wildcard
}

// IsZero reports whether p is the zero Pattern.
func (p Pattern) IsZero() bool {
	return len(p.segments) == 0
}

// Match reports whether the canonical key matches p.
func (p Pattern) Match(canonicalKey string) bool {
	if p.IsZero() || canonicalKey == "" {
		return false
	}
	return p.MatchSegments(strings.Split(canonicalKey, statkey.Separator))
}

// MatchSegments is Match for a key already split into segments.
// Callers annotating many rules split the key once and reuse the slice.
func (p Pattern) MatchSegments(key []string) bool {
	n := len(p.segments)
	if n == 0 {
		return false
	}

	if p.Trailing() {
		// The trailing wildcard needs at least one segment of its own.
		if len(key) < n {
			return false
		}
		return matchFixed(p.segments[:n-1], key[:n-1])
	}

	if len(key) != n {
		return false
	}
	return matchFixed(p.segments, key)
}

// matchFixed compares equal-length segment lists position by position.
func matchFixed(pat, key []string) bool {
	for i, seg := range pat {
		if seg == Wildcard {
			if key[i] == "" {
				return false
			}
			continue
		}
		if seg != key[i] {
			return false
		}
	}
	return true
}

// MarshalText implements encoding.TextMarshaler.
func (p Pattern) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pattern) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
