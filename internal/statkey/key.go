package statkey

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	// Separator joins key segments.
	Separator = "."

	// Placeholder replaces index segments in canonical keys.
	Placeholder = "N"

	// FirstInstance is substituted for every placeholder when only a
	// representative concrete key is needed.
	FirstInstance = 1
)

// Split breaks a key into its segments.
// Returns a *FormatError for an empty key, an empty segment or a segment
// containing whitespace.
func Split(key string) ([]string, error) {
	if key == "" {
		return nil, &FormatError{Key: key, Reason: "empty key"}
	}

	segments := strings.Split(key, Separator)
	for i, seg := range segments {
		if seg == "" {
			return nil, &FormatError{Key: key, Segment: i, Reason: "empty segment"}
		}
		if strings.IndexFunc(seg, unicode.IsSpace) >= 0 {
			return nil, &FormatError{Key: key, Segment: i, Reason: "whitespace in segment"}
		}
	}
	return segments, nil
}

// IsIndex reports whether a segment is a repetition index, i.e. a
// non-negative decimal integer literal.
func IsIndex(segment string) bool {
	if segment == "" {
		return false
	}
	for i := 0; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}

// CanonicalSegments replaces index segments with the placeholder in place
// and returns the slice.
func CanonicalSegments(segments []string) []string {
	for i, seg := range segments {
		if IsIndex(seg) {
			segments[i] = Placeholder
		}
	}
	return segments
}

// Canonicalize returns the canonical form of key.
//
// Canonicalize is idempotent: the placeholder is not an index, so a
// canonical key maps to itself.
func Canonicalize(key string) (string, error) {
	segments, err := Split(key)
	if err != nil {
		return "", err
	}
	return strings.Join(CanonicalSegments(segments), Separator), nil
}

// Denormalize substitutes concrete instance numbers for the placeholders of
// a canonical key. The i-th placeholder receives instances[i]; placeholders
// without a corresponding entry receive FirstInstance.
func Denormalize(canonical string, instances ...int) (string, error) {
	segments, err := Split(canonical)
	if err != nil {
		return "", err
	}

	n := 0
	for i, seg := range segments {
		if seg != Placeholder {
			continue
		}
		instance := FirstInstance
		if n < len(instances) {
			instance = instances[n]
		}
		if instance < 0 {
			return "", &FormatError{Key: canonical, Segment: i, Reason: "negative instance number"}
		}
		segments[i] = strconv.Itoa(instance)
		n++
	}
	return strings.Join(segments, Separator), nil
}
