package rules

import (
	"errors"
	"fmt"
)

// SyntaxError reports a malformed line in a rule source.
// Loading stops at the first SyntaxError.
type SyntaxError struct {
	File   string
	Line   int
	Text   string // offending line, trimmed
	Reason string
}

func (e *SyntaxError) Error() string {
	loc := fmt.Sprintf("line %d", e.Line)
	if e.File != "" {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	if e.Text == "" {
		return fmt.Sprintf("%s: %s", loc, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %q", loc, e.Reason, e.Text)
}

// IsSyntaxError returns true if err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
