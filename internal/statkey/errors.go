package statkey

import (
	"errors"
	"fmt"
)

// FormatError reports a structurally invalid key.
// Annotation treats it as a per-key warning, never as a fatal error.
type FormatError struct {
	Key     string
	Segment int // index of the offending segment
	Reason  string
}

func (e *FormatError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid key: %s", e.Reason)
	}
	return fmt.Sprintf("invalid key %q: %s at segment %d", e.Key, e.Reason, e.Segment)
}

// IsFormatError returns true if err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
