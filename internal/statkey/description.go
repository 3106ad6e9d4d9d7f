package statkey

import (
	"log/slog"
	"regexp"
)

var (
	trailingNumber = regexp.MustCompile(`[0-9]+$`)
	indexNumber    = regexp.MustCompile(`index [0-9]+`)
	numberNumber   = regexp.MustCompile(`number [0-9]+`)
)

// SquashDescription rewrites the description of an indexed key so it reads
// for every instance: a trailing number, "index <n>" or "number <n>" becomes
// the placeholder. The first rule that applies wins. Descriptions with no
// recognizable index are returned unchanged.
func SquashDescription(desc string) string {
	switch {
	case trailingNumber.MatchString(desc):
		return trailingNumber.ReplaceAllString(desc, Placeholder)
	case indexNumber.MatchString(desc):
		return indexNumber.ReplaceAllString(desc, "index "+Placeholder)
	case numberNumber.MatchString(desc):
		return numberNumber.ReplaceAllString(desc, "number "+Placeholder)
	}
	slog.Warn("description has no index to squash", "description", desc)
	return desc
}
