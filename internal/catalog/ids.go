package catalog

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/roach88/statkeys/internal/rules"
)

// Id prefixes understood by the page scripts.
const (
	KeyIDPrefix      = "key_"
	CategoryIDPrefix = "cat_"
)

// htmlID hashes name into a token that is safe in HTML id attributes.
func htmlID(name string) string {
	sum := md5.Sum([]byte(name))
	return hex.EncodeToString(sum[:])
}

// CategoryID returns the id of a joined category path.
func CategoryID(path string) string {
	return CategoryIDPrefix + htmlID(path)
}

// KeyIDs maps every key name to its id.
func KeyIDs(keys map[string]*KeyRecord) map[string]string {
	ids := make(map[string]string, len(keys))
	for name := range keys {
		ids[name] = KeyIDPrefix + htmlID(name)
	}
	return ids
}

// CategoryIDs maps every category path used by keys, and each of its
// prefixes, to an id. Paths are joined with rules.CategorySeparator.
func CategoryIDs(keys map[string]*KeyRecord) map[string]string {
	ids := make(map[string]string)
	for _, rec := range keys {
		parts := []string{rec.Super}
		add := func() {
			path := strings.Join(parts, rules.CategorySeparator)
			if _, ok := ids[path]; !ok {
				ids[path] = CategoryID(path)
			}
		}
		add()
		if rec.Sub == "" {
			continue
		}
		parts = append(parts, rec.Sub)
		add()
		if rec.Subsub == "" {
			continue
		}
		parts = append(parts, rec.Subsub)
		add()
	}
	return ids
}
