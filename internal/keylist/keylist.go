// Package keylist reads the statistics key listing exported from a cluster.
//
// The listing is the document returned by the cluster's statistics keys
// endpoint:
//
//	{"keys": [{"key": "node.1.disk.2.reads", "description": "...", ...}]}
//
// Fetching it is the caller's concern; this package only decodes and
// tidies it.
package keylist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/roach88/statkeys/internal/statkey"
)

// Key is one entry of the listing. Unknown fields are ignored.
type Key struct {
	Key              string `json:"key"`
	Description      string `json:"description,omitempty"`
	AggregationType  string `json:"aggregation_type,omitempty"`
	Units            string `json:"units,omitempty"`
	Type             string `json:"type,omitempty"`
	Scope            string `json:"scope,omitempty"`
	DefaultCacheTime int    `json:"default_cache_time,omitempty"`
}

// Listing is the decoded key document.
type Listing struct {
	Keys []Key `json:"keys"`
}

// Names returns the key names in listing order.
func (l *Listing) Names() []string {
	names := make([]string, len(l.Keys))
	for i, k := range l.Keys {
		names[i] = k.Key
	}
	return names
}

// ByCanonical indexes the listing by canonical key. The first listed
// instance of a canonical key supplies its metadata. Keys that cannot be
// canonicalized are left out; annotation reports them.
func (l *Listing) ByCanonical() map[string]Key {
	out := make(map[string]Key, len(l.Keys))
	for _, k := range l.Keys {
		canonical, err := statkey.Canonicalize(k.Key)
		if err != nil {
			continue
		}
		if _, ok := out[canonical]; !ok {
			out[canonical] = k
		}
	}
	return out
}

// Decode reads a listing from r.
func Decode(r io.Reader) (*Listing, error) {
	var l Listing
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode key listing: %w", err)
	}
	return &l, nil
}

// ReadFile reads the listing at path. See Read.
func ReadFile(path string) (*Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read key listing: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read reads a listing document, or a plain newline-separated list of key
// names when the input does not start with a JSON object. Blank lines and
// lines starting with # are ignored in plain lists.
func Read(r io.Reader) (*Listing, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read key listing: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return Decode(strings.NewReader(trimmed))
	}

	l := &Listing{}
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		l.Keys = append(l.Keys, Key{Key: line})
	}
	return l, nil
}

// aggregationNames expands the abbreviations used by the cluster.
var aggregationNames = map[string]string{
	"avg": "average",
	"max": "maximum",
	"min": "minimum",
}

// Tidy rewrites listing metadata for display: aggregation types are spelled
// out, and descriptions of indexed keys are made instance-neutral.
func (l *Listing) Tidy() {
	for i := range l.Keys {
		k := &l.Keys[i]
		if full, ok := aggregationNames[k.AggregationType]; ok {
			k.AggregationType = full
		}
		if k.Description == "" {
			continue
		}
		if canonical, err := statkey.Canonicalize(k.Key); err == nil && canonical != k.Key {
			k.Description = statkey.SquashDescription(k.Description)
		}
	}
}
