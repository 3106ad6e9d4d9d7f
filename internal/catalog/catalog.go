package catalog

import (
	"fmt"

	"github.com/roach88/statkeys/internal/annotate"
	"github.com/roach88/statkeys/internal/keylist"
	"github.com/roach88/statkeys/internal/link"
	"github.com/roach88/statkeys/internal/rules"
)

// Keys without a category are filed here.
const (
	DefaultCategory    = "Uncategorized"
	DefaultDescription = "Statistics that have not been assigned a category."
)

// UnknownRelease is reported when the cluster release could not be
// determined.
const UnknownRelease = "unknown"

// Dataset is the document consumed by the renderer.
type Dataset struct {
	Categories map[string]*CategoryNode `json:"categories"`
	Tags       []string                 `json:"tags"`
	Mappings   Mappings                 `json:"mappings"`
	Cluster    Cluster                  `json:"cluster"`
	Keys       map[string]*KeyRecord    `json:"keys"`
}

// CategoryNode is one level of the category tree.
type CategoryNode struct {
	Categories  map[string]*CategoryNode `json:"categories"`
	Keys        []string                 `json:"keys"`
	Description string                   `json:"description"`
}

// Mappings holds HTML-safe ids for keys and category paths.
type Mappings struct {
	Keys       map[string]string `json:"keys"`
	Categories map[string]string `json:"categories"`
}

// Cluster describes where the keys came from. Host is omitted when the
// user chose not to record it.
type Cluster struct {
	Release string  `json:"release"`
	Host    *string `json:"host"`
}

// KeyRecord is one canonical key with everything the renderer shows.
type KeyRecord struct {
	Key             string            `json:"key"`
	Instances       []string          `json:"instances"`
	Description     string            `json:"description,omitempty"`
	AggregationType string            `json:"aggregation_type,omitempty"`
	Units           string            `json:"units,omitempty"`
	Type            string            `json:"type,omitempty"`
	Scope           string            `json:"scope,omitempty"`
	Tags            []string          `json:"tags"`
	Super           string            `json:"super"`
	Sub             string            `json:"sub,omitempty"`
	Subsub          string            `json:"subsub,omitempty"`
	XtraAttrs       map[string]string `json:"xtra_attrs,omitempty"`
	SearchTerms     []string          `json:"search_terms"`
	Links           map[string]string `json:"links,omitempty"`
}

// Input gathers what Build needs.
type Input struct {
	Result     *annotate.Result
	Listing    *keylist.Listing // optional metadata source
	Tags       *rules.RuleSet
	Categories *rules.RuleSet
	Links      link.Builder
	Release    string
}

// Build assembles the dataset.
func Build(in Input) (*Dataset, error) {
	if in.Result == nil {
		return nil, fmt.Errorf("catalog: no annotation result")
	}

	var meta map[string]keylist.Key
	if in.Listing != nil {
		meta = in.Listing.ByCanonical()
	}

	ds := &Dataset{
		Categories: newTree(in.Categories),
		Tags:       in.Tags.Labels(),
		Keys:       make(map[string]*KeyRecord, in.Result.Len()),
		Cluster:    Cluster{Release: in.Release, Host: in.Links.Host},
	}
	if ds.Tags == nil {
		ds.Tags = []string{}
	}
	if ds.Cluster.Release == "" {
		ds.Cluster.Release = UnknownRelease
	}

	for _, canonical := range in.Result.Keys() {
		entry := in.Result.Entries[canonical]
		rec := newRecord(entry, meta[canonical])

		links, err := in.Links.Links(canonical)
		if err != nil {
			return nil, fmt.Errorf("catalog: links for %s: %w", canonical, err)
		}
		rec.Links = links

		ds.Keys[canonical] = rec
		if err := insertKey(ds.Categories, rec); err != nil {
			return nil, err
		}
	}

	ds.Mappings = Mappings{
		Keys:       KeyIDs(ds.Keys),
		Categories: CategoryIDs(ds.Keys),
	}
	return ds, nil
}

func newRecord(entry *annotate.Entry, meta keylist.Key) *KeyRecord {
	rec := &KeyRecord{
		Key:             entry.Canonical,
		Instances:       entry.Instances,
		Description:     meta.Description,
		AggregationType: meta.AggregationType,
		Units:           meta.Units,
		Type:            meta.Type,
		Scope:           meta.Scope,
		Tags:            entry.Tags,
		Super:           DefaultCategory,
		XtraAttrs:       entry.Attrs,
	}
	if entry.Category != nil {
		rec.Super = entry.Category.Super
		rec.Sub = entry.Category.Sub
		rec.Subsub = entry.Category.Subsub
	}
	rec.SearchTerms = SearchTerms(rec)
	return rec
}

// newTree builds the empty category tree from the category rules in
// declaration order. A node takes the description of the first definition
// that creates it.
func newTree(set *rules.RuleSet) map[string]*CategoryNode {
	tree := make(map[string]*CategoryNode)

	for _, cat := range set.Categories() {
		level := tree
		for _, name := range cat.Path() {
			node, ok := level[name]
			if !ok {
				node = newNode(cat.Description)
				level[name] = node
			}
			level = node.Categories
		}
	}

	// Rules may file keys under the default category; keep their sub nodes.
	if node, ok := tree[DefaultCategory]; ok {
		if node.Description == "" {
			node.Description = DefaultDescription
		}
	} else {
		tree[DefaultCategory] = newNode(DefaultDescription)
	}
	return tree
}

func newNode(desc string) *CategoryNode {
	return &CategoryNode{
		Categories:  make(map[string]*CategoryNode),
		Keys:        []string{},
		Description: desc,
	}
}

// insertKey files rec under its category path. Keys arrive in sorted
// order, so node key lists stay sorted.
func insertKey(tree map[string]*CategoryNode, rec *KeyRecord) error {
	path := []string{rec.Super}
	if rec.Sub != "" {
		path = append(path, rec.Sub)
		if rec.Subsub != "" {
			path = append(path, rec.Subsub)
		}
	}

	level := tree
	var node *CategoryNode
	for _, name := range path {
		next, ok := level[name]
		if !ok {
			return fmt.Errorf("catalog: key %s refers to undeclared category %v", rec.Key, path)
		}
		node = next
		level = next.Categories
	}
	node.Keys = append(node.Keys, rec.Key)
	return nil
}
