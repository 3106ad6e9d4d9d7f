package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/roach88/statkeys/internal/annotate"
	"github.com/roach88/statkeys/internal/rules"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestResult creates an annotation result with three canonical keys,
// one of them uncategorized, and one skipped key.
func createTestResult() *annotate.Result {
	return &annotate.Result{
		Entries: map[string]*annotate.Entry{
			"node.N.disk.N.reads": {
				Canonical: "node.N.disk.N.reads",
				Instances: []string{"node.1.disk.2.reads", "node.1.disk.1.reads"},
				Tags:      []string{"disk", "io"},
				Category:  &rules.Category{Super: "Node", Sub: "Disk"},
			},
			"node.N.cpu.user": {
				Canonical: "node.N.cpu.user",
				Instances: []string{"node.1.cpu.user"},
				Tags:      []string{"cpu"},
				Category:  &rules.Category{Super: "Node", Sub: "CPU"},
				Attrs:     map[string]string{"unit": "percent"},
			},
			"cluster.health": {
				Canonical: "cluster.health",
				Instances: []string{"cluster.health"},
				Tags:      []string{},
			},
		},
		Warnings: []annotate.Warning{
			{Key: "node..reads", Err: errors.New("empty segment")},
		},
		Annotated: 4,
		Skipped:   1,
	}
}
