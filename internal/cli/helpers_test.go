package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testTagRules = `# test tag rules
::::::
:::tags
disk
io
:::keys
node.N.disk.N.*

::::::
:::tags
cpu
:::unit
percent
:::keys
node.N.cpu.*

::::::
:::tags
unused
:::keys
nothing.matches.*
`

const testCategoryRules = `::::::
:::super
Node
:::sub
Disk
:::category description
Per-disk activity
:::keys
node.N.disk.N.*

::::::
:::super
Node
:::keys
node.N.*
`

const testKeys = `# exported from the cluster
node.1.disk.1.reads
node.1.disk.2.reads
node.2.cpu.user
cluster.health
bad..key
`

const testConfig = `keys:    "keys.txt"
release: "9.4.0"
rules: {
	tags:       "rules/tags.hexa"
	categories: "rules/cats.hexa"
}
`

// setupProject writes a project with rule sources, a key listing and a
// configuration file into a temp directory and returns the config path.
func setupProject(t *testing.T, extraConfig string) string {
	t.Helper()
	dir := t.TempDir()

	writeTestFile(t, filepath.Join(dir, "rules", "tags.hexa"), testTagRules)
	writeTestFile(t, filepath.Join(dir, "rules", "cats.hexa"), testCategoryRules)
	writeTestFile(t, filepath.Join(dir, "keys.txt"), testKeys)

	cfgPath := filepath.Join(dir, "statkeys.cue")
	writeTestFile(t, cfgPath, testConfig+extraConfig)
	return cfgPath
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// execute runs the root command with args and returns stdout and the
// command error.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}
