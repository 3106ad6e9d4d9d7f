package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLint_Findings(t *testing.T) {
	cfg := setupProject(t, "")

	out, err := execute(t, "", "lint", "--config", cfg, "--format", "json")
	require.NoError(t, err, "findings are informational without --strict")

	var resp struct {
		Status string     `json:"status"`
		Data   LintReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	report := resp.Data
	assert.Equal(t, 3, report.Keys)
	require.Len(t, report.Findings, 2)

	shadow := report.Findings[0]
	assert.Equal(t, ErrCodeRuleShadow, shadow.Code)
	assert.Equal(t, "node.N.disk.N.reads", shadow.Key)
	assert.Contains(t, shadow.Rule, "node.N.*")
	assert.Contains(t, shadow.Message, "shadowed by Node-Disk")

	unused := report.Findings[1]
	assert.Equal(t, ErrCodeRuleUnused, unused.Code)
	assert.Contains(t, unused.Rule, "nothing.matches.*")

	assert.Equal(t, 1, report.TagCounts["disk"])
	assert.Equal(t, 1, report.CategoryCount["Node-Disk"])
	assert.Equal(t, 1, report.CategoryCount["Node"])
	assert.Equal(t, 1, report.CategoryCount[""])
}

func TestLint_Strict(t *testing.T) {
	cfg := setupProject(t, "")

	out, err := execute(t, "", "lint", "--config", cfg, "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "2 finding(s) across 3 canonical key(s)")
	assert.Contains(t, out, "E111")
}

func TestLint_Clean(t *testing.T) {
	cfg := setupProject(t, "")
	cats := filepath.Join(filepath.Dir(cfg), "rules", "clean.hexa")
	writeTestFile(t, cats, `::::::
:::super
Node
:::sub
Disk
:::keys
node.N.disk.N.*

::::::
:::super
Node
:::sub
CPU
:::keys
node.N.cpu.*
`)

	keys := "node.1.cpu.user\nnode.1.disk.1.reads\nnothing.matches.here\n"
	out, err := execute(t, keys, "lint", "--config", cfg, "--keys", "-", "--categories", cats, "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "No findings across 3 canonical key(s)")
}
