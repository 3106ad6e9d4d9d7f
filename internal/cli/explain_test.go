package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplain_ShowsWinnerAndShadowed(t *testing.T) {
	cfg := setupProject(t, "")

	out, err := execute(t, "", "explain", "--config", cfg, "--format", "json", "node.3.disk.7.reads")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   ExplainResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	r := resp.Data
	assert.Equal(t, "node.3.disk.7.reads", r.Key)
	assert.Equal(t, "node.N.disk.N.reads", r.Canonical)
	assert.Equal(t, []string{"disk", "io"}, r.Tags)
	assert.Equal(t, "Node-Disk", r.Category)

	require.Len(t, r.TagRules, 1)
	assert.Equal(t, "node.N.disk.N.*", r.TagRules[0].Pattern)
	assert.Contains(t, r.TagRules[0].Source, "tags.hexa:")

	require.Len(t, r.CatRules, 2)
	assert.True(t, r.CatRules[0].Winner)
	assert.False(t, r.CatRules[1].Winner)
	assert.Equal(t, "node.N.*", r.CatRules[1].Pattern)
}

func TestExplain_TextUncategorized(t *testing.T) {
	cfg := setupProject(t, "")

	out, err := execute(t, "", "explain", "--config", cfg, "cluster.health")
	require.NoError(t, err)
	assert.Contains(t, out, "category:  (uncategorized)")
	assert.NotContains(t, out, "canonical:")
	assert.NotContains(t, out, "Category rules:")
}

func TestExplain_InvalidKey(t *testing.T) {
	cfg := setupProject(t, "")

	out, err := execute(t, "", "explain", "--config", cfg, "--format", "json", "node..reads")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `"code": "E102"`)
}
