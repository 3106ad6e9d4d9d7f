package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/statkeys/internal/catalog"
)

type buildResponse struct {
	Status   string      `json:"status"`
	Data     BuildReport `json:"data"`
	Warnings []CLIError  `json:"warnings"`
}

func TestBuild_WritesCatalogAndRecordsRun(t *testing.T) {
	cfg := setupProject(t, `host: "10.0.0.5"
metrics_file: "build/statkeys.prom"
`)
	dir := filepath.Dir(cfg)

	out, err := execute(t, "", "build", "--config", cfg, "--format", "json")
	require.NoError(t, err)

	var resp buildResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.CanonicalKeys)
	assert.Equal(t, 1, resp.Data.Skipped)
	assert.NotEmpty(t, resp.Data.RunID)
	assert.Equal(t, filepath.Join(dir, ".statkeys", "catalog.db"), resp.Data.Database)
	require.Len(t, resp.Data.Rules, 2)
	assert.False(t, resp.Data.Rules[0].FromCache, "first build parses the sources")

	data, err := os.ReadFile(filepath.Join(dir, "build", catalog.JSONFile))
	require.NoError(t, err)
	var ds catalog.Dataset
	require.NoError(t, json.Unmarshal(data, &ds))
	assert.Equal(t, "9.4.0", ds.Cluster.Release)
	require.NotNil(t, ds.Cluster.Host)
	assert.Equal(t, "10.0.0.5", *ds.Cluster.Host)
	require.Contains(t, ds.Keys, "node.N.disk.N.reads")
	rec := ds.Keys["node.N.disk.N.reads"]
	assert.Equal(t, "Node", rec.Super)
	assert.Equal(t, "Disk", rec.Sub)
	assert.NotEmpty(t, rec.Links)

	script, err := os.ReadFile(filepath.Join(dir, "build", catalog.ScriptFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(script), "var keyDict = "))

	prom, err := os.ReadFile(filepath.Join(dir, "build", "statkeys.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "statkeys_keys_annotated_total 4")

	// Second build reuses the rule caches.
	out, err = execute(t, "", "build", "--config", cfg, "--format", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Rules[0].FromCache)
	assert.True(t, resp.Data.Rules[1].FromCache)
}

func TestBuild_NoHostNoLinks(t *testing.T) {
	cfg := setupProject(t, "")
	dir := filepath.Dir(cfg)
	outDir := filepath.Join(dir, "site")

	_, err := execute(t, "", "build", "--config", cfg, "--no-db", "--out", outDir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, catalog.JSONFile))
	require.NoError(t, err)
	var ds catalog.Dataset
	require.NoError(t, json.Unmarshal(data, &ds))
	assert.Nil(t, ds.Cluster.Host)
	for key, rec := range ds.Keys {
		assert.Empty(t, rec.Links, "links for %s", key)
	}

	_, err = os.Stat(filepath.Join(dir, ".statkeys", "catalog.db"))
	assert.True(t, os.IsNotExist(err), "--no-db skips the database")
}

func TestBuild_TextOutput(t *testing.T) {
	cfg := setupProject(t, "")

	out, err := execute(t, "", "build", "--config", cfg, "--no-db")
	require.NoError(t, err)
	assert.Contains(t, out, "Built catalog of 3 canonical key(s)")
	assert.Contains(t, out, "4 key(s) annotated, 1 skipped")
	assert.Contains(t, out, `! key "bad..key" skipped`)
}

func TestBuild_UnwritableOutput(t *testing.T) {
	cfg := setupProject(t, "")
	blocker := filepath.Join(filepath.Dir(cfg), "site")
	writeTestFile(t, blocker, "not a directory")

	out, err := execute(t, "", "build", "--config", cfg, "--no-db", "--out", blocker, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `"code": "E005"`)
}

func TestBuild_RecordsRunInDatabase(t *testing.T) {
	cfg := setupProject(t, "")
	db := filepath.Join(t.TempDir(), "nested", "runs.db")

	out, err := execute(t, "", "build", "--config", cfg, "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp buildResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, db, resp.Data.Database)
	require.NotEmpty(t, resp.Data.RunID)

	out, err = execute(t, "", "runs", "--config", cfg, "--db", db, "--run", resp.Data.RunID, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, resp.Data.RunID)
}
