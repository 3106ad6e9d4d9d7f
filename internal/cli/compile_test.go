package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/statkeys/internal/rules"
)

func TestCompile_ConfiguredSources(t *testing.T) {
	cfg := setupProject(t, "")

	out, err := execute(t, "", "compile", "--config", cfg, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   []CompiledSource `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 2)

	assert.Equal(t, "tag", string(resp.Data[0].Kind))
	assert.Equal(t, 3, resp.Data[0].Rules)
	assert.Equal(t, "category", string(resp.Data[1].Kind))
	assert.Equal(t, 2, resp.Data[1].Rules)

	for _, c := range resp.Data {
		_, err := os.Stat(c.Cache)
		assert.NoError(t, err, "cache written for %s", c.Source)
	}
}

func TestCompile_PositionalKind(t *testing.T) {
	cfg := setupProject(t, "")
	cats := filepath.Join(filepath.Dir(cfg), "rules", "cats.hexa")

	out, err := execute(t, "", "compile", "--config", cfg, "--kind", "category", cats)
	require.NoError(t, err)
	assert.Contains(t, out, "Compiled 1 rule source(s)")
	assert.Contains(t, out, "(category): 2 rule(s)")
}

func TestCompile_InvalidKind(t *testing.T) {
	cfg := setupProject(t, "")

	out, err := execute(t, "", "compile", "--config", cfg, "--kind", "bogus", "x.hexa", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `"code": "E007"`)
}

func TestCompile_SyntaxError(t *testing.T) {
	cfg := setupProject(t, "")
	bad := filepath.Join(filepath.Dir(cfg), "bad.hexa")
	writeTestFile(t, bad, "::tags\ndisk\n")

	out, err := execute(t, "", "compile", "--config", cfg, bad, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `"code": "E101"`)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(cfg), ".statkeys", "cache"))
	assert.True(t, os.IsNotExist(statErr), "no cache written for an invalid source")
}

func TestCompile_CacheMatchesSource(t *testing.T) {
	cfg := setupProject(t, "")
	dir := filepath.Dir(cfg)
	tags := filepath.Join(dir, "rules", "tags.hexa")
	cacheDir := filepath.Join(dir, ".statkeys", "cache")

	_, err := execute(t, "", "compile", "--config", cfg)
	require.NoError(t, err)

	set, info, err := rules.Load(tags, rules.KindTag, cacheDir)
	require.NoError(t, err)
	assert.True(t, info.FromCache, "compiled cache is reused: %s", info.Reason)
	assert.Equal(t, 3, set.Len())

	data, err := os.ReadFile(tags)
	require.NoError(t, err)
	assert.Equal(t, rules.SourceHash(data), info.Hash)
}
