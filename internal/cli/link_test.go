package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLink_ConfiguredHost(t *testing.T) {
	cfg := setupProject(t, "host: \"10.0.0.5\"\napi_version: 3\n")

	out, err := execute(t, "", "link", "--config", cfg, "node.N.disk.N.reads")
	require.NoError(t, err)
	assert.Equal(t, "/papi?path=%2Fplatform%2F3%2Fstatistics%2Fcurrent&key=node.1.disk.1.reads", strings.TrimSpace(out))
}

func TestLink_FlagsOverrideConfig(t *testing.T) {
	cfg := setupProject(t, "host: \"10.0.0.5\"\n")

	out, err := execute(t, "", "link", "--config", cfg, "--format", "json",
		"--host", "cluster.example.com", "--api-version", "2", "--endpoint", "history", "node.4.cpu.user")
	require.NoError(t, err)

	var resp struct {
		Data LinkResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, LinkResult{
		Key:      "node.4.cpu.user",
		Endpoint: "history",
		Host:     "cluster.example.com",
		Ref:      "/papi?path=%2Fplatform%2F2%2Fstatistics%2Fhistory&key=node.4.cpu.user",
	}, resp.Data)
}

func TestLink_NoHost(t *testing.T) {
	cfg := setupProject(t, "")

	out, err := execute(t, "", "link", "--config", cfg, "--format", "json", "node.N.cpu.user")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `"code": "E008"`)
}

func TestLink_UnknownEndpoint(t *testing.T) {
	cfg := setupProject(t, "")

	out, err := execute(t, "", "link", "--config", cfg, "--host", "h", "--endpoint", "live", "--format", "json", "node.N.cpu.user")
	require.Error(t, err)
	assert.Contains(t, out, `"code": "E007"`)
}
