package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")

func TestTestCommandMissingArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute("test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute("test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandConformanceSuite(t *testing.T) {
	out, err := execute("test", scenariosDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ mint")
	assert.Contains(t, out, "✓ receiver_rejections")
	assert.Contains(t, out, "0 failed")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilterJSON(t *testing.T) {
	out, err := execute("--format", "json", "--verbose", "test", scenariosDir, "--filter", "*transfers")
	require.NoError(t, err, out)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)

	names := []string{resp.Data.Scenarios[0].Name, resp.Data.Scenarios[1].Name}
	assert.Equal(t, []string{"successful_transfers", "unsuccessful_transfers"}, names)
	require.NotNil(t, resp.Data.Scenarios[0].Stats)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Stats.Operations)
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := `
name: wrong
description: "expects the wrong owner"
flow:
  - op: mint
    caller: minter
    args: { to: alice }
assertions:
  - { type: owner_of, token_id: 1, expect: bob }
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(scenario), 0644))

	out, err := execute("test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "Expected: bob")
	assert.Contains(t, out, "1 failed")
}

func TestTestCommandUpdate(t *testing.T) {
	dir := t.TempDir()
	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0755))

	src, err := os.ReadFile(filepath.Join(scenariosDir, "burn.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "burn.yaml"), src, 0644))

	out, err := execute("test", scenarios, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ burn (golden updated)")
	assert.FileExists(t, filepath.Join(dir, "golden", "burn.golden"))

	out, err = execute("test", scenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ burn")
}
