package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testConfig = `
database: %q

accounts: {
	owner:    "0x66ab6d9362d4f35596279692f0251db635165871"
	alice:    "0x1111111111111111111111111111111111111111"
	bob:      "0x2222222222222222222222222222222222222222"
	vault:    "0x3333333333333333333333333333333333333333"
	rejecter: "0x4444444444444444444444444444444444444444"
}

receivers: {
	vault: {}
	rejecter: ack: "0xdeadbeef"
}

deploy: {
	minter:   "owner"
	base_uri: "ipfs://meta/"
}
`

// testEnv is a config file and database in a temp dir.
type testEnv struct {
	t      *testing.T
	dir    string
	config string
	db     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		t:      t,
		dir:    dir,
		config: filepath.Join(dir, "registry.cue"),
		db:     filepath.Join(dir, "registry.db"),
	}
	require.NoError(t, os.WriteFile(env.config, []byte(fmt.Sprintf(testConfig, env.db)), 0644))
	return env
}

// run executes the root command with the env's config prepended.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	return execute(append([]string{"--config", e.config}, args...)...)
}

// must runs a command that has to succeed.
func (e *testEnv) must(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, out)
	return out
}

// runJSON runs a command with --format json and decodes the response.
func (e *testEnv) runJSON(args ...string) (CLIResponse, error) {
	e.t.Helper()
	out, err := e.run(append([]string{"--format", "json"}, args...)...)
	var resp CLIResponse
	require.NoError(e.t, json.Unmarshal([]byte(out), &resp), out)
	return resp, err
}

func execute(args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// dataMap re-decodes a response payload as a map.
func dataMap(t *testing.T, resp CLIResponse) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}
