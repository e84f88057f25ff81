package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGoldenTraces checks the scenarios that carry a golden trace.
//
// To regenerate golden files:
//
//	go test ./internal/harness -run TestGoldenTraces -update
func TestGoldenTraces(t *testing.T) {
	for _, name := range []string{"no_minted_tokens", "mint", "metadata", "receiver_rejections"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}

// TestScenarios runs every scenario file. This is the conformance suite.
func TestScenarios(t *testing.T) {
	files, err := FindScenarios(filepath.Join("testdata", "scenarios"), "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, result, errs := RunFile(path, false)
			require.Empty(t, errs)
			require.NotNil(t, result)
			assert.True(t, result.Pass)
		})
	}
}

func TestTraceJSON_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "successful_transfers.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := TraceJSON(scenario.Name, first)
	require.NoError(t, err)
	b, err := TraceJSON(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestTraceJSON_Shape(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, TraceStep{
		Phase:   PhaseFlow,
		Op:      "total_supply",
		Outcome: "ok",
		Result:  uint64(0),
		Events:  []map[string]any{},
	})

	data, err := TraceJSON("shape", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"shape","trace":[{"events":[],"op":"total_supply","outcome":"ok","phase":"flow","result":0}]}`,
		string(data))
}

func TestGoldenPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("testdata", "golden", "mint.golden"),
		GoldenPath(filepath.Join("testdata", "scenarios", "mint.yaml")))
}
