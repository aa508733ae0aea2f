package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posy/internal/harness"
)

func writeScenario(t *testing.T, dir, filename, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644))
}

func TestTestCommandMissingArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{}) // Missing scenarios directory

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandPassingSuite(t *testing.T) {
	tmpDir := t.TempDir()
	writeScenario(t, tmpDir, "single_design.yaml", `
name: single_design
description: "Two small a stems complete the two-stem design."
catalog:
  - AS2a2
arrivals: aS aS
expect:
  bouquets:
    - AS2a
  stock:
    S:
      a: 0
`)
	writeScenario(t, tmpDir, "two_species.yaml", `
name: two_species
description: "The design waits for its single b stem before assembling."
catalog:
  - AS2a1b3
arrivals: aS aS bS
expect:
  bouquets:
    - AS2a1b
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{tmpDir})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, output, "✓ All scenarios passed")
}

func TestTestCommandFailingScenario(t *testing.T) {
	tmpDir := t.TempDir()
	writeScenario(t, tmpDir, "passing.yaml", `
name: passing
description: "Two small a stems complete the two-stem design."
catalog:
  - AS2a2
arrivals: aS aS
expect:
  bouquets:
    - AS2a
`)
	writeScenario(t, tmpDir, "wrong_expectation.yaml", `
name: wrong_expectation
description: "Expects a one-stem bouquet the engine never produces."
catalog:
  - AS2a2
arrivals: aS aS
expect:
  bouquets:
    - AS1a
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{tmpDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 scenario(s) failed")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ wrong_expectation (")
	assert.Contains(t, output, "Test Summary: 1 passed, 1 failed, 2 total")
	assert.NotContains(t, output, "✗ passing")
}

func TestTestCommandFilter(t *testing.T) {
	tmpDir := t.TempDir()
	writeScenario(t, tmpDir, "seeded_case.yaml", `
name: seeded_case
description: "Seeded stock settles into one bouquet before any arrival."
catalog:
  - AS2a2
setup:
  stock:
    S:
      a: 2
expect:
  bouquets:
    - AS2a
`)
	writeScenario(t, tmpDir, "stream_case.yaml", `
name: stream_case
description: "Two small a stems complete the two-stem design."
catalog:
  - AS2a2
arrivals: aS aS
expect:
  bouquets:
    - AS2a
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{tmpDir, "--filter", "seeded"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeScenario(t, tmpDir, "wrong_expectation.yaml", `
name: wrong_expectation
description: "Expects a one-stem bouquet the engine never produces."
catalog:
  - AS2a2
arrivals: aS aS
expect:
  bouquets:
    - AS1a
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{tmpDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var suite harness.SuiteResult
	require.NoError(t, json.Unmarshal(data, &suite))
	assert.Equal(t, 1, suite.Total)
	assert.Equal(t, 1, suite.Failed)
	require.Len(t, suite.Failures, 1)
	assert.Equal(t, "wrong_expectation", suite.Failures[0].Scenario)
}

func TestTestCommandBadScenarioFile(t *testing.T) {
	tmpDir := t.TempDir()
	// Missing description, so the file fails to load
	writeScenario(t, tmpDir, "broken.yaml", `
name: broken
catalog:
  - AS2a2
arrivals: aS aS
expect:
  bouquets:
    - AS2a
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{tmpDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ broken (")
	assert.Contains(t, output, "description is required")
	assert.Contains(t, output, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandMissingDir(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/scenarios"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandNoScenariosMatched(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run scenarios")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandRunsShippedScenarios(t *testing.T) {
	scenariosDir := filepath.Join("..", "harness", "testdata", "scenarios")
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		t.Skip("harness testdata not found")
	}

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{scenariosDir})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ All scenarios passed")
}
