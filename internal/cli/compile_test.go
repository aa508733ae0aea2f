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

func writeCUECatalog(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	src := `
package flowers

design: A: {
	size:     "S"
	priority: 1
	total:    6
	species: {
		a: { max: 3 }
		b: { max: 4 }
	}
}

design: B: {
	size:     "L"
	priority: 2
	total:    4
	species: {
		d: { max: 4 }
	}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "flowers.cue"), []byte(src), 0644))
	return tmpDir
}

func TestCompileCUEDir(t *testing.T) {
	cueDir := writeCUECatalog(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{cueDir})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Compiled 2 design(s)")
	// Lines come out in priority order
	assert.Contains(t, output, "AS3a4b6")
	assert.Contains(t, output, "BL4d4")
	assert.Contains(t, output, "Catalog hash: ")
}

func TestCompileJSON(t *testing.T) {
	cueDir := writeCUECatalog(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{cueDir})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, []string{"AS3a4b6", "BL4d4"}, result.Lines)
	assert.NotEmpty(t, result.Hash)
}

func TestCompileOutputFile(t *testing.T) {
	cueDir := writeCUECatalog(t)
	outPath := filepath.Join(t.TempDir(), "designs.posy")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"-o", outPath, cueDir})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Wrote catalog to "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "AS3a4b6\nBL4d4\n", string(data))
}

func TestCompileVerboseBounds(t *testing.T) {
	cueDir := writeCUECatalog(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Verbose: true}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{cueDir})

	err := cmd.Execute()
	require.NoError(t, err)

	// The exact-total constraint narrows the raw per-species bounds
	output := buf.String()
	assert.Contains(t, output, "total 6")
	assert.Contains(t, output, "a[2..3]")
	assert.Contains(t, output, "b[3..4]")
}

func TestCompileRoundTripsThroughRun(t *testing.T) {
	cueDir := writeCUECatalog(t)
	outPath := filepath.Join(t.TempDir(), "designs.posy")

	compileCmd := NewCompileCommand(&RootOptions{Format: "text"})
	compileCmd.SetOut(&bytes.Buffer{})
	compileCmd.SetArgs([]string{"-o", outPath, cueDir})
	require.NoError(t, compileCmd.Execute())

	// The emitted file is a usable --catalog for the run command
	out := &bytes.Buffer{}
	runCmd := NewRunCommand(&RootOptions{Format: "text"})
	runCmd.SetIn(bytes.NewReader([]byte("dL\ndL\ndL\ndL\n")))
	runCmd.SetOut(out)
	runCmd.SetErr(&bytes.Buffer{})
	runCmd.SetArgs([]string{"--catalog", outPath})

	require.NoError(t, runCmd.Execute())
	assert.Equal(t, "BL4d\n", out.String())
}

func TestCompileNonExistentDir(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/directory"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "E005")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompileEmptyDir(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "no CUE files found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompileBadDesign(t *testing.T) {
	tmpDir := t.TempDir()
	src := `
package flowers

design: A: {
	priority: 1
	total:    3
	species: { a: { max: 3 } }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "flowers.cue"), []byte(src), 0644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{tmpDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation failed")
	assert.Contains(t, buf.String(), "✗ Compilation failed")
	assert.Contains(t, buf.String(), "size is required")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompileWriteFailure(t *testing.T) {
	cueDir := writeCUECatalog(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-o", filepath.Join(t.TempDir(), "missing", "out.posy"), cueDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeWriteFailed)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
