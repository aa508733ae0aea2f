package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posy/internal/journal"
)

func TestRunStreamEndToEnd(t *testing.T) {
	stream := "AS2a2\nBL1a1b2\n\naS\naL\nbL\naS\n"

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetIn(strings.NewReader(stream))
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	// Stdout carries bouquet lines and nothing else
	assert.Equal(t, "BL1a1b\nAS2a\n", out.String())
}

func TestRunCatalogFileWithArrivalsFile(t *testing.T) {
	tmpDir := t.TempDir()
	catalogPath := filepath.Join(tmpDir, "designs.posy")
	arrivalsPath := filepath.Join(tmpDir, "arrivals.txt")
	require.NoError(t, os.WriteFile(catalogPath, []byte("AS2a2\nBL1a1b2\n"), 0644))
	require.NoError(t, os.WriteFile(arrivalsPath, []byte("aL\nbL\naS\naS\n"), 0644))

	out := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--catalog", catalogPath, arrivalsPath})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "BL1a1b\nAS2a\n", out.String())
}

func TestRunJournaled(t *testing.T) {
	tmpDir := t.TempDir()
	catalogPath := filepath.Join(tmpDir, "designs.posy")
	dbPath := filepath.Join(tmpDir, "posy.db")
	require.NoError(t, os.WriteFile(catalogPath, []byte("AS2a2\n"), 0644))

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetIn(strings.NewReader("aS\naS\n"))
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"--catalog", catalogPath, "--journal", dbPath, "--run-token", "test-run-1"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "AS2a\n", out.String())

	// Every arrival and emission landed in the journal
	j, err := journal.Open(dbPath)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	tokens, err := j.ListRunTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"test-run-1"}, tokens)

	state, err := j.GetRunState(ctx, "test-run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, state.Arrivals)
	assert.Equal(t, 1, state.Bouquets)
	assert.Equal(t, int64(2), state.StemsIn)
	assert.Equal(t, int64(2), state.StemsUsed)
	assert.True(t, state.Conserved)
}

func TestRunTokenRequiresJournal(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--run-token", "t1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--run-token requires --journal")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunMissingInputFile(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.txt")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunBadCatalogPath(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetIn(strings.NewReader("aS\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--catalog", filepath.Join(t.TempDir(), "missing.posy")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunEmptyHeader(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetIn(strings.NewReader("\naS\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read stream header")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunMalformedArrival(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetIn(strings.NewReader("AS2a2\n\naS\nbogus\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream processing failed")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunStats(t *testing.T) {
	errOut := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetIn(strings.NewReader("AS2a2\n\naS\naS\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"--stats"})

	require.NoError(t, cmd.Execute())

	// Counters go to stderr so stdout stays pure bouquet lines
	output := errOut.String()
	assert.Contains(t, output, "Arrivals:    2")
	assert.Contains(t, output, "Bouquets:    1")
	assert.Contains(t, output, "Stems used:  2")
}

func TestRunStatsJSON(t *testing.T) {
	errOut := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	cmd.SetIn(strings.NewReader("AS2a2\n\naS\naS\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"--stats"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), `"arrivals": 2`)
	assert.Contains(t, errOut.String(), `"bouquets": 1`)
}

func TestRunHelpText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "stem stream")
	assert.Contains(t, output, "--catalog")
	assert.Contains(t, output, "--journal")
	assert.Contains(t, output, "--stats")
}
