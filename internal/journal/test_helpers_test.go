package journal

import (
	"context"
	"path/filepath"
	"testing"

	"posy/internal/recipe"
	"posy/internal/stem"
)

// createTestJournal creates a journal backed by a temp file.
func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

// testCatalog builds a catalog from notation lines.
func testCatalog(t *testing.T, lines ...string) *recipe.Catalog {
	t.Helper()
	designs := make([]recipe.Design, 0, len(lines))
	for _, line := range lines {
		d, err := recipe.ParseDesign(line)
		if err != nil {
			t.Fatalf("ParseDesign(%q) failed: %v", line, err)
		}
		designs = append(designs, d)
	}
	c, err := recipe.NewCatalog(designs)
	if err != nil {
		t.Fatalf("NewCatalog() failed: %v", err)
	}
	return c
}

// createTestRun inserts a minimal run header and returns it.
func createTestRun(t *testing.T, j *Journal, token string) Run {
	t.Helper()
	cat := testCatalog(t, "AS3a4b6")
	data, err := cat.MarshalCanonical()
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	run := Run{
		Token:         token,
		CatalogHash:   cat.Hash(),
		CatalogJSON:   string(data),
		EngineVersion: "0.1.0",
	}
	if err := j.CreateRun(context.Background(), run); err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	return run
}

// mustArrival parses an arrival token or fails the test.
func mustArrival(t *testing.T, tok string) stem.Arrival {
	t.Helper()
	a, err := stem.ParseArrival(tok)
	if err != nil {
		t.Fatalf("ParseArrival(%q) failed: %v", tok, err)
	}
	return a
}
