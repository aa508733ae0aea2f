package cli

import (
	"fmt"
	"os"
	"strings"

	"posy/internal/compiler"
	"posy/internal/recipe"
)

// CLI error codes beyond the compiler's loading range.
const (
	ErrCodeWriteFailed = "E007" // File write error
)

// LoadCatalog loads a catalog from either a compact notation file or a CUE
// catalog directory, decided by what the path points at. Diagnostics are
// collected rather than fail-fast; the catalog is nil whenever any error
// is returned.
func LoadCatalog(path string) (*recipe.Catalog, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&compiler.LoadError{Code: compiler.ErrCodeNotFound, Message: fmt.Sprintf("catalog not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&compiler.LoadError{Code: compiler.ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog: %v", err)}}
	}

	if info.IsDir() {
		return compiler.CompileCatalog(path)
	}

	cat, err := readCompactCatalog(path)
	if err != nil {
		return nil, []error{err}
	}
	return cat, nil
}

// readCompactCatalog parses a compact notation catalog file, one design
// per line in priority order.
func readCompactCatalog(path string) (*recipe.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	cat, err := recipe.ParseCatalog(strings.Split(string(data), "\n"))
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}
