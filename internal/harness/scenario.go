package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"posy/internal/stem"
)

// Scenario is one conformance case: a catalog, optional seeded stock, an
// arrival stream, and the required outcome.
type Scenario struct {
	// Name identifies the scenario; golden files are keyed by it.
	Name string `yaml:"name"`

	// Description states what the scenario demonstrates.
	Description string `yaml:"description"`

	// Catalog holds compact design lines, one per entry, highest
	// priority first.
	Catalog []string `yaml:"catalog,omitempty"`

	// CatalogPath points at a catalog on disk instead: a compact
	// notation file or a CUE catalog directory. Relative paths resolve
	// against the scenario file's directory.
	CatalogPath string `yaml:"catalog_path,omitempty"`

	// Setup seeds stock before the arrival stream runs.
	Setup *Setup `yaml:"setup,omitempty"`

	// Arrivals is the stream, whitespace separated: "aS aS bL".
	Arrivals string `yaml:"arrivals,omitempty"`

	// Expect states the required outcome.
	Expect Expect `yaml:"expect"`
}

// Setup is the warehouse state before the stream starts.
type Setup struct {
	// Stock maps size letter to species letter to count: {S: {a: 4}}.
	Stock map[string]map[string]int `yaml:"stock"`
}

// Expect is the required outcome of a scenario.
type Expect struct {
	// Bouquets is the exact emission sequence, one line per bouquet.
	// Leaving it empty means the scenario must emit nothing.
	Bouquets []string `yaml:"bouquets,omitempty"`

	// Stock lists final per-species counts to check. Species not listed
	// are not checked.
	Stock map[string]map[string]int `yaml:"stock,omitempty"`
}

// LoadScenario reads and validates a scenario file. A relative
// catalog_path is resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.CatalogPath != "" && !filepath.IsAbs(scenario.CatalogPath) {
		scenario.CatalogPath = filepath.Join(filepath.Dir(path), scenario.CatalogPath)
	}
	return &scenario, nil
}

// ListScenarios returns the scenario files directly under dir, sorted by
// name.
func ListScenarios(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.yaml"))
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Catalog) == 0 && s.CatalogPath == "" {
		return fmt.Errorf("one of catalog or catalog_path is required")
	}
	if len(s.Catalog) > 0 && s.CatalogPath != "" {
		return fmt.Errorf("catalog and catalog_path are mutually exclusive")
	}
	if s.Setup == nil && strings.TrimSpace(s.Arrivals) == "" {
		return fmt.Errorf("nothing to run: no setup stock and no arrivals")
	}

	for i, tok := range strings.Fields(s.Arrivals) {
		if _, err := stem.ParseArrival(tok); err != nil {
			return fmt.Errorf("arrivals[%d]: %v", i, err)
		}
	}
	if s.Setup != nil {
		if _, err := stockVectors(s.Setup.Stock); err != nil {
			return fmt.Errorf("setup.stock: %v", err)
		}
	}
	if _, err := stockVectors(s.Expect.Stock); err != nil {
		return fmt.Errorf("expect.stock: %v", err)
	}
	return nil
}
