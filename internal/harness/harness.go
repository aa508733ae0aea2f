package harness

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"posy/internal/compiler"
	"posy/internal/engine"
	"posy/internal/recipe"
	"posy/internal/stem"
)

// Run executes a scenario and reports the outcome. An error means the
// scenario itself could not run: an unreadable catalog, a bad token.
// Failed expectations and properties land in Result.Errors instead.
//
// Each scenario runs twice against fresh warehouses and both runs must
// produce the same trace.
func Run(scenario *Scenario) (*Result, error) {
	catalog, err := loadCatalog(scenario)
	if err != nil {
		return nil, err
	}

	first, err := execute(scenario, catalog)
	if err != nil {
		return nil, err
	}
	second, err := execute(scenario, catalog)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.Bouquets = first.bouquetLines()
	result.Trace = first.trace

	checkAllocations(result, first)
	checkConservation(result, first)
	checkExpectations(result, scenario, first)
	if !slices.Equal(first.trace, second.trace) {
		result.AddError("determinism: second run produced a different trace")
	}
	return result, nil
}

func loadCatalog(scenario *Scenario) (*recipe.Catalog, error) {
	if len(scenario.Catalog) > 0 {
		catalog, err := recipe.ParseCatalog(scenario.Catalog)
		if err != nil {
			return nil, fmt.Errorf("scenario catalog: %w", err)
		}
		return catalog, nil
	}

	info, err := os.Stat(scenario.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("catalog_path: %w", err)
	}
	if info.IsDir() {
		catalog, errs := compiler.CompileCatalog(scenario.CatalogPath)
		if len(errs) > 0 {
			return nil, fmt.Errorf("catalog_path: %w", errors.Join(errs...))
		}
		return catalog, nil
	}

	data, err := os.ReadFile(scenario.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("catalog_path: %w", err)
	}
	catalog, err := recipe.ParseCatalog(strings.Split(string(data), "\n"))
	if err != nil {
		return nil, fmt.Errorf("catalog_path: %w", err)
	}
	return catalog, nil
}

// runState captures everything one execution produced, for the property
// checks to pick over afterwards.
type runState struct {
	trace      []string
	bouquets   []*engine.Bouquet
	seed       stem.SizeMap[stem.Vector]
	arrived    stem.SizeMap[[stem.SpeciesCount]uint32]
	final      stem.SizeMap[stem.Vector]
	finalTotal stem.SizeMap[uint32]
}

func (rs *runState) bouquetLines() []string {
	lines := make([]string, len(rs.bouquets))
	for i, b := range rs.bouquets {
		lines[i] = b.Line()
	}
	return lines
}

// execute runs the scenario once against a fresh warehouse: seed, settle,
// then feed the stream token by token.
func execute(scenario *Scenario, catalog *recipe.Catalog) (*runState, error) {
	rs := &runState{trace: []string{}}

	sink := engine.SinkFunc(func(b *engine.Bouquet) error {
		rs.bouquets = append(rs.bouquets, b)
		rs.trace = append(rs.trace, "="+b.Line())
		return nil
	})

	opts := []engine.Option{engine.WithSink(sink)}
	if scenario.Setup != nil {
		seed, err := stockVectors(scenario.Setup.Stock)
		if err != nil {
			return nil, fmt.Errorf("setup.stock: %w", err)
		}
		rs.seed = seed
		for z := stem.Size(0); z < stem.SizeCount; z++ {
			if !seed[z].IsZero() {
				opts = append(opts, engine.WithInitialStock(z, seed[z]))
			}
		}
	}

	w := engine.New(catalog, opts...)
	if _, err := w.Settle(); err != nil {
		return nil, err
	}

	for _, tok := range strings.Fields(scenario.Arrivals) {
		a, err := stem.ParseArrival(tok)
		if err != nil {
			return nil, fmt.Errorf("arrival %q: %w", tok, err)
		}
		rs.trace = append(rs.trace, "+"+a.String())
		rs.arrived[a.Size][a.Species]++
		if _, err := w.AddStem(a); err != nil {
			return nil, err
		}
	}

	for z := stem.Size(0); z < stem.SizeCount; z++ {
		rs.final[z] = w.Stock(z)
		rs.finalTotal[z] = w.StockTotal(z)
	}
	return rs, nil
}

// stockVectors converts a YAML stock map into per-size vectors.
func stockVectors(m map[string]map[string]int) (stem.SizeMap[stem.Vector], error) {
	var out stem.SizeMap[stem.Vector]
	for sizeKey, counts := range m {
		z, err := stem.ParseSizeText(sizeKey)
		if err != nil {
			return out, err
		}
		for speciesKey, n := range counts {
			s, err := stem.ParseSpeciesText(speciesKey)
			if err != nil {
				return out, fmt.Errorf("%s: %v", sizeKey, err)
			}
			if n < 0 || n > math.MaxUint16 {
				return out, fmt.Errorf("%s.%s: count %d outside the 16-bit range", sizeKey, speciesKey, n)
			}
			out[z][s] = uint16(n)
		}
	}
	return out, nil
}
