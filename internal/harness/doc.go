// Package harness executes bouquet conformance scenarios.
//
// A scenario feeds a scripted arrival stream to a fresh warehouse and
// states what must come out. Beyond the scenario's own expectations, every run
// is checked against properties that always hold: each allocation stays
// inside its design's tightened bounds and sums to the design total, and
// stems are conserved per species and size. The conservation equation
// also rules out negative stock, since an underflow on any lane breaks
// it.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: two_species_threshold
//	description: "The fifth stem completes the bouquet."
//	catalog:
//	  - AS3a3b5
//	arrivals: aS aS aS bS bS
//	expect:
//	  bouquets:
//	    - AS3a2b
//	  stock:
//	    S:
//	      a: 0
//	      b: 0
//
// The catalog is either inline compact notation (catalog) or a path to a
// compact file or CUE catalog directory (catalog_path), resolved
// relative to the scenario file. Optional setup.stock seeds per-size
// stock before the stream starts; seeded stock settles first, so its
// bouquets precede every arrival in the trace.
//
// # Determinism
//
// The engine is deterministic by construction and the harness leans on
// that twice over. Every scenario runs against two fresh warehouses and
// both runs must produce the same trace, and the trace doubles as a
// golden snapshot via RunWithGolden.
//
// # Usage
//
// Load and run a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/drain.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
