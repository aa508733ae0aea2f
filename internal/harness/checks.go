package harness

import (
	"posy/internal/stem"
)

// checkAllocations verifies every emitted bouquet against its design:
// the allocation must sum to the design total and sit inside the
// tightened bounds on every lane. Species outside the design tighten to
// [0, 0], so the same bound check catches strays.
func checkAllocations(result *Result, rs *runState) {
	for i, b := range rs.bouquets {
		d := b.Design
		line := b.Line()
		if got := b.StemCount(); got != uint32(d.Total) {
			result.AddError("bouquet %d (%s): %d stems allocated, design total is %d",
				i, line, got, d.Total)
		}
		for s := stem.Species(0); s < stem.SpeciesCount; s++ {
			n := b.Allocation[s]
			if n < d.TightMin[s] || n > d.TightMax[s] {
				result.AddError("bouquet %d (%s): species %s count %d outside [%d, %d]",
					i, line, s, n, d.TightMin[s], d.TightMax[s])
			}
		}
	}
}

// checkConservation verifies stems in equal stems out, lane by lane:
// seeded stock plus arrivals must equal final stock plus everything
// allocated into bouquets of that size. An underflow anywhere in the
// stock arithmetic breaks this equation, so it doubles as the
// non-negativity check. The running stock total is reconciled against
// the lane sum as well.
func checkConservation(result *Result, rs *runState) {
	for z := stem.Size(0); z < stem.SizeCount; z++ {
		var allocated [stem.SpeciesCount]uint32
		for _, b := range rs.bouquets {
			if b.Design.Size != z {
				continue
			}
			for s := stem.Species(0); s < stem.SpeciesCount; s++ {
				allocated[s] += uint32(b.Allocation[s])
			}
		}

		var laneSum uint32
		for s := stem.Species(0); s < stem.SpeciesCount; s++ {
			in := uint32(rs.seed[z][s]) + rs.arrived[z][s]
			out := uint32(rs.final[z][s]) + allocated[s]
			if in != out {
				result.AddError("conservation: size %s species %s: %d in, %d out", z, s, in, out)
			}
			laneSum += uint32(rs.final[z][s])
		}
		if laneSum != rs.finalTotal[z] {
			result.AddError("stock total: size %s: counter says %d, lanes sum to %d",
				z, rs.finalTotal[z], laneSum)
		}
	}
}

// checkExpectations verifies the scenario's expect clause: the exact
// bouquet sequence and any listed final stock counts.
func checkExpectations(result *Result, scenario *Scenario, rs *runState) {
	got := rs.bouquetLines()
	want := scenario.Expect.Bouquets
	if len(got) != len(want) {
		result.AddError("expected %d bouquets, got %d: %v", len(want), len(got), got)
	} else {
		for i := range want {
			if got[i] != want[i] {
				result.AddError("bouquet %d: expected %s, got %s", i, want[i], got[i])
			}
		}
	}

	for sizeKey, counts := range scenario.Expect.Stock {
		z, err := stem.ParseSizeText(sizeKey)
		if err != nil {
			result.AddError("expect.stock: %v", err)
			continue
		}
		for speciesKey, n := range counts {
			s, err := stem.ParseSpeciesText(speciesKey)
			if err != nil {
				result.AddError("expect.stock.%s: %v", sizeKey, err)
				continue
			}
			if have := rs.final[z][s]; int(have) != n {
				result.AddError("final stock %s.%s: expected %d, have %d", sizeKey, speciesKey, n, have)
			}
		}
	}
}
