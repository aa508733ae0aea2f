package recipe

import (
	"posy/internal/stem"
)

// Index precomputes, for one size class, which designs an arriving species
// can possibly complete. Built once per catalog; read-only afterwards.
type Index struct {
	// bySpecies holds, per species, the designs whose tightened maximum for
	// that species is above zero, in declaration order. A design that cannot
	// take the arriving species cannot have been unlocked by it: its
	// feasibility reads only lanes the arrival did not touch.
	bySpecies [stem.SpeciesCount][]*Design

	// globalCap is the catalog-wide ceiling per species: the largest
	// tightened maximum any design has for it. Stock above this ceiling can
	// never change a feasibility answer.
	globalCap stem.Vector
}

// NewIndex builds the index over designs of one size class, given in
// declaration order.
func NewIndex(designs []*Design) *Index {
	ix := &Index{}
	for _, d := range designs {
		for s := stem.Species(0); s < stem.SpeciesCount; s++ {
			if d.TightMax[s] == 0 {
				continue
			}
			ix.bySpecies[s] = append(ix.bySpecies[s], d)
			if d.TightMax[s] > ix.globalCap[s] {
				ix.globalCap[s] = d.TightMax[s]
			}
		}
	}
	return ix
}

// BySpecies returns the candidate designs for an arriving species in
// declaration order. The slice is shared; callers must not modify it.
func (ix *Index) BySpecies(s stem.Species) []*Design {
	return ix.bySpecies[s]
}

// GlobalCap returns the catalog-wide ceiling for a species.
func (ix *Index) GlobalCap(s stem.Species) uint16 {
	return ix.globalCap[s]
}
