package engine

import (
	"posy/internal/recipe"
	"posy/internal/stem"
)

// assemble decides whether design d is feasible against current stock and,
// if so, returns the exact allocation to draw. The stock is not modified.
//
// The checks run cheapest first:
//  1. total stems held must reach the design's total
//  2. every tightened minimum must be met
//  3. the draw capped at the tightened maximums must reach the total
//
// A draw that passes all three is trimmed back to the exact total by
// returning surplus stems in ascending species order, never taking a lane
// below its tightened minimum.
func (ln *Line) assemble(d *recipe.Design) (stem.Vector, bool) {
	ln.stats.Scans++

	if ln.stock.Total() < uint32(d.Total) {
		ln.stats.RejectTotal++
		return stem.Vector{}, false
	}
	if ln.stock.AnyBelow(&d.TightMin) {
		ln.stats.RejectFloor++
		return stem.Vector{}, false
	}

	take := ln.stock.Take(&d.TightMax)
	sum := take.Sum()
	if sum < uint32(d.Total) {
		ln.stats.RejectSum++
		return stem.Vector{}, false
	}

	// Slack across lanes is sum minus the tightened minimums, which is at
	// least sum - total, so the loop always clears the surplus.
	excess := sum - uint32(d.Total)
	for i := 0; i < stem.SpeciesCount && excess > 0; i++ {
		if slack := uint32(take[i]) - uint32(d.TightMin[i]); slack > 0 {
			r := min(excess, slack)
			take[i] -= uint16(r)
			excess -= r
		}
	}

	return take, true
}
