package engine

import (
	"context"
	"fmt"
	"log/slog"

	"posy/internal/recipe"
	"posy/internal/stem"
)

// Line is one size class's production line: its stock, its slice of the
// catalog in declaration order, and the species index over that slice.
type Line struct {
	size    stem.Size
	designs []*recipe.Design
	index   *recipe.Index
	stock   stem.Stock
	sink    Sink
	stats   Stats

	// settled means stock sits at a fixed point: no design is feasible.
	// Lines start settled unless seeded. The species-ceiling prune in
	// addStem is only sound while this holds.
	settled bool
}

func newLine(z stem.Size, designs []*recipe.Design, seed stem.Vector, sink Sink) *Line {
	ln := &Line{
		size:    z,
		designs: designs,
		index:   recipe.NewIndex(designs),
		sink:    sink,
		settled: true,
	}
	if !seed.IsZero() {
		ln.stock.Seed(&seed)
		ln.settled = false
		slog.Debug("line seeded", "size", z, "stems", ln.stock.Total())
	}
	return ln
}

// addStem counts one arrived stem and assembles every bouquet it unlocks.
// Returns the number of bouquets emitted, including any produced by
// settling seeded stock first.
func (ln *Line) addStem(s stem.Species) (int, error) {
	emitted := 0
	if !ln.settled {
		n, err := ln.settle()
		emitted += n
		if err != nil {
			return emitted, err
		}
	}

	ln.stats.Arrivals++
	ln.stock.Add(s)

	// A settled line already holding more of s than any design could take
	// cannot have become feasible; skip the scan outright.
	if ln.stock.Count(s) > ln.index.GlobalCap(s) {
		ln.stats.PruneSkips++
		return emitted, nil
	}

	n, err := ln.rescan(ln.index.BySpecies(s))
	return emitted + n, err
}

// settle drains seeded stock to a fixed point against the full catalog.
// Only a successful drain marks the line settled; a sink error leaves it
// unsettled with stock already debited for the bouquets that went out.
func (ln *Line) settle() (int, error) {
	n, err := ln.rescan(ln.designs)
	if err == nil {
		ln.settled = true
	}
	return n, err
}

// rescan matches candidates to a fixed point. After every emission the
// scan restarts from the top, so a higher-priority design that stays
// feasible keeps winning. Stops when a full pass matches nothing.
//
// Termination is structural: every bouquet consumes at least one stem and
// stock only shrinks here, so the loop runs at most stock-total times.
func (ln *Line) rescan(candidates []*recipe.Design) (int, error) {
	emitted := 0
	for {
		matched := false
		for _, d := range candidates {
			alloc, ok := ln.assemble(d)
			if !ok {
				continue
			}

			ln.stock.Subtract(&alloc)
			ln.stats.Bouquets++
			ln.stats.StemsUsed += uint64(alloc.Sum())

			b := &Bouquet{Design: d, Allocation: alloc}
			if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
				slog.Debug("bouquet assembled",
					"size", ln.size,
					"design", string(d.Name),
					"stems", b.StemCount(),
					"stock", ln.stock.Total())
			}
			if err := ln.sink.Emit(b); err != nil {
				return emitted, fmt.Errorf("emit %s%s: %w", string(d.Name), d.Size, err)
			}
			emitted++
			matched = true
			break
		}
		if !matched {
			return emitted, nil
		}
	}
}
