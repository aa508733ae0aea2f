package engine

import (
	"posy/internal/recipe"
	"posy/internal/stem"
)

// Warehouse is the assembly engine: one production line per size class,
// all fed from a single caller. Not safe for concurrent use.
type Warehouse struct {
	catalog *recipe.Catalog
	lines   stem.SizeMap[*Line]
}

// New builds a warehouse over the catalog. Without options it starts with
// empty stock and discards bouquets.
func New(catalog *recipe.Catalog, opts ...Option) *Warehouse {
	cfg := config{sink: Discard}
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &Warehouse{catalog: catalog}
	for z := stem.Size(0); z < stem.SizeCount; z++ {
		w.lines[z] = newLine(z, catalog.BySize(z), cfg.seed[z], cfg.sink)
	}
	return w
}

// AddStem feeds one arrival to its line and returns how many bouquets it
// unlocked. A sink error stops processing mid-arrival and is returned.
func (w *Warehouse) AddStem(a stem.Arrival) (int, error) {
	return w.lines[a.Size].addStem(a.Species)
}

// Settle drains seeded stock on every line to a fixed point. Lines without
// seed are already settled and are skipped. Calling Settle is optional:
// an unsettled line settles itself before its first arrival counts.
func (w *Warehouse) Settle() (int, error) {
	emitted := 0
	for z := stem.Size(0); z < stem.SizeCount; z++ {
		ln := w.lines[z]
		if ln.settled {
			continue
		}
		n, err := ln.settle()
		emitted += n
		if err != nil {
			return emitted, err
		}
	}
	return emitted, nil
}

// Catalog returns the catalog the warehouse was built over.
func (w *Warehouse) Catalog() *recipe.Catalog {
	return w.catalog
}

// Stats returns counters aggregated across both lines.
func (w *Warehouse) Stats() Stats {
	var total Stats
	for z := stem.Size(0); z < stem.SizeCount; z++ {
		total.add(&w.lines[z].stats)
	}
	return total
}

// LineStats returns one line's counters.
func (w *Warehouse) LineStats(z stem.Size) Stats {
	return w.lines[z].stats
}

// Stock returns a snapshot of one line's per-species counts.
func (w *Warehouse) Stock(z stem.Size) stem.Vector {
	return w.lines[z].stock.Counts()
}

// StockTotal returns the number of stems one line currently holds.
func (w *Warehouse) StockTotal(z stem.Size) uint32 {
	return w.lines[z].stock.Total()
}
