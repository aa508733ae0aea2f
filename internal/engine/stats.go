package engine

import (
	"expvar"
	"fmt"
	"sync/atomic"
)

// Stats counts what a line (or the whole warehouse, when aggregated) has
// done. Counters are plain integers mutated only by the owning goroutine;
// snapshots taken off-thread via expvar may lag by an event, which is fine
// for observation.
type Stats struct {
	// Arrivals is the number of stems accepted.
	Arrivals uint64 `json:"arrivals"`
	// Bouquets is the number of bouquets emitted.
	Bouquets uint64 `json:"bouquets"`
	// StemsUsed is the number of stems consumed into bouquets.
	StemsUsed uint64 `json:"stems_used"`

	// Scans counts design feasibility evaluations.
	Scans uint64 `json:"scans"`
	// RejectTotal counts scans rejected by the stem-total check.
	RejectTotal uint64 `json:"reject_total"`
	// RejectFloor counts scans rejected by a tightened minimum.
	RejectFloor uint64 `json:"reject_floor"`
	// RejectSum counts scans rejected because the capped draw fell short.
	RejectSum uint64 `json:"reject_sum"`
	// PruneSkips counts arrivals that skipped the scan via the
	// catalog-wide species ceiling.
	PruneSkips uint64 `json:"prune_skips"`
}

func (s *Stats) add(o *Stats) {
	s.Arrivals += o.Arrivals
	s.Bouquets += o.Bouquets
	s.StemsUsed += o.StemsUsed
	s.Scans += o.Scans
	s.RejectTotal += o.RejectTotal
	s.RejectFloor += o.RejectFloor
	s.RejectSum += o.RejectSum
	s.PruneSkips += o.PruneSkips
}

var statsSeq atomic.Uint64

// PublishStats exposes the warehouse's aggregate counters under the given
// expvar name. An empty name gets a generated unique one; the chosen name
// is returned. Publishing the same name twice panics (expvar semantics),
// hence the generated fallback for tests and embedded use.
func PublishStats(name string, w *Warehouse) string {
	if name == "" {
		name = fmt.Sprintf("posy_engine_%d", statsSeq.Add(1))
	}
	expvar.Publish(name, expvar.Func(func() any {
		return w.Stats()
	}))
	return name
}
