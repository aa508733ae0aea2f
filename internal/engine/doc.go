// Package engine implements the bouquet assembly engine.
//
// A Warehouse owns one production line per size class. Each arrival is
// counted into its line's stock and matched against the catalog's designs
// for that size. The first feasible design in declaration order wins the
// arrival: its stems leave the stock and the finished bouquet goes to the
// configured sink. Matching repeats until nothing in the catalog is
// feasible, so a single arrival can unlock several bouquets when a line
// starts from seeded stock.
//
// ARCHITECTURE:
//
// Single-owner synchronous core:
// All mutation happens on the caller's goroutine, and AddStem runs the
// full match-and-emit cycle to completion before returning. There are no
// locks and no background goroutines; determinism falls out of call
// order. Callers that want concurrency put a queue in front of the
// warehouse and keep a single feeder.
//
// Deterministic selection:
// Designs are evaluated strictly in catalog declaration order, and stems
// beyond a design's exact total return to stock in ascending species
// order. The same catalog and arrival sequence always produce the same
// bouquet sequence; journal replay verifies exactly that.
//
// Hot path:
// Feasibility runs over tightened bounds on fixed-width counter vectors,
// behind two prunes: a per-design stem-total check and a catalog-wide
// per-species ceiling that skips the scan entirely once a settled line
// holds more of a species than any design could take. An arrival that
// produces no bouquet allocates nothing.
package engine
