package stem

// Stock is the inventory of one production line: a counter vector plus a
// running total. The total is maintained incrementally so the cheapest
// feasibility check (enough stems at all?) is a single comparison.
//
// Per-species counts are uint16. A line holding more than 65535 stems of one
// species between emissions is outside the supported input contract.
type Stock struct {
	counts Vector
	total  uint32
}

// Add records one arrived stem.
func (st *Stock) Add(s Species) {
	st.counts[s]++
	st.total++
}

// Seed adds a block of stems at once. Used to start a line with existing
// inventory rather than an empty bench.
func (st *Stock) Seed(v *Vector) {
	for i := range v {
		st.counts[i] += v[i]
	}
	st.total += v.Sum()
}

// Count returns the held count for one species.
func (st *Stock) Count(s Species) uint16 {
	return st.counts[s]
}

// Counts returns a snapshot copy of the counter vector.
func (st *Stock) Counts() Vector {
	return st.counts
}

// Total returns the number of stems held across all species.
func (st *Stock) Total() uint32 {
	return st.total
}

// AnyBelow reports whether stock is strictly below floor on any lane.
func (st *Stock) AnyBelow(floor *Vector) bool {
	return st.counts.AnyBelow(floor)
}

// Take returns the lanewise minimum of stock and limit: the most that can
// be drawn from this stock without exceeding limit on any lane. The stock
// itself is not modified.
func (st *Stock) Take(limit *Vector) Vector {
	return Min(&st.counts, limit)
}

// Subtract removes an allocation from stock. Callers must ensure the
// allocation does not exceed the held count on any lane.
func (st *Stock) Subtract(alloc *Vector) {
	st.counts.Sub(alloc)
	st.total -= alloc.Sum()
}
