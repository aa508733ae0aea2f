// Package stem defines the primitive vocabulary of the assembly engine:
// species, sizes, arrivals, and the fixed-width counter vectors that hold
// per-species stem counts.
//
// Counts live in 32-lane blocks of uint16 (26 species lanes plus zero
// padding) so that the hot feasibility operations - lanewise minimum,
// lanewise comparison, and summation - run as short fixed-bound loops with
// no allocation. Stock wraps a counter vector with a running total so the
// cheap "enough stems at all?" check never rescans the lanes.
//
// Everything in this package is plain value manipulation. Nothing here
// takes a lock or allocates on the hot path, and nothing depends on the
// wall clock.
package stem
