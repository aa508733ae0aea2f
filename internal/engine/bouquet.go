package engine

import (
	"strconv"

	"posy/internal/recipe"
	"posy/internal/stem"
)

// Bouquet is one finished bouquet: the design it satisfies and the exact
// per-species allocation drawn from stock. The allocation always sums to
// the design's total and sits within its tightened bounds.
type Bouquet struct {
	Design     *recipe.Design
	Allocation stem.Vector
}

// StemCount returns the number of stems in the bouquet.
func (b *Bouquet) StemCount() uint32 {
	return b.Allocation.Sum()
}

// Line renders the output form: design name, size, then each allocated
// species as count-letter in ascending species order, with no trailing
// total. "AS1a2b" is one a and two b in a small A.
func (b *Bouquet) Line() string {
	return string(b.AppendLine(make([]byte, 0, 16)))
}

// AppendLine appends the output form to dst and returns the extended
// slice. Emission paths that write many bouquets reuse one buffer.
func (b *Bouquet) AppendLine(dst []byte) []byte {
	dst = append(dst, b.Design.Name, b.Design.Size.Byte())
	for s := stem.Species(0); s < stem.SpeciesCount; s++ {
		if n := b.Allocation[s]; n > 0 {
			dst = strconv.AppendUint(dst, uint64(n), 10)
			dst = append(dst, s.Byte())
		}
	}
	return dst
}
