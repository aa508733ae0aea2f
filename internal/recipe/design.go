package recipe

import (
	"fmt"

	"posy/internal/stem"
)

// Design is one bouquet recipe. Min and Max carry the declared per-species
// bounds; TightMin and TightMax are the bounds after Tighten folds in the
// exact-total constraint. The assembly path reads only the tightened pair.
//
// Designs are treated as immutable once their catalog is built.
type Design struct {
	Name  byte // 'A' through 'Z'
	Size  stem.Size
	Total uint16

	Min stem.Vector
	Max stem.Vector

	TightMin stem.Vector
	TightMax stem.Vector

	// Used marks the species the design mentions (declared Max above zero).
	Used stem.SpeciesSet
}

// Check validates the declared fields. It does not require Tighten to have
// run. The first violation found is returned.
func (d *Design) Check() error {
	if d.Name < 'A' || d.Name > 'Z' {
		return fmt.Errorf("design name must be an uppercase letter, got %q", string(d.Name))
	}
	if d.Total == 0 {
		return fmt.Errorf("design %s%s: total must be at least 1", string(d.Name), d.Size)
	}
	for s := stem.Species(0); s < stem.SpeciesCount; s++ {
		if d.Min[s] > d.Max[s] {
			return fmt.Errorf("design %s%s: species %s minimum %d exceeds maximum %d",
				string(d.Name), d.Size, s, d.Min[s], d.Max[s])
		}
	}
	for i := stem.SpeciesCount; i < stem.VectorWidth; i++ {
		if d.Min[i] != 0 || d.Max[i] != 0 {
			return fmt.Errorf("design %s%s: bounds set on padding lane %d", string(d.Name), d.Size, i)
		}
	}
	if !d.Satisfiable() {
		sumMin := d.Min.Sum()
		sumMax := d.Max.Sum()
		return fmt.Errorf("design %s%s: total %d outside the satisfiable range [%d, %d]",
			string(d.Name), d.Size, d.Total, sumMin, sumMax)
	}
	return nil
}

// Satisfiable reports whether some allocation within the declared bounds
// sums to exactly Total. False means the design can never produce a bouquet.
func (d *Design) Satisfiable() bool {
	total := uint32(d.Total)
	return d.Min.Sum() <= total && total <= d.Max.Sum()
}

// Tighten folds the exact-total constraint into the per-species bounds.
//
// If every other species contributes its maximum, species s must still
// supply at least Total minus that, raising its floor. If every other
// species sits at its minimum, s can supply at most Total minus that,
// lowering its ceiling. Allocations outside the tightened bounds can never
// complete the design, so the assembly path checks only these.
//
// Requires a satisfiable design; Check must pass first.
func (d *Design) Tighten() {
	sumMin := int64(d.Min.Sum())
	sumMax := int64(d.Max.Sum())
	total := int64(d.Total)

	d.Used = 0
	for i := 0; i < stem.VectorWidth; i++ {
		floor := int64(d.Min[i])
		if implied := total - (sumMax - int64(d.Max[i])); implied > floor {
			floor = implied
		}
		ceil := int64(d.Max[i])
		if implied := total - (sumMin - int64(d.Min[i])); implied < ceil {
			ceil = implied
		}
		d.TightMin[i] = uint16(floor)
		d.TightMax[i] = uint16(ceil)
		if i < stem.SpeciesCount && d.Max[i] > 0 {
			d.Used.Add(stem.Species(i))
		}
	}
}

// String renders the design in stream-style notation for logs and
// diagnostics. Minimums other than one are not representable in that form;
// use Notation when fidelity matters.
func (d *Design) String() string {
	out, err := d.Notation()
	if err != nil {
		return fmt.Sprintf("%s%s(total=%d)", string(d.Name), d.Size, d.Total)
	}
	return out
}
