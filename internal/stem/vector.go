package stem

// VectorWidth is the lane count of a counter vector. 26 lanes carry species
// counts; the remaining lanes are zero padding that keeps the width a power
// of two so the lanewise loops below stay fixed-bound and branch-light.
const VectorWidth = 32

// Vector is a fixed block of per-species uint16 counters, indexed by
// Species. Lanes 26 through 31 must stay zero; every operation here
// preserves that.
type Vector [VectorWidth]uint16

// Min returns the lanewise minimum of a and b.
func Min(a, b *Vector) Vector {
	var out Vector
	for i := range out {
		if a[i] < b[i] {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
	return out
}

// Sum returns the total across all lanes. The result is uint32: 32 lanes of
// 65535 cannot overflow it, so a sum over any vector is exact.
func (v *Vector) Sum() uint32 {
	var total uint32
	for i := range v {
		total += uint32(v[i])
	}
	return total
}

// AnyBelow reports whether any lane of v is strictly below the same lane of
// floor. Equivalent to "v does not dominate floor".
func (v *Vector) AnyBelow(floor *Vector) bool {
	for i := range v {
		if v[i] < floor[i] {
			return true
		}
	}
	return false
}

// Sub subtracts o from v lanewise. Callers must ensure o[i] <= v[i] on every
// lane; lanes are unsigned and will wrap otherwise.
func (v *Vector) Sub(o *Vector) {
	for i := range v {
		v[i] -= o[i]
	}
}

// IsZero reports whether every lane is zero.
func (v *Vector) IsZero() bool {
	for i := range v {
		if v[i] != 0 {
			return false
		}
	}
	return true
}
