package stem

import (
	"errors"
	"fmt"
	"math/bits"
)

// SpeciesCount is the number of valid species. Species are the lowercase
// letters 'a' through 'z', mapped to lanes 0 through 25.
const SpeciesCount = 26

// ErrSpecies reports a byte outside the 'a'..'z' species alphabet.
var ErrSpecies = errors.New("species must be a lowercase letter a through z")

// Species identifies one stem species. The zero value is species 'a'.
// A Species doubles as the lane index into a Vector.
type Species uint8

// ParseSpecies maps a species letter to its lane.
func ParseSpecies(c byte) (Species, error) {
	if c < 'a' || c > 'z' {
		return 0, fmt.Errorf("%w: %q", ErrSpecies, string(c))
	}
	return Species(c - 'a'), nil
}

// ParseSpeciesText parses a one-letter species string.
// Used where species arrive as map keys rather than raw bytes.
func ParseSpeciesText(s string) (Species, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrSpecies, s)
	}
	return ParseSpecies(s[0])
}

// Byte returns the species letter.
func (s Species) Byte() byte {
	return 'a' + byte(s)
}

func (s Species) String() string {
	return string(s.Byte())
}

// SpeciesSet is a bitmask over the 26 species lanes.
// Used to record which species a design mentions.
type SpeciesSet uint32

// Add marks a species as present.
func (ss *SpeciesSet) Add(s Species) {
	*ss |= 1 << s
}

// Has reports whether the species is present.
func (ss SpeciesSet) Has(s Species) bool {
	return ss&(1<<s) != 0
}

// Len returns the number of species in the set.
func (ss SpeciesSet) Len() int {
	return bits.OnesCount32(uint32(ss))
}

// Species returns the members in ascending lane order.
func (ss SpeciesSet) Species() []Species {
	out := make([]Species, 0, ss.Len())
	for s := Species(0); s < SpeciesCount; s++ {
		if ss.Has(s) {
			out = append(out, s)
		}
	}
	return out
}
