package stem

import (
	"errors"
	"fmt"
)

// ErrArrival reports a malformed arrival token.
var ErrArrival = errors.New("arrival must be a species letter followed by a size letter")

// Arrival is one input event: a single stem of one species in one size.
type Arrival struct {
	Species Species
	Size    Size
}

// ParseArrival parses an arrival token such as "aS" or "rL".
func ParseArrival(tok string) (Arrival, error) {
	if len(tok) != 2 {
		return Arrival{}, fmt.Errorf("%w: %q", ErrArrival, tok)
	}
	sp, err := ParseSpecies(tok[0])
	if err != nil {
		return Arrival{}, fmt.Errorf("%w: %q", ErrArrival, tok)
	}
	z, err := ParseSize(tok[1])
	if err != nil {
		return Arrival{}, fmt.Errorf("%w: %q", ErrArrival, tok)
	}
	return Arrival{Species: sp, Size: z}, nil
}

// String renders the arrival back to its token form.
func (a Arrival) String() string {
	return string([]byte{a.Species.Byte(), a.Size.Byte()})
}
