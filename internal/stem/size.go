package stem

import (
	"errors"
	"fmt"
)

// Size is the stem and bouquet size class. Every production line handles
// exactly one size; small stems never mix into large bouquets.
type Size uint8

const (
	Small Size = iota
	Large

	// SizeCount is the number of size classes.
	SizeCount = 2
)

// ErrSize reports a byte outside the size alphabet.
var ErrSize = errors.New("size must be S or L")

// ParseSize maps a size letter to its class.
func ParseSize(c byte) (Size, error) {
	switch c {
	case 'S':
		return Small, nil
	case 'L':
		return Large, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrSize, string(c))
	}
}

// ParseSizeText parses a one-letter size string.
func ParseSizeText(s string) (Size, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrSize, s)
	}
	return ParseSize(s[0])
}

// Byte returns the size letter.
func (z Size) Byte() byte {
	if z == Small {
		return 'S'
	}
	return 'L'
}

func (z Size) String() string {
	return string(z.Byte())
}

// SizeMap holds one value per size class, indexed by Size.
type SizeMap[T any] [SizeCount]T

// At returns a pointer to the entry for the given size.
func (m *SizeMap[T]) At(z Size) *T {
	return &m[z]
}
