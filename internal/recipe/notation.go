package recipe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"posy/internal/stem"
)

// ErrNotation reports a malformed design line.
var ErrNotation = errors.New("malformed design notation")

// ParseDesign parses the stream form of a design:
//
//	<name><size><count><species>...<total>
//
// for example "AL8a5b10". The trailing digit run is the total; each
// count-species pair sets that species' maximum and an implicit minimum of
// one. If a species letter repeats, the last pair wins.
//
// The returned design is declared but not validated or tightened; catalogs
// run Check and Tighten when they are built.
func ParseDesign(line string) (Design, error) {
	if len(line) < 3 {
		return Design{}, fmt.Errorf("%w: %q", ErrNotation, line)
	}

	name := line[0]
	if name < 'A' || name > 'Z' {
		return Design{}, fmt.Errorf("%w: %q: name must be an uppercase letter", ErrNotation, line)
	}
	size, err := stem.ParseSize(line[1])
	if err != nil {
		return Design{}, fmt.Errorf("%w: %q: %v", ErrNotation, line, err)
	}

	// The total is the trailing digit run.
	end := len(line)
	start := end
	for start > 2 && isDigit(line[start-1]) {
		start--
	}
	if start == end {
		return Design{}, fmt.Errorf("%w: %q: missing total", ErrNotation, line)
	}
	total, err := strconv.ParseUint(line[start:end], 10, 16)
	if err != nil {
		return Design{}, fmt.Errorf("%w: %q: total out of range", ErrNotation, line)
	}

	d := Design{Name: name, Size: size, Total: uint16(total)}

	// Between the header and the total: count-species pairs.
	for i := 2; i < start; {
		j := i
		for j < start && isDigit(line[j]) {
			j++
		}
		if j == i {
			return Design{}, fmt.Errorf("%w: %q: expected a count at offset %d", ErrNotation, line, i)
		}
		count, err := strconv.ParseUint(line[i:j], 10, 16)
		if err != nil {
			return Design{}, fmt.Errorf("%w: %q: count out of range at offset %d", ErrNotation, line, i)
		}
		if j == start {
			return Design{}, fmt.Errorf("%w: %q: count without a species at offset %d", ErrNotation, line, i)
		}
		sp, err := stem.ParseSpecies(line[j])
		if err != nil {
			return Design{}, fmt.Errorf("%w: %q: %v", ErrNotation, line, err)
		}
		d.Min[sp] = 1
		d.Max[sp] = uint16(count)
		i = j + 1
	}

	return d, nil
}

// Notation renders the design in stream form. Designs whose declared
// minimum is not exactly one on every mentioned species have no stream
// form and return an error.
func (d *Design) Notation() (string, error) {
	out := make([]byte, 0, 16)
	out = append(out, d.Name, d.Size.Byte())
	for s := stem.Species(0); s < stem.SpeciesCount; s++ {
		switch {
		case d.Max[s] > 0 && d.Min[s] != 1:
			return "", fmt.Errorf("design %s%s: species %s minimum %d has no stream form",
				string(d.Name), d.Size, s, d.Min[s])
		case d.Max[s] == 0 && d.Min[s] != 0:
			return "", fmt.Errorf("design %s%s: species %s has a minimum but no maximum",
				string(d.Name), d.Size, s)
		case d.Max[s] > 0:
			out = strconv.AppendUint(out, uint64(d.Max[s]), 10)
			out = append(out, s.Byte())
		}
	}
	out = strconv.AppendUint(out, uint64(d.Total), 10)
	return string(out), nil
}

// ParseCatalog parses one design per line, in priority order, and builds
// the catalog. Blank lines are skipped. Strict: any malformed line or
// invalid design fails the whole catalog.
func ParseCatalog(lines []string) (*Catalog, error) {
	designs := make([]Design, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		d, err := ParseDesign(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		designs = append(designs, d)
	}
	if len(designs) == 0 {
		return nil, errors.New("catalog has no designs")
	}
	return NewCatalog(designs)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
