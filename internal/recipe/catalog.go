package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"posy/internal/canon"
	"posy/internal/stem"
)

// catalogDomain versions the catalog hash construction.
const catalogDomain = "posy/catalog/v1"

// Catalog is an immutable, ordered set of validated designs. Order is
// declaration order and decides which design wins an arrival, so two
// catalogs with the same designs in a different order are different
// catalogs and hash differently.
type Catalog struct {
	designs []Design
	bySize  stem.SizeMap[[]*Design]
	hash    string
}

// NewCatalog validates the given designs and precomputes their tightened
// bounds and size indexes, preserving declaration order. Designs must
// pass Check and no two designs may
// share a name within a size class; bouquet records identify their design
// by name and size, and a collision would make run journals ambiguous.
func NewCatalog(designs []Design) (*Catalog, error) {
	c := &Catalog{designs: slices.Clone(designs)}

	type key struct {
		name byte
		size stem.Size
	}
	taken := make(map[key]bool, len(c.designs))

	for i := range c.designs {
		d := &c.designs[i]
		if err := d.Check(); err != nil {
			return nil, fmt.Errorf("catalog design %d: %w", i+1, err)
		}
		k := key{d.Name, d.Size}
		if taken[k] {
			return nil, fmt.Errorf("catalog design %d: duplicate design %s%s", i+1, string(d.Name), d.Size)
		}
		taken[k] = true

		d.Tighten()
		c.bySize[d.Size] = append(c.bySize[d.Size], d)
	}

	data, err := c.MarshalCanonical()
	if err != nil {
		return nil, fmt.Errorf("catalog hash: %w", err)
	}
	c.hash = canon.Sum(catalogDomain, data)

	return c, nil
}

// Len returns the number of designs.
func (c *Catalog) Len() int {
	return len(c.designs)
}

// Designs returns a copy of the designs in declaration order.
func (c *Catalog) Designs() []Design {
	return slices.Clone(c.designs)
}

// BySize returns the designs of one size class in declaration order. The
// returned slice is shared; callers must not modify it.
func (c *Catalog) BySize(z stem.Size) []*Design {
	return c.bySize[z]
}

// Hash returns the content hash of the catalog's canonical form.
func (c *Catalog) Hash() string {
	return c.hash
}

// MarshalCanonical renders the catalog as RFC 8785 canonical JSON. The
// bytes are lossless (unlike stream notation, they carry explicit
// minimums), are what the catalog hash covers, and are what run journals
// store so replay can rebuild the exact catalog.
func (c *Catalog) MarshalCanonical() ([]byte, error) {
	list := make([]any, len(c.designs))
	for i := range c.designs {
		d := &c.designs[i]
		species := make(map[string]any, d.Used.Len())
		for _, s := range d.Used.Species() {
			species[s.String()] = map[string]any{
				"min": d.Min[s],
				"max": d.Max[s],
			}
		}
		list[i] = map[string]any{
			"name":    string(d.Name),
			"size":    d.Size.String(),
			"total":   d.Total,
			"species": species,
		}
	}
	return canon.Marshal(map[string]any{"designs": list})
}

// UnmarshalCatalog rebuilds a catalog from its canonical form. The result
// passes through NewCatalog, so the hash is recomputed from scratch;
// callers holding a recorded hash should compare it against Hash to detect
// a journal that was edited after the fact.
func UnmarshalCatalog(data []byte) (*Catalog, error) {
	type boundsJSON struct {
		Min uint16 `json:"min"`
		Max uint16 `json:"max"`
	}
	type designJSON struct {
		Name    string                `json:"name"`
		Size    string                `json:"size"`
		Total   uint16                `json:"total"`
		Species map[string]boundsJSON `json:"species"`
	}
	type catalogJSON struct {
		Designs []designJSON `json:"designs"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var raw catalogJSON
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("catalog json: %w", err)
	}

	designs := make([]Design, 0, len(raw.Designs))
	for i, rd := range raw.Designs {
		if len(rd.Name) != 1 {
			return nil, fmt.Errorf("catalog json design %d: bad name %q", i+1, rd.Name)
		}
		size, err := stem.ParseSizeText(rd.Size)
		if err != nil {
			return nil, fmt.Errorf("catalog json design %d: %w", i+1, err)
		}
		d := Design{Name: rd.Name[0], Size: size, Total: rd.Total}
		for label, b := range rd.Species {
			sp, err := stem.ParseSpeciesText(label)
			if err != nil {
				return nil, fmt.Errorf("catalog json design %d: %w", i+1, err)
			}
			d.Min[sp] = b.Min
			d.Max[sp] = b.Max
		}
		designs = append(designs, d)
	}

	return NewCatalog(designs)
}
