package testutil

import (
	"posy/internal/recipe"
)

// MustCatalog builds a catalog from compact notation lines, panicking on
// any parse or catalog error. For known-good notation in tests only.
func MustCatalog(lines ...string) *recipe.Catalog {
	designs := make([]recipe.Design, 0, len(lines))
	for _, line := range lines {
		d, err := recipe.ParseDesign(line)
		if err != nil {
			panic(err)
		}
		designs = append(designs, d)
	}
	c, err := recipe.NewCatalog(designs)
	if err != nil {
		panic(err)
	}
	return c
}
