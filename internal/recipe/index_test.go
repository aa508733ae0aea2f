package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posy/internal/stem"
)

func TestIndexBySpecies(t *testing.T) {
	c := buildCatalog(t, "AS3a4b6", "BS5c5", "CS2a2")
	ix := NewIndex(c.BySize(stem.Small))

	a := stem.Species('a' - 'a')
	candidates := ix.BySpecies(a)
	require.Len(t, candidates, 2)
	assert.Equal(t, byte('A'), candidates[0].Name, "declaration order")
	assert.Equal(t, byte('C'), candidates[1].Name)

	c2 := ix.BySpecies(stem.Species('c' - 'a'))
	require.Len(t, c2, 1)
	assert.Equal(t, byte('B'), c2[0].Name)

	assert.Empty(t, ix.BySpecies(stem.Species('d'-'a')))
}

func TestIndexExcludesTightenedOutSpecies(t *testing.T) {
	a := stem.Species('a' - 'a')
	b := stem.Species('b' - 'a')

	// a in [0,5], b in [2,2], total 2. Tightening forces a to exactly 0,
	// so an arriving a can never matter to this design.
	d := Design{Name: 'A', Size: stem.Small, Total: 2}
	d.Max[a] = 5
	d.Min[b], d.Max[b] = 2, 2

	c, err := NewCatalog([]Design{d})
	require.NoError(t, err)
	ix := NewIndex(c.BySize(stem.Small))

	assert.Empty(t, ix.BySpecies(a))
	assert.Len(t, ix.BySpecies(b), 1)
	assert.Zero(t, ix.GlobalCap(a))
}

func TestIndexGlobalCap(t *testing.T) {
	c := buildCatalog(t, "AS3a4b6", "CS9a9")
	ix := NewIndex(c.BySize(stem.Small))

	// A tightens a to at most 3; C allows 9.
	assert.Equal(t, uint16(9), ix.GlobalCap(stem.Species('a'-'a')))
	assert.Equal(t, uint16(4), ix.GlobalCap(stem.Species('b'-'a')))
	assert.Zero(t, ix.GlobalCap(stem.Species('z'-'a')))
}

func TestIndexEmptyCatalog(t *testing.T) {
	ix := NewIndex(nil)
	for s := stem.Species(0); s < stem.SpeciesCount; s++ {
		assert.Empty(t, ix.BySpecies(s))
		assert.Zero(t, ix.GlobalCap(s))
	}
}
