// Package testutil provides deterministic inputs for tests that feed
// warehouses: seeded arrival streams, catalogs built from notation, and
// a sink that retains what was emitted.
package testutil

import (
	"math/rand"

	"posy/internal/stem"
)

// ArrivalStream produces a reproducible pseudorandom arrival sequence.
// The same seed and species width always yield the same stream, so a
// failure report quotes everything needed to reproduce it.
type ArrivalStream struct {
	rng     *rand.Rand
	species int
}

// NewArrivalStream returns a stream drawing uniformly from the first
// species letters and both sizes. species is clamped to
// [1, stem.SpeciesCount].
func NewArrivalStream(seed int64, species int) *ArrivalStream {
	if species < 1 {
		species = 1
	}
	if species > stem.SpeciesCount {
		species = stem.SpeciesCount
	}
	return &ArrivalStream{
		rng:     rand.New(rand.NewSource(seed)),
		species: species,
	}
}

// Next returns the next arrival in the stream.
func (s *ArrivalStream) Next() stem.Arrival {
	return stem.Arrival{
		Species: stem.Species(s.rng.Intn(s.species)),
		Size:    stem.Size(s.rng.Intn(int(stem.SizeCount))),
	}
}

// Take returns the next n arrivals.
func (s *ArrivalStream) Take(n int) []stem.Arrival {
	arrivals := make([]stem.Arrival, n)
	for i := range arrivals {
		arrivals[i] = s.Next()
	}
	return arrivals
}
