package journal

import (
	"strconv"

	"posy/internal/canon"
	"posy/internal/engine"
	"posy/internal/stem"
)

// Hash domains for content-addressed record IDs. Bump the version suffix
// if the hashed document shape ever changes.
const (
	arrivalDomain = "posy/arrival/v1"
	bouquetDomain = "posy/bouquet/v1"
)

// Run is one journaled engine session: the catalog it ran, the stock it
// started with, and the version that produced it. Arrivals and bouquets
// reference the run by token.
type Run struct {
	Token         string
	CatalogHash   string
	CatalogJSON   string
	InitialStock  stem.SizeMap[stem.Vector]
	EngineVersion string
}

// Arrival is one journaled stem arrival.
type Arrival struct {
	ID       string
	RunToken string
	Seq      int64
	Stem     stem.Arrival
}

// Bouquet is one journaled emission. ArrivalSeq is the seq of the arrival
// that unlocked it, or 0 for bouquets assembled from seeded stock before
// the first arrival.
type Bouquet struct {
	ID         string
	RunToken   string
	Seq        int64
	ArrivalSeq int64
	DesignName byte
	Size       stem.Size
	Allocation stem.Vector
	Stems      uint32
}

// Line renders the bouquet in output notation: design name, size, then the
// allocated counts in species order with no trailing total.
func (b *Bouquet) Line() string {
	buf := make([]byte, 0, 16)
	buf = append(buf, b.DesignName, b.Size.Byte())
	for i, n := range b.Allocation {
		if n > 0 {
			buf = strconv.AppendUint(buf, uint64(n), 10)
			buf = append(buf, stem.Species(i).Byte())
		}
	}
	return string(buf)
}

// ArrivalID computes the content-addressed ID for a journaled arrival.
// Two runs journaling the same arrival at the same seq produce different
// IDs because the run token is part of the hashed document.
func ArrivalID(runToken string, seq int64, a stem.Arrival) (string, error) {
	return canon.ID(arrivalDomain, map[string]any{
		"run":     runToken,
		"seq":     seq,
		"species": a.Species.String(),
		"size":    a.Size.String(),
	})
}

// BouquetID computes the content-addressed ID for a journaled bouquet.
func BouquetID(runToken string, seq, arrivalSeq int64, b *engine.Bouquet) (string, error) {
	return canon.ID(bouquetDomain, map[string]any{
		"run":         runToken,
		"seq":         seq,
		"arrival_seq": arrivalSeq,
		"design":      string(b.Design.Name),
		"size":        b.Design.Size.String(),
		"allocation":  allocationDoc(&b.Allocation),
	})
}

// allocationDoc renders a count vector as a species-keyed document for
// canonical serialization. Empty lanes are omitted.
func allocationDoc(v *stem.Vector) map[string]any {
	doc := make(map[string]any, 4)
	for i, n := range v {
		if n > 0 {
			doc[stem.Species(i).String()] = n
		}
	}
	return doc
}
