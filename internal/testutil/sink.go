package testutil

import (
	"posy/internal/engine"
)

// CollectSink retains every emitted bouquet in emission order.
type CollectSink struct {
	Bouquets []*engine.Bouquet
}

// Emit implements engine.Sink.
func (c *CollectSink) Emit(b *engine.Bouquet) error {
	c.Bouquets = append(c.Bouquets, b)
	return nil
}

// Lines renders the collected bouquets in compact notation, one entry
// per bouquet in emission order.
func (c *CollectSink) Lines() []string {
	lines := make([]string, len(c.Bouquets))
	for i, b := range c.Bouquets {
		lines[i] = b.Line()
	}
	return lines
}

// StemsUsed sums the stem counts of the collected bouquets.
func (c *CollectSink) StemsUsed() uint64 {
	var n uint64
	for _, b := range c.Bouquets {
		n += uint64(b.StemCount())
	}
	return n
}
