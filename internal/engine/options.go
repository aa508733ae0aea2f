package engine

import (
	"posy/internal/stem"
)

type config struct {
	sink Sink
	seed stem.SizeMap[stem.Vector]
}

// Option configures a Warehouse at construction.
type Option func(*config)

// WithSink sets where finished bouquets go. Defaults to Discard.
func WithSink(s Sink) Option {
	return func(c *config) {
		c.sink = s
	}
}

// WithInitialStock seeds one size's line with existing inventory instead
// of an empty bench. Seeded stock is not matched until the line settles:
// Settle drains it to a fixed point explicitly, or the first arrival on
// the line does so implicitly before the new stem is counted.
func WithInitialStock(z stem.Size, v stem.Vector) Option {
	return func(c *config) {
		c.seed[z] = v
	}
}
