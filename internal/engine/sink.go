package engine

// Sink receives finished bouquets. Emit is called synchronously from
// AddStem in emission order; an error aborts the current arrival's
// processing and surfaces to the caller with stock already debited for
// the emitted bouquet.
//
// Each bouquet is freshly allocated, so sinks may retain it.
type Sink interface {
	Emit(b *Bouquet) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(*Bouquet) error

// Emit calls f(b).
func (f SinkFunc) Emit(b *Bouquet) error {
	return f(b)
}

// Discard drops every bouquet. Useful for benchmarks and dry runs.
var Discard Sink = SinkFunc(func(*Bouquet) error { return nil })
