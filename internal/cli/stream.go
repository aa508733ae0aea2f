package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"posy/internal/engine"
	"posy/internal/recipe"
	"posy/internal/stem"
)

// ReadHeaderCatalog reads the designs section of a stream: one compact
// notation design per line, terminated by a blank line or end of input.
//
// Loading is lenient the way stream input demands: a design that parses
// but can never assemble (zero total, floor above ceiling, total outside
// the satisfiable range) is dropped with a warning, because the header is
// data from upstream, not a file an operator can fix before retrying.
// Malformed lines and duplicate name+size pairs still fail the stream.
func ReadHeaderCatalog(sc *bufio.Scanner) (*recipe.Catalog, error) {
	var designs []recipe.Design
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			break
		}
		d, err := recipe.ParseDesign(text)
		if err != nil {
			return nil, fmt.Errorf("stream line %d: %w", line, err)
		}
		if err := d.Check(); err != nil {
			slog.Warn("dropping design that can never assemble", "design", text, "reason", err)
			continue
		}
		designs = append(designs, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stream header: %w", err)
	}
	if len(designs) == 0 {
		return nil, errors.New("stream header has no usable designs")
	}
	return recipe.NewCatalog(designs)
}

// FeedArrivals reads arrival tokens, one per line, until a blank line or
// end of input, handing each to fn in input order. Returns how many
// arrivals were fed. A parse error or an fn error stops the feed.
func FeedArrivals(sc *bufio.Scanner, fn func(stem.Arrival) error) (int, error) {
	count := 0
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			break
		}
		a, err := stem.ParseArrival(text)
		if err != nil {
			return count, fmt.Errorf("arrival %d: %w", count+1, err)
		}
		if err := fn(a); err != nil {
			return count, err
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return count, fmt.Errorf("reading arrivals: %w", err)
	}
	return count, nil
}

// BouquetWriter is the engine's output collaborator: a sink that renders
// each emitted bouquet as one output line through a buffered writer.
// Call Flush once the stream is drained.
type BouquetWriter struct {
	w   *bufio.Writer
	buf []byte
	n   int
}

var _ engine.Sink = (*BouquetWriter)(nil)

// NewBouquetWriter wraps w in a buffered bouquet sink.
func NewBouquetWriter(w io.Writer) *BouquetWriter {
	return &BouquetWriter{w: bufio.NewWriter(w)}
}

// Emit writes one bouquet line.
func (bw *BouquetWriter) Emit(b *engine.Bouquet) error {
	bw.buf = b.AppendLine(bw.buf[:0])
	bw.buf = append(bw.buf, '\n')
	if _, err := bw.w.Write(bw.buf); err != nil {
		return fmt.Errorf("writing bouquet: %w", err)
	}
	bw.n++
	return nil
}

// Count returns how many bouquets have been written.
func (bw *BouquetWriter) Count() int {
	return bw.n
}

// Flush drains buffered output to the underlying writer.
func (bw *BouquetWriter) Flush() error {
	return bw.w.Flush()
}
