package journal

import (
	"context"
	"fmt"
	"strings"

	"posy/internal/stem"
)

// TraceFilter narrows a trace query. Zero fields mean "no constraint".
// All values are parameterized - never interpolated into SQL.
type TraceFilter struct {
	// Design keeps bouquets of one design name ("A".."Z"). Ignored for
	// arrival traces.
	Design string
	// Size keeps events of one size ("S" or "L").
	Size string
	// Species keeps arrivals of one species, or bouquets whose allocation
	// uses it ("a".."z").
	Species string
	// SinceSeq and UntilSeq bound the seq range inclusively; 0 means
	// unbounded on that side.
	SinceSeq int64
	UntilSeq int64
	// Limit caps the number of rows returned; 0 means no cap.
	Limit int
}

// Validate rejects filter values that could never match a journaled row.
func (f *TraceFilter) Validate() error {
	if f.Design != "" && (len(f.Design) != 1 || f.Design[0] < 'A' || f.Design[0] > 'Z') {
		return fmt.Errorf("design filter %q: want a single letter A-Z", f.Design)
	}
	if f.Size != "" {
		if _, err := stem.ParseSizeText(f.Size); err != nil {
			return fmt.Errorf("size filter: %w", err)
		}
	}
	if f.Species != "" {
		if _, err := stem.ParseSpeciesText(f.Species); err != nil {
			return fmt.Errorf("species filter: %w", err)
		}
	}
	if f.SinceSeq < 0 || f.UntilSeq < 0 || f.Limit < 0 {
		return fmt.Errorf("seq bounds and limit must not be negative")
	}
	return nil
}

// TraceArrivals returns a run's arrivals matching the filter.
// Results ordered by seq ASC, id ASC COLLATE BINARY.
func (j *Journal) TraceArrivals(ctx context.Context, token string, f TraceFilter) ([]Arrival, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("trace arrivals: %w", err)
	}

	where := []string{"run_token = ?"}
	params := []any{token}
	if f.Species != "" {
		where = append(where, "species = ?")
		params = append(params, f.Species)
	}
	if f.Size != "" {
		where = append(where, "size = ?")
		params = append(params, f.Size)
	}
	where, params = appendSeqBounds(where, params, &f)

	query := "SELECT id, run_token, seq, species, size FROM arrivals WHERE " +
		strings.Join(where, " AND ") +
		" ORDER BY seq ASC, id COLLATE BINARY ASC"
	query, params = appendLimit(query, params, &f)

	rows, err := j.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("trace arrivals: %w", err)
	}
	defer rows.Close()

	var arrivals []Arrival
	for rows.Next() {
		a, err := scanArrival(rows)
		if err != nil {
			return nil, err
		}
		arrivals = append(arrivals, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trace arrivals: %w", err)
	}

	if arrivals == nil {
		arrivals = []Arrival{}
	}

	return arrivals, nil
}

// TraceBouquets returns a run's bouquets matching the filter. The species
// filter matches against the allocation document via json_extract, so it
// selects bouquets that actually used the species, not designs that merely
// allow it.
// Results ordered by seq ASC, id ASC COLLATE BINARY.
func (j *Journal) TraceBouquets(ctx context.Context, token string, f TraceFilter) ([]Bouquet, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("trace bouquets: %w", err)
	}

	where := []string{"run_token = ?"}
	params := []any{token}
	if f.Design != "" {
		where = append(where, "design_name = ?")
		params = append(params, f.Design)
	}
	if f.Size != "" {
		where = append(where, "size = ?")
		params = append(params, f.Size)
	}
	if f.Species != "" {
		// Species letters are object keys in the canonical allocation JSON.
		// The path argument is parameterized like any other value.
		where = append(where, "json_extract(allocation, ?) IS NOT NULL")
		params = append(params, "$."+f.Species)
	}
	where, params = appendSeqBounds(where, params, &f)

	query := "SELECT id, run_token, seq, arrival_seq, design_name, size, allocation, stems FROM bouquets WHERE " +
		strings.Join(where, " AND ") +
		" ORDER BY seq ASC, id COLLATE BINARY ASC"
	query, params = appendLimit(query, params, &f)

	rows, err := j.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("trace bouquets: %w", err)
	}
	defer rows.Close()

	return collectBouquets(rows)
}

// appendSeqBounds adds the inclusive seq-range predicates when set.
func appendSeqBounds(where []string, params []any, f *TraceFilter) ([]string, []any) {
	if f.SinceSeq > 0 {
		where = append(where, "seq >= ?")
		params = append(params, f.SinceSeq)
	}
	if f.UntilSeq > 0 {
		where = append(where, "seq <= ?")
		params = append(params, f.UntilSeq)
	}
	return where, params
}

// appendLimit adds the LIMIT clause when set. Applied after ORDER BY so a
// capped trace is the deterministic prefix of the uncapped one.
func appendLimit(query string, params []any, f *TraceFilter) (string, []any) {
	if f.Limit > 0 {
		query += " LIMIT ?"
		params = append(params, f.Limit)
	}
	return query, params
}
