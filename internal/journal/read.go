package journal

import (
	"context"
	"database/sql"
	"fmt"

	"posy/internal/stem"
)

// ReadRun retrieves a run header by token.
// Returns sql.ErrNoRows if not found.
func (j *Journal) ReadRun(ctx context.Context, token string) (Run, error) {
	var run Run
	var stockJSON string

	err := j.db.QueryRowContext(ctx, `
		SELECT token, catalog_hash, catalog_json, initial_stock, engine_version
		FROM runs
		WHERE token = ?
	`, token).Scan(
		&run.Token, &run.CatalogHash, &run.CatalogJSON, &stockJSON, &run.EngineVersion,
	)
	if err != nil {
		return Run{}, err
	}

	stock, err := unmarshalStock(stockJSON)
	if err != nil {
		return Run{}, err
	}
	run.InitialStock = stock

	return run, nil
}

// ListRunTokens returns all run tokens in the journal.
// UUIDv7 tokens sort by creation time, so the listing is oldest first.
func (j *Journal) ListRunTokens(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT token FROM runs
		ORDER BY token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list run tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan run token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run tokens: %w", err)
	}

	if tokens == nil {
		tokens = []string{}
	}

	return tokens, nil
}

// ReadArrivals returns all arrivals for a run with deterministic ordering:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no records exist for the run.
func (j *Journal) ReadArrivals(ctx context.Context, token string) ([]Arrival, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_token, seq, species, size
		FROM arrivals
		WHERE run_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query arrivals: %w", err)
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
		return nil, fmt.Errorf("iterate arrivals: %w", err)
	}

	if arrivals == nil {
		arrivals = []Arrival{}
	}

	return arrivals, nil
}

// ReadBouquets returns all bouquets for a run with deterministic ordering:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no records exist for the run.
func (j *Journal) ReadBouquets(ctx context.Context, token string) ([]Bouquet, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_token, seq, arrival_seq, design_name, size, allocation, stems
		FROM bouquets
		WHERE run_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query bouquets: %w", err)
	}
	defer rows.Close()

	return collectBouquets(rows)
}

// ReadBouquetsForArrival returns the bouquets one arrival unlocked
// (forward trace). ArrivalSeq 0 selects settlement bouquets.
// Results ordered by seq ASC, id ASC.
func (j *Journal) ReadBouquetsForArrival(ctx context.Context, token string, arrivalSeq int64) ([]Bouquet, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_token, seq, arrival_seq, design_name, size, allocation, stems
		FROM bouquets
		WHERE run_token = ? AND arrival_seq = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, token, arrivalSeq)
	if err != nil {
		return nil, fmt.Errorf("query bouquets for arrival: %w", err)
	}
	defer rows.Close()

	return collectBouquets(rows)
}

// GetLastSeq returns the highest seq number used in a run.
// Used to resume the logical clock from the correct position.
func (j *Journal) GetLastSeq(ctx context.Context, token string) (int64, error) {
	var maxSeq int64

	var arrivalSeq int64
	err := j.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM arrivals WHERE run_token = ?
	`, token).Scan(&arrivalSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from arrivals: %w", err)
	}
	maxSeq = arrivalSeq

	var bouquetSeq int64
	err = j.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM bouquets WHERE run_token = ?
	`, token).Scan(&bouquetSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from bouquets: %w", err)
	}
	if bouquetSeq > maxSeq {
		maxSeq = bouquetSeq
	}

	return maxSeq, nil
}

// collectBouquets drains a bouquet result set, normalizing nil to an
// empty slice.
func collectBouquets(rows *sql.Rows) ([]Bouquet, error) {
	var bouquets []Bouquet
	for rows.Next() {
		b, err := scanBouquet(rows)
		if err != nil {
			return nil, err
		}
		bouquets = append(bouquets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bouquets: %w", err)
	}

	if bouquets == nil {
		bouquets = []Bouquet{}
	}

	return bouquets, nil
}

// scanArrival scans a row into an Arrival struct.
func scanArrival(rows *sql.Rows) (Arrival, error) {
	var a Arrival
	var species, size string

	if err := rows.Scan(&a.ID, &a.RunToken, &a.Seq, &species, &size); err != nil {
		return Arrival{}, fmt.Errorf("scan arrival: %w", err)
	}

	sp, err := stem.ParseSpeciesText(species)
	if err != nil {
		return Arrival{}, fmt.Errorf("scan arrival: %w", err)
	}
	z, err := stem.ParseSizeText(size)
	if err != nil {
		return Arrival{}, fmt.Errorf("scan arrival: %w", err)
	}
	a.Stem = stem.Arrival{Species: sp, Size: z}

	return a, nil
}

// scanBouquet scans a row into a Bouquet struct.
func scanBouquet(rows *sql.Rows) (Bouquet, error) {
	var b Bouquet
	var name, size, allocJSON string

	if err := rows.Scan(
		&b.ID, &b.RunToken, &b.Seq, &b.ArrivalSeq, &name, &size, &allocJSON, &b.Stems,
	); err != nil {
		return Bouquet{}, fmt.Errorf("scan bouquet: %w", err)
	}

	if len(name) != 1 {
		return Bouquet{}, fmt.Errorf("scan bouquet: design name %q is not a single letter", name)
	}
	b.DesignName = name[0]

	z, err := stem.ParseSizeText(size)
	if err != nil {
		return Bouquet{}, fmt.Errorf("scan bouquet: %w", err)
	}
	b.Size = z

	alloc, err := unmarshalAllocation(allocJSON)
	if err != nil {
		return Bouquet{}, fmt.Errorf("scan bouquet: %w", err)
	}
	b.Allocation = alloc

	return b, nil
}
