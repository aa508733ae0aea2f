package journal

import (
	"context"
	"fmt"
)

// CreateRun inserts the run header. Uses ON CONFLICT(token) DO NOTHING for
// idempotency - recreating a run with the same token is a silent no-op.
//
// The catalog is stored as canonical JSON alongside its hash so replay can
// verify the stored document before trusting it.
func (j *Journal) CreateRun(ctx context.Context, run Run) error {
	stockJSON, err := marshalStock(run.InitialStock)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO runs
		(token, catalog_hash, catalog_json, initial_stock, engine_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		run.Token,
		run.CatalogHash,
		run.CatalogJSON,
		stockJSON,
		run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	return nil
}

// WriteArrival inserts an arrival record into the journal.
// Uses ON CONFLICT DO NOTHING for idempotency. The bare form covers both:
// 1. Duplicate arrival ID (same arrival written twice)
// 2. Duplicate (run_token, seq) (a second arrival claiming the same slot)
// Both are silently ignored; the first write wins.
//
// Note: The run referenced by RunToken must exist (foreign key constraint).
func (j *Journal) WriteArrival(ctx context.Context, a Arrival) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO arrivals
		(id, run_token, seq, species, size)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		a.ID,
		a.RunToken,
		a.Seq,
		a.Stem.Species.String(),
		a.Stem.Size.String(),
	)
	if err != nil {
		return fmt.Errorf("write arrival: %w", err)
	}

	return nil
}

// WriteBouquet inserts a bouquet record into the journal.
// Uses ON CONFLICT DO NOTHING for idempotency, same as WriteArrival.
//
// The allocation is serialized to canonical JSON per RFC 8785 so replay
// comparisons and content-addressed IDs see identical bytes.
func (j *Journal) WriteBouquet(ctx context.Context, b Bouquet) error {
	allocJSON, err := marshalAllocation(&b.Allocation)
	if err != nil {
		return fmt.Errorf("write bouquet: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO bouquets
		(id, run_token, seq, arrival_seq, design_name, size, allocation, stems)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		b.ID,
		b.RunToken,
		b.Seq,
		b.ArrivalSeq,
		string(b.DesignName),
		b.Size.String(),
		allocJSON,
		b.Stems,
	)
	if err != nil {
		return fmt.Errorf("write bouquet: %w", err)
	}

	return nil
}

// WriteEmission atomically journals one arrival and the bouquets it
// unlocked in a single transaction. This ensures crash atomicity: the
// journal never holds a bouquet without the arrival that caused it.
//
// A nil arrival journals settlement bouquets only (seeded stock drained
// before the first arrival; their ArrivalSeq is 0).
//
// Every insert uses ON CONFLICT DO NOTHING, so re-running the same
// emission after a crash is a silent no-op.
func (j *Journal) WriteEmission(ctx context.Context, a *Arrival, bouquets []Bouquet) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write emission: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if a != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO arrivals
			(id, run_token, seq, species, size)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			a.ID,
			a.RunToken,
			a.Seq,
			a.Stem.Species.String(),
			a.Stem.Size.String(),
		)
		if err != nil {
			return fmt.Errorf("write emission: arrival: %w", err)
		}
	}

	for i := range bouquets {
		b := &bouquets[i]
		allocJSON, err := marshalAllocation(&b.Allocation)
		if err != nil {
			return fmt.Errorf("write emission: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO bouquets
			(id, run_token, seq, arrival_seq, design_name, size, allocation, stems)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			b.ID,
			b.RunToken,
			b.Seq,
			b.ArrivalSeq,
			string(b.DesignName),
			b.Size.String(),
			allocJSON,
			b.Stems,
		)
		if err != nil {
			return fmt.Errorf("write emission: bouquet seq %d: %w", b.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write emission: commit: %w", err)
	}

	return nil
}
