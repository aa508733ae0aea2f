package journal

import (
	"context"
	"fmt"

	"posy/internal/engine"
	"posy/internal/recipe"
	"posy/internal/stem"
)

// RunState summarizes a journaled run for consistency checks.
type RunState struct {
	Token     string
	Arrivals  int
	Bouquets  int
	StemsIn   int64 // seeded stock plus journaled arrivals
	StemsUsed int64 // sum of journaled bouquet stem counts
	LastSeq   int64
	Conserved bool // StemsUsed never exceeds StemsIn
}

// GetRunState computes counts and the conservation verdict for a run.
// A run where bouquets consumed more stems than ever entered is corrupt
// (or was journaled by a buggy engine); Conserved reports that check.
func (j *Journal) GetRunState(ctx context.Context, token string) (RunState, error) {
	state := RunState{Token: token}

	run, err := j.ReadRun(ctx, token)
	if err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}

	var seeded int64
	for z := stem.Size(0); z < stem.SizeCount; z++ {
		for _, n := range run.InitialStock[z] {
			seeded += int64(n)
		}
	}

	err = j.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM arrivals WHERE run_token = ?
	`, token).Scan(&state.Arrivals)
	if err != nil {
		return state, fmt.Errorf("get run state: count arrivals: %w", err)
	}

	err = j.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(stems), 0) FROM bouquets WHERE run_token = ?
	`, token).Scan(&state.Bouquets, &state.StemsUsed)
	if err != nil {
		return state, fmt.Errorf("get run state: count bouquets: %w", err)
	}

	lastSeq, err := j.GetLastSeq(ctx, token)
	if err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}
	state.LastSeq = lastSeq

	state.StemsIn = seeded + int64(state.Arrivals)
	state.Conserved = state.StemsUsed <= state.StemsIn

	return state, nil
}

// ReplayResult reports a determinism check: the journaled arrival stream
// was re-fed through a fresh engine and the emissions compared.
type ReplayResult struct {
	Token         string
	Arrivals      int
	Journaled     int    // bouquets in the journal
	Replayed      int    // bouquets the re-run produced
	Deterministic bool
	Divergence    string // first mismatch, empty when deterministic
}

// ReplayRun rebuilds the run's catalog from its journaled canonical JSON,
// verifies the stored hash, re-feeds every arrival in seq order, and
// compares the emissions against the journal.
//
// Divergence is evidence of journal tampering or an engine behavior change
// between the journaling version and this one; the catalog hash check
// rules out the stored catalog itself as the cause.
func (j *Journal) ReplayRun(ctx context.Context, token string) (ReplayResult, error) {
	run, err := j.ReadRun(ctx, token)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", token, err)
	}

	cat, err := recipe.UnmarshalCatalog([]byte(run.CatalogJSON))
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", token, err)
	}
	if h := cat.Hash(); h != run.CatalogHash {
		return ReplayResult{}, fmt.Errorf("replay %s: catalog hash mismatch: journaled %s, recomputed %s", token, run.CatalogHash, h)
	}

	arrivals, err := j.ReadArrivals(ctx, token)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", token, err)
	}
	journaled, err := j.ReadBouquets(ctx, token)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", token, err)
	}

	result := ReplayResult{
		Token:         token,
		Arrivals:      len(arrivals),
		Journaled:     len(journaled),
		Deterministic: true,
	}

	// Re-run with a collecting sink; current tracks which arrival is being
	// fed so replayed bouquets carry the same ArrivalSeq linkage.
	var current int64
	var replayed []Bouquet
	sink := engine.SinkFunc(func(b *engine.Bouquet) error {
		replayed = append(replayed, Bouquet{
			ArrivalSeq: current,
			DesignName: b.Design.Name,
			Size:       b.Design.Size,
			Allocation: b.Allocation,
			Stems:      b.StemCount(),
		})
		return nil
	})

	w := engine.New(cat,
		engine.WithSink(sink),
		engine.WithInitialStock(stem.Small, run.InitialStock[stem.Small]),
		engine.WithInitialStock(stem.Large, run.InitialStock[stem.Large]),
	)
	if _, err := w.Settle(); err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: settle: %w", token, err)
	}
	for _, a := range arrivals {
		current = a.Seq
		if _, err := w.AddStem(a.Stem); err != nil {
			return ReplayResult{}, fmt.Errorf("replay %s: arrival seq %d: %w", token, a.Seq, err)
		}
	}
	result.Replayed = len(replayed)

	for i := range journaled {
		if i >= len(replayed) {
			result.Deterministic = false
			result.Divergence = fmt.Sprintf("bouquet %d: journaled %s, replay produced nothing", i, journaled[i].Line())
			return result, nil
		}
		g, r := &journaled[i], &replayed[i]
		if g.DesignName != r.DesignName || g.Size != r.Size || g.Allocation != r.Allocation || g.ArrivalSeq != r.ArrivalSeq {
			result.Deterministic = false
			result.Divergence = fmt.Sprintf(
				"bouquet %d: journaled %s (arrival seq %d), replayed %s (arrival seq %d)",
				i, g.Line(), g.ArrivalSeq, r.Line(), r.ArrivalSeq,
			)
			return result, nil
		}
	}
	if len(replayed) > len(journaled) {
		result.Deterministic = false
		result.Divergence = fmt.Sprintf("journal holds %d bouquets, replay produced %d", len(journaled), len(replayed))
	}

	return result, nil
}
