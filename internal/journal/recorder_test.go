package journal

import (
	"context"
	"testing"

	"posy/internal/engine"
	"posy/internal/stem"
)

func TestRecorder_JournalsArrivalsAndBouquets(t *testing.T) {
	j := createTestJournal(t)
	cat := testCatalog(t, "AS2a2")

	rec, err := NewRecorder(context.Background(), j, cat, "0.1.0",
		WithTokenGenerator(NewFixedGenerator("run-1")))
	if err != nil {
		t.Fatalf("NewRecorder() failed: %v", err)
	}
	if rec.Token() != "run-1" {
		t.Fatalf("Token() = %q, want run-1", rec.Token())
	}

	ctx := context.Background()
	if n, err := rec.AddStem(ctx, mustArrival(t, "aS")); err != nil || n != 0 {
		t.Fatalf("first AddStem() = (%d, %v), want (0, nil)", n, err)
	}
	if n, err := rec.AddStem(ctx, mustArrival(t, "aS")); err != nil || n != 1 {
		t.Fatalf("second AddStem() = (%d, %v), want (1, nil)", n, err)
	}

	arrivals, err := j.ReadArrivals(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadArrivals() failed: %v", err)
	}
	if len(arrivals) != 2 {
		t.Fatalf("journaled arrivals = %d, want 2", len(arrivals))
	}
	if arrivals[0].Seq != 1 || arrivals[1].Seq != 2 {
		t.Errorf("arrival seqs = (%d, %d), want (1, 2)", arrivals[0].Seq, arrivals[1].Seq)
	}

	bouquets, err := j.ReadBouquets(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadBouquets() failed: %v", err)
	}
	if len(bouquets) != 1 {
		t.Fatalf("journaled bouquets = %d, want 1", len(bouquets))
	}
	b := bouquets[0]
	if b.Line() != "AS2a" {
		t.Errorf("bouquet line = %q, want AS2a", b.Line())
	}
	if b.ArrivalSeq != 2 {
		t.Errorf("arrival_seq = %d, want 2 (the unlocking arrival)", b.ArrivalSeq)
	}
	if b.Seq != 3 {
		t.Errorf("bouquet seq = %d, want 3 (stamped after its arrival)", b.Seq)
	}
	if b.ID == "" {
		t.Error("bouquet ID is empty, want content-addressed hash")
	}
}

func TestRecorder_ForwardsAfterJournaling(t *testing.T) {
	j := createTestJournal(t)
	cat := testCatalog(t, "AS2a2")

	var lines []string
	sink := engine.SinkFunc(func(b *engine.Bouquet) error {
		lines = append(lines, b.Line())
		return nil
	})

	rec, err := NewRecorder(context.Background(), j, cat, "0.1.0",
		WithTokenGenerator(NewFixedGenerator("run-1")),
		WithForward(sink))
	if err != nil {
		t.Fatalf("NewRecorder() failed: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if _, err := rec.AddStem(ctx, mustArrival(t, "aS")); err != nil {
			t.Fatalf("AddStem() %d failed: %v", i+1, err)
		}
	}

	if len(lines) != 2 {
		t.Fatalf("forwarded bouquets = %d, want 2", len(lines))
	}
	for _, line := range lines {
		if line != "AS2a" {
			t.Errorf("forwarded line = %q, want AS2a", line)
		}
	}

	state, err := j.GetRunState(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRunState() failed: %v", err)
	}
	if state.Bouquets != 2 {
		t.Errorf("journaled bouquets = %d, want every forwarded bouquet journaled", state.Bouquets)
	}
}

func TestRecorder_SeededStockSettles(t *testing.T) {
	j := createTestJournal(t)
	cat := testCatalog(t, "AS2a2")

	var seed stem.Vector
	seed[0] = 2

	rec, err := NewRecorder(context.Background(), j, cat, "0.1.0",
		WithTokenGenerator(NewFixedGenerator("run-1")),
		WithSeedStock(stem.Small, seed))
	if err != nil {
		t.Fatalf("NewRecorder() failed: %v", err)
	}

	// The seed covered one full bouquet; it must be journaled as a
	// settlement emission before any arrival.
	settled, err := j.ReadBouquetsForArrival(context.Background(), rec.Token(), 0)
	if err != nil {
		t.Fatalf("ReadBouquetsForArrival() failed: %v", err)
	}
	if len(settled) != 1 {
		t.Fatalf("settlement bouquets = %d, want 1", len(settled))
	}
	if settled[0].Line() != "AS2a" {
		t.Errorf("settlement line = %q, want AS2a", settled[0].Line())
	}
	if settled[0].Seq != 1 {
		t.Errorf("settlement seq = %d, want 1", settled[0].Seq)
	}

	run, err := j.ReadRun(context.Background(), rec.Token())
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if run.InitialStock[stem.Small][0] != 2 {
		t.Errorf("journaled seed = %d, want 2", run.InitialStock[stem.Small][0])
	}
}

func TestRecorder_RunStateConserved(t *testing.T) {
	j := createTestJournal(t)
	cat := testCatalog(t, "AS3a4b6")

	rec, err := NewRecorder(context.Background(), j, cat, "0.1.0",
		WithTokenGenerator(NewFixedGenerator("run-1")))
	if err != nil {
		t.Fatalf("NewRecorder() failed: %v", err)
	}

	ctx := context.Background()
	for _, tok := range []string{"aS", "aS", "aS", "bS", "bS", "bS", "zL"} {
		if _, err := rec.AddStem(ctx, mustArrival(t, tok)); err != nil {
			t.Fatalf("AddStem(%s) failed: %v", tok, err)
		}
	}

	state, err := j.GetRunState(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRunState() failed: %v", err)
	}
	if state.Arrivals != 7 {
		t.Errorf("arrivals = %d, want 7", state.Arrivals)
	}
	if state.Bouquets != 1 {
		t.Errorf("bouquets = %d, want 1", state.Bouquets)
	}
	if state.StemsUsed != 6 {
		t.Errorf("stems used = %d, want 6", state.StemsUsed)
	}
	if !state.Conserved {
		t.Error("run should be conserved")
	}

	// Tamper with the journal; the conservation check must notice
	if _, err := j.db.Exec("UPDATE bouquets SET stems = 99"); err != nil {
		t.Fatalf("tamper failed: %v", err)
	}
	state, err = j.GetRunState(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRunState() after tamper failed: %v", err)
	}
	if state.Conserved {
		t.Error("tampered run still reports conserved")
	}
}
