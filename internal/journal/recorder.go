package journal

import (
	"context"
	"fmt"

	"posy/internal/engine"
	"posy/internal/recipe"
	"posy/internal/stem"
)

// Recorder runs a warehouse with every arrival and emission journaled.
//
// Write ordering: each arrival and the bouquets it unlocked are committed
// to the journal in one transaction before the bouquets are forwarded to
// the configured sink. A delivered bouquet is therefore always journaled;
// a journaled bouquet may be undelivered if the process dies between
// commit and forward, which replay detects and tolerates.
//
// Recorder is single-owner like the warehouse it wraps: one goroutine
// calls AddStem.
type Recorder struct {
	journal *Journal
	wh      *engine.Warehouse
	clock   *Clock
	token   string
	forward engine.Sink
	staged  []stagedEmission
}

type stagedEmission struct {
	seq int64
	b   *engine.Bouquet
}

type recorderConfig struct {
	tokens  TokenGenerator
	forward engine.Sink
	seed    stem.SizeMap[stem.Vector]
}

// RecorderOption configures a Recorder at construction.
type RecorderOption func(*recorderConfig)

// WithTokenGenerator overrides the run token source. Defaults to UUIDv7.
func WithTokenGenerator(g TokenGenerator) RecorderOption {
	return func(c *recorderConfig) {
		c.tokens = g
	}
}

// WithForward sets a sink that receives bouquets after they are journaled.
func WithForward(s engine.Sink) RecorderOption {
	return func(c *recorderConfig) {
		c.forward = s
	}
}

// WithSeedStock seeds one size's line with existing inventory. The seed is
// journaled in the run header and drained to a fixed point before the
// first arrival, so replay reproduces the same emission timing.
func WithSeedStock(z stem.Size, v stem.Vector) RecorderOption {
	return func(c *recorderConfig) {
		c.seed[z] = v
	}
}

// NewRecorder starts a journaled run: creates the run header, builds the
// warehouse, and settles any seeded stock (journaling those bouquets with
// ArrivalSeq 0).
func NewRecorder(ctx context.Context, j *Journal, catalog *recipe.Catalog, version string, opts ...RecorderOption) (*Recorder, error) {
	cfg := recorderConfig{tokens: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	data, err := catalog.MarshalCanonical()
	if err != nil {
		return nil, fmt.Errorf("new recorder: %w", err)
	}

	r := &Recorder{
		journal: j,
		clock:   NewClock(),
		token:   cfg.tokens.Generate(),
		forward: cfg.forward,
	}
	r.wh = engine.New(catalog,
		engine.WithSink(engine.SinkFunc(r.stage)),
		engine.WithInitialStock(stem.Small, cfg.seed[stem.Small]),
		engine.WithInitialStock(stem.Large, cfg.seed[stem.Large]),
	)

	run := Run{
		Token:         r.token,
		CatalogHash:   catalog.Hash(),
		CatalogJSON:   string(data),
		InitialStock:  cfg.seed,
		EngineVersion: version,
	}
	if err := j.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("new recorder: %w", err)
	}

	if err := r.settle(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

// AddStem stamps the arrival with the next seq and feeds it to the
// warehouse, then commits the arrival plus any unlocked bouquets in one
// transaction. Returns how many bouquets the arrival unlocked.
func (r *Recorder) AddStem(ctx context.Context, a stem.Arrival) (int, error) {
	seq := r.clock.Next()
	r.staged = nil

	n, err := r.wh.AddStem(a)
	if err != nil {
		return n, err
	}

	id, err := ArrivalID(r.token, seq, a)
	if err != nil {
		return n, fmt.Errorf("record arrival: %w", err)
	}
	arr := Arrival{ID: id, RunToken: r.token, Seq: seq, Stem: a}

	if err := r.commit(ctx, &arr, seq); err != nil {
		return n, err
	}
	return n, nil
}

// Token returns the run token this recorder journals under.
func (r *Recorder) Token() string {
	return r.token
}

// Stats returns the wrapped warehouse's aggregate counters.
func (r *Recorder) Stats() engine.Stats {
	return r.wh.Stats()
}

// Warehouse exposes the wrapped warehouse for read-only inspection.
// Feed arrivals through AddStem, never directly, or they bypass the journal.
func (r *Recorder) Warehouse() *engine.Warehouse {
	return r.wh
}

// stage is the warehouse sink: emissions are stamped and held until the
// surrounding AddStem or settle commits them.
func (r *Recorder) stage(b *engine.Bouquet) error {
	r.staged = append(r.staged, stagedEmission{seq: r.clock.Next(), b: b})
	return nil
}

// settle drains seeded stock and journals the resulting bouquets with
// ArrivalSeq 0.
func (r *Recorder) settle(ctx context.Context) error {
	r.staged = nil
	if _, err := r.wh.Settle(); err != nil {
		return fmt.Errorf("recorder settle: %w", err)
	}
	return r.commit(ctx, nil, 0)
}

// commit journals the staged bouquets (and the arrival, when present)
// atomically, then forwards the bouquets in emission order.
func (r *Recorder) commit(ctx context.Context, arr *Arrival, arrivalSeq int64) error {
	bouquets := make([]Bouquet, len(r.staged))
	for i, st := range r.staged {
		id, err := BouquetID(r.token, st.seq, arrivalSeq, st.b)
		if err != nil {
			return fmt.Errorf("record bouquet: %w", err)
		}
		bouquets[i] = Bouquet{
			ID:         id,
			RunToken:   r.token,
			Seq:        st.seq,
			ArrivalSeq: arrivalSeq,
			DesignName: st.b.Design.Name,
			Size:       st.b.Design.Size,
			Allocation: st.b.Allocation,
			Stems:      st.b.StemCount(),
		}
	}

	if arr == nil && len(bouquets) == 0 {
		return nil
	}

	if err := r.journal.WriteEmission(ctx, arr, bouquets); err != nil {
		return err
	}

	if r.forward != nil {
		for _, st := range r.staged {
			if err := r.forward.Emit(st.b); err != nil {
				return fmt.Errorf("forward bouquet: %w", err)
			}
		}
	}

	r.staged = nil
	return nil
}
