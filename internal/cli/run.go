package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"posy/internal/engine"
	"posy/internal/journal"
	"posy/internal/recipe"
	"posy/internal/stem"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Catalog  string // catalog file or CUE directory; when set the whole input is arrivals
	Journal  string // SQLite journal path; empty runs unjournaled
	RunToken string // run token override
	Stats    bool   // print engine counters to stderr when the stream ends

	// TokenGenerator overrides the journal token source (for testing).
	// If nil, defaults to journal.UUIDv7Generator.
	TokenGenerator journal.TokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [input]",
		Short: "Process a stem stream into bouquets",
		Long: `Process a flower stem stream, emitting a bouquet line the moment one
can be assembled.

The stream opens with a designs section in compact notation, one per
line, ended by a blank line; stem arrivals follow, one token per line,
until a blank line or end of input. With --catalog the designs come
from a compact file or CUE directory instead and the whole input is
arrivals. Reads standard input when no input path is given.

Examples:
  posy run < stream.txt
  posy run --catalog ./designs.posy arrivals.txt
  posy run --catalog ./catalog --journal ./posy.db --stats < arrivals.txt`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return runStream(opts, input, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "catalog file or CUE directory (input is then all arrivals)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal the run to this SQLite database")
	cmd.Flags().StringVar(&opts.RunToken, "run-token", "", "run token override (requires --journal)")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "print engine counters to stderr when the stream ends")

	return cmd
}

func runStream(opts *RunOptions, input string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	if opts.RunToken != "" && opts.Journal == "" {
		return NewExitError(ExitCommandError, "--run-token requires --journal")
	}

	// Open input (stdin unless a path was given)
	var in io.Reader = cmd.InOrStdin()
	if input != "" {
		f, err := os.Open(input)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open input", err)
		}
		defer f.Close()
		in = f
	}
	sc := bufio.NewScanner(in)

	// Catalog from --catalog, or from the stream's designs section
	var cat *recipe.Catalog
	if opts.Catalog != "" {
		c, errs := LoadCatalog(opts.Catalog)
		if len(errs) > 0 {
			return WrapExitError(ExitCommandError, "failed to load catalog", errors.Join(errs...))
		}
		cat = c
	} else {
		c, err := ReadHeaderCatalog(sc)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read stream header", err)
		}
		cat = c
	}
	slog.Debug("catalog ready", "designs", cat.Len(), "hash", cat.Hash())

	// Setup signal handling so an interrupted stream still flushes its
	// output and reports its counters.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping stream", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	out := NewBouquetWriter(cmd.OutOrStdout())

	var stats engine.Stats
	var err error
	if opts.Journal != "" {
		stats, err = runJournaled(ctx, opts, cat, sc, out)
	} else {
		stats, err = runDirect(ctx, cat, sc, out)
	}
	if flushErr := out.Flush(); flushErr != nil && err == nil {
		err = WrapExitError(ExitCommandError, "failed to flush output", flushErr)
	}
	if err != nil {
		return err
	}

	if opts.Stats {
		printStats(opts, cmd, stats)
	}
	return nil
}

// runDirect feeds the arrival section straight into a warehouse.
func runDirect(ctx context.Context, cat *recipe.Catalog, sc *bufio.Scanner, out *BouquetWriter) (engine.Stats, error) {
	w := engine.New(cat, engine.WithSink(out))

	fed, err := FeedArrivals(sc, func(a stem.Arrival) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := w.AddStem(a)
		return err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("stream interrupted", "arrivals", fed, "bouquets", out.Count())
			return w.Stats(), nil
		}
		return w.Stats(), WrapExitError(ExitCommandError, "stream processing failed", err)
	}

	slog.Debug("stream drained", "arrivals", fed, "bouquets", out.Count())
	return w.Stats(), nil
}

// runJournaled feeds the arrival section through a journaling recorder, so
// every arrival and emission lands in the database before the bouquet line
// is written.
func runJournaled(ctx context.Context, opts *RunOptions, cat *recipe.Catalog, sc *bufio.Scanner, out *BouquetWriter) (engine.Stats, error) {
	j, err := journal.Open(opts.Journal)
	if err != nil {
		return engine.Stats{}, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := j.Close(); closeErr != nil {
			slog.Error("error closing journal", "error", closeErr)
		}
	}()

	gen := opts.TokenGenerator
	if gen == nil {
		gen = journal.UUIDv7Generator{}
	}
	if opts.RunToken != "" {
		gen = journal.NewFixedGenerator(opts.RunToken)
	}

	rec, err := journal.NewRecorder(ctx, j, cat, Version,
		journal.WithTokenGenerator(gen),
		journal.WithForward(out),
	)
	if err != nil {
		return engine.Stats{}, WrapExitError(ExitCommandError, "failed to start journaled run", err)
	}
	slog.Info("run journaled", "token", rec.Token(), "db", opts.Journal)

	fed, err := FeedArrivals(sc, func(a stem.Arrival) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := rec.AddStem(ctx, a)
		return err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("stream interrupted", "token", rec.Token(), "arrivals", fed, "bouquets", out.Count())
			return rec.Stats(), nil
		}
		return rec.Stats(), WrapExitError(ExitCommandError, "stream processing failed", err)
	}

	slog.Debug("stream drained", "token", rec.Token(), "arrivals", fed, "bouquets", out.Count())
	return rec.Stats(), nil
}

// printStats reports engine counters on stderr so stdout stays pure
// bouquet lines.
func printStats(opts *RunOptions, cmd *cobra.Command, s engine.Stats) {
	w := cmd.ErrOrStderr()

	if opts.Format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(s)
		return
	}

	fmt.Fprintf(w, "Arrivals:    %d\n", s.Arrivals)
	fmt.Fprintf(w, "Bouquets:    %d\n", s.Bouquets)
	fmt.Fprintf(w, "Stems used:  %d\n", s.StemsUsed)
	fmt.Fprintf(w, "Scans:       %d\n", s.Scans)
	fmt.Fprintf(w, "  rejected on total: %d\n", s.RejectTotal)
	fmt.Fprintf(w, "  rejected on floor: %d\n", s.RejectFloor)
	fmt.Fprintf(w, "  rejected on sum:   %d\n", s.RejectSum)
	fmt.Fprintf(w, "Prune skips: %d\n", s.PruneSkips)
}
