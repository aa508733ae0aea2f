package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"posy/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunToken string
	Design   string // optional - filter to one design name
	Species  string // optional - filter to one species
	Size     string // optional - filter to one size class
	SinceSeq int64
	UntilSeq int64
	Limit    int
}

// TraceEvent represents a single event in the trace timeline.
type TraceEvent struct {
	Seq        int64  `json:"seq"`
	Type       string `json:"type"` // "arrival" or "bouquet"
	ID         string `json:"id"`
	Line       string `json:"line"`
	ArrivalSeq int64  `json:"arrival_seq,omitempty"`
	Stems      uint32 `json:"stems,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunToken string       `json:"run_token"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace. The counts and
// totals cover the whole run; TotalEvents counts the filtered timeline.
type TraceStats struct {
	TotalEvents int   `json:"total_events"`
	Arrivals    int   `json:"arrivals"`
	Bouquets    int   `json:"bouquets"`
	StemsIn     int64 `json:"stems_in"`
	StemsUsed   int64 `json:"stems_used"`
	Conserved   bool  `json:"conserved"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Query the timeline of a journaled run",
		Long: `Query the journaled timeline of a run.

Shows arrivals and bouquets interleaved in journal order, each bouquet
linked to the arrival that unlocked it. Filters narrow the timeline to
one design, one species, one size class, or a seq range.

The output includes:
- Timeline: arrivals and bouquets in journal order
- Stats: whole-run counts and the stem conservation verdict

Examples:
  posy trace --db ./posy.db --run 0190b5a2-...
  posy trace --db ./posy.db --run 0190b5a2-... --design A
  posy trace --db ./posy.db --run 0190b5a2-... --species r --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "run token to trace (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Design, "design", "", "filter to one design name (A-Z)")
	cmd.Flags().StringVar(&opts.Species, "species", "", "filter to one species (a-z)")
	cmd.Flags().StringVar(&opts.Size, "size", "", "filter to one size class (S or L)")
	cmd.Flags().Int64Var(&opts.SinceSeq, "since", 0, "only events with seq at or above this value")
	cmd.Flags().Int64Var(&opts.UntilSeq, "until", 0, "only events with seq at or below this value")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "cap the number of timeline events")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	filter := journal.TraceFilter{
		Design:   opts.Design,
		Species:  opts.Species,
		Size:     opts.Size,
		SinceSeq: opts.SinceSeq,
		UntilSeq: opts.UntilSeq,
	}
	if err := filter.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid trace filter", err)
	}

	// Open journal
	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	// Get run state for statistics. Also rejects unknown run tokens.
	state, err := j.GetRunState(ctx, opts.RunToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to get run state", err)
	}

	// Check if the run has any events
	if state.Arrivals == 0 && state.Bouquets == 0 {
		if opts.Format == "json" {
			return outputTraceJSON(cmd, TraceResult{
				RunToken: opts.RunToken,
				Timeline: []TraceEvent{},
				Stats:    traceStats(state, 0),
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No events found for run: %s\n", opts.RunToken)
		return nil
	}

	// Fetch both tables unlimited; the cap below bounds timeline events,
	// not rows per table, so a bouquet's unlocking arrival is never
	// dropped by a per-table limit.
	arrivals, err := j.TraceArrivals(ctx, opts.RunToken, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to trace arrivals", err)
	}
	bouquets, err := j.TraceBouquets(ctx, opts.RunToken, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to trace bouquets", err)
	}

	timeline := buildTimeline(arrivals, bouquets, opts.Design, opts.Limit)

	result := TraceResult{
		RunToken: opts.RunToken,
		Timeline: timeline,
		Stats:    traceStats(state, len(timeline)),
	}

	// Output results
	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}

	return outputTraceText(cmd, result, opts.Verbose)
}

// traceStats maps run state onto the stats section.
func traceStats(state journal.RunState, totalEvents int) TraceStats {
	return TraceStats{
		TotalEvents: totalEvents,
		Arrivals:    state.Arrivals,
		Bouquets:    state.Bouquets,
		StemsIn:     state.StemsIn,
		StemsUsed:   state.StemsUsed,
		Conserved:   state.Conserved,
	}
}

// buildTimeline merges arrivals and bouquets into seq order. Both inputs
// arrive sorted by seq and the two tables share one seq counter, so this
// is a plain two-way merge.
//
// When designFilter is set, only arrivals that unlocked a matching
// bouquet are included, mirroring how a bouquet filter implies interest
// in the stems that triggered it.
func buildTimeline(arrivals []journal.Arrival, bouquets []journal.Bouquet, designFilter string, limit int) []TraceEvent {
	// Track arrival seqs that unlocked a matching bouquet. Seeded-stock
	// bouquets carry arrival seq 0 and match no arrival.
	var matched map[int64]bool
	if designFilter != "" {
		matched = make(map[int64]bool, len(bouquets))
		for i := range bouquets {
			if bouquets[i].ArrivalSeq > 0 {
				matched[bouquets[i].ArrivalSeq] = true
			}
		}
	}

	timeline := make([]TraceEvent, 0, len(arrivals)+len(bouquets))
	ai, bi := 0, 0
	for ai < len(arrivals) || bi < len(bouquets) {
		if limit > 0 && len(timeline) >= limit {
			break
		}

		takeArrival := bi >= len(bouquets) ||
			(ai < len(arrivals) && arrivals[ai].Seq < bouquets[bi].Seq)

		if takeArrival {
			a := &arrivals[ai]
			ai++
			if matched != nil && !matched[a.Seq] {
				continue
			}
			timeline = append(timeline, TraceEvent{
				Seq:  a.Seq,
				Type: "arrival",
				ID:   a.ID,
				Line: a.Stem.String(),
			})
			continue
		}

		b := &bouquets[bi]
		bi++
		timeline = append(timeline, TraceEvent{
			Seq:        b.Seq,
			Type:       "bouquet",
			ID:         b.ID,
			Line:       b.Line(),
			ArrivalSeq: b.ArrivalSeq,
			Stems:      b.Stems,
		})
	}

	return timeline
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{
		Status:   "ok",
		Data:     result,
		RunToken: result.RunToken,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for Run: %s\n", result.RunToken)
	fmt.Fprintf(w, "Status: %s\n", conservedStatus(result.Stats.Conserved))
	fmt.Fprintln(w)

	// Timeline section
	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	} else {
		for _, event := range result.Timeline {
			formatTimelineEvent(w, event, verbose)
		}
	}
	fmt.Fprintln(w)

	// Stats section
	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Arrivals:     %d\n", result.Stats.Arrivals)
	fmt.Fprintf(w, "  Bouquets:     %d\n", result.Stats.Bouquets)
	fmt.Fprintf(w, "  Stems In:     %d\n", result.Stats.StemsIn)
	fmt.Fprintf(w, "  Stems Used:   %d\n", result.Stats.StemsUsed)

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, event TraceEvent, verbose bool) {
	switch event.Type {
	case "arrival":
		fmt.Fprintf(w, "  [%d] STEM %s\n", event.Seq, event.Line)
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
		}

	case "bouquet":
		fmt.Fprintf(w, "  [%d] BOUQUET %s\n", event.Seq, event.Line)
		if verbose {
			fmt.Fprintf(w, "       Stems: %d\n", event.Stems)
			if event.ArrivalSeq > 0 {
				fmt.Fprintf(w, "       Arrival: seq %d\n", event.ArrivalSeq)
			} else {
				fmt.Fprintln(w, "       Arrival: seeded stock")
			}
			fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
		}
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

// conservedStatus returns a human-readable conservation verdict.
func conservedStatus(conserved bool) string {
	if conserved {
		return "Conserved"
	}
	return "Not conserved (bouquets used more stems than arrived)"
}
