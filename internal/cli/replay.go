package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"posy/internal/journal"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunToken string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunToken      string `json:"run_token"`
	Arrivals      int    `json:"arrivals"`
	Journaled     int    `json:"journaled"`
	Replayed      int    `json:"replayed"`
	Deterministic bool   `json:"deterministic"`
	Divergence    string `json:"divergence,omitempty"`
}

// ReplayReport holds the overall replay result.
type ReplayReport struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled runs and verify determinism",
		Long: `Replay journaled runs and verify the engine is deterministic.

For each run this command rebuilds the recorded catalog, feeds the
journaled arrivals through a fresh warehouse, and compares every bouquet
produced against the journaled one: same arrival, same design, same
allocation. Any difference means the journal was edited or the engine
changed between versions.

Exit codes:
  0 - All runs replayed identically
  1 - Replay diverged from the journal
  2 - Command error (journal not found, unknown run token, etc.)

Examples:
  posy replay --db ./posy.db
  posy replay --db ./posy.db --run 0190b5a2-...
  posy replay --db ./posy.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	// Open journal
	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	// Get run tokens to process
	var tokens []string
	if opts.RunToken != "" {
		tokens = []string{opts.RunToken}
	} else {
		tokens, err = j.ListRunTokens(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list run tokens", err)
		}
	}

	if len(tokens) == 0 {
		if opts.Format == "json" {
			report := ReplayReport{
				Runs:             []ReplayRunResult{},
				TotalRuns:        0,
				AllDeterministic: true,
			}
			return outputReplayJSON(cmd, report)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in journal.")
		return nil
	}

	// Process each run
	report := ReplayReport{
		Runs:             make([]ReplayRunResult, 0, len(tokens)),
		TotalRuns:        len(tokens),
		AllDeterministic: true,
	}

	for _, token := range tokens {
		res, err := j.ReplayRun(ctx, token)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", token), err)
		}

		report.Runs = append(report.Runs, ReplayRunResult{
			RunToken:      res.Token,
			Arrivals:      res.Arrivals,
			Journaled:     res.Journaled,
			Replayed:      res.Replayed,
			Deterministic: res.Deterministic,
			Divergence:    res.Divergence,
		})
		if !res.Deterministic {
			report.AllDeterministic = false
		}
	}

	// Output results
	if opts.Format == "json" {
		return outputReplayJSON(cmd, report)
	}

	return outputReplayText(cmd, report, opts.Verbose)
}

// outputReplayJSON outputs the replay report as JSON.
func outputReplayJSON(cmd *cobra.Command, report ReplayReport) error {
	response := CLIResponse{
		Status: "ok",
		Data:   report,
	}

	if !report.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "replay diverged from the journal",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !report.AllDeterministic {
		// Divergence = exit code 1
		return NewExitError(ExitFailure, "replay diverged from the journal")
	}
	return nil
}

// outputReplayText outputs the replay report as text.
func outputReplayText(cmd *cobra.Command, report ReplayReport, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", report.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range report.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s\n", status, run.RunToken)
		fmt.Fprintf(w, "  Events: %d arrivals, %d bouquets\n", run.Arrivals, run.Journaled)

		if verbose {
			fmt.Fprintf(w, "  Replayed: %d bouquets\n", run.Replayed)
		}

		if run.Divergence != "" {
			fmt.Fprintf(w, "  Divergence: %s\n", run.Divergence)
		}
		fmt.Fprintln(w)
	}

	if report.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay diverged from the journal")
	// Divergence = exit code 1
	return NewExitError(ExitFailure, "replay diverged from the journal")
}
