package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"posy/internal/compiler"
	"posy/internal/recipe"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled catalog in stream form.
type CompilationResult struct {
	Lines []string `json:"lines"`
	Hash  string   `json:"hash"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <cue-dir>",
		Short: "Compile a CUE catalog to compact notation",
		Long: `Compile a CUE design catalog to compact stream notation.

The compiler loads the CUE package, validates every design, orders them
by priority, and emits one compact notation line per design. The output
is a valid stream header and a valid --catalog file for the run command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, cueDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cat, errs := compiler.CompileCatalog(cueDir)
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	designs := cat.Designs()
	formatter.VerboseLog("Compiled %d design(s) from %s", len(designs), cueDir)

	lines := make([]string, len(designs))
	for i := range designs {
		d := &designs[i]
		line, err := d.Notation()
		if err != nil {
			// Explicit minimums above one survive canonical JSON but not
			// the stream form.
			return outputCompileError(formatter, compiler.ErrCodeGeneric,
				fmt.Sprintf("design has no stream form: %v", err), nil)
		}
		lines[i] = line
	}

	result := &CompilationResult{Lines: lines, Hash: cat.Hash()}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeCatalogFile(lines, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed,
				fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	// Output success
	return outputCompileSuccess(formatter, result, designs, opts.Output)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, designs []recipe.Design, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d design(s)\n\n", len(result.Lines))

	for i, line := range result.Lines {
		if formatter.Verbose {
			d := &designs[i]
			fmt.Fprintf(formatter.Writer, "  %s  total %d, %s\n", line, d.Total, tightBounds(d))
		} else {
			fmt.Fprintf(formatter.Writer, "  %s\n", line)
		}
	}
	fmt.Fprintln(formatter.Writer)

	fmt.Fprintf(formatter.Writer, "Catalog hash: %s\n", result.Hash)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote catalog to %s\n", outputFile)
	}

	return nil
}

// tightBounds renders the per-species bounds after the exact-total
// constraint has been folded in, e.g. "a[1..5] b[2..8]".
func tightBounds(d *recipe.Design) string {
	parts := make([]string, 0, d.Used.Len())
	for _, s := range d.Used.Species() {
		parts = append(parts, fmt.Sprintf("%s[%d..%d]", s, d.TightMin[s], d.TightMax[s]))
	}
	return strings.Join(parts, " ")
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		// JSON format - use CLIResponse with first error
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{
				Code:    code,
				Message: message,
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Compilation errors are command-level errors (exit code 2)
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) && compileErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				compileErr.Pos.Filename(),
				compileErr.Pos.Line(),
				compileErr.Pos.Column())
		}
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var validationErr compiler.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Code, fmt.Sprintf("%s: %s", validationErr.Field, validationErr.Message)
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return compiler.ErrCodeGeneric, fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message)
	}
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return compiler.ErrCodeGeneric, err.Error()
}

// writeCatalogFile writes the compact notation lines to a file.
func writeCatalogFile(lines []string, filename string) error {
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filename, []byte(data), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
