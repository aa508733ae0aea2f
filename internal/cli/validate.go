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

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <catalog>",
		Short: "Validate a catalog without running it",
		Long: `Validate a design catalog: a compact notation file or a CUE directory.

Checks every design's bounds, the exact-total satisfiable range, and
name and priority uniqueness, reporting all diagnostics in one pass
rather than stopping at the first.

Exit codes:
  0 - Catalog is valid
  1 - Catalog is invalid
  2 - Command error (path not found, unreadable file, etc.)

Examples:
  posy validate ./designs.posy
  posy validate ./catalog
  posy validate ./catalog --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return outputValidateError(formatter, compiler.ErrCodeNotFound, fmt.Sprintf("catalog not found: %s", path), nil)
	}
	if err != nil {
		return outputValidateError(formatter, compiler.ErrCodeNotFound, fmt.Sprintf("error accessing catalog: %v", err), nil)
	}

	var validationErrors []compiler.ValidationError
	if info.IsDir() {
		formatter.VerboseLog("Validating CUE catalog in %s", path)
		_, errs := compiler.CompileCatalog(path)
		if infra := infraLoadError(errs); infra != nil {
			return outputValidateError(formatter, infra.Code, infra.Message, nil)
		}
		validationErrors = toValidationErrors(errs)
	} else {
		formatter.VerboseLog("Validating compact catalog %s", path)
		validationErrors, err = validateCompactFile(path)
		if err != nil {
			return outputValidateError(formatter, compiler.ErrCodeGeneric, err.Error(), nil)
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	// Output success
	return outputValidateSuccess(formatter)
}

// validateCompactFile parses every line of a compact catalog file and
// collects diagnostics instead of stopping at the first. Parse errors
// carry their line number; semantic errors are keyed by design name.
func validateCompactFile(path string) ([]compiler.ValidationError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %v", err)
	}

	var validationErrors []compiler.ValidationError
	var entries []compiler.Entry
	for i, line := range strings.Split(string(data), "\n") {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		d, err := recipe.ParseDesign(text)
		if err != nil {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "catalog",
				Message: err.Error(),
				Code:    compiler.ErrCodeGeneric,
				Line:    i + 1,
			})
			continue
		}
		// Position in the file is the priority, like declaration order
		// in a stream header.
		entries = append(entries, compiler.Entry{Design: d, Priority: int64(len(entries) + 1)})
	}

	if len(entries) == 0 && len(validationErrors) == 0 {
		validationErrors = append(validationErrors, compiler.ValidationError{
			Field:   "catalog",
			Message: "catalog has no designs",
			Code:    compiler.ErrCodeGeneric,
		})
	}

	return append(validationErrors, compiler.Validate(entries)...), nil
}

// infraLoadError picks out a loading failure that should abort validation
// as a command error (exit 2) rather than be reported as a catalog
// diagnostic: missing paths, scan failures, unbuildable CUE. The generic
// E001 stays a diagnostic ("no designs found" is a fact about the catalog,
// not about the machine).
func infraLoadError(errs []error) *compiler.LoadError {
	for _, err := range errs {
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) && loadErr.Code != compiler.ErrCodeGeneric {
			return loadErr
		}
	}
	return nil
}

// toValidationErrors flattens compile diagnostics into the validation
// error shape used for output.
func toValidationErrors(errs []error) []compiler.ValidationError {
	out := make([]compiler.ValidationError, 0, len(errs))
	for _, err := range errs {
		var validationErr compiler.ValidationError
		if errors.As(err, &validationErr) {
			out = append(out, validationErr)
			continue
		}
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			line := 0
			if compileErr.Pos.IsValid() {
				line = compileErr.Pos.Line()
			}
			out = append(out, compiler.ValidationError{
				Field:   compileErr.Field,
				Message: compileErr.Message,
				Code:    compiler.ErrCodeGeneric,
				Line:    line,
			})
			continue
		}
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) {
			out = append(out, compiler.ValidationError{
				Field:   "catalog",
				Message: loadErr.Message,
				Code:    loadErr.Code,
			})
			continue
		}
		out = append(out, compiler.ValidationError{
			Field:   "catalog",
			Message: err.Error(),
			Code:    compiler.ErrCodeGeneric,
		})
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true}
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ Catalog valid")
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Loading problems are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs catalog diagnostics.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
