package compiler

import (
	"fmt"
	"math"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"posy/internal/recipe"
	"posy/internal/stem"
)

// Entry is one compiled catalog design together with its authoring
// metadata. Priority decides catalog order (ascending); the compact
// notation has no equivalent because there order is positional.
type Entry struct {
	Design   recipe.Design
	Priority int64
	Pos      token.Pos
}

// CompileDesign parses a CUE value into a catalog entry.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the design struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`design: A: { ... }`)
//	entry, err := CompileDesign(v.LookupPath(cue.ParsePath("design.A")))
func CompileDesign(v cue.Value) (*Entry, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entry := &Entry{Pos: v.Pos()}

	// Parse design name from struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return nil, &CompileError{
			Field:   "design",
			Message: "design has no name label",
			Pos:     v.Pos(),
		}
	}
	name := labels[len(labels)-1].String()
	if len(name) != 1 || name[0] < 'A' || name[0] > 'Z' {
		return nil, &CompileError{
			Field:   "design",
			Message: fmt.Sprintf("design name must be a single letter A through Z, got %q", name),
			Pos:     v.Pos(),
		}
	}
	entry.Design.Name = name[0]
	field := "design." + name

	// Parse size (required, "S" or "L")
	sizeVal := v.LookupPath(cue.ParsePath("size"))
	if !sizeVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".size",
			Message: "size is required",
			Pos:     v.Pos(),
		}
	}
	sizeStr, err := sizeVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	size, err := stem.ParseSizeText(sizeStr)
	if err != nil {
		return nil, &CompileError{
			Field:   field + ".size",
			Message: err.Error(),
			Pos:     sizeVal.Pos(),
		}
	}
	entry.Design.Size = size

	// Parse priority (required)
	prioVal := v.LookupPath(cue.ParsePath("priority"))
	if !prioVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".priority",
			Message: "priority is required",
			Pos:     v.Pos(),
		}
	}
	entry.Priority, err = intField(prioVal, field+".priority")
	if err != nil {
		return nil, err
	}

	// Parse total (required)
	totalVal := v.LookupPath(cue.ParsePath("total"))
	if !totalVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".total",
			Message: "total is required",
			Pos:     v.Pos(),
		}
	}
	entry.Design.Total, err = countField(totalVal, field+".total")
	if err != nil {
		return nil, err
	}

	// Parse species bounds (required, may be empty)
	speciesVal := v.LookupPath(cue.ParsePath("species"))
	if !speciesVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".species",
			Message: "species is required",
			Pos:     v.Pos(),
		}
	}
	if err := parseSpeciesBounds(speciesVal, field, &entry.Design); err != nil {
		return nil, err
	}

	return entry, nil
}

// parseSpeciesBounds fills the design's Min and Max vectors from the
// species struct. Each label is one lowercase letter; max is required,
// min defaults to 1 to match what the compact notation implies for a
// listed species.
func parseSpeciesBounds(v cue.Value, field string, d *recipe.Design) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		label := iter.Label()
		boundsVal := iter.Value()

		sp, err := stem.ParseSpeciesText(label)
		if err != nil {
			return &CompileError{
				Field:   field + ".species",
				Message: err.Error(),
				Pos:     boundsVal.Pos(),
			}
		}
		boundsField := fmt.Sprintf("%s.species.%s", field, label)

		maxVal := boundsVal.LookupPath(cue.ParsePath("max"))
		if !maxVal.Exists() {
			return &CompileError{
				Field:   boundsField + ".max",
				Message: "max is required",
				Pos:     boundsVal.Pos(),
			}
		}
		max, err := countField(maxVal, boundsField+".max")
		if err != nil {
			return err
		}

		min := uint16(1)
		minVal := boundsVal.LookupPath(cue.ParsePath("min"))
		if minVal.Exists() {
			min, err = countField(minVal, boundsField+".min")
			if err != nil {
				return err
			}
		}

		d.Min[sp] = min
		d.Max[sp] = max
	}

	return nil
}

// intField reads an integer CUE value. Floats are rejected; stem counts
// and priorities are whole numbers.
func intField(v cue.Value, field string) (int64, error) {
	switch v.IncompleteKind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return 0, formatCUEError(err)
		}
		return n, nil
	case cue.FloatKind, cue.NumberKind:
		return 0, &CompileError{
			Field:   field,
			Message: "must be an integer, not a float",
			Pos:     v.Pos(),
		}
	default:
		return 0, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("must be an integer, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// countField reads an integer that must fit a 16-bit stem count.
func countField(v cue.Value, field string) (uint16, error) {
	n, err := intField(v, field)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxUint16 {
		return 0, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("value %d outside the 16-bit count range", n),
			Pos:     v.Pos(),
		}
	}
	return uint16(n), nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
