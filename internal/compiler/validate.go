package compiler

import (
	"fmt"

	"posy/internal/stem"
)

// Validation error codes (E100-E199)
const (
	ErrTotalZero         = "E101" // total must be at least 1
	ErrNoSpecies         = "E102" // at least one species required
	ErrMinAboveMax       = "E103" // species minimum exceeds maximum
	ErrUnsatisfiable     = "E104" // total outside the satisfiable range
	ErrDuplicateDesign   = "E105" // duplicate design name within a size class
	ErrDuplicatePriority = "E106" // duplicate priority
)

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled catalog entries against the catalog rules.
// Returns all errors found (does not fail-fast). CompileDesign already
// rejected structural problems; this layer covers the semantic ones, so
// a clean result is guaranteed to build into a catalog.
func Validate(entries []Entry) []ValidationError {
	var errs []ValidationError

	type key struct {
		name byte
		size stem.Size
	}
	seenDesign := make(map[key]bool, len(entries))
	seenPriority := make(map[int64]byte, len(entries))

	for i := range entries {
		e := &entries[i]
		d := &e.Design
		field := fmt.Sprintf("design.%s", string(d.Name))
		line := 0
		if e.Pos.IsValid() {
			line = e.Pos.Line()
		}

		// E101: total must be at least 1
		if d.Total == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".total",
				Message: "total must be at least 1",
				Code:    ErrTotalZero,
				Line:    line,
			})
		}

		// E102: at least one species with a positive maximum
		declared := 0
		for s := stem.Species(0); s < stem.SpeciesCount; s++ {
			if d.Max[s] > 0 {
				declared++
			}
		}
		if declared == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".species",
				Message: "at least one species with a positive maximum is required",
				Code:    ErrNoSpecies,
				Line:    line,
			})
		}

		// E103: per-species minimum must not exceed maximum
		for s := stem.Species(0); s < stem.SpeciesCount; s++ {
			if d.Min[s] > d.Max[s] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.species.%s", field, s),
					Message: fmt.Sprintf("minimum %d exceeds maximum %d", d.Min[s], d.Max[s]),
					Code:    ErrMinAboveMax,
					Line:    line,
				})
			}
		}

		// E104: total must be reachable within the declared bounds
		if !d.Satisfiable() {
			errs = append(errs, ValidationError{
				Field:   field + ".total",
				Message: fmt.Sprintf("total %d outside the satisfiable range [%d, %d]",
					d.Total, d.Min.Sum(), d.Max.Sum()),
				Code:    ErrUnsatisfiable,
				Line:    line,
			})
		}

		// E105: name must be unique within a size class
		k := key{d.Name, d.Size}
		if seenDesign[k] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate design %s%s", string(d.Name), d.Size),
				Code:    ErrDuplicateDesign,
				Line:    line,
			})
		}
		seenDesign[k] = true

		// E106: priorities must be unique, they are the catalog order
		if prev, ok := seenPriority[e.Priority]; ok {
			errs = append(errs, ValidationError{
				Field:   field + ".priority",
				Message: fmt.Sprintf("priority %d already used by design %s", e.Priority, string(prev)),
				Code:    ErrDuplicatePriority,
				Line:    line,
			})
		} else {
			seenPriority[e.Priority] = d.Name
		}
	}

	return errs
}
