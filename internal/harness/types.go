package harness

import "fmt"

// Result is the outcome of one scenario execution.
type Result struct {
	// Pass is true when every property and expectation held.
	Pass bool `json:"pass"`

	// Bouquets are the emitted lines in order, settlements first.
	Bouquets []string `json:"bouquets"`

	// Trace interleaves the stream with its effects: "+aS" counts a
	// stem, "=AS3a2b" emits a bouquet.
	Trace []string `json:"trace"`

	// Errors lists every property or expectation that failed. Empty
	// when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Bouquets: []string{},
		Trace:    []string{},
		Errors:   []string{},
	}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
