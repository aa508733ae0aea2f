package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"posy/internal/canon"
)

// TraceSnapshot is the golden form of a run: the scenario name and its
// interleaved trace.
type TraceSnapshot struct {
	Scenario string   `json:"scenario"`
	Trace    []string `json:"trace"`
}

func (s *TraceSnapshot) canonicalJSON() ([]byte, error) {
	return canon.Marshal(map[string]any{
		"scenario": s.Scenario,
		"trace":    s.Trace,
	})
}

// RunWithGolden runs the scenario and compares its trace snapshot to
// testdata/golden/<name>.golden. Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already-run result against the golden file
// for scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{Scenario: scenarioName, Trace: result.Trace}
	data, err := snapshot.canonicalJSON()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
