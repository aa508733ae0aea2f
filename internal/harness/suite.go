package harness

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SuiteResult aggregates a directory of scenarios.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure is one failed scenario with everything needed to rerun
// it by hand.
type ScenarioFailure struct {
	Scenario string   `json:"scenario"`
	Path     string   `json:"path"`
	Errors   []string `json:"errors"`
}

// RunSuite loads and runs every scenario file under dir whose base name
// contains filter; an empty filter matches all. A scenario that fails to
// load counts as failed rather than aborting: one bad file must not hide
// the rest of the suite.
func RunSuite(dir, filter string) (*SuiteResult, error) {
	paths, err := ListScenarios(dir)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{}
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if filter != "" && !strings.Contains(name, filter) {
			continue
		}
		suite.Total++

		scenario, err := LoadScenario(path)
		if err != nil {
			suite.fail(name, path, err.Error())
			continue
		}

		result, err := Run(scenario)
		if err != nil {
			suite.fail(scenario.Name, path, err.Error())
			continue
		}
		if !result.Pass {
			suite.fail(scenario.Name, path, result.Errors...)
			continue
		}
		suite.Passed++
	}

	if suite.Total == 0 {
		return nil, fmt.Errorf("no scenarios matched in %s", dir)
	}
	return suite, nil
}

func (sr *SuiteResult) fail(scenario, path string, errs ...string) {
	sr.Failed++
	sr.Failures = append(sr.Failures, ScenarioFailure{
		Scenario: scenario,
		Path:     path,
		Errors:   errs,
	})
}
