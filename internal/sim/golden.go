package sim

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/meterline/brazekit/internal/braze"
	"github.com/meterline/brazekit/internal/scenario"
)

// TraceSnapshot is the golden-file projection of one run: the scenario
// name, the run token, and the full recorded trace.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunToken     string       `json:"run_token"`
	Trace        []braze.Call `json:"trace"`
}

// RunWithGolden executes the scenario and compares its trace against
// testdata/golden/<name>.golden. Scenarios used this way should pin
// run_token, otherwise the snapshot changes every run.
//
// Regenerate golden files with:
//
//	go test ./internal/sim -update
func RunWithGolden(t *testing.T, sc *scenario.Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(sc)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, sc.Name, result)
	return result, nil
}

// AssertGolden compares an already-obtained result against the golden
// file for name. Map keys serialize sorted, so the bytes are stable.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: result.ScenarioName,
		RunToken:     result.RunToken,
		Trace:        result.Trace,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal trace snapshot: %v", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
