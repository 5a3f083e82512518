// Package sim executes scenario documents end to end: a fresh
// destination instance wired to a recording client, the declared flow
// of host events, and assertion evaluation over the recorded trace.
package sim

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/meterline/brazekit"
	"github.com/meterline/brazekit/internal/braze"
	"github.com/meterline/brazekit/internal/scenario"
)

// Result is the outcome of one scenario run.
type Result struct {
	// ScenarioName echoes the scenario that produced this run.
	ScenarioName string `json:"scenario_name"`

	// RunToken identifies the run: fixed from the scenario for
	// deterministic traces, otherwise a fresh UUIDv7.
	RunToken string `json:"run_token"`

	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace is the recorded boundary calls in order.
	Trace []braze.Call `json:"trace"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`
}

// AddError records a failed assertion and marks the run as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Run executes one scenario against a fresh destination and evaluates
// its assertions. Setup and flow-shape problems come back as an error;
// assertion failures land in Result.Errors with Pass false.
func Run(sc *scenario.Scenario) (*Result, error) {
	token := sc.RunToken
	if token == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("run token: %w", err)
		}
		token = id.String()
	}

	recorder := braze.NewRecorder()
	opts := []brazekit.Option{brazekit.WithClient(recorder)}
	if sc.AnonymousID != "" {
		opts = append(opts, brazekit.WithAnonymousID(sc.AnonymousID))
	}

	dest, err := brazekit.New(sc.Settings, opts...)
	if err != nil {
		return nil, fmt.Errorf("destination setup: %w", err)
	}

	for i, step := range sc.Flow {
		switch {
		case step.Identify != nil:
			dest.Identify(brazekit.IdentifyEvent{
				UserID: step.Identify.UserID,
				Context: brazekit.EventContext{
					Traits:      step.Identify.Traits,
					ExternalIDs: stepExternalIDs(step.Identify.ExternalIDs),
				},
			})
		case step.Track != nil:
			dest.Track(brazekit.TrackEvent{
				Event:      step.Track.Event,
				Properties: step.Track.Properties,
			})
		case step.Flush:
			dest.Flush()
		case step.Reset:
			dest.Reset()
		default:
			return nil, fmt.Errorf("flow[%d]: step carries no action", i)
		}
	}

	result := &Result{
		ScenarioName: sc.Name,
		RunToken:     token,
		Pass:         true,
		Trace:        recorder.Calls(),
	}
	for _, msg := range EvaluateAssertions(result.Trace, sc.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func stepExternalIDs(ids []scenario.ExternalIDStep) []brazekit.ExternalID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]brazekit.ExternalID, len(ids))
	for i, id := range ids {
		out[i] = brazekit.ExternalID{Type: id.Type, ID: id.ID}
	}
	return out
}
