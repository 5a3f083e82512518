// Package scenario loads and validates the YAML documents that drive
// the simulator: destination settings, a flow of host events, and
// assertions over the recorded boundary calls.
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes one simulator run.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario demonstrates.
	Description string `yaml:"description,omitempty"`

	// Settings is the destination configuration map handed to New.
	Settings map[string]any `yaml:"settings"`

	// AnonymousID optionally registers a device alias at setup.
	AnonymousID string `yaml:"anonymous_id,omitempty"`

	// RunToken fixes the run identifier for deterministic traces and
	// golden files. Empty means a fresh token per run.
	RunToken string `yaml:"run_token,omitempty"`

	// Flow is the ordered list of host events to deliver.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the recorded call trace after the flow.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// FlowStep is one host action. Exactly one of the four fields is set.
type FlowStep struct {
	Identify *IdentifyStep `yaml:"identify,omitempty"`
	Track    *TrackStep    `yaml:"track,omitempty"`
	Flush    bool          `yaml:"flush,omitempty"`
	Reset    bool          `yaml:"reset,omitempty"`
}

// IdentifyStep mirrors the host identify payload.
type IdentifyStep struct {
	UserID      string           `yaml:"user_id,omitempty"`
	Traits      map[string]any   `yaml:"traits,omitempty"`
	ExternalIDs []ExternalIDStep `yaml:"external_ids,omitempty"`
}

// ExternalIDStep is one alternate-identifier record.
type ExternalIDStep struct {
	Type string `yaml:"type"`
	ID   string `yaml:"id"`
}

// TrackStep mirrors the host track payload.
type TrackStep struct {
	Event      string         `yaml:"event"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// Assertion validates the recorded trace.
type Assertion struct {
	// Type is one of calls_contain, call_order, call_count.
	Type string `yaml:"type"`

	// Method names the boundary call (calls_contain, call_count).
	Method string `yaml:"method,omitempty"`

	// Args are expected call arguments, subset-matched (calls_contain).
	Args map[string]any `yaml:"args,omitempty"`

	// Count is the expected number of occurrences (call_count).
	Count int `yaml:"count,omitempty"`

	// Methods is the expected relative order (call_order).
	Methods []string `yaml:"methods,omitempty"`
}

// Assertion type constants.
const (
	AssertCallsContain = "calls_contain"
	AssertCallOrder    = "call_order"
	AssertCallCount    = "call_count"
)

// Load reads, schema-validates, and decodes a scenario file. Schema and
// semantic problems come back as ValidationErrors carrying every issue
// found, not just the first.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(path, data)
}

// Parse validates and decodes an in-memory scenario document. The path
// is used for error positions only.
func Parse(path string, data []byte) (*Scenario, error) {
	if problems := ValidateDocument(path, data); len(problems) > 0 {
		return nil, ValidationErrors(problems)
	}

	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	if problems := validateScenario(&sc); len(problems) > 0 {
		return nil, ValidationErrors(problems)
	}
	return &sc, nil
}

// validateScenario checks required fields and cross-field rules the
// structural schema cannot express.
func validateScenario(sc *Scenario) []ValidationError {
	var problems []ValidationError

	if sc.Name == "" {
		problems = append(problems, ValidationError{
			Code:    ErrNameRequired,
			Field:   "name",
			Message: "name is required",
		})
	}
	if sc.Settings == nil {
		problems = append(problems, ValidationError{
			Code:    ErrSettingsMissing,
			Field:   "settings",
			Message: "settings map is required",
		})
	}
	if len(sc.Flow) == 0 {
		problems = append(problems, ValidationError{
			Code:    ErrFlowEmpty,
			Field:   "flow",
			Message: "flow must contain at least one step",
		})
	}

	for i, step := range sc.Flow {
		if n := step.actions(); n != 1 {
			problems = append(problems, ValidationError{
				Code:    ErrStepShape,
				Field:   fmt.Sprintf("flow[%d]", i),
				Message: fmt.Sprintf("step must carry exactly one of identify, track, flush, reset (got %d)", n),
			})
			continue
		}
		if step.Track != nil && step.Track.Event == "" {
			problems = append(problems, ValidationError{
				Code:    ErrStepShape,
				Field:   fmt.Sprintf("flow[%d].track.event", i),
				Message: "track step requires an event name",
			})
		}
	}

	for i, a := range sc.Assertions {
		if problem, ok := validateAssertion(i, a); !ok {
			problems = append(problems, problem)
		}
	}
	return problems
}

func validateAssertion(index int, a Assertion) (ValidationError, bool) {
	field := func(suffix string) string {
		return fmt.Sprintf("assertions[%d]%s", index, suffix)
	}
	switch a.Type {
	case AssertCallsContain:
		if a.Method == "" {
			return ValidationError{Code: ErrAssertionShape, Field: field(".method"), Message: "calls_contain requires a method"}, false
		}
	case AssertCallOrder:
		if len(a.Methods) == 0 {
			return ValidationError{Code: ErrAssertionShape, Field: field(".methods"), Message: "call_order requires a methods list"}, false
		}
	case AssertCallCount:
		if a.Method == "" {
			return ValidationError{Code: ErrAssertionShape, Field: field(".method"), Message: "call_count requires a method"}, false
		}
	default:
		return ValidationError{Code: ErrAssertionShape, Field: field(".type"), Message: fmt.Sprintf("unknown assertion type %q", a.Type)}, false
	}
	return ValidationError{}, true
}

// actions counts how many of the mutually exclusive step fields are set.
func (s FlowStep) actions() int {
	n := 0
	if s.Identify != nil {
		n++
	}
	if s.Track != nil {
		n++
	}
	if s.Flush {
		n++
	}
	if s.Reset {
		n++
	}
	return n
}
