package sim

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/meterline/brazekit/internal/braze"
	"github.com/meterline/brazekit/internal/scenario"
)

// AssertionError reports one failed assertion with enough context to
// debug it: expected versus actual, plus the full recorded trace.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []braze.Call
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  actual: %s\n", e.Actual)
	buf.WriteString("\ntrace:\n")
	for _, call := range e.Trace {
		if len(call.Args) == 0 {
			fmt.Fprintf(&buf, "  [%d] %s\n", call.Seq, call.Method)
			continue
		}
		args, err := json.Marshal(call.Args)
		if err != nil {
			fmt.Fprintf(&buf, "  [%d] %s <unencodable args>\n", call.Seq, call.Method)
			continue
		}
		fmt.Fprintf(&buf, "  [%d] %s %s\n", call.Seq, call.Method, args)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against the trace and
// returns one failure message per failed assertion.
func EvaluateAssertions(trace []braze.Call, assertions []scenario.Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case scenario.AssertCallsContain:
			err = assertCallsContain(trace, a)
		case scenario.AssertCallOrder:
			err = assertCallOrder(trace, a)
		case scenario.AssertCallCount:
			err = assertCallCount(trace, a)
		default:
			err = fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// assertCallsContain checks that some recorded call matches the method
// and the expected args. Subset semantics: extra recorded args are fine.
func assertCallsContain(trace []braze.Call, a scenario.Assertion) error {
	for _, call := range trace {
		if call.Method == a.Method && matchArgs(call.Args, a.Args) {
			return nil
		}
	}
	return &AssertionError{
		Type:     scenario.AssertCallsContain,
		Expected: fmt.Sprintf("call %s with args %v", a.Method, a.Args),
		Actual:   "no matching call in trace",
		Trace:    trace,
	}
}

// assertCallOrder checks the first occurrences of the listed methods
// appear in the given relative order. Interleaved calls are allowed.
func assertCallOrder(trace []braze.Call, a scenario.Assertion) error {
	positions := make(map[string]int)
	for i, call := range trace {
		if _, seen := positions[call.Method]; !seen {
			positions[call.Method] = i + 1
		}
	}

	for _, method := range a.Methods {
		if positions[method] == 0 {
			return &AssertionError{
				Type:     scenario.AssertCallOrder,
				Expected: fmt.Sprintf("all methods present: %v", a.Methods),
				Actual:   fmt.Sprintf("missing method: %s", method),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Methods); i++ {
		prev, curr := a.Methods[i-1], a.Methods[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     scenario.AssertCallOrder,
				Expected: fmt.Sprintf("methods in order: %v", a.Methods),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertCallCount checks the method appears exactly count times. A count
// of zero asserts the call never happened.
func assertCallCount(trace []braze.Call, a scenario.Assertion) error {
	count := 0
	for _, call := range trace {
		if call.Method == a.Method {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     scenario.AssertCallCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Method),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// matchArgs checks the recorded args contain every expected key with an
// equal value. Both sides are normalized through JSON first so YAML
// scalars, recorded json.Number values, and pre-encoded raw messages
// compare by content.
func matchArgs(recorded, expected map[string]any) bool {
	if len(expected) == 0 {
		return true
	}
	if recorded == nil {
		return false
	}
	for key, want := range expected {
		got, ok := recorded[key]
		if !ok {
			return false
		}
		wantNorm, ok := normalize(want)
		if !ok {
			return false
		}
		gotNorm, ok := normalize(got)
		if !ok {
			return false
		}
		if !valuesEqual(wantNorm, gotNorm) {
			return false
		}
	}
	return true
}

// normalize round-trips a value through JSON with number preservation,
// collapsing both representations into maps, slices, strings, bools,
// and json.Number.
func normalize(v any) (any, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, false
	}
	return out, true
}

// valuesEqual deep-compares normalized values. Numbers compare
// numerically, so an expected 3 matches a recorded 3.0.
func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !valuesEqual(v, bvv) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case json.Number:
		bv, ok := b.(json.Number)
		if !ok {
			return false
		}
		ad, errA := decimal.NewFromString(av.String())
		bd, errB := decimal.NewFromString(bv.String())
		return errA == nil && errB == nil && ad.Equal(bd)
	default:
		return a == b
	}
}
