package sim

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterline/brazekit/internal/braze"
	"github.com/meterline/brazekit/internal/scenario"
)

// sampleTrace mirrors the arg shapes the recorder produces: plain
// strings, ints, json.Number prices, and pre-encoded raw messages.
func sampleTrace() []braze.Call {
	return []braze.Call{
		{Seq: 0, Method: "changeUser", Args: map[string]any{"id": "u-1"}},
		{Seq: 1, Method: "setStandardAttribute", Args: map[string]any{"field": "email", "value": "ada@example.com"}},
		{Seq: 2, Method: "logPurchase", Args: map[string]any{
			"product_id": "sku-1",
			"currency":   "EUR",
			"price":      json.Number("25.5"),
			"quantity":   2,
			"properties": json.RawMessage(`{"color":"red"}`),
		}},
		{Seq: 3, Method: "flush"},
	}
}

func TestAssertCallsContain(t *testing.T) {
	trace := sampleTrace()

	tests := []struct {
		name      string
		assertion scenario.Assertion
		wantPass  bool
	}{
		{
			name:      "method_only",
			assertion: scenario.Assertion{Method: "changeUser"},
			wantPass:  true,
		},
		{
			name:      "subset_args",
			assertion: scenario.Assertion{Method: "logPurchase", Args: map[string]any{"product_id": "sku-1"}},
			wantPass:  true,
		},
		{
			name:      "numeric_price_as_float",
			assertion: scenario.Assertion{Method: "logPurchase", Args: map[string]any{"price": 25.5}},
			wantPass:  true,
		},
		{
			name:      "number_compares_numerically",
			assertion: scenario.Assertion{Method: "logPurchase", Args: map[string]any{"quantity": json.Number("2.0")}},
			wantPass:  true,
		},
		{
			name:      "int_quantity",
			assertion: scenario.Assertion{Method: "logPurchase", Args: map[string]any{"quantity": 2}},
			wantPass:  true,
		},
		{
			name: "nested_properties",
			assertion: scenario.Assertion{Method: "logPurchase", Args: map[string]any{
				"properties": map[string]any{"color": "red"},
			}},
			wantPass: true,
		},
		{
			name:      "wrong_value",
			assertion: scenario.Assertion{Method: "logPurchase", Args: map[string]any{"currency": "USD"}},
			wantPass:  false,
		},
		{
			name:      "missing_key",
			assertion: scenario.Assertion{Method: "changeUser", Args: map[string]any{"label": "x"}},
			wantPass:  false,
		},
		{
			name:      "method_absent",
			assertion: scenario.Assertion{Method: "setAttributionData"},
			wantPass:  false,
		},
		{
			name:      "string_does_not_match_number",
			assertion: scenario.Assertion{Method: "logPurchase", Args: map[string]any{"price": "25.5"}},
			wantPass:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertCallsContain(trace, tt.assertion)
			if tt.wantPass {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertCallOrder(t *testing.T) {
	trace := sampleTrace()

	require.NoError(t, assertCallOrder(trace, scenario.Assertion{
		Methods: []string{"changeUser", "logPurchase", "flush"},
	}))

	err := assertCallOrder(trace, scenario.Assertion{
		Methods: []string{"logPurchase", "changeUser"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should be before")

	err = assertCallOrder(trace, scenario.Assertion{
		Methods: []string{"changeUser", "addAlias"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing method: addAlias")
}

func TestAssertCallCount(t *testing.T) {
	trace := sampleTrace()

	require.NoError(t, assertCallCount(trace, scenario.Assertion{Method: "flush", Count: 1}))
	require.NoError(t, assertCallCount(trace, scenario.Assertion{Method: "addAlias", Count: 0}))

	err := assertCallCount(trace, scenario.Assertion{Method: "changeUser", Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences of changeUser")
	assert.Contains(t, err.Error(), "1 occurrences")
}

func TestEvaluateAssertions_CollectsAllFailures(t *testing.T) {
	trace := sampleTrace()

	failures := EvaluateAssertions(trace, []scenario.Assertion{
		{Type: scenario.AssertCallCount, Method: "flush", Count: 1},
		{Type: scenario.AssertCallCount, Method: "flush", Count: 3},
		{Type: scenario.AssertCallsContain, Method: "addAlias"},
	})

	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "call_count")
	assert.Contains(t, failures[1], "calls_contain")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	failures := EvaluateAssertions(nil, []scenario.Assertion{{Type: "trace_contains"}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], `unknown assertion type "trace_contains"`)
}

func TestMatchArgs_EmptyExpected(t *testing.T) {
	assert.True(t, matchArgs(nil, nil))
	assert.True(t, matchArgs(map[string]any{"id": "u-1"}, nil))
	assert.False(t, matchArgs(nil, map[string]any{"id": "u-1"}))
}

func TestAssertionError_Format(t *testing.T) {
	err := assertCallsContain(sampleTrace(), scenario.Assertion{Method: "setAttributionData"})
	require.Error(t, err)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)

	msg := aerr.Error()
	assert.Contains(t, msg, "assertion failed: calls_contain")
	assert.Contains(t, msg, "expected: call setAttributionData")
	assert.Contains(t, msg, "actual: no matching call in trace")
	assert.Contains(t, msg, `[0] changeUser {"id":"u-1"}`)
	assert.Contains(t, msg, "[3] flush")
}
