package sim

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterline/brazekit/internal/scenario"
)

// TestRunWithGolden_Scenarios executes the example scenarios in
// testdata/scenarios and compares their traces against golden files.
// The examples double as documentation of the call traces the
// destination emits.
func TestRunWithGolden_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		wantCalls int
	}{
		{name: "purchase_flow", wantCalls: 8},
		{name: "dedup_identify", wantCalls: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join("testdata", "scenarios", tt.name+".yaml")
			sc, err := scenario.Load(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, sc)
			require.NoError(t, err)

			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, tt.wantCalls)
		})
	}
}
