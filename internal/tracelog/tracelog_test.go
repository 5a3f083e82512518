package tracelog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/meterline/brazekit/internal/braze"
	"github.com/meterline/brazekit/internal/sim"
)

// openTestLog opens a log in a temp directory and closes it with the test.
func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// sampleResult builds a passing result with the recorder's arg shapes.
func sampleResult(token string) *sim.Result {
	return &sim.Result{
		ScenarioName: "purchase_flow",
		RunToken:     token,
		Pass:         true,
		Trace: []braze.Call{
			{Seq: 0, Method: "changeUser", Args: map[string]any{"id": "u-1"}},
			{Seq: 1, Method: "logPurchase", Args: map[string]any{
				"product_id": "sku-1",
				"currency":   "EUR",
				"price":      json.Number("25.5"),
				"quantity":   2,
				"properties": json.RawMessage(`{"color":"red"}`),
			}},
			{Seq: 2, Method: "flush"},
		},
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")

	for i := 0; i < 3; i++ {
		l, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		l.Close()
	}

	l, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer l.Close()

	for _, table := range []string{"runs", "calls"} {
		var name string
		err := l.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	if _, err := Open("/nonexistent/dir/trace.db"); err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	l := &Log{db: nil}
	if err := l.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	_ = l.Close()
}
