package tracelog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meterline/brazekit/internal/braze"
)

// Run is one logged simulator run.
type Run struct {
	Token      string `json:"token"`
	Scenario   string `json:"scenario"`
	Pass       bool   `json:"pass"`
	RecordedAt string `json:"recorded_at"`
}

// ReadRuns returns every logged run, oldest first. Ties on recording
// time break on the token so the listing is stable.
func (l *Log) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT token, scenario, pass, recorded_at
		FROM runs
		ORDER BY recorded_at ASC, token ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.Token, &run.Scenario, &run.Pass, &run.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if runs == nil {
		runs = []Run{}
	}
	return runs, nil
}

// ReadRun returns the run with the given token. The error wraps
// sql.ErrNoRows when the token was never recorded.
func (l *Log) ReadRun(ctx context.Context, token string) (Run, error) {
	var run Run
	err := l.db.QueryRowContext(ctx, `
		SELECT token, scenario, pass, recorded_at
		FROM runs
		WHERE token = ?
	`, token).Scan(&run.Token, &run.Scenario, &run.Pass, &run.RecordedAt)
	if err != nil {
		return Run{}, fmt.Errorf("read run %q: %w", token, err)
	}
	return run, nil
}

// ReadCalls returns the recorded calls of one run in seq order.
func (l *Log) ReadCalls(ctx context.Context, token string) ([]braze.Call, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, method, args
		FROM calls
		WHERE run_token = ?
		ORDER BY seq ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	var calls []braze.Call
	for rows.Next() {
		var call braze.Call
		var args sql.NullString
		if err := rows.Scan(&call.Seq, &call.Method, &args); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		if args.Valid {
			dec := json.NewDecoder(strings.NewReader(args.String))
			dec.UseNumber()
			if err := dec.Decode(&call.Args); err != nil {
				return nil, fmt.Errorf("decode args for seq %d: %w", call.Seq, err)
			}
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}

	if calls == nil {
		calls = []braze.Call{}
	}
	return calls, nil
}
