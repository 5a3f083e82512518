package tracelog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meterline/brazekit/internal/sim"
)

// WriteRun appends one simulator result: the run row plus every
// recorded call, in a single transaction. Uses ON CONFLICT DO NOTHING
// throughout, so re-recording the same run token changes nothing.
func (l *Log) WriteRun(ctx context.Context, result *sim.Result) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (token, scenario, pass, recorded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		result.RunToken,
		result.ScenarioName,
		result.Pass,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("write run: insert run: %w", err)
	}

	for _, call := range result.Trace {
		var args any
		if len(call.Args) > 0 {
			encoded, err := json.Marshal(call.Args)
			if err != nil {
				return fmt.Errorf("write run: marshal args for seq %d: %w", call.Seq, err)
			}
			args = string(encoded)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO calls (run_token, seq, method, args)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(run_token, seq) DO NOTHING
		`,
			result.RunToken,
			call.Seq,
			call.Method,
			args,
		)
		if err != nil {
			return fmt.Errorf("write run: insert call seq %d: %w", call.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}
