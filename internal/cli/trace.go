package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meterline/brazekit/internal/braze"
	"github.com/meterline/brazekit/internal/tracelog"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunToken string // optional - show one run's calls instead of the listing
}

// RunTrace is the JSON projection of one logged run and its calls.
type RunTrace struct {
	Run   tracelog.Run `json:"run"`
	Calls []braze.Call `json:"calls"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace --db <path> [--run <token>]",
		Short: "Inspect the dispatch log",
		Long: `List logged simulator runs, or with --run print one run's recorded
boundary calls in seq order.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "dispatch log database (required)")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "show the calls of one run token")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// tracelog.Open would create an empty database at a bad path, so
	// check existence first for a readable error.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("dispatch log %s: %v", opts.Database, err), nil)
		return WrapExitError(ExitCommandError, "open dispatch log", err)
	}

	log, err := tracelog.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open dispatch log", err)
	}
	defer log.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunToken != "" {
		return traceOneRun(ctx, formatter, log, opts.RunToken)
	}
	return traceListing(ctx, formatter, log)
}

func traceOneRun(ctx context.Context, f *OutputFormatter, log *tracelog.Log, token string) error {
	run, err := log.ReadRun(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = f.Error(ErrCodeRunNotFound, fmt.Sprintf("run %q not found", token), nil)
			return NewExitError(ExitCommandError, "run not found")
		}
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read run", err)
	}
	calls, err := log.ReadCalls(ctx, token)
	if err != nil {
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read calls", err)
	}

	if f.Format == "json" {
		return f.SuccessJSON(RunTrace{Run: run, Calls: calls})
	}

	fmt.Fprintf(f.Writer, "run %s  scenario=%s  pass=%t  recorded=%s\n",
		run.Token, run.Scenario, run.Pass, run.RecordedAt)
	for _, call := range calls {
		if len(call.Args) == 0 {
			fmt.Fprintf(f.Writer, "  [%d] %s\n", call.Seq, call.Method)
			continue
		}
		args, err := json.Marshal(call.Args)
		if err != nil {
			fmt.Fprintf(f.Writer, "  [%d] %s <unencodable args>\n", call.Seq, call.Method)
			continue
		}
		fmt.Fprintf(f.Writer, "  [%d] %s %s\n", call.Seq, call.Method, args)
	}
	return nil
}

func traceListing(ctx context.Context, f *OutputFormatter, log *tracelog.Log) error {
	runs, err := log.ReadRuns(ctx)
	if err != nil {
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read runs", err)
	}

	if f.Format == "json" {
		return f.SuccessJSON(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "no runs recorded")
		return nil
	}
	for _, run := range runs {
		status := "pass"
		if !run.Pass {
			status = "fail"
		}
		fmt.Fprintf(f.Writer, "%s  %-4s  %s  %s\n", run.Token, status, run.Scenario, run.RecordedAt)
	}
	return nil
}
