package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meterline/brazekit/internal/scenario"
	"github.com/meterline/brazekit/internal/sim"
	"github.com/meterline/brazekit/internal/tracelog"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario against a recording client",
		Long: `Validate and execute one scenario file: a fresh destination instance is
wired to an in-memory recording client, the declared flow of identify/track
events is delivered, and the assertions are evaluated over the recorded
trace. With --db the run and its trace are appended to a dispatch log.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "dispatch log database to append the run to")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sc, err := scenario.Load(path)
	if err != nil {
		return scenarioLoadError(formatter, path, err)
	}
	formatter.VerboseLog("Loaded scenario %q (%d flow steps, %d assertions)",
		sc.Name, len(sc.Flow), len(sc.Assertions))

	result, err := sim.Run(sc)
	if err != nil {
		_ = formatter.Error(ErrCodeScenarioRun, err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario run failed", err)
	}

	if opts.Database != "" {
		if err := recordRun(cmd.Context(), opts.Database, result); err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "record run", err)
		}
		formatter.VerboseLog("Recorded run %s to %s", result.RunToken, opts.Database)
	}

	if err := outputRunResult(formatter, result); err != nil {
		return err
	}
	if !result.Pass {
		return NewExitError(ExitFailure,
			fmt.Sprintf("scenario %q failed %d assertion(s)", result.ScenarioName, len(result.Errors)))
	}
	return nil
}

func recordRun(ctx context.Context, path string, result *sim.Result) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log, err := tracelog.Open(path)
	if err != nil {
		return err
	}
	defer log.Close()
	return log.WriteRun(ctx, result)
}

func outputRunResult(f *OutputFormatter, result *sim.Result) error {
	if f.Format == "json" {
		status := "ok"
		if !result.Pass {
			status = "error"
		}
		resp := CLIResponse{Status: status, Data: result}
		if !result.Pass {
			resp.Error = &CLIError{
				Code:    ErrCodeAssertions,
				Message: fmt.Sprintf("%d assertion(s) failed", len(result.Errors)),
			}
		}
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if result.Pass {
		fmt.Fprintf(f.Writer, "✓ %s passed (%d calls, run %s)\n",
			result.ScenarioName, len(result.Trace), result.RunToken)
	} else {
		fmt.Fprintf(f.Writer, "✗ %s failed (run %s)\n", result.ScenarioName, result.RunToken)
		for _, msg := range result.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", msg)
		}
	}
	if f.Verbose {
		for _, call := range result.Trace {
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
	}
	return nil
}

// scenarioLoadError renders a load or validation failure. Validation
// problems exit 1, unreadable files exit 2.
func scenarioLoadError(f *OutputFormatter, path string, err error) error {
	var problems scenario.ValidationErrors
	if asValidationErrors(err, &problems) {
		_ = f.Error(problems[0].Code, fmt.Sprintf("%s: invalid scenario", path), problems)
		return WrapExitError(ExitFailure, "invalid scenario", err)
	}
	_ = f.Error(ErrCodeScenarioRead, err.Error(), nil)
	return WrapExitError(ExitCommandError, "load scenario", err)
}
